package handlers

import (
	"errors"
	"io"
	"net/http"

	"senadirectory/models"
	"senadirectory/services/email"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxImportBytes bounds an import payload.
const maxImportBytes = 4 << 20

// EmailHandler exposes the simulated outbox. When Queue is set, sends are
// handed to the background worker instead of running in the request.
type EmailHandler struct {
	Store *email.Store
	Queue email.Enqueuer
}

func NewEmailHandler(store *email.Store, queue email.Enqueuer) *EmailHandler {
	return &EmailHandler{Store: store, Queue: queue}
}

func (h *EmailHandler) ListHandler(c *gin.Context) {
	records := h.Store.ListAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"emails": records, "count": len(records)})
}

func (h *EmailHandler) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Stats(c.Request.Context()))
}

// send runs or enqueues a simulated send and writes the response.
func (h *EmailHandler) send(c *gin.Context, input models.EmailInput) {
	if input.UserAgent == "" {
		input.UserAgent = c.Request.UserAgent()
	}

	if h.Queue != nil {
		taskID, err := email.Enqueue(c.Request.Context(), h.Queue, input)
		if err == nil {
			c.JSON(http.StatusAccepted, gin.H{"taskId": taskID, "status": models.EmailStatusPending})
			return
		}
		getLogger(c).Warn("email queue unavailable, sending inline", zap.Error(err))
	}

	record, err := h.Store.SimulateSend(c.Request.Context(), input)
	switch {
	case errors.Is(err, email.ErrTransientSend):
		utils.JSONError(c, http.StatusServiceUnavailable, "email could not be sent, try again", err.Error())
	case errors.Is(err, email.ErrPersistFailed):
		utils.JSONError(c, http.StatusInsufficientStorage, "email sent but not recorded", err.Error())
	case err != nil:
		utils.JSONError(c, http.StatusInternalServerError, "email send failed", err.Error())
	default:
		c.JSON(http.StatusCreated, record)
	}
}

func (h *EmailHandler) SendHandler(c *gin.Context) {
	var input models.EmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid email", err.Error())
		return
	}
	h.send(c, input)
}

// ContactHandler renders a contact form submission and sends it.
func (h *EmailHandler) ContactHandler(c *gin.Context) {
	var msg models.ContactMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid contact message", err.Error())
		return
	}
	input, err := email.BuildContactEmail(msg, c.Request.UserAgent())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to render message", err.Error())
		return
	}
	h.send(c, input)
}

func (h *EmailHandler) ClearHandler(c *gin.Context) {
	h.Store.ClearAll(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *EmailHandler) ExportHandler(c *gin.Context) {
	data, err := h.Store.ExportJSON(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "export failed", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="sena_directory_emails.json"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(data))
}

// ImportHandler replaces the outbox with the request body.
func (h *EmailHandler) ImportHandler(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to read body", err.Error())
		return
	}
	err = h.Store.ImportJSON(c.Request.Context(), string(body))
	switch {
	case errors.Is(err, email.ErrMalformedImport):
		utils.JSONError(c, http.StatusUnprocessableEntity, "malformed import", err.Error())
	case err != nil:
		utils.JSONError(c, http.StatusInsufficientStorage, "import failed", err.Error())
	default:
		c.JSON(http.StatusOK, gin.H{"count": len(h.Store.ListAll(c.Request.Context()))})
	}
}
