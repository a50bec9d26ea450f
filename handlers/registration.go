package handlers

import (
	"errors"
	"net/http"

	"senadirectory/database/kvstore"
	"senadirectory/models"
	"senadirectory/services/registration"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegistrationHandler drives wizard sessions over HTTP.
type RegistrationHandler struct {
	Svc *registration.Service
}

func NewRegistrationHandler(svc *registration.Service) *RegistrationHandler {
	return &RegistrationHandler{Svc: svc}
}

type wizardResponse struct {
	State       models.RegistrationWizardState `json:"state"`
	CanContinue bool                           `json:"canContinue"`
	CanSkip     bool                           `json:"canSkip"`
}

func respondWizard(c *gin.Context, status int, w *registration.Wizard) {
	c.JSON(status, wizardResponse{State: w.State(), CanContinue: w.CanContinue(), CanSkip: w.CanSkip()})
}

// wizardError maps registration errors to HTTP statuses.
func wizardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, registration.ErrSessionNotFound):
		utils.JSONError(c, http.StatusNotFound, "registration session not found", c.Param("id"))
	case errors.Is(err, registration.ErrFlowComplete), errors.Is(err, registration.ErrSlugUnavailable):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, registration.ErrStepInvalid),
		errors.Is(err, registration.ErrPlatformLimit),
		errors.Is(err, registration.ErrInvalidSlug),
		errors.Is(err, registration.ErrNotSelected),
		errors.Is(err, registration.ErrInvalidLink),
		errors.Is(err, models.ErrUnknownPlatform):
		utils.JSONError(c, http.StatusUnprocessableEntity, err.Error(), "")
	case errors.Is(err, kvstore.ErrQuotaExceeded):
		utils.JSONError(c, http.StatusInsufficientStorage, "failed to save progress", err.Error())
	default:
		getLogger(c).Error("registration request failed", zap.String("session", c.Param("id")), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "registration failed", err.Error())
	}
}

// withWizard resumes the session named in the path and passes it to fn.
func (h *RegistrationHandler) withWizard(c *gin.Context, fn func(w *registration.Wizard) error) {
	w, err := h.Svc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	if err := fn(w); err != nil {
		wizardError(c, err)
		return
	}
	respondWizard(c, http.StatusOK, w)
}

// StartHandler opens a new session.
func (h *RegistrationHandler) StartHandler(c *gin.Context) {
	w, err := h.Svc.Start(c.Request.Context())
	if err != nil {
		wizardError(c, err)
		return
	}
	respondWizard(c, http.StatusCreated, w)
}

// GetHandler returns the persisted state of a session.
func (h *RegistrationHandler) GetHandler(c *gin.Context) {
	h.withWizard(c, func(*registration.Wizard) error { return nil })
}

func (h *RegistrationHandler) TemplateHandler(c *gin.Context) {
	var req struct {
		TemplateID string `json:"templateId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	h.withWizard(c, func(w *registration.Wizard) error {
		return w.SelectTemplate(c.Request.Context(), req.TemplateID)
	})
}

// PlatformsHandler replaces the selection, or toggles one platform when
// "toggle" is given.
func (h *RegistrationHandler) PlatformsHandler(c *gin.Context) {
	var req struct {
		Platforms []models.Platform `json:"platforms"`
		Toggle    models.Platform   `json:"toggle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	h.withWizard(c, func(w *registration.Wizard) error {
		if req.Toggle != "" {
			return w.TogglePlatform(c.Request.Context(), req.Toggle)
		}
		return w.SetPlatforms(c.Request.Context(), req.Platforms)
	})
}

// LinksHandler merges platform links and adds or removes one additional link.
func (h *RegistrationHandler) LinksHandler(c *gin.Context) {
	var req struct {
		Links           models.SocialMediaProfile `json:"links"`
		AddLink         *models.AdditionalLink    `json:"addLink"`
		RemoveLinkIndex *int                      `json:"removeLinkIndex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	h.withWizard(c, func(w *registration.Wizard) error {
		ctx := c.Request.Context()
		if len(req.Links) > 0 {
			if err := w.SetLinks(ctx, req.Links); err != nil {
				return err
			}
		}
		if req.AddLink != nil {
			if err := w.AddAdditionalLink(ctx, *req.AddLink); err != nil {
				return err
			}
		}
		if req.RemoveLinkIndex != nil {
			return w.RemoveAdditionalLink(ctx, *req.RemoveLinkIndex)
		}
		return nil
	})
}

func (h *RegistrationHandler) IdentityHandler(c *gin.Context) {
	var req struct {
		DisplayName string `json:"displayName"`
		Email       string `json:"email" binding:"omitempty,email"`
		Username    string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	var availability registration.Availability
	h.withWizard(c, func(w *registration.Wizard) error {
		var err error
		availability, err = w.SetIdentity(c.Request.Context(), models.RegistrationIdentity{
			DisplayName: req.DisplayName,
			Email:       req.Email,
			Username:    req.Username,
		})
		if err == nil {
			c.Header("X-Username-Status", string(availability.Status))
		}
		return err
	})
}

// UsernameHandler feeds one username keystroke to the session's debounced
// availability checker. The lookup result is read with UsernameStatusHandler.
func (h *RegistrationHandler) UsernameHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	availability, err := h.Svc.EditUsername(c.Request.Context(), c.Param("id"), req.Username)
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, availability)
}

// UsernameStatusHandler returns the latest username availability of a session.
func (h *RegistrationHandler) UsernameStatusHandler(c *gin.Context) {
	availability, err := h.Svc.UsernameStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *RegistrationHandler) ContinueHandler(c *gin.Context) {
	h.withWizard(c, func(w *registration.Wizard) error { return w.Continue(c.Request.Context()) })
}

func (h *RegistrationHandler) BackHandler(c *gin.Context) {
	h.withWizard(c, func(w *registration.Wizard) error { return w.Back(c.Request.Context()) })
}

func (h *RegistrationHandler) SkipHandler(c *gin.Context) {
	h.withWizard(c, func(w *registration.Wizard) error { return w.Skip(c.Request.Context()) })
}

// CompleteHandler creates the company for the authenticated owner.
func (h *RegistrationHandler) CompleteHandler(c *gin.Context) {
	w, err := h.Svc.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		wizardError(c, err)
		return
	}
	company, err := w.Complete(c.Request.Context(), ownerFromContext(c))
	if err != nil {
		wizardError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"company": company, "state": w.State()})
}

// UserDataHandler returns the registration summary of the caller.
func (h *RegistrationHandler) UserDataHandler(c *gin.Context) {
	data, ok := h.Svc.UserData(c.Request.Context(), ownerFromContext(c))
	if !ok {
		utils.JSONError(c, http.StatusNotFound, "no registration for this account", "")
		return
	}
	c.JSON(http.StatusOK, data)
}
