package handlers

import (
	"errors"
	"net/http"
	"time"

	"senadirectory/models"
	"senadirectory/services/search"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
)

// keepAliveEvery is how often an idle event stream gets a ping.
const keepAliveEvery = 15 * time.Second

// LiveSearchHandler exposes debounced search-as-you-type sessions.
type LiveSearchHandler struct {
	Hub *search.Hub
}

func NewLiveSearchHandler(hub *search.Hub) *LiveSearchHandler {
	return &LiveSearchHandler{Hub: hub}
}

type openLiveSearchRequest struct {
	Mode string `json:"mode"`
}

type liveSearchInput struct {
	Query   string               `json:"query"`
	Filters models.SearchFilters `json:"filters"`
}

func (h *LiveSearchHandler) sessionError(c *gin.Context, err error) {
	if errors.Is(err, search.ErrSessionNotFound) {
		utils.JSONError(c, http.StatusNotFound, "search session not found", c.Param("id"))
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, "search session error", err.Error())
}

// OpenHandler starts a session and returns its id.
func (h *LiveSearchHandler) OpenHandler(c *gin.Context) {
	var req openLiveSearchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}
	mode := search.ParseMode(req.Mode)
	id := h.Hub.Open(mode)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id, "mode": mode.String()})
}

// InputHandler applies the latest query and filters. Results arrive on the
// event stream once input settles.
func (h *LiveSearchHandler) InputHandler(c *gin.Context) {
	var in liveSearchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid search input", err.Error())
		return
	}
	if err := h.Hub.Input(c.Param("id"), in.Query, in.Filters); err != nil {
		h.sessionError(c, err)
		return
	}
	s, err := h.Hub.Searcher(c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"query": s.Query(), "loading": s.Loading()})
}

// StateHandler returns the session's current query, loading flag and results.
func (h *LiveSearchHandler) StateHandler(c *gin.Context) {
	s, err := h.Hub.Searcher(c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":          s.Query(),
		"debouncedQuery": s.DebouncedQuery(),
		"filters":        s.Filters(),
		"loading":        s.Loading(),
		"results":        s.Results(),
	})
}

// EventsHandler streams settled results as server-sent events.
func (h *LiveSearchHandler) EventsHandler(c *gin.Context) {
	id := c.Param("id")
	updates, err := h.Hub.Updates(id)
	if err != nil {
		h.sessionError(c, err)
		return
	}

	ticker := time.NewTicker(keepAliveEvery)
	defer ticker.Stop()
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("results", u)
		case <-ticker.C:
			// An attached stream counts as activity for the idle sweep.
			_ = h.Hub.Touch(id)
			c.SSEvent("ping", time.Now().Unix())
		case <-ctx.Done():
			return
		}
		c.Writer.Flush()
	}
}

// CloseHandler ends a session.
func (h *LiveSearchHandler) CloseHandler(c *gin.Context) {
	h.Hub.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}
