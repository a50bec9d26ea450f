package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	companyRepo "senadirectory/database/repository/company"
	"senadirectory/models"
	"senadirectory/services/registration"
	"senadirectory/services/search"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DirectoryHandler serves one-shot directory queries and profile lookups.
type DirectoryHandler struct {
	Repo         companyRepo.DirectoryRepository
	Registration *registration.Service
}

func NewDirectoryHandler(repo companyRepo.DirectoryRepository, reg *registration.Service) *DirectoryHandler {
	return &DirectoryHandler{Repo: repo, Registration: reg}
}

type searchQuery struct {
	Q    string `form:"q"`
	Mode string `form:"mode"`
	models.SearchFilters
}

// SearchCompaniesHandler runs a single directory query. Failures degrade to
// an empty result list.
func (h *DirectoryHandler) SearchCompaniesHandler(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid search parameters", err.Error())
		return
	}
	mode := search.ParseMode(q.Mode)
	criteria := models.SearchCriteria{Query: q.Q, SearchFilters: q.SearchFilters, Limit: mode.Limit()}

	results, err := h.Repo.Search(c.Request.Context(), criteria)
	if err != nil {
		getLogger(c).Warn("directory search failed", zap.String("query", q.Q), zap.Error(err))
		results = []models.Company{}
	}
	if results == nil {
		results = []models.Company{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results), "mode": mode.String()})
}

// SlugAvailabilityHandler normalizes the candidate and checks it against
// the directory.
func (h *DirectoryHandler) SlugAvailabilityHandler(c *gin.Context) {
	result, err := h.Registration.CheckUsername(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"slug": result.Slug, "status": result.Status, "available": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": result.Slug, "status": result.Status, "available": result.Available()})
}

// GetCompanyHandler returns a public profile and counts the visit.
func (h *DirectoryHandler) GetCompanyHandler(c *gin.Context) {
	slug := c.Param("slug")
	company, err := h.Repo.GetBySlug(c.Request.Context(), slug)
	if errors.Is(err, companyRepo.ErrNotFound) {
		utils.JSONError(c, http.StatusNotFound, "company not found", slug)
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load company", err.Error())
		return
	}

	logger := getLogger(c)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Repo.IncrementPopularity(ctx, slug); err != nil {
			logger.Warn("failed to record profile visit", zap.String("slug", slug), zap.Error(err))
		}
	}()
	c.JSON(http.StatusOK, company)
}
