package handlers

import (
	"errors"
	"net/http"

	"senadirectory/services/storage"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
)

type ArticleHandler struct {
	Store *storage.ArticleStore
}

func NewArticleHandler(store *storage.ArticleStore) *ArticleHandler {
	return &ArticleHandler{Store: store}
}

// GetArticleHandler returns the raw article text at the wildcard path.
func (h *ArticleHandler) GetArticleHandler(c *gin.Context) {
	body, err := h.Store.Fetch(c.Request.Context(), c.Param("path"))
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		utils.JSONError(c, http.StatusBadRequest, "invalid article path", c.Param("path"))
	case errors.Is(err, storage.ErrArticleNotFound):
		utils.JSONError(c, http.StatusNotFound, "article not found", c.Param("path"))
	case err != nil:
		utils.JSONError(c, http.StatusBadGateway, "failed to fetch article", err.Error())
	default:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
	}
}
