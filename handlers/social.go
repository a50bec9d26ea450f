package handlers

import (
	"errors"
	"net/http"

	"senadirectory/models"
	"senadirectory/services/social"
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
)

// SocialHandler serves cached social link profiles.
type SocialHandler struct {
	Cache *social.Cache
}

func NewSocialHandler(cache *social.Cache) *SocialHandler {
	return &SocialHandler{Cache: cache}
}

// ownerParam resolves the :owner path segment; "me" is the caller.
func ownerParam(c *gin.Context) string {
	owner := c.Param("owner")
	if owner == "" || owner == "me" {
		return ownerFromContext(c)
	}
	return owner
}

// writableOwner returns the owner a mutating request may touch, aborting
// with 403 when the caller targets someone else's profile.
func writableOwner(c *gin.Context) (string, bool) {
	owner := ownerParam(c)
	if owner != ownerFromContext(c) {
		utils.JSONError(c, http.StatusForbidden, "cannot modify another owner's links", owner)
		return "", false
	}
	return owner, true
}

func parsePlatformParam(c *gin.Context) (models.Platform, bool) {
	p, err := models.ParsePlatform(c.Param("platform"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "unknown platform", c.Param("platform"))
		return "", false
	}
	return p, true
}

// GetProfileHandler returns the profile and the tier it came from.
func (h *SocialHandler) GetProfileHandler(c *gin.Context) {
	owner := ownerParam(c)
	profile, source := h.Cache.Snapshot(c.Request.Context(), owner)
	c.JSON(http.StatusOK, gin.H{"owner": owner, "links": profile, "source": source})
}

// SaveProfileHandler replaces the whole profile.
func (h *SocialHandler) SaveProfileHandler(c *gin.Context) {
	owner, ok := writableOwner(c)
	if !ok {
		return
	}
	var profile models.SocialMediaProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid profile", err.Error())
		return
	}
	for p := range profile {
		if !p.Valid() {
			utils.JSONError(c, http.StatusBadRequest, "unknown platform", string(p))
			return
		}
	}
	if !h.Cache.Save(c.Request.Context(), profile, owner) {
		utils.JSONError(c, http.StatusInsufficientStorage, "failed to save social links", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "links": h.Cache.Load(c.Request.Context(), owner)})
}

// UpdatePlatformHandler sets one platform value.
func (h *SocialHandler) UpdatePlatformHandler(c *gin.Context) {
	owner, ok := writableOwner(c)
	if !ok {
		return
	}
	platform, ok := parsePlatformParam(c)
	if !ok {
		return
	}
	var req struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !h.Cache.UpdatePlatform(c.Request.Context(), platform, req.Value, owner) {
		utils.JSONError(c, http.StatusInsufficientStorage, "failed to save social links", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "links": h.Cache.Load(c.Request.Context(), owner)})
}

// RemovePlatformHandler deletes one platform value.
func (h *SocialHandler) RemovePlatformHandler(c *gin.Context) {
	owner, ok := writableOwner(c)
	if !ok {
		return
	}
	platform, ok := parsePlatformParam(c)
	if !ok {
		return
	}
	if !h.Cache.RemovePlatform(c.Request.Context(), platform, owner) {
		utils.JSONError(c, http.StatusInsufficientStorage, "failed to save social links", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": owner, "links": h.Cache.Load(c.Request.Context(), owner)})
}

// ResolveHandler returns the outbound link for a platform. Unknown platform
// names answer 400 with "#" as the url.
func (h *SocialHandler) ResolveHandler(c *gin.Context) {
	url, err := h.Cache.ResolveURLString(c.Request.Context(), c.Param("platform"), ownerParam(c))
	if errors.Is(err, models.ErrUnknownPlatform) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"url": url, "error": err.Error()})
		return
	}
	if c.Query("redirect") == "true" && url != "#" {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ClearCacheHandler drops the in-memory tier. Persisted links remain and
// are reloaded on the next read.
func (h *SocialHandler) ClearCacheHandler(c *gin.Context) {
	h.Cache.Clear()
	c.Status(http.StatusNoContent)
}
