package social

import (
	"strings"

	"senadirectory/models"
)

// ErrUnknownPlatform is returned when a platform name is outside the supported set.
var ErrUnknownPlatform = models.ErrUnknownPlatform

// platformLinks holds the URL prefix for a stored handle and the landing
// page used when the user has not provided one.
type platformLinks struct {
	Base     string
	Fallback string
}

var platformTable = map[models.Platform]platformLinks{
	models.PlatformInstagram: {Base: "https://instagram.com/", Fallback: "https://instagram.com"},
	models.PlatformWhatsApp:  {Base: "https://wa.me/", Fallback: "https://wa.me"},
	models.PlatformTikTok:    {Base: "https://tiktok.com/@", Fallback: "https://tiktok.com"},
	models.PlatformFacebook:  {Base: "https://facebook.com/", Fallback: "https://facebook.com"},
	models.PlatformYouTube:   {Base: "https://youtube.com/@", Fallback: "https://youtube.com"},
	models.PlatformTwitter:   {Base: "https://twitter.com/", Fallback: "https://twitter.com"},
	models.PlatformSpotify:   {Base: "https://open.spotify.com/artist/", Fallback: "https://open.spotify.com"},
	models.PlatformWebsite:   {Base: "", Fallback: "#"},
}

// BaseURL returns the canonical prefix for platform.
func BaseURL(platform models.Platform) string {
	return platformTable[platform].Base
}

// FallbackURL returns the landing page for platform, or "#" when unknown.
func FallbackURL(platform models.Platform) string {
	links, ok := platformTable[platform]
	if !ok {
		return "#"
	}
	return links.Fallback
}

func isAbsoluteURL(v string) bool {
	lower := strings.ToLower(v)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// cleanHandle strips surrounding whitespace and any leading '@'.
func cleanHandle(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimLeft(v, "@")
	return strings.TrimSpace(v)
}

// BuildURL turns a stored value into a link for platform.
func BuildURL(platform models.Platform, value string) string {
	if strings.TrimSpace(value) == "" {
		return FallbackURL(platform)
	}
	if isAbsoluteURL(strings.TrimSpace(value)) {
		return strings.TrimSpace(value)
	}
	links, ok := platformTable[platform]
	if !ok {
		return "#"
	}
	return links.Base + cleanHandle(value)
}
