package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPlatform is returned for platform names outside the supported set.
var ErrUnknownPlatform = errors.New("unknown social platform")

// Platform identifies a supported social network.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformSpotify   Platform = "spotify"
	PlatformWebsite   Platform = "website"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{
	PlatformInstagram,
	PlatformWhatsApp,
	PlatformTikTok,
	PlatformFacebook,
	PlatformYouTube,
	PlatformTwitter,
	PlatformSpotify,
	PlatformWebsite,
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePlatform accepts a user-supplied platform name.
func ParsePlatform(name string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
	return p, nil
}

// SocialMediaProfile maps a platform to the handle or URL the user entered.
// A platform with an empty value is treated as absent.
type SocialMediaProfile map[Platform]string

// Normalize returns a copy without empty values or unknown platforms.
func (p SocialMediaProfile) Normalize() SocialMediaProfile {
	out := make(SocialMediaProfile, len(p))
	for k, v := range p {
		if !k.Valid() || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Get returns the stored value for platform, treating blanks as absent.
func (p SocialMediaProfile) Get(platform Platform) (string, bool) {
	v, ok := p[platform]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// CachedSocialRecord is the persisted, timestamped form of a profile.
type CachedSocialRecord struct {
	Data        SocialMediaProfile `json:"data"`
	LastUpdated int64              `json:"lastUpdated"` // unix milliseconds
	UserID      string             `json:"userId,omitempty"`
}
