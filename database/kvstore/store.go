// Package kvstore is the durable string key-value layer shared by the
// social link cache, the email log and the registration wizard.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Fixed keys of the persisted state layout.
const (
	KeySocialLinks   = "social_links"
	KeySocialCache   = "socialMediaCache"
	KeyUserData      = "userData"
	KeyEmailLog      = "sena_directory_emails"
	KeyRegistration  = "registration"
	KeyArticlePrefix = "article"
)

var (
	// ErrQuotaExceeded is reported when a write would exceed the store's capacity.
	ErrQuotaExceeded = errors.New("kvstore: quota exceeded")
	// ErrUnavailable wraps backend failures on write.
	ErrUnavailable = errors.New("kvstore: backend unavailable")
)

// Store is process-wide string storage. Concurrent read-modify-write
// sequences are not coordinated; the last write wins.
type Store interface {
	// Read returns the value and true, or false when the key is missing or
	// the backend failed. It never returns an error.
	Read(ctx context.Context, key string) (string, bool)
	// Write stores value under key and reports rejection by the backend.
	Write(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key string)
}

// ReadJSON decodes the value stored at key into v. Missing keys and
// undecodable values both report false; decode failures are logged.
func ReadJSON(ctx context.Context, s Store, logger *zap.Logger, key string, v any) bool {
	raw, ok := s.Read(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		if logger != nil {
			logger.Warn("kvstore: discarding undecodable value", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}
	return s.Write(ctx, key, string(data))
}

// Join builds a namespaced key from parts separated by ':'.
func Join(parts ...string) string {
	return strings.Join(parts, ":")
}
