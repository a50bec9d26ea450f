// Package storage fetches long-form article content from hosted object
// storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"senadirectory/database/kvstore"
	"senadirectory/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.uber.org/zap"
)

// MaxArticleBytes bounds a single article download.
const MaxArticleBytes = 2 << 20

var (
	ErrArticleNotFound = errors.New("storage: article not found")
	ErrInvalidPath     = errors.New("storage: invalid article path")
	ErrFetchFailed     = errors.New("storage: article download failed")
	ErrArticleTooLarge = errors.New("storage: article exceeds size limit")
)

// URLResolver maps an object path to a downloadable URL.
type URLResolver interface {
	URL(path string) (string, error)
}

// ResolverFunc adapts a function to URLResolver.
type ResolverFunc func(path string) (string, error)

func (f ResolverFunc) URL(path string) (string, error) { return f(path) }

// CloudinaryResolver builds raw delivery URLs for objects stored in Cloudinary.
type CloudinaryResolver struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryResolver creates a resolver from account credentials.
func NewCloudinaryResolver(cloudName, apiKey, apiSecret string) (*CloudinaryResolver, error) {
	if cloudName == "" {
		return nil, fmt.Errorf("storage: cloudinary cloud name not configured")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryResolver{cld: cld}, nil
}

// URL returns the secure raw delivery URL of path.
func (r *CloudinaryResolver) URL(path string) (string, error) {
	a, err := r.cld.Media(path)
	if err != nil {
		return "", fmt.Errorf("storage: failed to build asset: %w", err)
	}
	a.AssetType = "raw"
	url, err := a.String()
	if err != nil {
		return "", fmt.Errorf("storage: failed to build url: %w", err)
	}
	return url, nil
}

// ArticleStore downloads articles and keeps a copy in the key-value store.
type ArticleStore struct {
	resolver URLResolver
	client   *http.Client
	kv       kvstore.Store
	logger   *zap.Logger
}

// NewArticleStore creates a store. kv may be nil to disable caching.
func NewArticleStore(resolver URLResolver, kv kvstore.Store, logger *zap.Logger) *ArticleStore {
	return &ArticleStore{
		resolver: resolver,
		client:   &http.Client{Timeout: 15 * time.Second},
		kv:       kv,
		logger:   utils.OrNop(logger),
	}
}

func cleanPath(path string) (string, error) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" || part == "." || part == ".." {
			return "", ErrInvalidPath
		}
	}
	return path, nil
}

// Fetch returns the article stored at path.
func (s *ArticleStore) Fetch(ctx context.Context, path string) (string, error) {
	path, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	cacheKey := kvstore.Join(kvstore.KeyArticlePrefix, path)
	if s.kv != nil {
		if body, ok := s.kv.Read(ctx, cacheKey); ok {
			return body, nil
		}
	}

	url, err := s.resolver.URL(path)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("storage: article request failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrArticleNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		s.logger.Warn("storage: unexpected article status", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxArticleBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if len(data) > MaxArticleBytes {
		s.logger.Warn("storage: article too large", zap.String("path", path), zap.Int("limit", MaxArticleBytes))
		return "", ErrArticleTooLarge
	}
	body := string(data)

	if s.kv != nil {
		if err := s.kv.Write(ctx, cacheKey, body); err != nil {
			s.logger.Warn("storage: failed to cache article", zap.String("path", path), zap.Error(err))
		}
	}
	return body, nil
}
