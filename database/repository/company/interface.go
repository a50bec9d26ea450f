package companyRepo

import (
	"context"
	"errors"

	"senadirectory/models"
)

var (
	// ErrSlugTaken is returned when creating a company whose slug already exists.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrNotFound is returned when no company matches.
	ErrNotFound = errors.New("company not found")
)

const (
	// InlineLimit caps search-as-you-type results.
	InlineLimit int64 = 10
	// PageLimit caps the full search page.
	PageLimit int64 = 50
)

// DirectoryRepository is the directory service consumed by search and registration.
type DirectoryRepository interface {
	// Search returns companies matching criteria, most popular first.
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Company, error)
	// IsSlugAvailable reports whether no company uses slug.
	IsSlugAvailable(ctx context.Context, slug string) (bool, error)
	// Create inserts a new company record.
	Create(ctx context.Context, company *models.Company) error
	// GetBySlug retrieves a company by its public slug.
	GetBySlug(ctx context.Context, slug string) (*models.Company, error)
	// IncrementPopularity bumps the popularity metric used for ordering.
	IncrementPopularity(ctx context.Context, slug string) error
}
