package registration

import (
	"context"
	"sync"

	companyRepo "senadirectory/database/repository/company"
	"senadirectory/models"
)

type fakeDirectory struct {
	mu      sync.Mutex
	checks  []string
	created []*models.Company

	IsSlugAvailableFn func(ctx context.Context, slug string) (bool, error)
	CreateFn          func(ctx context.Context, c *models.Company) error
}

func (f *fakeDirectory) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	f.mu.Lock()
	f.checks = append(f.checks, slug)
	f.mu.Unlock()
	if f.IsSlugAvailableFn != nil {
		return f.IsSlugAvailableFn(ctx, slug)
	}
	return true, nil
}

func (f *fakeDirectory) Create(ctx context.Context, c *models.Company) error {
	if f.CreateFn != nil {
		if err := f.CreateFn(ctx, c); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, have := range f.created {
		if have.Slug == c.Slug {
			return companyRepo.ErrSlugTaken
		}
	}
	f.created = append(f.created, c)
	return nil
}

func (f *fakeDirectory) Checks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.checks...)
}
