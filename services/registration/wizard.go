package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"senadirectory/database/kvstore"
	companyRepo "senadirectory/database/repository/company"
	"senadirectory/models"
	"senadirectory/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxPlatforms caps the platform selection.
const MaxPlatforms = 5

// Persisted slices of a session, each under registration:<session>:<slice>.
const (
	sliceStep            = "step"
	sliceTemplate        = "template"
	slicePlatforms       = "platforms"
	sliceLinks           = "links"
	sliceAdditionalLinks = "additional_links"
	sliceIdentity        = "identity"
	sliceMeta            = "meta"
	sliceUsername        = "username"
)

var allSlices = []string{sliceStep, sliceTemplate, slicePlatforms, sliceLinks, sliceAdditionalLinks, sliceIdentity, sliceMeta, sliceUsername}

// CompanyCreator receives the finished registration.
type CompanyCreator interface {
	Create(ctx context.Context, company *models.Company) error
}

// Directory is the part of the directory service the wizard needs.
type Directory interface {
	SlugChecker
	CompanyCreator
}

type wizardMeta struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CompanyID string    `json:"companyId,omitempty"`
}

func sliceKey(sessionID, slice string) string {
	return kvstore.Join(kvstore.KeyRegistration, sessionID, slice)
}

// Wizard is one registration session. Every mutation is written to its
// slice before it becomes visible, so a reload resumes where it left off.
type Wizard struct {
	store  kvstore.Store
	dir    Directory
	logger *zap.Logger
	now    func() time.Time

	// availability, when set, is the session's live username checker.
	availability *AvailabilityChecker

	mu    sync.Mutex
	state models.RegistrationWizardState
}

// NewWizard binds a wizard to sessionID. Call Start or Resume before use.
func NewWizard(store kvstore.Store, dir Directory, sessionID string, logger *zap.Logger) *Wizard {
	return &Wizard{
		store:  store,
		dir:    dir,
		logger: utils.OrNop(logger),
		now:    time.Now,
		state:  emptyState(sessionID),
	}
}

func emptyState(sessionID string) models.RegistrationWizardState {
	return models.RegistrationWizardState{
		SessionID:       sessionID,
		Step:            models.StepTemplate,
		Platforms:       []models.Platform{},
		Links:           models.SocialMediaProfile{},
		AdditionalLinks: []models.AdditionalLink{},
	}
}

func cloneState(s models.RegistrationWizardState) models.RegistrationWizardState {
	out := s
	out.Platforms = append([]models.Platform{}, s.Platforms...)
	out.AdditionalLinks = append([]models.AdditionalLink{}, s.AdditionalLinks...)
	out.Links = make(models.SocialMediaProfile, len(s.Links))
	for k, v := range s.Links {
		out.Links[k] = v
	}
	return out
}

// Start writes a fresh session at the template step.
func (w *Wizard) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UTC()
	next := emptyState(w.state.SessionID)
	next.CreatedAt, next.UpdatedAt = now, now

	writes := []struct {
		slice string
		value any
	}{
		{sliceTemplate, ""},
		{slicePlatforms, next.Platforms},
		{sliceLinks, next.Links},
		{sliceAdditionalLinks, next.AdditionalLinks},
		{sliceIdentity, next.Identity},
		{sliceMeta, wizardMeta{CreatedAt: now, UpdatedAt: now}},
		{sliceStep, string(next.Step)},
	}
	for _, wr := range writes {
		if err := w.persist(ctx, next.SessionID, wr.slice, wr.value); err != nil {
			return err
		}
	}
	w.state = next
	return nil
}

// Resume rebuilds the state from the persisted slices. Undecodable slices
// are treated as empty.
func (w *Wizard) Resume(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.state.SessionID
	step, ok := w.store.Read(ctx, sliceKey(id, sliceStep))
	if !ok {
		return ErrSessionNotFound
	}

	next := emptyState(id)
	switch s := models.WizardStep(step); s {
	case models.StepTemplate, models.StepPlatforms, models.StepLinks, models.StepIdentity, models.StepComplete:
		next.Step = s
	default:
		w.logger.Warn("registration: unknown persisted step, restarting at template",
			zap.String("session", id), zap.String("step", step))
	}

	if tpl, ok := w.store.Read(ctx, sliceKey(id, sliceTemplate)); ok {
		next.TemplateID = tpl
	}

	var platforms []models.Platform
	if kvstore.ReadJSON(ctx, w.store, w.logger, sliceKey(id, slicePlatforms), &platforms) {
		for _, p := range platforms {
			if p.Valid() && !containsPlatform(next.Platforms, p) && len(next.Platforms) < MaxPlatforms {
				next.Platforms = append(next.Platforms, p)
			}
		}
	}

	var links models.SocialMediaProfile
	if kvstore.ReadJSON(ctx, w.store, w.logger, sliceKey(id, sliceLinks), &links) {
		next.Links = links.Normalize()
	}

	var additional []models.AdditionalLink
	if kvstore.ReadJSON(ctx, w.store, w.logger, sliceKey(id, sliceAdditionalLinks), &additional) && additional != nil {
		next.AdditionalLinks = additional
	}

	kvstore.ReadJSON(ctx, w.store, w.logger, sliceKey(id, sliceIdentity), &next.Identity)

	var meta wizardMeta
	if kvstore.ReadJSON(ctx, w.store, w.logger, sliceKey(id, sliceMeta), &meta) {
		next.CreatedAt, next.UpdatedAt, next.CompanyID = meta.CreatedAt, meta.UpdatedAt, meta.CompanyID
	}

	w.state = next
	return nil
}

func (w *Wizard) persist(ctx context.Context, sessionID, slice string, v any) error {
	key := sliceKey(sessionID, slice)
	var err error
	if s, ok := v.(string); ok {
		err = w.store.Write(ctx, key, s)
	} else {
		err = kvstore.WriteJSON(ctx, w.store, key, v)
	}
	if err != nil {
		w.logger.Error("registration: failed to persist wizard slice", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("registration: persist %s: %w", slice, err)
	}
	return nil
}

func (w *Wizard) touch(ctx context.Context, next *models.RegistrationWizardState) {
	next.UpdatedAt = w.now().UTC()
	meta := wizardMeta{CreatedAt: next.CreatedAt, UpdatedAt: next.UpdatedAt, CompanyID: next.CompanyID}
	// Timestamps are informational; a failed write here does not undo the step.
	_ = w.persist(ctx, next.SessionID, sliceMeta, meta)
}

// mutate applies fn to a copy of the state, persists the returned slice
// value and only then publishes the copy.
func (w *Wizard) mutate(ctx context.Context, slice string, fn func(next *models.RegistrationWizardState) (any, error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Step == models.StepComplete {
		return ErrFlowComplete
	}
	next := cloneState(w.state)
	value, err := fn(&next)
	if err != nil {
		return err
	}
	if err := w.persist(ctx, next.SessionID, slice, value); err != nil {
		return err
	}
	w.touch(ctx, &next)
	w.state = next
	return nil
}

// State returns a copy of the current state.
func (w *Wizard) State() models.RegistrationWizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneState(w.state)
}

// SelectTemplate records the chosen template.
func (w *Wizard) SelectTemplate(ctx context.Context, templateID string) error {
	return w.mutate(ctx, sliceTemplate, func(next *models.RegistrationWizardState) (any, error) {
		next.TemplateID = strings.TrimSpace(templateID)
		return next.TemplateID, nil
	})
}

func containsPlatform(list []models.Platform, p models.Platform) bool {
	for _, have := range list {
		if have == p {
			return true
		}
	}
	return false
}

// TogglePlatform adds p to the selection or removes it if present. Adding a
// sixth platform fails with ErrPlatformLimit and leaves the selection as is.
func (w *Wizard) TogglePlatform(ctx context.Context, p models.Platform) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownPlatform, string(p))
	}
	return w.mutate(ctx, slicePlatforms, func(next *models.RegistrationWizardState) (any, error) {
		if containsPlatform(next.Platforms, p) {
			kept := next.Platforms[:0]
			for _, have := range next.Platforms {
				if have != p {
					kept = append(kept, have)
				}
			}
			next.Platforms = kept
			return next.Platforms, nil
		}
		if len(next.Platforms) >= MaxPlatforms {
			return nil, ErrPlatformLimit
		}
		next.Platforms = append(next.Platforms, p)
		return next.Platforms, nil
	})
}

// SetPlatforms replaces the selection. Duplicates are ignored.
func (w *Wizard) SetPlatforms(ctx context.Context, platforms []models.Platform) error {
	selected := make([]models.Platform, 0, len(platforms))
	for _, p := range platforms {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", models.ErrUnknownPlatform, string(p))
		}
		if !containsPlatform(selected, p) {
			selected = append(selected, p)
		}
	}
	if len(selected) > MaxPlatforms {
		return ErrPlatformLimit
	}
	return w.mutate(ctx, slicePlatforms, func(next *models.RegistrationWizardState) (any, error) {
		next.Platforms = selected
		return next.Platforms, nil
	})
}

// SetLink stores the handle or URL for a selected platform. An empty value
// clears it.
func (w *Wizard) SetLink(ctx context.Context, p models.Platform, value string) error {
	return w.SetLinks(ctx, models.SocialMediaProfile{p: value})
}

// SetLinks merges values for selected platforms into the links slice.
func (w *Wizard) SetLinks(ctx context.Context, links models.SocialMediaProfile) error {
	return w.mutate(ctx, sliceLinks, func(next *models.RegistrationWizardState) (any, error) {
		for p, v := range links {
			if !p.Valid() {
				return nil, fmt.Errorf("%w: %q", models.ErrUnknownPlatform, string(p))
			}
			if !containsPlatform(next.Platforms, p) {
				return nil, fmt.Errorf("%w: %s", ErrNotSelected, p)
			}
			if v = strings.TrimSpace(v); v == "" {
				delete(next.Links, p)
			} else {
				next.Links[p] = v
			}
		}
		return next.Links, nil
	})
}

// AddAdditionalLink appends a free-form link.
func (w *Wizard) AddAdditionalLink(ctx context.Context, link models.AdditionalLink) error {
	link.Title = strings.TrimSpace(link.Title)
	link.URL = strings.TrimSpace(link.URL)
	if link.URL == "" {
		return ErrInvalidLink
	}
	return w.mutate(ctx, sliceAdditionalLinks, func(next *models.RegistrationWizardState) (any, error) {
		next.AdditionalLinks = append(next.AdditionalLinks, link)
		return next.AdditionalLinks, nil
	})
}

// RemoveAdditionalLink drops the link at index.
func (w *Wizard) RemoveAdditionalLink(ctx context.Context, index int) error {
	return w.mutate(ctx, sliceAdditionalLinks, func(next *models.RegistrationWizardState) (any, error) {
		if index < 0 || index >= len(next.AdditionalLinks) {
			return nil, fmt.Errorf("%w: no link at index %d", ErrInvalidLink, index)
		}
		next.AdditionalLinks = append(next.AdditionalLinks[:index], next.AdditionalLinks[index+1:]...)
		return next.AdditionalLinks, nil
	})
}

// SetIdentity stores the identity fields with the username normalized to a
// slug and checks its availability right away. The result of that check is
// returned; a malformed or taken username is not an error here but keeps
// the identity step from completing.
func (w *Wizard) SetIdentity(ctx context.Context, identity models.RegistrationIdentity) (Availability, error) {
	identity.DisplayName = strings.TrimSpace(identity.DisplayName)
	identity.Email = strings.TrimSpace(identity.Email)

	checker := w.availability
	if checker == nil {
		checker = NewAvailabilityChecker(w.dir, w.logger)
	}
	result, err := checker.CheckNow(ctx, identity.Username)
	if err != nil && !errors.Is(err, ErrInvalidSlug) {
		return result, err
	}
	identity.Username = result.Slug
	identity.UsernameConfirmed = result.Available()

	err = w.mutate(ctx, sliceIdentity, func(next *models.RegistrationWizardState) (any, error) {
		next.Identity = identity
		return next.Identity, nil
	})
	return result, err
}

func stepValid(s models.RegistrationWizardState) bool {
	switch s.Step {
	case models.StepTemplate:
		return s.TemplateID != ""
	case models.StepPlatforms:
		return len(s.Platforms) >= 1 && len(s.Platforms) <= MaxPlatforms
	case models.StepLinks:
		for _, p := range s.Platforms {
			if strings.TrimSpace(s.Links[p]) == "" {
				return false
			}
		}
		return true
	case models.StepIdentity:
		id := s.Identity
		return id.DisplayName != "" && id.Email != "" && ValidateSlug(id.Username) == nil && id.UsernameConfirmed
	}
	return false
}

// CanContinue reports whether the current step's input is complete.
func (w *Wizard) CanContinue() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return stepValid(w.state)
}

// CanSkip reports whether the current step may be skipped. Only platform
// selection can be skipped, regardless of how many platforms are selected.
func (w *Wizard) CanSkip() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Step == models.StepPlatforms
}

var nextStep = map[models.WizardStep]models.WizardStep{
	models.StepTemplate:  models.StepPlatforms,
	models.StepPlatforms: models.StepLinks,
	models.StepLinks:     models.StepIdentity,
}

var prevStep = map[models.WizardStep]models.WizardStep{
	models.StepPlatforms: models.StepTemplate,
	models.StepLinks:     models.StepPlatforms,
	models.StepIdentity:  models.StepLinks,
}

// Continue moves one step forward once the current step is valid. The
// identity step is left through Complete.
func (w *Wizard) Continue(ctx context.Context) error {
	return w.mutate(ctx, sliceStep, func(next *models.RegistrationWizardState) (any, error) {
		to, ok := nextStep[next.Step]
		if !ok {
			return nil, fmt.Errorf("%w: %s is finished with Complete", ErrStepInvalid, next.Step)
		}
		if !stepValid(*next) {
			return nil, fmt.Errorf("%w: %s", ErrStepInvalid, next.Step)
		}
		next.Step = to
		return string(to), nil
	})
}

// Back moves one step backward without validating. It is a no-op on the
// first step.
func (w *Wizard) Back(ctx context.Context) error {
	return w.mutate(ctx, sliceStep, func(next *models.RegistrationWizardState) (any, error) {
		if to, ok := prevStep[next.Step]; ok {
			next.Step = to
		}
		return string(next.Step), nil
	})
}

// Skip jumps from platform selection straight to identity.
func (w *Wizard) Skip(ctx context.Context) error {
	return w.mutate(ctx, sliceStep, func(next *models.RegistrationWizardState) (any, error) {
		if next.Step != models.StepPlatforms {
			return nil, fmt.Errorf("%w: %s cannot be skipped", ErrStepInvalid, next.Step)
		}
		next.Step = models.StepIdentity
		return string(next.Step), nil
	})
}

// Complete hands the accumulated state to the directory as a new company
// owned by ownerID. The username is checked again immediately before.
func (w *Wizard) Complete(ctx context.Context, ownerID string) (*models.Company, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state.Step == models.StepComplete {
		return nil, ErrFlowComplete
	}
	if w.state.Step != models.StepIdentity || !stepValid(w.state) {
		return nil, fmt.Errorf("%w: %s", ErrStepInvalid, w.state.Step)
	}

	next := cloneState(w.state)
	slug := next.Identity.Username

	available, err := w.dir.IsSlugAvailable(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("registration: availability check: %w", err)
	}
	if !available {
		w.revokeUsername(ctx, next)
		return nil, ErrSlugUnavailable
	}

	now := w.now().UTC()
	links := make(models.SocialMediaProfile, len(next.Platforms))
	for _, p := range next.Platforms {
		if v := next.Links[p]; v != "" {
			links[p] = v
		}
	}
	company := &models.Company{
		ID:              uuid.New().String(),
		Slug:            slug,
		Name:            next.Identity.DisplayName,
		Email:           next.Identity.Email,
		TemplateID:      next.TemplateID,
		SocialLinks:     links,
		AdditionalLinks: next.AdditionalLinks,
		OwnerID:         ownerID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := w.dir.Create(ctx, company); err != nil {
		if errors.Is(err, companyRepo.ErrSlugTaken) {
			w.revokeUsername(ctx, next)
			return nil, ErrSlugUnavailable
		}
		return nil, fmt.Errorf("registration: create company: %w", err)
	}

	next.Step = models.StepComplete
	next.CompanyID = company.ID
	if err := w.persist(ctx, next.SessionID, sliceStep, string(next.Step)); err != nil {
		w.logger.Error("registration: company created but session not marked complete",
			zap.String("session", next.SessionID), zap.String("company", company.ID))
	}
	w.touch(ctx, &next)
	w.state = next
	w.storeUserData(ctx, ownerID, company)

	w.logger.Info("registration: completed",
		zap.String("session", next.SessionID), zap.String("slug", slug), zap.String("owner", ownerID))
	return company, nil
}

// revokeUsername clears the confirmation after the directory reported the
// username as taken. Caller holds w.mu.
func (w *Wizard) revokeUsername(ctx context.Context, next models.RegistrationWizardState) {
	next.Identity.UsernameConfirmed = false
	if err := w.persist(ctx, next.SessionID, sliceIdentity, next.Identity); err != nil {
		return
	}
	w.state.Identity = next.Identity
}

// UserDataKey is where the registration summary of ownerID is kept.
func UserDataKey(ownerID string) string {
	if ownerID == "" || ownerID == utils.DefaultOwnerID {
		return kvstore.KeyUserData
	}
	return kvstore.Join(kvstore.KeyUserData, ownerID)
}

// storeUserData records the registration summary for the owner. Failure is
// logged only; the company already exists.
func (w *Wizard) storeUserData(ctx context.Context, ownerID string, company *models.Company) {
	data := models.UserData{
		OwnerID:     ownerID,
		DisplayName: company.Name,
		Email:       company.Email,
		Username:    company.Slug,
		CompanyID:   company.ID,
		CreatedAt:   company.CreatedAt,
	}
	if err := kvstore.WriteJSON(ctx, w.store, UserDataKey(ownerID), data); err != nil {
		w.logger.Warn("registration: failed to store user data", zap.String("owner", ownerID), zap.Error(err))
	}
}
