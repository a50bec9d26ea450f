package registration

import (
	"context"
	"sync"
	"time"

	"senadirectory/utils"

	"go.uber.org/zap"
)

// SlugChecker is the availability RPC of the directory service.
type SlugChecker interface {
	IsSlugAvailable(ctx context.Context, slug string) (bool, error)
}

// AvailabilityStatus is the state of the username check.
type AvailabilityStatus string

const (
	StatusIdle      AvailabilityStatus = "idle"
	StatusInvalid   AvailabilityStatus = "invalid"
	StatusChecking  AvailabilityStatus = "checking"
	StatusAvailable AvailabilityStatus = "available"
	StatusTaken     AvailabilityStatus = "taken"
	StatusFailed    AvailabilityStatus = "failed"
)

// Availability is the outcome of checking one slug.
type Availability struct {
	Slug   string             `json:"slug"`
	Status AvailabilityStatus `json:"status"`
}

// Available reports whether the slug was confirmed free.
func (a Availability) Available() bool { return a.Status == StatusAvailable }

// AvailabilityChecker normalizes each username edit and, once the slug is
// well formed and input has settled, asks the directory whether it is free.
// Only the check for the latest edit may update the status.
type AvailabilityChecker struct {
	checker   SlugChecker
	logger    *zap.Logger
	debouncer *utils.Debouncer
	onChange  func(Availability)

	mu      sync.Mutex
	seq     uint64
	current Availability
	cancel  context.CancelFunc
}

// CheckerOption customizes an AvailabilityChecker.
type CheckerOption func(*AvailabilityChecker)

// WithCheckDebounce overrides the settle time before a check is issued.
func WithCheckDebounce(d time.Duration) CheckerOption {
	return func(a *AvailabilityChecker) { a.debouncer = utils.NewDebouncer(d) }
}

// WithOnChange registers a callback for status changes.
func WithOnChange(fn func(Availability)) CheckerOption {
	return func(a *AvailabilityChecker) { a.onChange = fn }
}

func NewAvailabilityChecker(checker SlugChecker, logger *zap.Logger, opts ...CheckerOption) *AvailabilityChecker {
	a := &AvailabilityChecker{
		checker:   checker,
		logger:    utils.OrNop(logger),
		debouncer: utils.NewDebouncer(utils.SlugCheckDebounce),
		current:   Availability{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// begin starts a new generation for slug, invalidating any pending or
// in-flight check.
func (a *AvailabilityChecker) begin(slug string, status AvailabilityStatus) uint64 {
	a.seq++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.current = Availability{Slug: slug, Status: status}
	return a.seq
}

// Edit records raw input and returns its normalized slug. A check is
// scheduled only for slugs that pass ValidateSlug.
func (a *AvailabilityChecker) Edit(raw string) string {
	slug := NormalizeSlug(raw)

	a.mu.Lock()
	if slug == "" {
		a.begin(slug, StatusIdle)
	} else if ValidateSlug(slug) != nil {
		a.begin(slug, StatusInvalid)
	} else {
		seq := a.begin(slug, StatusChecking)
		a.mu.Unlock()
		a.notify(Availability{Slug: slug, Status: StatusChecking})
		a.debouncer.Trigger(func() { a.check(seq, slug) })
		return slug
	}
	status := a.current
	a.mu.Unlock()

	a.debouncer.Cancel()
	a.notify(status)
	return slug
}

func (a *AvailabilityChecker) check(seq uint64, slug string) {
	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	status := a.query(ctx, slug)

	a.mu.Lock()
	if seq != a.seq {
		a.mu.Unlock()
		a.logger.Debug("registration: discarding stale availability result", zap.String("slug", slug))
		return
	}
	a.cancel = nil
	a.current = Availability{Slug: slug, Status: status}
	a.mu.Unlock()
	a.notify(Availability{Slug: slug, Status: status})
}

func (a *AvailabilityChecker) query(ctx context.Context, slug string) AvailabilityStatus {
	available, err := a.checker.IsSlugAvailable(ctx, slug)
	if err != nil {
		a.logger.Warn("registration: availability check failed", zap.String("slug", slug), zap.Error(err))
		return StatusFailed
	}
	if available {
		return StatusAvailable
	}
	return StatusTaken
}

func (a *AvailabilityChecker) notify(v Availability) {
	if a.onChange != nil {
		a.onChange(v)
	}
}

// CheckNow normalizes raw and checks it immediately, bypassing the debounce.
// The returned error is ErrInvalidSlug for malformed input; lookup failures
// are reported through StatusFailed.
func (a *AvailabilityChecker) CheckNow(ctx context.Context, raw string) (Availability, error) {
	slug := NormalizeSlug(raw)
	if err := ValidateSlug(slug); err != nil {
		return Availability{Slug: slug, Status: StatusInvalid}, err
	}

	a.debouncer.Cancel()
	a.mu.Lock()
	seq := a.begin(slug, StatusChecking)
	a.mu.Unlock()

	result := Availability{Slug: slug, Status: a.query(ctx, slug)}

	a.mu.Lock()
	if seq == a.seq {
		a.current = result
	}
	a.mu.Unlock()
	return result, nil
}

// Status returns the latest known availability.
func (a *AvailabilityChecker) Status() Availability {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Confirmed reports whether slug is the current input and was found free.
func (a *AvailabilityChecker) Confirmed(slug string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current.Slug == slug && a.current.Status == StatusAvailable
}

// Close drops any pending or in-flight check.
func (a *AvailabilityChecker) Close() {
	a.debouncer.Cancel()
	a.mu.Lock()
	a.seq++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()
}
