package registration

import (
	"context"
	"sync"
	"time"

	"senadirectory/database/kvstore"
	"senadirectory/models"
	"senadirectory/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// usernameIdleTTL is how long a session's username checker outlives its last edit.
const usernameIdleTTL = 30 * time.Minute

type usernameSession struct {
	checker  *AvailabilityChecker
	lastSeen time.Time
}

// Service manages wizard sessions for the HTTP API. Each request works on a
// wizard resumed from the store; concurrent requests on one session are
// last-write-wins per slice. Username edits go through one debounced
// checker per session.
type Service struct {
	store         kvstore.Store
	dir           Directory
	logger        *zap.Logger
	checkDebounce time.Duration
	idleTTL       time.Duration
	now           func() time.Time

	mu        sync.Mutex
	usernames map[string]*usernameSession
}

func NewService(store kvstore.Store, dir Directory, logger *zap.Logger) *Service {
	return &Service{
		store:         store,
		dir:           dir,
		logger:        utils.OrNop(logger),
		checkDebounce: utils.SlugCheckDebounce,
		idleTTL:       usernameIdleTTL,
		now:           time.Now,
		usernames:     make(map[string]*usernameSession),
	}
}

// Start opens a new session at the template step.
func (s *Service) Start(ctx context.Context) (*Wizard, error) {
	w := NewWizard(s.store, s.dir, uuid.New().String(), s.logger)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	s.logger.Debug("registration: session started", zap.String("session", w.State().SessionID))
	return w, nil
}

// Open resumes session id.
func (s *Service) Open(ctx context.Context, id string) (*Wizard, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	w := NewWizard(s.store, s.dir, id, s.logger)
	if err := w.Resume(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if sess, ok := s.usernames[id]; ok {
		w.availability = sess.checker
	}
	s.mu.Unlock()
	return w, nil
}

// State returns the persisted state of session id.
func (s *Service) State(ctx context.Context, id string) (models.RegistrationWizardState, error) {
	w, err := s.Open(ctx, id)
	if err != nil {
		return models.RegistrationWizardState{}, err
	}
	return w.State(), nil
}

// Discard removes every slice of session id.
func (s *Service) Discard(ctx context.Context, id string) {
	s.dropUsername(id)
	for _, slice := range allSlices {
		s.store.Remove(ctx, sliceKey(id, slice))
	}
}

// CheckUsername normalizes raw and asks the directory whether it is free.
func (s *Service) CheckUsername(ctx context.Context, raw string) (Availability, error) {
	return NewAvailabilityChecker(s.dir, s.logger).CheckNow(ctx, raw)
}

// EditUsername feeds one username keystroke of session id to its checker and
// returns the status right after the edit. The lookup runs once input has
// settled; its outcome is persisted and read back with UsernameStatus.
func (s *Service) EditUsername(ctx context.Context, id, raw string) (Availability, error) {
	if _, err := s.Open(ctx, id); err != nil {
		return Availability{}, err
	}

	s.mu.Lock()
	sess, ok := s.usernames[id]
	if !ok {
		sess = &usernameSession{}
		sess.checker = NewAvailabilityChecker(s.dir, s.logger,
			WithCheckDebounce(s.checkDebounce),
			WithOnChange(func(a Availability) { s.persistUsername(id, a) }),
		)
		s.usernames[id] = sess
	}
	sess.lastSeen = s.now()
	s.mu.Unlock()

	sess.checker.Edit(raw)
	return sess.checker.Status(), nil
}

func (s *Service) persistUsername(id string, a Availability) {
	if err := kvstore.WriteJSON(context.Background(), s.store, sliceKey(id, sliceUsername), a); err != nil {
		s.logger.Warn("registration: failed to persist username status", zap.String("session", id), zap.Error(err))
	}
}

// UsernameStatus returns the latest username check of session id.
func (s *Service) UsernameStatus(ctx context.Context, id string) (Availability, error) {
	s.mu.Lock()
	sess, ok := s.usernames[id]
	s.mu.Unlock()
	if ok {
		return sess.checker.Status(), nil
	}

	if _, err := s.Open(ctx, id); err != nil {
		return Availability{}, err
	}
	status := Availability{Status: StatusIdle}
	kvstore.ReadJSON(ctx, s.store, s.logger, sliceKey(id, sliceUsername), &status)
	return status, nil
}

func (s *Service) dropUsername(id string) {
	s.mu.Lock()
	sess, ok := s.usernames[id]
	delete(s.usernames, id)
	s.mu.Unlock()
	if ok {
		sess.checker.Close()
	}
}

// Sweep closes username checkers idle for longer than the service's TTL and
// returns how many were closed.
func (s *Service) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)
	var stale []*usernameSession

	s.mu.Lock()
	for id, sess := range s.usernames {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess)
			delete(s.usernames, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.checker.Close()
	}
	return len(stale)
}

// StartJanitor sweeps idle username checkers every interval until ctx is done.
func (s *Service) StartJanitor(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// UserData returns the registration summary of ownerID, if any.
func (s *Service) UserData(ctx context.Context, ownerID string) (models.UserData, bool) {
	var data models.UserData
	ok := kvstore.ReadJSON(ctx, s.store, s.logger, UserDataKey(ownerID), &data)
	return data, ok
}
