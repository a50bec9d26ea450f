// Package email keeps a bounded log of simulated outbound emails.
package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"senadirectory/database/kvstore"
	"senadirectory/models"
	"senadirectory/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxRecords bounds the stored log; older records are evicted first.
const MaxRecords = 100

var (
	// ErrPersistFailed is returned when a recorded email could not be stored.
	ErrPersistFailed = errors.New("email: failed to persist email log")
	// ErrMalformedImport is returned for import payloads that are not a record list.
	ErrMalformedImport = errors.New("email: malformed import payload")
	// ErrTransientSend is the simulated network failure of SimulateSend.
	ErrTransientSend = errors.New("email: transient send failure")
)

// Store is the email log. Every read-modify-write of the log inside this
// process is serialized; other processes sharing the key are not coordinated.
type Store struct {
	kv     kvstore.Store
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location

	failureRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	rngMu sync.Mutex
	rng   *rand.Rand

	mu sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithLocation sets the time zone used for "today" statistics.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithFailureRate sets the probability of a simulated send failing.
func WithFailureRate(rate float64) Option {
	return func(s *Store) { s.failureRate = rate }
}

// WithDelay sets the bounds of the simulated send latency.
func WithDelay(min, max time.Duration) Option {
	return func(s *Store) {
		s.minDelay, s.maxDelay = min, max
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRand replaces the random source used for latency and failures.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) { s.rng = rng }
}

// NewStore creates an email log over kv.
func NewStore(kv kvstore.Store, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		kv:          kv,
		logger:      utils.OrNop(logger),
		now:         time.Now,
		loc:         time.UTC,
		failureRate: 0.05,
		minDelay:    time.Second,
		maxDelay:    2 * time.Second,
		sleep:       sleepContext,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ListAll returns the log, newest first. Read or decode failures yield an
// empty list.
func (s *Store) ListAll(ctx context.Context) []models.StoredEmailRecord {
	records := []models.StoredEmailRecord{}
	if !kvstore.ReadJSON(ctx, s.kv, s.logger, kvstore.KeyEmailLog, &records) || records == nil {
		return []models.StoredEmailRecord{}
	}
	return records
}

func (s *Store) newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:9]
	return fmt.Sprintf("email_%d_%s", now.UnixMilli(), suffix)
}

// Record stores input as a sent email at the head of the log, keeping the
// newest MaxRecords entries. A failed write returns ErrPersistFailed.
func (s *Store) Record(ctx context.Context, input models.EmailInput) (models.StoredEmailRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	record := models.StoredEmailRecord{
		ID:          s.newID(now),
		To:          input.To,
		Subject:     input.Subject,
		Content:     input.Content,
		HTMLContent: input.HTMLContent,
		Timestamp:   now.UTC(),
		Status:      models.EmailStatusSent,
		Metadata: models.EmailMetadata{
			ContentLength: len(input.Content),
			UserAgent:     input.UserAgent,
		},
	}

	existing := s.ListAll(ctx)
	records := make([]models.StoredEmailRecord, 0, len(existing)+1)
	records = append(records, record)
	records = append(records, existing...)
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}

	if err := kvstore.WriteJSON(ctx, s.kv, kvstore.KeyEmailLog, records); err != nil {
		s.logger.Error("email: persisting log failed", zap.String("id", record.ID), zap.Error(err))
		return models.StoredEmailRecord{}, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	s.logger.Debug("email: recorded", zap.String("id", record.ID), zap.String("to", record.To))
	return record, nil
}

// SimulateSend waits a random 1-2s latency, fails with ErrTransientSend at
// the configured rate and otherwise records the email.
func (s *Store) SimulateSend(ctx context.Context, input models.EmailInput) (models.StoredEmailRecord, error) {
	s.rngMu.Lock()
	delay := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		delay += time.Duration(s.rng.Int63n(int64(span)))
	}
	fail := s.rng.Float64() < s.failureRate
	s.rngMu.Unlock()

	if err := s.sleep(ctx, delay); err != nil {
		return models.StoredEmailRecord{}, err
	}
	if fail {
		s.logger.Warn("email: simulated send failed", zap.String("to", input.To))
		return models.StoredEmailRecord{}, ErrTransientSend
	}
	return s.Record(ctx, input)
}

// Stats aggregates the log. "Today" compares calendar dates in the store's
// location; "this week" covers the trailing seven days.
func (s *Store) Stats(ctx context.Context) models.EmailStats {
	records := s.ListAll(ctx)
	now := s.now().In(s.loc)
	today := now.Format("2006-01-02")
	weekStart := now.Add(-7 * 24 * time.Hour)

	stats := models.EmailStats{
		Total: len(records),
		ByStatus: map[models.EmailStatus]int{
			models.EmailStatusSent:    0,
			models.EmailStatusPending: 0,
			models.EmailStatusFailed:  0,
		},
	}
	for _, r := range records {
		ts := r.Timestamp.In(s.loc)
		if ts.Format("2006-01-02") == today {
			stats.Today++
		}
		if !ts.Before(weekStart) {
			stats.ThisWeek++
		}
		if r.Status.Valid() {
			stats.ByStatus[r.Status]++
		}
	}
	return stats
}

// ClearAll removes the whole log.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv.Remove(ctx, kvstore.KeyEmailLog)
}

// ExportJSON returns the log as indented JSON.
func (s *Store) ExportJSON(ctx context.Context) (string, error) {
	data, err := json.MarshalIndent(s.ListAll(ctx), "", "  ")
	if err != nil {
		return "", fmt.Errorf("email: export failed: %w", err)
	}
	return string(data), nil
}

// ImportJSON replaces the log with the records in text. Malformed input
// returns ErrMalformedImport and leaves the stored log untouched.
func (s *Store) ImportJSON(ctx context.Context, text string) error {
	var records []models.StoredEmailRecord
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if records == nil {
		return fmt.Errorf("%w: expected a JSON array", ErrMalformedImport)
	}
	for i, r := range records {
		if !r.Status.Valid() {
			return fmt.Errorf("%w: record %d has unknown status %q", ErrMalformedImport, i, r.Status)
		}
	}
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := kvstore.WriteJSON(ctx, s.kv, kvstore.KeyEmailLog, records); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	s.logger.Info("email: log imported", zap.Int("records", len(records)))
	return nil
}
