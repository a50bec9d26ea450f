package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"senadirectory/models"
	"senadirectory/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired live sessions.
var ErrSessionNotFound = errors.New("search: live session not found")

const updateBuffer = 8

type liveSession struct {
	searcher *Searcher
	updates  chan Update

	mu       sync.Mutex
	closed   bool
	lastSeen time.Time
}

// push delivers u without blocking; when the buffer is full the oldest
// undelivered update is dropped.
func (l *liveSession) push(u Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.updates <- u:
		return
	default:
	}
	select {
	case <-l.updates:
	default:
	}
	select {
	case l.updates <- u:
	default:
	}
}

func (l *liveSession) close() {
	l.searcher.Close()
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.updates)
	}
}

// Hub owns the live search sessions of the HTTP API.
type Hub struct {
	dir      Directory
	logger   *zap.Logger
	idleTTL  time.Duration
	debounce time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewHub creates a hub; sessions idle for longer than idleTTL are evicted by Sweep.
func NewHub(dir Directory, idleTTL time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		dir:      dir,
		logger:   utils.OrNop(logger),
		idleTTL:  idleTTL,
		debounce: utils.SearchDebounce,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
}

// Open starts a session and returns its id.
func (h *Hub) Open(mode Mode) string {
	id := uuid.New().String()
	sess := &liveSession{updates: make(chan Update, updateBuffer), lastSeen: h.now()}
	sess.searcher = NewSearcher(h.dir, mode, h.logger, WithDebounce(h.debounce), WithOnResults(sess.push))

	h.mu.Lock()
	h.sessions[id] = sess
	h.mu.Unlock()
	h.logger.Debug("search: live session opened", zap.String("session", id), zap.Stringer("mode", mode))
	return id
}

func (h *Hub) get(id string) (*liveSession, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.lastSeen = h.now()
	sess.mu.Unlock()
	return sess, nil
}

// Touch marks session id as active, e.g. while an event stream is attached.
func (h *Hub) Touch(id string) error {
	_, err := h.get(id)
	return err
}

// Input applies a keystroke and the current filters to session id.
func (h *Hub) Input(id, query string, filters models.SearchFilters) error {
	sess, err := h.get(id)
	if err != nil {
		return err
	}
	sess.searcher.SetQuery(query)
	sess.searcher.SetFilters(filters)
	return nil
}

// Updates returns the stream of settled results for session id. The channel
// is closed when the session ends.
func (h *Hub) Updates(id string) (<-chan Update, error) {
	sess, err := h.get(id)
	if err != nil {
		return nil, err
	}
	return sess.updates, nil
}

// Searcher exposes the session's searcher for state inspection.
func (h *Hub) Searcher(id string) (*Searcher, error) {
	sess, err := h.get(id)
	if err != nil {
		return nil, err
	}
	return sess.searcher, nil
}

// Close ends session id. Closing an unknown session is a no-op.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		sess.close()
	}
}

// Sweep closes sessions idle for longer than the hub's TTL and returns how
// many were closed.
func (h *Hub) Sweep() int {
	cutoff := h.now().Add(-h.idleTTL)
	var stale []*liveSession

	h.mu.Lock()
	for id, sess := range h.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			stale = append(stale, sess)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, sess := range stale {
		sess.close()
	}
	if len(stale) > 0 {
		h.logger.Info("search: evicted idle live sessions", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// StartJanitor sweeps idle sessions every interval until ctx is done.
func (h *Hub) StartJanitor(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.Sweep()
			}
		}
	}()
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// CloseAll ends every session, which also ends their event streams.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*liveSession)
	h.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}
