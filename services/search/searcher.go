// Package search turns rapid query edits into a bounded stream of directory
// queries.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	companyRepo "senadirectory/database/repository/company"
	"senadirectory/models"
	"senadirectory/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var searchQueriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "directory_search_queries_total",
		Help: "Directory search queries by mode and outcome",
	},
	[]string{"mode", "outcome"},
)

// Mode selects the page size and empty-query behaviour.
type Mode int

const (
	// ModeInline is search-as-you-type: 10 results, empty input clears results.
	ModeInline Mode = iota
	// ModePage is the full search page: 50 results, empty input lists everything.
	ModePage
)

func (m Mode) String() string {
	if m == ModePage {
		return "page"
	}
	return "inline"
}

// Limit returns the page size for m.
func (m Mode) Limit() int64 {
	if m == ModePage {
		return companyRepo.PageLimit
	}
	return companyRepo.InlineLimit
}

// ParseMode maps "page" to ModePage and anything else to ModeInline.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "page") {
		return ModePage
	}
	return ModeInline
}

// Directory is the query side of the directory service.
type Directory interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Company, error)
}

// Update is delivered whenever a query settles.
type Update struct {
	Seq     uint64               `json:"seq"`
	Query   string               `json:"query"`
	Filters models.SearchFilters `json:"filters"`
	Results []models.Company     `json:"results"`
	Failed  bool                 `json:"failed,omitempty"`
}

// Searcher holds the raw query, its debounced value and the active filters.
// Each settled change issues exactly one query. A newer query cancels the
// previous one, and results of superseded queries are discarded.
type Searcher struct {
	dir       Directory
	logger    *zap.Logger
	mode      Mode
	debouncer *utils.Debouncer
	onResults func(Update)

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu        sync.Mutex
	query     string
	debounced string
	filters   models.SearchFilters
	seq       uint64
	cancel    context.CancelFunc
	loading   bool
	results   []models.Company
	closed    bool

	// deliverMu serializes callbacks; delivered is the newest seq handed out.
	deliverMu sync.Mutex
	delivered uint64
}

// Option customizes a Searcher.
type Option func(*Searcher)

// WithDebounce overrides the settle time.
func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) { s.debouncer = utils.NewDebouncer(d) }
}

// WithOnResults registers a callback for settled queries. It runs on the
// query goroutine.
func WithOnResults(fn func(Update)) Option {
	return func(s *Searcher) { s.onResults = fn }
}

// NewSearcher creates a searcher over dir.
func NewSearcher(dir Directory, mode Mode, logger *zap.Logger, opts ...Option) *Searcher {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Searcher{
		dir:        dir,
		logger:     utils.OrNop(logger),
		mode:       mode,
		debouncer:  utils.NewDebouncer(utils.SearchDebounce),
		baseCtx:    ctx,
		baseCancel: cancel,
		results:    []models.Company{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQuery records a keystroke. The query is issued once input has been
// stable for the debounce period.
func (s *Searcher) SetQuery(q string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = q
	s.mu.Unlock()
	s.debouncer.Trigger(s.settle)
}

func (s *Searcher) settle() {
	s.mu.Lock()
	if s.closed || s.query == s.debounced {
		s.mu.Unlock()
		return
	}
	s.debounced = s.query
	s.mu.Unlock()
	s.issue()
}

// SetFilters replaces the active filters and issues a query if they changed.
func (s *Searcher) SetFilters(f models.SearchFilters) {
	s.mu.Lock()
	if s.closed || f == s.filters {
		s.mu.Unlock()
		return
	}
	s.filters = f
	s.mu.Unlock()
	s.issue()
}

func (s *Searcher) issue() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	criteria := models.SearchCriteria{
		Query:         strings.TrimSpace(s.debounced),
		SearchFilters: s.filters,
		Limit:         s.mode.Limit(),
	}

	if s.mode == ModeInline && criteria.Query == "" && criteria.SearchFilters.Empty() {
		s.loading = false
		s.results = []models.Company{}
		s.mu.Unlock()
		s.deliver(Update{Seq: seq, Results: []models.Company{}})
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.loading = true
	s.mu.Unlock()

	go s.run(ctx, cancel, seq, criteria)
}

func (s *Searcher) run(ctx context.Context, cancel context.CancelFunc, seq uint64, criteria models.SearchCriteria) {
	defer cancel()
	results, err := s.dir.Search(ctx, criteria)

	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		searchQueriesTotal.WithLabelValues(s.mode.String(), "discarded").Inc()
		return
	}
	s.loading = false
	s.cancel = nil
	update := Update{Seq: seq, Query: criteria.Query, Filters: criteria.SearchFilters}
	if err != nil {
		s.logger.Warn("search: query failed", zap.String("query", criteria.Query), zap.Error(err))
		searchQueriesTotal.WithLabelValues(s.mode.String(), "error").Inc()
		s.results = []models.Company{}
		update.Failed = true
	} else {
		searchQueriesTotal.WithLabelValues(s.mode.String(), "ok").Inc()
		if results == nil {
			results = []models.Company{}
		}
		s.results = results
	}
	update.Results = s.results
	s.mu.Unlock()

	s.deliver(update)
}

// deliver hands u to the callback unless a newer query has been issued or
// already delivered in the meantime.
func (s *Searcher) deliver(u Update) {
	if s.onResults == nil {
		return
	}
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := u.Seq == s.seq && !s.closed
	s.mu.Unlock()
	if !current || u.Seq <= s.delivered {
		searchQueriesTotal.WithLabelValues(s.mode.String(), "discarded").Inc()
		return
	}
	s.delivered = u.Seq
	s.onResults(u)
}

// Query returns the raw, undebounced input.
func (s *Searcher) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// DebouncedQuery returns the last settled input.
func (s *Searcher) DebouncedQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debounced
}

// Filters returns the active filters.
func (s *Searcher) Filters() models.SearchFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Loading reports whether a query is in flight.
func (s *Searcher) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Results returns the latest settled results.
func (s *Searcher) Results() []models.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Company, len(s.results))
	copy(out, s.results)
	return out
}

// Close cancels the pending debounce and any in-flight query.
func (s *Searcher) Close() {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.closed = true
	s.loading = false
	s.mu.Unlock()
	s.baseCancel()
}
