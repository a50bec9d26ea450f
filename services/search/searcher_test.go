package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"senadirectory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirectory struct {
	mu    sync.Mutex
	calls []models.SearchCriteria

	SearchFn func(ctx context.Context, c models.SearchCriteria) ([]models.Company, error)
}

func (f *fakeDirectory) Search(ctx context.Context, c models.SearchCriteria) ([]models.Company, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.SearchFn != nil {
		return f.SearchFn(ctx, c)
	}
	return []models.Company{{Slug: "match", Name: c.Query}}, nil
}

func (f *fakeDirectory) Calls() []models.SearchCriteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SearchCriteria, len(f.calls))
	copy(out, f.calls)
	return out
}

type collector struct {
	ch chan Update
}

func newCollector() *collector { return &collector{ch: make(chan Update, 16)} }

func (c *collector) push(u Update) { c.ch <- u }

func (c *collector) next(t *testing.T) Update {
	t.Helper()
	select {
	case u := <-c.ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search update")
		return Update{}
	}
}

func (c *collector) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case u := <-c.ch:
		t.Fatalf("unexpected update %+v", u)
	case <-time.After(wait):
	}
}

const testDebounce = 40 * time.Millisecond

func TestSearcher_KeystrokesCollapseIntoOneQuery(t *testing.T) {
	dir := &fakeDirectory{}
	col := newCollector()
	s := NewSearcher(dir, ModeInline, nil, WithDebounce(testDebounce), WithOnResults(col.push))
	defer s.Close()

	s.SetQuery("p")
	time.Sleep(testDebounce / 4)
	s.SetQuery("ps")
	time.Sleep(testDebounce / 4)
	s.SetQuery("psy")

	assert.Equal(t, "psy", s.Query())
	assert.Empty(t, s.DebouncedQuery())

	u := col.next(t)
	assert.Equal(t, "psy", u.Query)
	require.Len(t, u.Results, 1)
	col.none(t, 2*testDebounce)

	calls := dir.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "psy", calls[0].Query)
	assert.Equal(t, int64(10), calls[0].Limit)
	assert.Equal(t, "psy", s.DebouncedQuery())
	assert.False(t, s.Loading())
}

func TestSearcher_FilterChangeIssuesOneQuery(t *testing.T) {
	dir := &fakeDirectory{}
	col := newCollector()
	s := NewSearcher(dir, ModePage, nil, WithDebounce(testDebounce), WithOnResults(col.push))
	defer s.Close()

	filters := models.SearchFilters{Category: "salud", City: "Bogotá"}
	s.SetFilters(filters)
	s.SetFilters(filters)

	u := col.next(t)
	assert.Equal(t, filters, u.Filters)
	col.none(t, 2*testDebounce)

	calls := dir.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "salud", calls[0].Category)
	assert.Equal(t, int64(50), calls[0].Limit)
	assert.Equal(t, filters, s.Filters())
}

func TestSearcher_FailureYieldsEmptyResults(t *testing.T) {
	dir := &fakeDirectory{SearchFn: func(context.Context, models.SearchCriteria) ([]models.Company, error) {
		return nil, errors.New("directory down")
	}}
	col := newCollector()
	s := NewSearcher(dir, ModeInline, nil, WithDebounce(testDebounce), WithOnResults(col.push))
	defer s.Close()

	s.SetQuery("abogado")
	u := col.next(t)
	assert.True(t, u.Failed)
	assert.NotNil(t, u.Results)
	assert.Empty(t, u.Results)
	assert.Empty(t, s.Results())
	assert.False(t, s.Loading())
}

func TestSearcher_StaleResultsDiscarded(t *testing.T) {
	release := make(chan struct{})
	var cancelled sync.WaitGroup
	cancelled.Add(1)
	dir := &fakeDirectory{SearchFn: func(ctx context.Context, c models.SearchCriteria) ([]models.Company, error) {
		if c.Query == "slow" {
			<-ctx.Done()
			cancelled.Done()
			<-release
			return []models.Company{{Slug: "stale"}}, nil
		}
		return []models.Company{{Slug: "fresh"}}, nil
	}}
	col := newCollector()
	s := NewSearcher(dir, ModeInline, nil, WithDebounce(testDebounce), WithOnResults(col.push))
	defer s.Close()

	s.SetQuery("slow")
	require.Eventually(t, func() bool { return len(dir.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Loading())

	s.SetQuery("fast")
	u := col.next(t)
	require.Len(t, u.Results, 1)
	assert.Equal(t, "fresh", u.Results[0].Slug)

	cancelled.Wait()
	close(release)
	col.none(t, 2*testDebounce)
	require.Len(t, s.Results(), 1)
	assert.Equal(t, "fresh", s.Results()[0].Slug)
}

func TestSearcher_SlowCallbackKeepsDeliveryOrder(t *testing.T) {
	dir := &fakeDirectory{}
	entered := make(chan struct{}, 1)
	gate := make(chan struct{})
	var mu sync.Mutex
	var delivered []Update
	onResults := func(u Update) {
		if u.Filters.City == "bogota" {
			entered <- struct{}{}
			<-gate
		}
		mu.Lock()
		delivered = append(delivered, u)
		mu.Unlock()
	}
	s := NewSearcher(dir, ModePage, nil, WithDebounce(testDebounce), WithOnResults(onResults))
	defer s.Close()

	s.SetFilters(models.SearchFilters{City: "bogota"})
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first callback never ran")
	}

	s.SetFilters(models.SearchFilters{City: "cali"})
	require.Eventually(t, func() bool { return len(dir.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * testDebounce)
	close(gate)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, uint64(1), delivered[0].Seq)
	assert.Equal(t, uint64(2), delivered[1].Seq)
	assert.Equal(t, "cali", delivered[1].Filters.City)
	assert.Equal(t, "cali", s.Filters().City)
}

func TestSearcher_InlineEmptyInputClearsWithoutQuery(t *testing.T) {
	dir := &fakeDirectory{}
	col := newCollector()
	s := NewSearcher(dir, ModeInline, nil, WithDebounce(testDebounce), WithOnResults(col.push))
	defer s.Close()

	s.SetQuery("psi")
	require.NotEmpty(t, col.next(t).Results)

	s.SetQuery("")
	u := col.next(t)
	assert.Empty(t, u.Results)
	assert.Len(t, dir.Calls(), 1)
	assert.Empty(t, s.Results())
}

func TestSearcher_PageEmptyInputListsAll(t *testing.T) {
	dir := &fakeDirectory{}
	col := newCollector()
	s := NewSearcher(dir, ModePage, nil, WithDebounce(testDebounce), WithOnResults(col.push))
	defer s.Close()

	s.SetQuery("x")
	col.next(t)
	s.SetQuery("")
	col.next(t)

	calls := dir.Calls()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[1].Query)
}

func TestSearcher_CloseCancelsPendingKeystroke(t *testing.T) {
	dir := &fakeDirectory{}
	s := NewSearcher(dir, ModeInline, nil, WithDebounce(testDebounce))

	s.SetQuery("psy")
	s.Close()
	time.Sleep(3 * testDebounce)
	assert.Empty(t, dir.Calls())

	s.SetQuery("again")
	assert.Equal(t, "psy", s.Query())
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModePage, ParseMode("PAGE"))
	assert.Equal(t, ModeInline, ParseMode("inline"))
	assert.Equal(t, ModeInline, ParseMode(""))
	assert.Equal(t, "page", ModePage.String())
}
