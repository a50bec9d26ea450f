package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"senadirectory/models"
	"senadirectory/services/search"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLiveSearchRouter(hub *search.Hub) *gin.Engine {
	h := NewLiveSearchHandler(hub)
	r := gin.New()
	r.POST("/live", h.OpenHandler)
	r.PUT("/live/:id", h.InputHandler)
	r.GET("/live/:id", h.StateHandler)
	r.GET("/live/:id/events", h.EventsHandler)
	r.DELETE("/live/:id", h.CloseHandler)
	return r
}

func TestLiveSearchHandler(t *testing.T) {
	repo := newFakeRepo()
	hub := search.NewHub(repo, time.Minute, nil)
	r := newLiveSearchRouter(hub)

	w := doJSON(t, r, http.MethodPost, "/live", map[string]string{"mode": "page"})
	require.Equal(t, http.StatusCreated, w.Code)
	var opened struct {
		SessionID string `json:"sessionId"`
		Mode      string `json:"mode"`
	}
	decode(t, w, &opened)
	assert.Equal(t, "page", opened.Mode)
	base := "/live/" + opened.SessionID

	for _, q := range []string{"p", "ps", "psy"} {
		w = doJSON(t, r, http.MethodPut, base, map[string]any{"query": q})
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	require.Eventually(t, func() bool {
		var state struct {
			DebouncedQuery string           `json:"debouncedQuery"`
			Loading        bool             `json:"loading"`
			Results        []models.Company `json:"results"`
		}
		decode(t, doJSON(t, r, http.MethodGet, base, nil), &state)
		return state.DebouncedQuery == "psy" && !state.Loading && len(state.Results) == 1
	}, 3*time.Second, 20*time.Millisecond)

	repo.mu.Lock()
	require.Len(t, repo.searches, 1)
	assert.Equal(t, "psy", repo.searches[0].Query)
	repo.mu.Unlock()

	assert.Equal(t, http.StatusNoContent, doJSON(t, r, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodPut, base, map[string]any{"query": "x"}).Code)
}

func TestLiveSearchHandler_EventsStreamEndsWithSession(t *testing.T) {
	hub := search.NewHub(newFakeRepo(), time.Minute, nil)
	r := newLiveSearchRouter(hub)
	id := hub.Open(search.ModeInline)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/live/"+id+"/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	require.NoError(t, hub.Input(id, "sena", models.SearchFilters{}))
	time.Sleep(500 * time.Millisecond)
	hub.Close(id)

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("event stream did not end")
	}
	assert.Contains(t, w.Body.String(), "event:results")
	assert.Contains(t, w.Body.String(), `"query":"sena"`)
}
