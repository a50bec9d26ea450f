package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"senadirectory/database/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticleServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/articles/bienvenida.md":
			_, _ = w.Write([]byte("# Bienvenida"))
		case "/articles/huge.md":
			_, _ = w.Write([]byte(strings.Repeat("a", MaxArticleBytes+1024)))
		case "/articles/exact.md":
			_, _ = w.Write([]byte(strings.Repeat("b", MaxArticleBytes)))
		case "/articles/broken.md":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestArticleStore_FetchCachesContent(t *testing.T) {
	var hits int32
	srv := newArticleServer(t, &hits)
	kv := kvstore.NewMemoryStore(0)
	s := NewArticleStore(ResolverFunc(func(path string) (string, error) {
		return srv.URL + "/" + path, nil
	}), kv, nil)

	ctx := context.Background()
	body, err := s.Fetch(ctx, "/articles/bienvenida.md")
	require.NoError(t, err)
	assert.Equal(t, "# Bienvenida", body)

	body, err = s.Fetch(ctx, "articles/bienvenida.md")
	require.NoError(t, err)
	assert.Equal(t, "# Bienvenida", body)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestArticleStore_OversizedArticleIsNotCached(t *testing.T) {
	var hits int32
	srv := newArticleServer(t, &hits)
	kv := kvstore.NewMemoryStore(0)
	s := NewArticleStore(ResolverFunc(func(path string) (string, error) {
		return srv.URL + "/" + path, nil
	}), kv, nil)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "articles/huge.md")
	assert.ErrorIs(t, err, ErrArticleTooLarge)
	_, cached := kv.Read(ctx, kvstore.Join(kvstore.KeyArticlePrefix, "articles/huge.md"))
	assert.False(t, cached)

	body, err := s.Fetch(ctx, "articles/exact.md")
	require.NoError(t, err)
	assert.Len(t, body, MaxArticleBytes)
}

func TestArticleStore_Errors(t *testing.T) {
	var hits int32
	srv := newArticleServer(t, &hits)
	s := NewArticleStore(ResolverFunc(func(path string) (string, error) {
		return srv.URL + "/" + path, nil
	}), nil, nil)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "articles/missing.md")
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = s.Fetch(ctx, "articles/broken.md")
	assert.ErrorIs(t, err, ErrFetchFailed)

	for _, bad := range []string{"", "/", "../secret", "a//b", "a/./b"} {
		_, err = s.Fetch(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestCloudinaryResolver_URL(t *testing.T) {
	r, err := NewCloudinaryResolver("demo", "key", "secret")
	require.NoError(t, err)

	url, err := r.URL("articles/bienvenida.md")
	require.NoError(t, err)
	assert.Contains(t, url, "res.cloudinary.com/demo/raw/upload")
	assert.Contains(t, url, "articles/bienvenida.md")

	_, err = NewCloudinaryResolver("", "key", "secret")
	assert.Error(t, err)
}
