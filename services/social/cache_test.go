package social

import (
	"context"
	"errors"
	"testing"
	"time"

	"senadirectory/database/kvstore"
	"senadirectory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails writes to the keys listed in failKeys.
type flakyStore struct {
	*kvstore.MemoryStore
	failKeys map[string]bool
}

func (f *flakyStore) Write(ctx context.Context, key, value string) error {
	if f.failKeys[key] {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Write(ctx, key, value)
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(store kvstore.Store) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(store, nil)
	c.now = clock.Now
	return c, clock
}

func TestSaveThenLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	profiles := []models.SocialMediaProfile{
		{},
		{models.PlatformInstagram: "@sena.oficial"},
		{models.PlatformTikTok: "sena", models.PlatformWebsite: "https://sena.edu.co", models.PlatformWhatsApp: "573001234567"},
	}
	for _, owner := range []string{"", "user-1", "user-2"} {
		for _, p := range profiles {
			c, _ := newTestCache(kvstore.NewMemoryStore(0))
			require.True(t, c.Save(ctx, p, owner))
			assert.Equal(t, p, c.Load(ctx, owner))
		}
	}
}

func TestSave_WritesLegacyAndWrappedKeys(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(0)
	c, clock := newTestCache(store)

	require.True(t, c.Save(ctx, models.SocialMediaProfile{models.PlatformInstagram: "x", models.PlatformTikTok: ""}, ""))

	legacy, ok := store.Read(ctx, kvstore.KeySocialLinks)
	require.True(t, ok)
	assert.JSONEq(t, `{"instagram":"x"}`, legacy)

	var record models.CachedSocialRecord
	require.True(t, kvstore.ReadJSON(ctx, store, nil, kvstore.KeySocialCache, &record))
	assert.Equal(t, clock.Now().UnixMilli(), record.LastUpdated)
	assert.Equal(t, "current-user", record.UserID)

	require.True(t, c.Save(ctx, models.SocialMediaProfile{models.PlatformYouTube: "y"}, "owner-9"))
	_, ok = store.Read(ctx, "social_links:owner-9")
	assert.True(t, ok)
	_, ok = store.Read(ctx, "socialMediaCache:owner-9")
	assert.True(t, ok)
}

func TestLoad_Tiers(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(0)
	c, clock := newTestCache(store)
	profile := models.SocialMediaProfile{models.PlatformFacebook: "sena"}
	require.True(t, c.Save(ctx, profile, ""))

	_, src := c.Snapshot(ctx, "")
	assert.Equal(t, SourceMemory, src)

	clock.Advance(6 * time.Minute)
	got, src := c.Snapshot(ctx, "")
	assert.Equal(t, SourcePersisted, src)
	assert.Equal(t, profile, got)

	// Repopulated memory is trusted again until it ages out.
	_, src = c.Snapshot(ctx, "")
	assert.Equal(t, SourcePersisted, src, "persisted record keeps its original timestamp")

	clock.Advance(25 * time.Hour)
	got, src = c.Snapshot(ctx, "")
	assert.Equal(t, SourceLegacy, src)
	assert.Equal(t, profile, got)

	// Legacy hit migrated the record forward with a fresh timestamp.
	_, src = c.Snapshot(ctx, "")
	assert.Equal(t, SourceMemory, src)
}

func TestLoad_MigratesLegacyOnlyRecord(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(0)
	require.NoError(t, store.Write(ctx, kvstore.KeySocialLinks, `{"twitter":"@sena","spotify":""}`))
	c, _ := newTestCache(store)

	got, src := c.Snapshot(ctx, "")
	assert.Equal(t, SourceLegacy, src)
	assert.Equal(t, models.SocialMediaProfile{models.PlatformTwitter: "@sena"}, got)

	_, ok := store.Read(ctx, kvstore.KeySocialCache)
	assert.True(t, ok, "legacy record is migrated to the wrapped key")
}

func TestLoad_CorruptRecordsAreEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore(0)
	require.NoError(t, store.Write(ctx, kvstore.KeySocialCache, "{oops"))
	require.NoError(t, store.Write(ctx, kvstore.KeySocialLinks, "[1,2"))
	c, _ := newTestCache(store)

	got, src := c.Snapshot(ctx, "")
	assert.Equal(t, SourceEmpty, src)
	assert.Empty(t, got)
}

func TestSave_FailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: kvstore.NewMemoryStore(0), failKeys: map[string]bool{}}
	c, _ := newTestCache(store)

	original := models.SocialMediaProfile{models.PlatformInstagram: "first"}
	require.True(t, c.Save(ctx, original, ""))

	store.failKeys[kvstore.KeySocialCache] = true
	assert.False(t, c.Save(ctx, models.SocialMediaProfile{models.PlatformInstagram: "second"}, ""))

	legacy, _ := store.Read(ctx, kvstore.KeySocialLinks)
	assert.JSONEq(t, `{"instagram":"first"}`, legacy)
	assert.Equal(t, original, c.Load(ctx, ""))

	store.failKeys[kvstore.KeySocialLinks] = true
	assert.False(t, c.UpdatePlatform(ctx, models.PlatformTikTok, "x", ""))
	assert.Equal(t, original, c.Load(ctx, ""))
}

func TestUpdateAndRemovePlatform(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(kvstore.NewMemoryStore(0))

	require.True(t, c.UpdatePlatform(ctx, models.PlatformTikTok, "@sena", "u1"))
	require.True(t, c.UpdatePlatform(ctx, models.PlatformYouTube, "senaTV", "u1"))
	assert.Equal(t, models.SocialMediaProfile{models.PlatformTikTok: "@sena", models.PlatformYouTube: "senaTV"}, c.Load(ctx, "u1"))

	require.True(t, c.RemovePlatform(ctx, models.PlatformTikTok, "u1"))
	assert.Equal(t, models.SocialMediaProfile{models.PlatformYouTube: "senaTV"}, c.Load(ctx, "u1"))
	assert.Empty(t, c.Load(ctx, "u2"))

	assert.False(t, c.UpdatePlatform(ctx, models.Platform("myspace"), "x", "u1"))
}

func TestClear_OnlyDropsMemoryTier(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(kvstore.NewMemoryStore(0))
	profile := models.SocialMediaProfile{models.PlatformInstagram: "sena"}
	require.True(t, c.Save(ctx, profile, ""))

	c.Clear()
	got, src := c.Snapshot(ctx, "")
	assert.Equal(t, SourcePersisted, src)
	assert.Equal(t, profile, got)
}

func TestResolveURL_StoredHandles(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(kvstore.NewMemoryStore(0))

	tests := []struct {
		platform models.Platform
		value    string
		want     string
	}{
		{models.PlatformInstagram, "@sena.oficial", "https://instagram.com/sena.oficial"},
		{models.PlatformTikTok, " @sena ", "https://tiktok.com/@sena"},
		{models.PlatformWhatsApp, "573001234567", "https://wa.me/573001234567"},
		{models.PlatformFacebook, "senacolombia", "https://facebook.com/senacolombia"},
		{models.PlatformYouTube, "SENATV", "https://youtube.com/@SENATV"},
		{models.PlatformTwitter, "@SENAComunica", "https://twitter.com/SENAComunica"},
		{models.PlatformSpotify, "abc123", "https://open.spotify.com/artist/abc123"},
		{models.PlatformWebsite, "sena.edu.co", "sena.edu.co"},
		{models.PlatformInstagram, "https://instagram.com/other", "https://instagram.com/other"},
		{models.PlatformWebsite, "http://example.org", "http://example.org"},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform)+"/"+tt.value, func(t *testing.T) {
			got := c.ResolveURL(ctx, tt.platform, models.SocialMediaProfile{tt.platform: tt.value})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURL_Fallbacks(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(kvstore.NewMemoryStore(0))

	for _, p := range models.Platforms {
		assert.Equal(t, FallbackURL(p), c.ResolveURL(ctx, p, nil), string(p))
	}
	assert.Equal(t, "https://instagram.com", c.ResolveURL(ctx, models.PlatformInstagram, models.SocialMediaProfile{models.PlatformInstagram: "  "}))
	assert.Equal(t, "#", c.ResolveURL(ctx, models.PlatformWebsite, nil))
	assert.Equal(t, "#", c.ResolveURL(ctx, models.Platform("myspace"), models.SocialMediaProfile{"myspace": "x"}))

	url, err := c.ResolveURLString(ctx, "MySpace", "")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
	assert.Equal(t, "#", url)
}

func TestSaveThenResolve_EndToEnd(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(kvstore.NewMemoryStore(0))

	require.True(t, c.Save(ctx, models.SocialMediaProfile{models.PlatformInstagram: "@sena.oficial"}, ""))
	assert.Equal(t, "https://instagram.com/sena.oficial", c.ResolveURL(ctx, models.PlatformInstagram, nil))

	url, err := c.ResolveURLString(ctx, " Instagram ", "")
	require.NoError(t, err)
	assert.Equal(t, "https://instagram.com/sena.oficial", url)
}
