// Package social caches a user's social media handles in memory on top of
// the key-value store.
package social

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"senadirectory/database/kvstore"
	"senadirectory/models"
	"senadirectory/utils"

	"go.uber.org/zap"
)

const (
	// MemoryTTL is how long the in-memory tier is trusted.
	MemoryTTL = 5 * time.Minute
	// PersistedTTL is how long the timestamped persisted record is trusted.
	PersistedTTL = 24 * time.Hour
)

// Source names the tier a profile was resolved from.
type Source string

const (
	SourceMemory    Source = "memory"
	SourcePersisted Source = "persisted"
	SourceLegacy    Source = "legacy"
	SourceEmpty     Source = "empty"
)

// Cache resolves profiles from memory, then the timestamped persisted
// record, then the legacy flat record.
type Cache struct {
	store  kvstore.Store
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]models.CachedSocialRecord
}

// NewCache creates a cache over store.
func NewCache(store kvstore.Store, logger *zap.Logger) *Cache {
	return &Cache{
		store:   store,
		logger:  utils.OrNop(logger),
		now:     time.Now,
		entries: make(map[string]models.CachedSocialRecord),
	}
}

func owner(id string) string {
	if id == "" {
		return utils.DefaultOwnerID
	}
	return id
}

func ownerKey(base, ownerID string) string {
	if ownerID == utils.DefaultOwnerID {
		return base
	}
	return kvstore.Join(base, ownerID)
}

func copyProfile(p models.SocialMediaProfile) models.SocialMediaProfile {
	out := make(models.SocialMediaProfile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func (c *Cache) fresh(lastUpdated int64, ttl time.Duration) bool {
	age := c.now().Sub(time.UnixMilli(lastUpdated))
	return age >= 0 && age < ttl
}

// Save persists profile under both the legacy and the timestamped key and
// refreshes the memory tier. It reports false on any failure; the previous
// state is kept.
func (c *Cache) Save(ctx context.Context, profile models.SocialMediaProfile, ownerID string) bool {
	id := owner(ownerID)
	clean := profile.Normalize()
	record := models.CachedSocialRecord{Data: clean, LastUpdated: c.now().UnixMilli(), UserID: id}

	legacy, err := json.Marshal(clean)
	if err != nil {
		c.logger.Error("social: encode profile failed", zap.String("owner", id), zap.Error(err))
		return false
	}
	wrapped, err := json.Marshal(record)
	if err != nil {
		c.logger.Error("social: encode cache record failed", zap.String("owner", id), zap.Error(err))
		return false
	}

	legacyKey := ownerKey(kvstore.KeySocialLinks, id)
	previous, hadPrevious := c.store.Read(ctx, legacyKey)
	if err := c.store.Write(ctx, legacyKey, string(legacy)); err != nil {
		c.logger.Warn("social: save failed", zap.String("owner", id), zap.String("key", legacyKey), zap.Error(err))
		return false
	}
	cacheKey := ownerKey(kvstore.KeySocialCache, id)
	if err := c.store.Write(ctx, cacheKey, string(wrapped)); err != nil {
		c.logger.Warn("social: save failed", zap.String("owner", id), zap.String("key", cacheKey), zap.Error(err))
		if hadPrevious {
			if rerr := c.store.Write(ctx, legacyKey, previous); rerr != nil {
				c.logger.Error("social: restoring legacy record failed", zap.String("owner", id), zap.Error(rerr))
			}
		} else {
			c.store.Remove(ctx, legacyKey)
		}
		return false
	}

	c.mu.Lock()
	c.entries[id] = record
	c.mu.Unlock()
	return true
}

// Load returns the owner's profile, or an empty profile when nothing is stored.
func (c *Cache) Load(ctx context.Context, ownerID string) models.SocialMediaProfile {
	profile, _ := c.Snapshot(ctx, ownerID)
	return profile
}

// Snapshot is Load that also reports which tier answered.
func (c *Cache) Snapshot(ctx context.Context, ownerID string) (models.SocialMediaProfile, Source) {
	id := owner(ownerID)

	c.mu.Lock()
	entry, ok := c.entries[id]
	c.mu.Unlock()
	if ok && c.fresh(entry.LastUpdated, MemoryTTL) {
		return copyProfile(entry.Data), SourceMemory
	}

	var record models.CachedSocialRecord
	if kvstore.ReadJSON(ctx, c.store, c.logger, ownerKey(kvstore.KeySocialCache, id), &record) &&
		c.fresh(record.LastUpdated, PersistedTTL) {
		record.Data = record.Data.Normalize()
		c.mu.Lock()
		c.entries[id] = record
		c.mu.Unlock()
		return copyProfile(record.Data), SourcePersisted
	}

	var legacy models.SocialMediaProfile
	if kvstore.ReadJSON(ctx, c.store, c.logger, ownerKey(kvstore.KeySocialLinks, id), &legacy) {
		legacy = legacy.Normalize()
		if !c.Save(ctx, legacy, id) {
			c.logger.Warn("social: legacy migration failed", zap.String("owner", id))
		}
		return copyProfile(legacy), SourceLegacy
	}

	return models.SocialMediaProfile{}, SourceEmpty
}

// ResolveURL returns the link for platform using profile, or the default
// owner's stored profile when profile is nil.
func (c *Cache) ResolveURL(ctx context.Context, platform models.Platform, profile models.SocialMediaProfile) string {
	if profile == nil {
		profile = c.Load(ctx, utils.DefaultOwnerID)
	}
	value, _ := profile.Get(platform)
	return BuildURL(platform, value)
}

// ResolveURLFor resolves platform against ownerID's stored profile.
func (c *Cache) ResolveURLFor(ctx context.Context, platform models.Platform, ownerID string) string {
	return c.ResolveURL(ctx, platform, c.Load(ctx, ownerID))
}

// ResolveURLString validates a raw platform name before resolving it. Unknown
// names yield "#" together with ErrUnknownPlatform.
func (c *Cache) ResolveURLString(ctx context.Context, name string, ownerID string) (string, error) {
	platform, err := models.ParsePlatform(name)
	if err != nil {
		return "#", err
	}
	return c.ResolveURLFor(ctx, platform, ownerID), nil
}

// UpdatePlatform sets a single platform value.
func (c *Cache) UpdatePlatform(ctx context.Context, platform models.Platform, value string, ownerID string) bool {
	if !platform.Valid() {
		c.logger.Warn("social: update rejected", zap.String("platform", string(platform)))
		return false
	}
	profile := c.Load(ctx, ownerID)
	profile[platform] = value
	return c.Save(ctx, profile, ownerID)
}

// RemovePlatform deletes a single platform value.
func (c *Cache) RemovePlatform(ctx context.Context, platform models.Platform, ownerID string) bool {
	if !platform.Valid() {
		c.logger.Warn("social: remove rejected", zap.String("platform", string(platform)))
		return false
	}
	profile := c.Load(ctx, ownerID)
	delete(profile, platform)
	return c.Save(ctx, profile, ownerID)
}

// Clear drops the memory tier only. Persisted records are untouched, so the
// next Load repopulates from them.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]models.CachedSocialRecord)
	c.mu.Unlock()
}
