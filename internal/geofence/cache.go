package geofence

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"droneFlightAuthority/models"
)

// ZoneLister is the persistence source of active zones.
type ZoneLister interface {
	ListActive(ctx context.Context) ([]models.RestrictedZone, error)
}

const activeKey = "active"

// ZoneCache keeps the active zone set for a short TTL so simulation steps do
// not hit the database for every waypoint. Zone writes must call Invalidate.
type ZoneCache struct {
	src ZoneLister
	lru *expirable.LRU[string, []models.RestrictedZone]
}

// NewZoneCache wraps src. A ttl <= 0 disables caching.
func NewZoneCache(src ZoneLister, ttl time.Duration) *ZoneCache {
	c := &ZoneCache{src: src}
	if ttl > 0 {
		c.lru = expirable.NewLRU[string, []models.RestrictedZone](1, nil, ttl)
	}
	return c
}

// Active returns the currently active zones.
func (c *ZoneCache) Active(ctx context.Context) ([]models.RestrictedZone, error) {
	if c.lru != nil {
		if zones, ok := c.lru.Get(activeKey); ok {
			return slices.Clone(zones), nil
		}
	}
	zones, err := c.src.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if c.lru != nil {
		c.lru.Add(activeKey, zones)
	}
	return slices.Clone(zones), nil
}

// Invalidate drops the cached zone set.
func (c *ZoneCache) Invalidate() {
	if c.lru != nil {
		c.lru.Purge()
	}
}
