package forecast

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// fingerprint identifies the data a model was fitted on. New sales change at
// least one field.
type fingerprint struct {
	first time.Time
	last  time.Time
	days  int
	total float64
}

func fingerprintOf(series []float64, start time.Time, days int) fingerprint {
	total := 0.0
	for _, v := range series {
		total += v
	}
	return fingerprint{
		first: start,
		last:  start.Add(time.Duration(len(series)-1) * day),
		days:  days,
		total: total,
	}
}

type cacheEntry struct {
	model    *seasonalModel
	fp       fingerprint
	fittedAt time.Time
}

const maxCachedModels = 5000

type modelCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	max     int
	group   singleflight.Group
	fits    atomic.Int64
}

func newModelCache(ttl time.Duration) *modelCache {
	return &modelCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		max:     maxCachedModels,
	}
}

func (c *modelCache) lookup(itemID string, fp fingerprint, now time.Time) (*seasonalModel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[itemID]
	if !ok || e.fp != fp || now.Sub(e.fittedAt) >= c.ttl {
		return nil, false
	}
	return e.model, true
}

// getOrFit returns the cached model for the item when it is fresh and was
// fitted on the same data, otherwise fits once per (item, data) even under
// concurrent callers.
func (c *modelCache) getOrFit(itemID string, fp fingerprint, now time.Time, fit func() (*seasonalModel, error)) (*seasonalModel, error) {
	if m, ok := c.lookup(itemID, fp, now); ok {
		return m, nil
	}

	key := fmt.Sprintf("%s|%d|%d|%d|%g", itemID, fp.first.Unix(), fp.last.Unix(), fp.days, fp.total)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if m, ok := c.lookup(itemID, fp, now); ok {
			return m, nil
		}

		m, err := fit()
		if err != nil {
			return nil, err
		}
		c.fits.Add(1)

		c.mu.Lock()
		c.entries[itemID] = cacheEntry{model: m, fp: fp, fittedAt: now}
		c.capEntries()
		c.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*seasonalModel), nil
}

// capEntries drops the oldest fits once the cache grows past max.
// Callers hold mu.
func (c *modelCache) capEntries() {
	toDrop := len(c.entries) - c.max
	if c.max <= 0 || toDrop <= 0 {
		return
	}

	type entryInfo struct {
		itemID   string
		fittedAt time.Time
	}
	infos := make([]entryInfo, 0, len(c.entries))
	for id, e := range c.entries {
		infos = append(infos, entryInfo{itemID: id, fittedAt: e.fittedAt})
	}

	// oldest first, item id breaks ties
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].fittedAt.Equal(infos[j].fittedAt) {
			return infos[i].itemID < infos[j].itemID
		}
		return infos[i].fittedAt.Before(infos[j].fittedAt)
	})

	for i := 0; i < toDrop; i++ {
		delete(c.entries, infos[i].itemID)
	}
}
