package authz

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of memoised decisions.
const DefaultCacheSize = 16384

// CacheKey identifies one memoised decision.
type CacheKey struct {
	PrincipalID  string
	AssetID      string
	AssetType    AssetType
	RequiredRole Role
}

// Decision is the resolved outcome of a permission check. HasAccess is true
// iff EffectiveRole satisfies the role the caller required; EffectiveRole,
// when present, is the strongest role justified by any single source.
type Decision struct {
	HasAccess     bool       `json:"has_access"`
	EffectiveRole *Role      `json:"effective_role,omitempty"`
	Source        Source     `json:"source"`
	Path          []PathStep `json:"path,omitempty"`
}

// CacheStats exposes cache observability counters.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Size   int    `json:"size"`
}

// Generations captures the three counter values a decision is computed
// under. Callers snapshot before resolving and hand the snapshot back to Put,
// so an invalidation that lands while the decision is being computed leaves
// the stored entry already stale instead of absorbed.
type Generations struct {
	principal uint64
	asset     uint64
	assetType uint64
}

type cacheEntry struct {
	decision Decision
	gens     Generations
	storedAt time.Time
}

type assetGenKey struct {
	ID   string
	Type AssetType
}

// Cache memoises permission decisions. Correctness rests on generation
// counters, not expiry: every principal, every asset and every asset type has
// a monotonically increasing counter, an entry records the counters it was
// computed under, and a read whose counters have diverged is a miss. Bumping
// a counter is O(1) no matter how many entries it strands, so mutation hooks
// stay cheap. The LRU plus TTL underneath only bounds memory; a stale entry
// the LRU has not evicted yet is still logically absent.
type Cache struct {
	mu            sync.RWMutex
	entries       *lru.Cache[CacheKey, cacheEntry]
	principalGens map[string]uint64
	assetGens     map[assetGenKey]uint64
	typeGens      map[AssetType]uint64
	ttl           time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCache constructs a Cache. A non-positive size falls back to
// DefaultCacheSize; a non-positive ttl disables the secondary TTL check.
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[CacheKey, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("authz: build cache: %w", err)
	}
	return &Cache{
		entries:       entries,
		principalGens: make(map[string]uint64),
		assetGens:     make(map[assetGenKey]uint64),
		typeGens:      make(map[AssetType]uint64),
		ttl:           ttl,
	}, nil
}

// Get returns the cached decision for the key when it is still valid.
func (c *Cache) Get(key CacheKey) (Decision, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return Decision{}, false
	}

	valid := entry.gens == c.Snapshot(key)

	if valid && c.ttl > 0 && time.Since(entry.storedAt) > c.ttl {
		valid = false
	}
	if !valid {
		c.entries.Remove(key)
		c.misses.Add(1)
		return Decision{}, false
	}

	c.hits.Add(1)
	return entry.decision, true
}

// Snapshot reads the current generation counters for the key.
func (c *Cache) Snapshot(key CacheKey) Generations {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Generations{
		principal: c.principalGens[key.PrincipalID],
		asset:     c.assetGens[assetGenKey{ID: key.AssetID, Type: key.AssetType}],
		assetType: c.typeGens[key.AssetType],
	}
}

// Put stores a decision stamped with the generations the caller snapshotted
// before computing it. An entry stored under counters that have since been
// bumped reads as stale on the next Get.
func (c *Cache) Put(key CacheKey, gens Generations, decision Decision) {
	c.entries.Add(key, cacheEntry{
		decision: decision,
		gens:     gens,
		storedAt: time.Now(),
	})
}

// InvalidatePrincipal marks every cached decision for the principal stale.
func (c *Cache) InvalidatePrincipal(principalID string) {
	c.mu.Lock()
	c.principalGens[principalID]++
	c.mu.Unlock()
}

// InvalidateAsset marks every cached decision for the asset stale. Because
// cascading results for contained assets were computed relative to this
// asset's old state, the declared child types are invalidated as well; a
// coarser bump than strictly necessary, trading extra misses for guaranteed
// correctness.
func (c *Cache) InvalidateAsset(assetID string, assetType AssetType) {
	c.mu.Lock()
	c.assetGens[assetGenKey{ID: assetID, Type: assetType}]++
	for _, child := range ChildTypes(assetType) {
		c.typeGens[child]++
	}
	c.mu.Unlock()
}

// Clear drops every cached decision and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries.Purge()
	c.principalGens = make(map[string]uint64)
	c.assetGens = make(map[assetGenKey]uint64)
	c.typeGens = make(map[AssetType]uint64)
	c.mu.Unlock()
}

// Stats returns hit/miss counters and the current entry count. Entries whose
// generations have diverged still count towards Size until evicted.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.entries.Len(),
	}
}
