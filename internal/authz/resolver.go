package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwelldata/inkwell/pkg/logger"
	"github.com/inkwelldata/inkwell/pkg/metrics"
)

// ResolverConfig tunes the resolver's cache and traversal behaviour.
type ResolverConfig struct {
	CacheSize       int
	CacheTTL        time.Duration
	MaxCascadeDepth int
}

// Resolver is the single entry point for permission checks. It orchestrates
// cache lookup, direct calculation, cascading fallback and cache population.
// It never mutates grant data; cache writes are its only side effect.
type Resolver struct {
	store   Store
	calc    *Calculator
	cascade *CascadingResolver
	cache   *Cache
	log     *zap.Logger
}

// NewResolver constructs a Resolver with its own cache instance. Callers own
// the lifecycle: construct one resolver per store and share it across
// requests.
func NewResolver(store Store, cfg ResolverConfig) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("authz: resolver requires a store")
	}

	calc, err := NewCalculator(store)
	if err != nil {
		return nil, err
	}
	cascade, err := NewCascadingResolver(store, calc, cfg.MaxCascadeDepth)
	if err != nil {
		return nil, err
	}
	cache, err := NewCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		store:   store,
		calc:    calc,
		cascade: cascade,
		cache:   cache,
		log:     logger.WithModule("authz.resolver"),
	}, nil
}

// CheckPermission decides whether the principal holds at least the required
// role on the asset. Absent assets deny (fail closed); store failures
// propagate so the caller can retry instead of receiving a guessed denial,
// and nothing is cached in that case.
func (r *Resolver) CheckPermission(ctx context.Context, principalID, assetID string, assetType AssetType, required Role) (Decision, error) {
	principalID = strings.TrimSpace(principalID)
	assetID = strings.TrimSpace(assetID)
	if principalID == "" || assetID == "" {
		return Decision{}, errors.New("authz: principal id and asset id are required")
	}
	if !assetType.Valid() {
		return Decision{}, fmt.Errorf("authz: unknown asset type %q", assetType)
	}
	if !required.Valid() {
		return Decision{}, fmt.Errorf("authz: unknown role %q", required)
	}

	key := CacheKey{
		PrincipalID:  principalID,
		AssetID:      assetID,
		AssetType:    assetType,
		RequiredRole: required,
	}
	if decision, ok := r.cache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return decision, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// Snapshot before resolving. An invalidation racing the store reads then
	// bumps past the snapshot and the entry below is born stale, rather than
	// memoising a decision computed from pre-mutation data.
	gens := r.cache.Snapshot(key)

	decision, cacheable, err := r.resolve(ctx, principalID, assetID, assetType, required)
	if err != nil {
		metrics.PermissionChecks.WithLabelValues("error").Inc()
		return Decision{}, err
	}
	if cacheable {
		r.cache.Put(key, gens, decision)
	}

	if decision.HasAccess {
		metrics.PermissionChecks.WithLabelValues("allow").Inc()
	} else {
		metrics.PermissionChecks.WithLabelValues("deny").Inc()
	}
	return decision, nil
}

func (r *Resolver) resolve(ctx context.Context, principalID, assetID string, assetType AssetType, required Role) (Decision, bool, error) {
	asset, err := r.store.GetAsset(ctx, assetID, assetType)
	if err != nil {
		return Decision{}, false, fmt.Errorf("authz: load asset: %w", err)
	}
	if asset == nil || asset.Deleted() {
		// Not cached: asset creation and restore do not flow through the
		// mutation hooks, so a memoised not-found could outlive them.
		return Decision{Source: SourceNone}, false, nil
	}

	directRole, directSource, hasDirect, err := r.calc.DirectRole(ctx, principalID, asset)
	if err != nil {
		return Decision{}, false, err
	}
	if hasDirect && Satisfies(directRole, required) {
		role := directRole
		return Decision{HasAccess: true, EffectiveRole: &role, Source: directSource}, true, nil
	}

	cascadeRole, path, hasCascade, err := r.cascade.CascadingRole(ctx, principalID, asset, required)
	if err != nil {
		return Decision{}, false, err
	}

	// Merge by maximum; the two sources are never summed.
	best := directRole
	source := directSource
	found := hasDirect
	if hasCascade && (!found || Compare(cascadeRole, best) > 0) {
		best = cascadeRole
		source = SourceCascading
		found = true
	} else {
		path = nil
	}

	if !found {
		return Decision{Source: SourceNone}, true, nil
	}

	role := best
	decision := Decision{
		HasAccess:     Satisfies(best, required),
		EffectiveRole: &role,
		Source:        source,
		Path:          path,
	}
	if !decision.HasAccess {
		r.log.Debug("permission denied",
			zap.String("principal_id", principalID),
			zap.String("asset_id", assetID),
			zap.String("asset_type", string(assetType)),
			zap.String("required", string(required)),
			zap.String("effective", string(best)),
		)
	}
	return decision, true, nil
}

// InvalidatePrincipal is the mutation hook for principal-scoped changes such
// as team membership updates.
func (r *Resolver) InvalidatePrincipal(principalID string) {
	r.cache.InvalidatePrincipal(principalID)
	metrics.CacheInvalidations.WithLabelValues("principal").Inc()
}

// InvalidateAsset is the mutation hook for grant and workspace-sharing
// changes on an asset. It is also required after soft-deleting or restoring
// an asset: deletion is invisible to cached entries until their counters are
// bumped, so whichever collaborator flips the deletion marker must call this
// with the affected asset.
func (r *Resolver) InvalidateAsset(assetID string, assetType AssetType) {
	r.cache.InvalidateAsset(assetID, assetType)
	metrics.CacheInvalidations.WithLabelValues("asset").Inc()
}

// ClearCache drops every memoised decision.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
}

// CacheStats reports cache hit/miss counters and current size.
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.Stats()
}
