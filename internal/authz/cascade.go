package authz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inkwelldata/inkwell/pkg/logger"
)

// DefaultMaxCascadeDepth bounds containment traversal. Two levels of nesting
// (metric inside a dashboard inside a collection) fit comfortably; the bound
// exists so malformed containment data cannot recurse without limit.
const DefaultMaxCascadeDepth = 3

// PathStep records one hop of the containment path that justified an
// inherited role.
type PathStep struct {
	AssetID   string    `json:"asset_id"`
	AssetType AssetType `json:"asset_type"`
	Role      Role      `json:"role"`
}

// CascadingResolver walks the containment graph upwards from an asset and
// collects the best role the principal holds on any container, capped per
// edge. Multiple paths are reconciled by taking the maximum.
type CascadingResolver struct {
	store    Store
	calc     *Calculator
	maxDepth int
	log      *zap.Logger
}

// NewCascadingResolver constructs a CascadingResolver. A non-positive
// maxDepth falls back to DefaultMaxCascadeDepth.
func NewCascadingResolver(store Store, calc *Calculator, maxDepth int) (*CascadingResolver, error) {
	if store == nil {
		return nil, errors.New("authz: cascading resolver requires a store")
	}
	if calc == nil {
		return nil, errors.New("authz: cascading resolver requires a calculator")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxCascadeDepth
	}
	return &CascadingResolver{
		store:    store,
		calc:     calc,
		maxDepth: maxDepth,
		log:      logger.WithModule("authz.cascade"),
	}, nil
}

type assetRef struct {
	ID   string
	Type AssetType
}

// CascadingRole returns the strongest role inherited through containment, the
// path that produced it, and whether any inherited role exists. Traversal
// short-circuits once a role satisfying required is found; an asset with no
// parents yields no cascading access, not an error.
func (r *CascadingResolver) CascadingRole(ctx context.Context, principalID string, asset *Asset, required Role) (Role, []PathStep, bool, error) {
	if asset == nil || asset.Deleted() {
		return "", nil, false, nil
	}
	visited := map[assetRef]struct{}{{ID: asset.ID, Type: asset.Type}: {}}
	return r.resolve(ctx, principalID, asset, required, 0, visited)
}

func (r *CascadingResolver) resolve(ctx context.Context, principalID string, asset *Asset, required Role, depth int, visited map[assetRef]struct{}) (Role, []PathStep, bool, error) {
	if len(ParentEdges(asset.Type)) == 0 {
		return "", nil, false, nil
	}

	if depth >= r.maxDepth {
		r.log.Warn("containment depth bound reached",
			zap.String("asset_id", asset.ID),
			zap.String("asset_type", string(asset.Type)),
			zap.Int("max_depth", r.maxDepth),
		)
		return "", nil, false, nil
	}

	parents, err := r.store.GetParents(ctx, asset.ID, asset.Type)
	if err != nil {
		return "", nil, false, fmt.Errorf("authz: load parents: %w", err)
	}

	var (
		best     Role
		bestPath []PathStep
		found    bool
	)

	for _, ref := range parents {
		edge, ok := EdgeBetween(asset.Type, ref.Type)
		if !ok {
			continue
		}

		key := assetRef{ID: ref.ID, Type: ref.Type}
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		parent, err := r.store.GetAsset(ctx, ref.ID, ref.Type)
		if err != nil {
			return "", nil, false, fmt.Errorf("authz: load parent asset: %w", err)
		}
		if parent == nil || parent.Deleted() {
			continue
		}

		parentRole, _, hasDirect, err := r.calc.DirectRole(ctx, principalID, parent)
		if err != nil {
			return "", nil, false, err
		}

		parentPath := []PathStep{}
		// The parent's own inherited access counts too, so a metric inside a
		// dashboard inside a collection resolves through both hops. Skip the
		// recursion when the direct role already meets the edge cap.
		if !hasDirect || Compare(parentRole, edge.MaxRole) < 0 {
			cascaded, path, hasCascade, err := r.resolve(ctx, principalID, parent, edge.MaxRole, depth+1, visited)
			if err != nil {
				return "", nil, false, err
			}
			if hasCascade && (!hasDirect || Compare(cascaded, parentRole) > 0) {
				parentRole = cascaded
				parentPath = path
				hasDirect = true
			}
		}
		if !hasDirect {
			continue
		}

		inherited := capRole(parentRole, edge.MaxRole)
		if !found || Compare(inherited, best) > 0 {
			best = inherited
			bestPath = append([]PathStep{{AssetID: parent.ID, AssetType: parent.Type, Role: inherited}}, parentPath...)
			found = true
		}

		if required.Valid() && Satisfies(best, required) {
			return best, bestPath, true, nil
		}
	}

	return best, bestPath, found, nil
}
