package authz

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AssetType enumerates the permission-bearing entity kinds. The set is closed:
// the containment graph and the cache key space are both defined over it.
type AssetType string

const (
	AssetTypeMetric     AssetType = "metric"
	AssetTypeDashboard  AssetType = "dashboard"
	AssetTypeCollection AssetType = "collection"
	AssetTypeChat       AssetType = "chat"
	AssetTypeReport     AssetType = "report"
	AssetTypeDataset    AssetType = "dataset"
)

var assetTypes = map[AssetType]struct{}{
	AssetTypeMetric:     {},
	AssetTypeDashboard:  {},
	AssetTypeCollection: {},
	AssetTypeChat:       {},
	AssetTypeReport:     {},
	AssetTypeDataset:    {},
}

// AssetTypes lists every defined asset type.
func AssetTypes() []AssetType {
	return []AssetType{
		AssetTypeMetric,
		AssetTypeDashboard,
		AssetTypeCollection,
		AssetTypeChat,
		AssetTypeReport,
		AssetTypeDataset,
	}
}

// Valid reports whether the asset type is one of the defined values.
func (t AssetType) Valid() bool {
	_, ok := assetTypes[t]
	return ok
}

// ParseAssetType converts a string into an AssetType.
func ParseAssetType(value string) (AssetType, error) {
	t := AssetType(strings.ToLower(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", fmt.Errorf("authz: unknown asset type %q", value)
	}
	return t, nil
}

// Identity types accepted on explicit grants.
const (
	IdentityTypeUser = "user"
	IdentityTypeTeam = "team"
)

// Asset carries the metadata the engine needs to evaluate access. It is a
// read-only projection of the stored asset row.
type Asset struct {
	ID               string
	Type             AssetType
	OrganizationID   string
	OwnerID          string
	WorkspaceSharing WorkspaceSharing
	DeletedAt        *time.Time
}

// Deleted reports whether the asset is soft-deleted. Deleted assets never
// satisfy an access check and never contribute cascading access.
func (a *Asset) Deleted() bool {
	return a != nil && a.DeletedAt != nil
}

// Grant is an explicit per-asset role for a principal. At most one grant
// exists per (identity, asset) pair; replacing the role is a last-write-wins
// update, grants are never stacked.
type Grant struct {
	IdentityID   string
	IdentityType string
	AssetID      string
	AssetType    AssetType
	Role         Role
	GrantedByID  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ParentRef identifies a container asset discovered through the containment
// graph.
type ParentRef struct {
	ID   string
	Type AssetType
}

// Store is the narrow query interface the engine consumes. Implementations
// back it with the relational store; the engine never writes through it.
//
// Absence is not an error: GetExplicitGrant and GetAsset return (nil, nil)
// when no row exists. A non-nil error always means the lookup itself failed
// and the caller must not treat it as a denial.
type Store interface {
	// GetExplicitGrant returns the strongest explicit grant reachable by the
	// principal for the asset, considering both the principal's own grants
	// and grants made to teams the principal belongs to. Nil when no grant
	// exists.
	GetExplicitGrant(ctx context.Context, principalID, assetID string, assetType AssetType) (*Grant, error)

	// GetAsset returns the asset metadata, including soft-deleted assets so
	// the engine can exclude them explicitly. Nil when the asset does not
	// exist.
	GetAsset(ctx context.Context, assetID string, assetType AssetType) (*Asset, error)

	// GetParents returns every existing, non-deleted container of the asset
	// across all declared containment edges.
	GetParents(ctx context.Context, assetID string, assetType AssetType) ([]ParentRef, error)

	// IsOrganizationMember reports whether the principal is an active member
	// of the organisation.
	IsOrganizationMember(ctx context.Context, principalID, organizationID string) (bool, error)
}
