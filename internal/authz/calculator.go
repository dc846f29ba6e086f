package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source records which authority produced the effective role of a decision.
type Source string

const (
	SourceExplicit  Source = "explicit"
	SourceWorkspace Source = "workspace"
	SourceCascading Source = "cascading"
	SourceNone      Source = "none"
)

// Calculator resolves the direct (same-asset) role for a principal by
// combining the explicit grant with the organisation's workspace-sharing
// default. It never consults containment relationships.
type Calculator struct {
	store Store
}

// NewCalculator constructs a Calculator backed by the provided store.
func NewCalculator(store Store) (*Calculator, error) {
	if store == nil {
		return nil, errors.New("authz: calculator requires a store")
	}
	return &Calculator{store: store}, nil
}

// DirectRole returns the strongest role the principal holds on the asset
// itself, the source that produced it, and whether any role exists at all.
// Soft-deleted assets short-circuit to no access without consulting grants.
func (c *Calculator) DirectRole(ctx context.Context, principalID string, asset *Asset) (Role, Source, bool, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return "", SourceNone, false, errors.New("authz: principal id is required")
	}
	if asset == nil || asset.Deleted() {
		return "", SourceNone, false, nil
	}

	var (
		best   Role
		source = SourceNone
		found  bool
	)

	grant, err := c.store.GetExplicitGrant(ctx, principalID, asset.ID, asset.Type)
	if err != nil {
		return "", SourceNone, false, fmt.Errorf("authz: load explicit grant: %w", err)
	}
	if grant != nil && grant.Role.Valid() {
		best = grant.Role
		source = SourceExplicit
		found = true
	}

	if role, ok := asset.WorkspaceSharing.Role(); ok {
		member, err := c.store.IsOrganizationMember(ctx, principalID, asset.OrganizationID)
		if err != nil {
			return "", SourceNone, false, fmt.Errorf("authz: check organization membership: %w", err)
		}
		// An explicit grant of equal strength wins the tie so the decision
		// names the more specific source.
		if member && (!found || Compare(role, best) > 0) {
			best = role
			source = SourceWorkspace
			found = true
		}
	}

	if !found {
		return "", SourceNone, false, nil
	}
	return best, source, true, nil
}
