package authz

import (
	"context"
	"sync"
)

// fakeStore is an in-memory Store used across the engine tests.
type fakeStore struct {
	mu sync.Mutex

	assets  map[assetRef]*Asset
	grants  map[string]map[assetRef]Grant // principalID -> asset -> grant
	parents map[assetRef][]ParentRef
	members map[string]map[string]bool // organizationID -> principalID -> active

	err   error
	calls map[string]int

	// afterGrantRead, when set, runs after GetExplicitGrant reads the grant
	// table. Tests use it to commit a mutation mid-check.
	afterGrantRead func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		assets:  make(map[assetRef]*Asset),
		grants:  make(map[string]map[assetRef]Grant),
		parents: make(map[assetRef][]ParentRef),
		members: make(map[string]map[string]bool),
		calls:   make(map[string]int),
	}
}

func (f *fakeStore) addAsset(a Asset) *Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := a
	f.assets[assetRef{ID: a.ID, Type: a.Type}] = &stored
	return &stored
}

func (f *fakeStore) addGrant(principalID string, g Grant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grants[principalID] == nil {
		f.grants[principalID] = make(map[assetRef]Grant)
	}
	f.grants[principalID][assetRef{ID: g.AssetID, Type: g.AssetType}] = g
}

func (f *fakeStore) removeGrant(principalID, assetID string, assetType AssetType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.grants[principalID], assetRef{ID: assetID, Type: assetType})
}

func (f *fakeStore) addParent(childID string, childType AssetType, parentID string, parentType AssetType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := assetRef{ID: childID, Type: childType}
	f.parents[key] = append(f.parents[key], ParentRef{ID: parentID, Type: parentType})
}

func (f *fakeStore) addMember(organizationID, principalID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[organizationID] == nil {
		f.members[organizationID] = make(map[string]bool)
	}
	f.members[organizationID][principalID] = true
}

func (f *fakeStore) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) GetExplicitGrant(_ context.Context, principalID, assetID string, assetType AssetType) (*Grant, error) {
	f.record("GetExplicitGrant")
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	grant, ok := f.grants[principalID][assetRef{ID: assetID, Type: assetType}]
	hook := f.afterGrantRead
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, nil
	}
	return &grant, nil
}

func (f *fakeStore) GetAsset(_ context.Context, assetID string, assetType AssetType) (*Asset, error) {
	f.record("GetAsset")
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	asset, ok := f.assets[assetRef{ID: assetID, Type: assetType}]
	if !ok {
		return nil, nil
	}
	out := *asset
	return &out, nil
}

func (f *fakeStore) GetParents(_ context.Context, assetID string, assetType AssetType) ([]ParentRef, error) {
	f.record("GetParents")
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := f.parents[assetRef{ID: assetID, Type: assetType}]
	out := make([]ParentRef, 0, len(refs))
	for _, ref := range refs {
		if asset, ok := f.assets[assetRef(ref)]; ok && asset.Deleted() {
			continue
		}
		out = append(out, ref)
	}
	return out, nil
}

func (f *fakeStore) IsOrganizationMember(_ context.Context, principalID, organizationID string) (bool, error) {
	f.record("IsOrganizationMember")
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[organizationID][principalID], nil
}
