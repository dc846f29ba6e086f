package authz

// ContainmentEdge declares that assets of Child may be placed inside assets of
// Parent, and that access to the parent flows down to the child capped at
// MaxRole. The table is static and acyclic at the type level; instance-level
// containment is resolved through Store.GetParents.
type ContainmentEdge struct {
	Child   AssetType
	Parent  AssetType
	MaxRole Role
}

// Containment implies usage rights, not ownership rights: every edge caps
// inherited access at can_edit regardless of the role held on the container.
var containmentEdges = []ContainmentEdge{
	{Child: AssetTypeMetric, Parent: AssetTypeDashboard, MaxRole: RoleCanEdit},
	{Child: AssetTypeMetric, Parent: AssetTypeCollection, MaxRole: RoleCanEdit},
	{Child: AssetTypeMetric, Parent: AssetTypeChat, MaxRole: RoleCanEdit},
	{Child: AssetTypeMetric, Parent: AssetTypeReport, MaxRole: RoleCanEdit},
	{Child: AssetTypeDashboard, Parent: AssetTypeCollection, MaxRole: RoleCanEdit},
	{Child: AssetTypeDashboard, Parent: AssetTypeChat, MaxRole: RoleCanEdit},
	{Child: AssetTypeChat, Parent: AssetTypeCollection, MaxRole: RoleCanEdit},
	{Child: AssetTypeReport, Parent: AssetTypeCollection, MaxRole: RoleCanEdit},
}

// ContainmentEdges returns a copy of the declared edge table.
func ContainmentEdges() []ContainmentEdge {
	return append([]ContainmentEdge(nil), containmentEdges...)
}

// ParentEdges returns the edges whose child side matches the given type.
func ParentEdges(child AssetType) []ContainmentEdge {
	var edges []ContainmentEdge
	for _, edge := range containmentEdges {
		if edge.Child == child {
			edges = append(edges, edge)
		}
	}
	return edges
}

// ChildTypes returns the asset types the given type may contain. Used by the
// cache to conservatively invalidate cascading results when a container's
// access changes.
func ChildTypes(parent AssetType) []AssetType {
	seen := make(map[AssetType]struct{})
	var children []AssetType
	for _, edge := range containmentEdges {
		if edge.Parent != parent {
			continue
		}
		if _, ok := seen[edge.Child]; ok {
			continue
		}
		seen[edge.Child] = struct{}{}
		children = append(children, edge.Child)
	}
	return children
}

// EdgeBetween returns the declared edge for the (child, parent) type pair.
func EdgeBetween(child, parent AssetType) (ContainmentEdge, bool) {
	for _, edge := range containmentEdges {
		if edge.Child == child && edge.Parent == parent {
			return edge, true
		}
	}
	return ContainmentEdge{}, false
}

// capRole limits an inherited role to the cap declared on the edge it was
// inherited through.
func capRole(role, cap Role) Role {
	if Compare(role, cap) > 0 {
		return cap
	}
	return role
}
