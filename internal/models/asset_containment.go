package models

// AssetContainment records that one asset is currently placed inside another,
// e.g. a metric on a dashboard or a dashboard in a collection. Which (child,
// parent) type pairs are legal is declared in the authz containment graph;
// rows here are the time-varying instance data the cascading resolver walks.
type AssetContainment struct {
	BaseModel

	ParentID   string `gorm:"type:uuid;not null;uniqueIndex:idx_containment,priority:1" json:"parent_id"`
	ParentType string `gorm:"type:varchar(32);not null;uniqueIndex:idx_containment,priority:2" json:"parent_type"`
	ChildID    string `gorm:"type:uuid;not null;uniqueIndex:idx_containment,priority:3;index:idx_containment_child" json:"child_id"`
	ChildType  string `gorm:"type:varchar(32);not null;uniqueIndex:idx_containment,priority:4;index:idx_containment_child" json:"child_type"`

	AddedByID *string `gorm:"type:uuid" json:"added_by_id"`
}

// TableName overrides the default table name for GORM.
func (AssetContainment) TableName() string {
	return "asset_containments"
}
