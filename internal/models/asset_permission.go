package models

import "gorm.io/datatypes"

// AssetPermission stores one explicit grant: a role given to a user or team
// on a specific asset. The unique index enforces at most one row per
// (identity, asset) key; updating a grant replaces the role, grants are never
// stacked.
type AssetPermission struct {
	BaseModel

	AssetID      string `gorm:"type:uuid;not null;uniqueIndex:idx_asset_identity,priority:1" json:"asset_id"`
	AssetType    string `gorm:"type:varchar(32);not null;uniqueIndex:idx_asset_identity,priority:2" json:"asset_type"`
	IdentityID   string `gorm:"type:uuid;not null;uniqueIndex:idx_asset_identity,priority:4;index" json:"identity_id"`
	IdentityType string `gorm:"type:varchar(16);not null;uniqueIndex:idx_asset_identity,priority:3" json:"identity_type"`

	Role        string         `gorm:"type:varchar(32);not null" json:"role"`
	GrantedByID *string        `gorm:"type:uuid" json:"granted_by_id"`
	Metadata    datatypes.JSON `json:"metadata"`
}

// TableName overrides the default table name for GORM.
func (AssetPermission) TableName() string {
	return "asset_permissions"
}
