package models

import "time"

// Asset is any permission-bearing entity: metric, dashboard, collection,
// chat, report or dataset. All types share one table keyed by (id,
// asset_type). Deletion is a soft marker; deleted assets never satisfy an
// access check.
type Asset struct {
	BaseModel

	AssetType      string `gorm:"type:varchar(32);not null;index:idx_assets_type_org" json:"asset_type"`
	OrganizationID string `gorm:"type:uuid;not null;index:idx_assets_type_org" json:"organization_id"`
	OwnerID        string `gorm:"type:uuid;not null;index" json:"owner_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// WorkspaceSharing is the default role every active organisation member
	// receives on this asset: none, can_view, can_edit or full_access.
	WorkspaceSharing string `gorm:"type:varchar(32);not null;default:none" json:"workspace_sharing"`

	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName overrides the default table name for GORM.
func (Asset) TableName() string {
	return "assets"
}
