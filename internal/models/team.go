package models

// Team groups users inside an organisation. Explicit grants may target a team
// instead of a single user; every member then inherits the granted role.
type Team struct {
	BaseModel

	OrganizationID string `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string `gorm:"not null" json:"name"`
	Description    string `json:"description"`

	Users []User `gorm:"many2many:user_teams;" json:"users,omitempty"`
}
