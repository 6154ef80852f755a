package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is the account row behind every assignment. Role gates coach
// overrides; everything else about the person lives in metadata.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Email       string `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string `gorm:"not null;column:password" json:"-"`
	DisplayName string `gorm:"column:display_name" json:"display_name"`
	Role        string `gorm:"column:role;not null;default:'member'" json:"role"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "app_user" }

func (u *User) IsCoach() bool {
	return u.Role == "coach" || u.Role == "admin"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
