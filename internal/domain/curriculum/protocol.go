package curriculum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Protocol is a time-boxed, multi-week curriculum unit. Authoring owns these
// rows; the engine only reads them.
type Protocol struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Slug     string `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Title    string `gorm:"column:title;not null" json:"title"`
	Summary  string `gorm:"column:summary" json:"summary,omitempty"`
	Category string `gorm:"column:category;index" json:"category,omitempty"`

	// TotalWeeks bounds the clock; valid range is 1-52.
	TotalWeeks int `gorm:"column:total_weeks;not null" json:"total_weeks"`

	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Protocol) TableName() string { return "protocol" }

// TotalDays returns the number of calendar days the protocol spans.
func (p *Protocol) TotalDays() int {
	return p.TotalWeeks * 7
}

func (p *Protocol) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
