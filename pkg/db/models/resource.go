package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/pkg/enums"
)

// Resource is an i-School learning item (video walkthrough or PDF manual).
type Resource struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Title       string                 `gorm:"column:title;not null"`
	Category    enums.ResourceCategory `gorm:"column:category;not null"`
	Type        enums.ResourceType     `gorm:"column:type;not null"`
	URL         string                 `gorm:"column:url;not null"`
	Thumbnail   *string                `gorm:"column:thumbnail"`
	Duration    *string                `gorm:"column:duration"`
	Description *string                `gorm:"column:description"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (Resource) TableName() string { return "resources" }

func (r *Resource) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
