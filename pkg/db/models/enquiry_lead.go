package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/pkg/enums"
)

// EnquiryLead records a submitted quote request and its email delivery state.
type EnquiryLead struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Reference string           `gorm:"column:reference;not null"`
	VisitorID string           `gorm:"column:visitor_id;not null"`
	Name      string           `gorm:"column:name;not null"`
	Company   string           `gorm:"column:company;not null"`
	Email     string           `gorm:"column:email;not null"`
	Phone     string           `gorm:"column:phone;not null"`
	Message   *string          `gorm:"column:message"`
	Subject   string           `gorm:"column:subject;not null"`
	Items     []LeadItem       `gorm:"column:items;serializer:json"`
	Status    enums.LeadStatus `gorm:"column:status;not null"`
	LastError *string          `gorm:"column:last_error"`
	SentAt    *time.Time       `gorm:"column:sent_at"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (EnquiryLead) TableName() string { return "enquiry_leads" }

func (l *EnquiryLead) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Items == nil {
		l.Items = []LeadItem{}
	}
	return nil
}

// LeadItem is the snapshot of one enquiry item captured at submission time.
type LeadItem struct {
	ProductID string           `json:"productId"`
	Name      string           `json:"name"`
	Slug      string           `json:"slug"`
	ImageURL  string           `json:"imageUrl"`
	Category  string           `json:"category"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}
