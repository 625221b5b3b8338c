package payloads

import (
	"time"

	"github.com/google/uuid"
)

// EnquiryLeadItem is one product reference carried by a lead event.
type EnquiryLeadItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug,omitempty"`
	Category  string  `json:"category,omitempty"`
	Price     *string `json:"price,omitempty"`
}

// EnquiryLeadSubmittedEvent is emitted once the sales team has been emailed.
type EnquiryLeadSubmittedEvent struct {
	LeadID    uuid.UUID         `json:"lead_id"`
	Reference string            `json:"reference"`
	Subject   string            `json:"subject"`
	Company   string            `json:"company,omitempty"`
	Email     string            `json:"email"`
	ItemCount int               `json:"item_count"`
	Items     []EnquiryLeadItem `json:"items"`
	SentAt    time.Time         `json:"sent_at"`
}
