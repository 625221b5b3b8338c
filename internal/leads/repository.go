package leads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/internal/repo"
	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/enums"
)

const maxLastErrorLength = 1024

// Repository persists enquiry leads.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, lead *models.EnquiryLead) error {
	return r.DB(ctx).Create(lead).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.EnquiryLead, error) {
	var lead models.EnquiryLead
	if err := r.First(ctx, &lead, "id = ?", id); err != nil {
		return nil, err
	}
	return &lead, nil
}

// MarkSentTx flips a pending lead to sent inside the caller's transaction.
func (r *Repository) MarkSentTx(tx *gorm.DB, id uuid.UUID, sentAt time.Time) error {
	return r.Within(tx).DB(nil).Model(&models.EnquiryLead{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.LeadStatusSent,
			"sent_at":    sentAt,
			"last_error": nil,
		}).Error
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := repo.Truncate(cause.Error(), maxLastErrorLength)
	return r.DB(ctx).Model(&models.EnquiryLead{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     enums.LeadStatusFailed,
			"last_error": msg,
		}).Error
}
