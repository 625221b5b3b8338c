package leads

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ilift/ilift-backend/internal/enquiry"
	"github.com/ilift/ilift-backend/pkg/db/models"
	"github.com/ilift/ilift-backend/pkg/enums"
	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/mailer"
	"github.com/ilift/ilift-backend/pkg/outbox"
	"github.com/ilift/ilift-backend/pkg/outbox/payloads"
	"github.com/ilift/ilift-backend/pkg/redis"
)

const (
	referencePrefix  = "RFRO-"
	referenceCounter = "rfro"
	fallbackRange    = 1000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	DB         txRunner
	Repo       *Repository
	Counter    redis.CounterStore
	Mailer     mailer.Sender
	Outbox     outboxEmitter
	Recipients []string
	Logger     *logger.Logger
}

// Service turns a submitted enquiry into an emailed sales lead.
type Service struct {
	db         txRunner
	repo       *Repository
	counter    redis.CounterStore
	mailer     mailer.Sender
	outbox     outboxEmitter
	recipients []string
	logg       *logger.Logger

	now    func() time.Time
	random func(n int) int
}

var _ enquiry.Submitter = (*Service)(nil)

func NewService(params ServiceParams) (*Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("lead repository required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	recipients := make([]string, 0, len(params.Recipients))
	for _, r := range params.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one lead recipient required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		db:         params.DB,
		repo:       params.Repo,
		counter:    params.Counter,
		mailer:     params.Mailer,
		outbox:     params.Outbox,
		recipients: recipients,
		logg:       logg,
		now:        time.Now,
		random:     rand.Intn,
	}, nil
}

// Submit records the lead, emails the sales inbox and queues the lead event.
func (s *Service) Submit(ctx context.Context, sub enquiry.Submission) (enquiry.Receipt, error) {
	if len(sub.Items) == 0 {
		return enquiry.Receipt{}, pkgerrors.New(pkgerrors.CodeStateConflict, "enquiry list is empty")
	}

	reference := s.nextReference(ctx)
	subject := fmt.Sprintf("%s: Quote for %s", reference, requester(sub.Contact))
	submittedAt := s.now().UTC()

	lead := &models.EnquiryLead{
		Reference: reference,
		VisitorID: sub.VisitorID,
		Name:      sub.Contact.Name,
		Company:   sub.Contact.Company,
		Email:     sub.Contact.Email,
		Phone:     sub.Contact.Phone,
		Subject:   subject,
		Items:     leadItems(sub.Items),
		Status:    enums.LeadStatusPending,
	}
	if msg := strings.TrimSpace(sub.Contact.Message); msg != "" {
		lead.Message = &msg
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return enquiry.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store lead")
	}

	logCtx := s.logg.WithLeadID(ctx, lead.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"reference":  reference,
		"item_count": len(sub.Items),
	})

	body, err := renderLeadEmail(emailDataFor(reference, sub, submittedAt))
	if err == nil {
		err = s.mailer.Send(ctx, mailer.Message{
			To:      s.recipients,
			ReplyTo: sub.Contact.Email,
			Subject: subject,
			HTML:    body,
		})
	}
	if err != nil {
		markErr := s.repo.MarkFailed(context.WithoutCancel(ctx), lead.ID, err)
		combined := multierr.Append(err, markErr)
		s.logg.Error(logCtx, "lead.send_failed", combined)
		return enquiry.Receipt{}, pkgerrors.Wrap(pkgerrors.CodeDependency, combined, enquiry.SubmitFailedMessage)
	}

	sentAt := s.now().UTC()
	event := outbox.DomainEvent{
		EventType:     enums.EventEnquiryLeadSubmitted,
		AggregateType: enums.AggregateEnquiryLead,
		AggregateID:   lead.ID,
		Data:          leadEvent(lead, sentAt),
		OccurredAt:    sentAt,
	}
	if visitor, parseErr := uuid.Parse(sub.VisitorID); parseErr == nil {
		event.Actor = &outbox.ActorRef{VisitorID: visitor}
	}
	finalizeErr := s.db.WithTx(context.WithoutCancel(ctx), func(tx *gorm.DB) error {
		if err := s.repo.MarkSentTx(tx, lead.ID, sentAt); err != nil {
			return err
		}
		return s.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if finalizeErr != nil {
		// the email is already delivered, so the submission stands
		s.logg.Error(logCtx, "lead.finalize_failed", finalizeErr)
	} else {
		s.logg.Info(logCtx, "lead.sent")
	}

	return enquiry.Receipt{
		LeadID:    lead.ID.String(),
		Reference: reference,
		Subject:   subject,
	}, nil
}

// nextReference draws the next RFRO number from the shared counter and
// falls back to a random number when the counter is unavailable.
func (s *Service) nextReference(ctx context.Context) string {
	if s.counter != nil {
		n, err := s.counter.Incr(ctx, s.counter.CounterKey(referenceCounter))
		if err == nil {
			return fmt.Sprintf("%s%d", referencePrefix, n)
		}
		logCtx := s.logg.WithField(ctx, "error", err.Error())
		s.logg.Warn(logCtx, "lead.reference_counter_unavailable")
	}
	return fmt.Sprintf("%s%d", referencePrefix, s.random(fallbackRange))
}

func requester(c enquiry.Contact) string {
	if company := strings.TrimSpace(c.Company); company != "" {
		return company
	}
	return strings.TrimSpace(c.Name)
}

func leadItems(items []enquiry.Item) []models.LeadItem {
	out := make([]models.LeadItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.LeadItem{
			ProductID: item.ID,
			Name:      item.Name,
			Slug:      item.Slug,
			ImageURL:  item.ImageURL,
			Category:  item.Category,
			Price:     item.Price,
		})
	}
	return out
}

func emailDataFor(reference string, sub enquiry.Submission, submittedAt time.Time) emailData {
	data := emailData{
		Reference:   reference,
		Name:        sub.Contact.Name,
		Company:     strings.TrimSpace(sub.Contact.Company),
		Email:       sub.Contact.Email,
		Phone:       sub.Contact.Phone,
		Message:     strings.TrimSpace(sub.Contact.Message),
		ItemCount:   len(sub.Items),
		SubmittedAt: formatSubmittedAt(submittedAt),
	}
	if data.Company == "" {
		data.Company = companyFallback
	}
	if data.Message == "" {
		data.Message = messageFallback
	}
	for _, item := range sub.Items {
		data.Items = append(data.Items, emailItem{
			Name:     item.Name,
			Category: item.Category,
			Slug:     item.Slug,
			ImageURL: item.ImageURL,
		})
	}
	return data
}

func leadEvent(lead *models.EnquiryLead, sentAt time.Time) payloads.EnquiryLeadSubmittedEvent {
	items := make([]payloads.EnquiryLeadItem, 0, len(lead.Items))
	for _, item := range lead.Items {
		entry := payloads.EnquiryLeadItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Category:  item.Category,
		}
		if item.Price != nil {
			price := item.Price.String()
			entry.Price = &price
		}
		items = append(items, entry)
	}
	return payloads.EnquiryLeadSubmittedEvent{
		LeadID:    lead.ID,
		Reference: lead.Reference,
		Subject:   lead.Subject,
		Company:   lead.Company,
		Email:     lead.Email,
		ItemCount: len(items),
		Items:     items,
		SentAt:    sentAt,
	}
}
