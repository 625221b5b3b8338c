package enquiry

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/metrics"
	"github.com/ilift/ilift-backend/pkg/validation"
)

// FlowState is the submission view state. StateEmpty is derived from an
// empty collection while composing and is never stored.
type FlowState string

const (
	StateComposing  FlowState = "composing"
	StateEmpty      FlowState = "empty"
	StateSubmitting FlowState = "submitting"
	StateSuccess    FlowState = "success"
)

const (
	SubmitFailedMessage = "We could not send your quote request. Please try again."

	defaultSubmitTimeout = 20 * time.Second
)

// Contact is the form half of a quote request.
type Contact struct {
	Name    string `json:"name" validate:"required"`
	Company string `json:"company" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Message string `json:"message,omitempty"`
}

func (c Contact) trimmed() Contact {
	return Contact{
		Name:    strings.TrimSpace(c.Name),
		Company: strings.TrimSpace(c.Company),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Message: strings.TrimSpace(c.Message),
	}
}

// Submission is the payload handed to the submission boundary.
type Submission struct {
	VisitorID string
	Contact   Contact
	Items     []Item
}

// Receipt is the boundary's confirmation of a delivered lead.
type Receipt struct {
	LeadID    string `json:"leadId"`
	Reference string `json:"reference"`
	Subject   string `json:"subject"`
}

// Submitter turns a completed enquiry into a sales lead.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) (Receipt, error)
}

// FlowView is what the submission page renders.
type FlowView struct {
	State          FlowState `json:"state"`
	Items          []Item    `json:"items"`
	Count          int       `json:"count"`
	Contact        Contact   `json:"contact"`
	Error          string    `json:"error,omitempty"`
	Receipt        *Receipt  `json:"receipt,omitempty"`
	SubmittedCount int       `json:"submittedCount,omitempty"`
	CatalogPath    string    `json:"catalogPath"`
}

type FlowParams struct {
	Store         *Store
	Submitter     Submitter
	Logger        *logger.Logger
	Metrics       *metrics.EnquiryMetrics
	SubmitTimeout time.Duration
}

// Flow is one visitor's request-a-quote state machine.
type Flow struct {
	store     *Store
	submitter Submitter
	logg      *logger.Logger
	metrics   *metrics.EnquiryMetrics
	timeout   time.Duration

	mu             sync.Mutex
	state          FlowState
	contact        Contact
	lastErr        string
	receipt        *Receipt
	submittedCount int
}

func NewFlow(params FlowParams) *Flow {
	f := &Flow{
		store:     params.Store,
		submitter: params.Submitter,
		logg:      params.Logger,
		metrics:   params.Metrics,
		timeout:   params.SubmitTimeout,
		state:     StateComposing,
	}
	if f.logg == nil {
		f.logg = logger.Nop()
	}
	if f.timeout <= 0 {
		f.timeout = defaultSubmitTimeout
	}
	return f
}

func (f *Flow) View() FlowView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// SetContact keeps draft form values between page loads.
func (f *Flow) SetContact(c Contact) (FlowView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case StateSubmitting:
		return f.viewLocked(), pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	case StateSuccess:
		return f.viewLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "quote request already sent; start a new request")
	}
	f.contact = c.trimmed()
	return f.viewLocked(), nil
}

// Submit validates the form, calls the boundary once and applies the result.
// Only one submission may be in flight per flow.
func (f *Flow) Submit(ctx context.Context, c Contact) (FlowView, error) {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		view := f.viewLocked()
		f.mu.Unlock()
		return view, pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	case StateSuccess:
		view := f.viewLocked()
		f.mu.Unlock()
		return view, pkgerrors.New(pkgerrors.CodeStateConflict, "quote request already sent; start a new request")
	}

	f.contact = c.trimmed()
	items := f.store.Items()
	if len(items) == 0 {
		view := f.viewLocked()
		f.mu.Unlock()
		return view, pkgerrors.New(pkgerrors.CodeStateConflict, "enquiry list is empty")
	}
	if err := validation.Struct(f.contact); err != nil {
		view := f.viewLocked()
		f.mu.Unlock()
		return view, err
	}

	f.state = StateSubmitting
	f.lastErr = ""
	contact := f.contact
	f.mu.Unlock()

	logCtx := f.logg.WithVisitorID(ctx, f.store.VisitorID())
	logCtx = f.logg.WithField(logCtx, "item_count", len(items))
	f.logg.Info(logCtx, "enquiry.submit_started")

	// the boundary call outlives a dropped client connection but not the timeout
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	started := time.Now()
	receipt, err := f.submitter.Submit(callCtx, Submission{
		VisitorID: f.store.VisitorID(),
		Contact:   contact,
		Items:     items,
	})
	cancel()
	elapsed := time.Since(started)

	if err != nil {
		f.metrics.ObserveSubmission("failure", elapsed)
		f.logg.Error(logCtx, "enquiry.submit_failed", err)

		f.mu.Lock()
		f.state = StateComposing
		f.lastErr = SubmitFailedMessage
		view := f.viewLocked()
		f.mu.Unlock()
		return view, submitError(err)
	}

	f.metrics.ObserveSubmission("success", elapsed)
	f.store.Clear(ctx)
	f.store.Close(ctx)

	f.mu.Lock()
	f.state = StateSuccess
	f.receipt = &receipt
	f.submittedCount = len(items)
	view := f.viewLocked()
	f.mu.Unlock()

	logCtx = f.logg.WithField(logCtx, "reference", receipt.Reference)
	f.logg.Info(logCtx, "enquiry.submit_succeeded")
	return view, nil
}

// Reset starts a fresh flow instance and returns where the visitor goes next.
func (f *Flow) Reset() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	}
	f.state = StateComposing
	f.contact = Contact{}
	f.lastErr = ""
	f.receipt = nil
	f.submittedCount = 0
	return CatalogPath, nil
}

func (f *Flow) viewLocked() FlowView {
	items := f.store.Items()
	state := f.state
	if state == StateComposing && len(items) == 0 {
		state = StateEmpty
	}
	view := FlowView{
		State:          state,
		Items:          items,
		Count:          len(items),
		Contact:        f.contact,
		Error:          f.lastErr,
		SubmittedCount: f.submittedCount,
		CatalogPath:    CatalogPath,
	}
	if f.receipt != nil {
		r := *f.receipt
		view.Receipt = &r
	}
	return view
}

func submitError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, SubmitFailedMessage)
}
