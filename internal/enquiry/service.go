package enquiry

import (
	"context"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/ilift/ilift-backend/pkg/errors"
	"github.com/ilift/ilift-backend/pkg/logger"
	"github.com/ilift/ilift-backend/pkg/metrics"
	"github.com/ilift/ilift-backend/pkg/redis"
)

// Service exposes the visitor-scoped enquiry operations to the HTTP layer.
type Service interface {
	Cart(ctx context.Context, visitorID string) (Snapshot, error)
	AddItem(ctx context.Context, visitorID string, rec CatalogRecord) (Snapshot, error)
	RemoveItem(ctx context.Context, visitorID, productID string) (Snapshot, error)
	Membership(ctx context.Context, visitorID, productID string) (IndicatorState, error)
	Press(ctx context.Context, visitorID string, rec CatalogRecord) (IndicatorResult, error)
	Toggle(ctx context.Context, visitorID string) (Snapshot, error)
	Drawer(ctx context.Context, visitorID string) (Drawer, error)
	Checkout(ctx context.Context, visitorID string) (FlowView, error)
	SetContact(ctx context.Context, visitorID string, contact Contact) (FlowView, error)
	Submit(ctx context.Context, visitorID string, contact Contact) (FlowView, error)
	Reset(ctx context.Context, visitorID string) (ResetResult, error)
	Subscribe(ctx context.Context, visitorID string, fn Observer) (Snapshot, func(), error)
}

// ResetResult tells the client where a fresh request starts.
type ResetResult struct {
	Redirect string   `json:"redirect"`
	View     FlowView `json:"checkout"`
}

// ProductIDResolver maps a content-store document id onto the catalog id, so
// a product added from a raw document and from a catalog card is one item.
// Ids it does not know are returned unchanged.
type ProductIDResolver interface {
	CanonicalProductID(ctx context.Context, id string) (string, error)
}

type ServiceParams struct {
	CartStore     redis.CartStore
	ProductIDs    ProductIDResolver
	CartTTL       time.Duration
	RegistrySize  int
	SubmitTimeout time.Duration
	Submitter     Submitter
	Logger        *logger.Logger
	Metrics       *metrics.EnquiryMetrics
}

type service struct {
	registry   *Registry
	productIDs ProductIDResolver
	logg       *logger.Logger
	metrics    *metrics.EnquiryMetrics
}

// NewService wires the registry so every visitor gets a store persisted to
// the cart store and a flow bound to the submitter.
func NewService(params ServiceParams) (Service, error) {
	if params.Submitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "enquiry submitter is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	factory := func(ctx context.Context, visitorID string) *Session {
		var persister Persister
		if params.CartStore != nil {
			persister = NewRedisPersister(params.CartStore, visitorID, params.CartTTL)
		}
		store := NewStore(ctx, StoreParams{
			VisitorID: visitorID,
			Persister: persister,
			Logger:    logg,
			Metrics:   params.Metrics,
		})
		return &Session{
			VisitorID: visitorID,
			Store:     store,
			Flow: NewFlow(FlowParams{
				Store:         store,
				Submitter:     params.Submitter,
				Logger:        logg,
				Metrics:       params.Metrics,
				SubmitTimeout: params.SubmitTimeout,
			}),
			Indicator: NewIndicator(store),
		}
	}

	registry, err := NewRegistry(params.RegistrySize, factory, params.Metrics)
	if err != nil {
		return nil, err
	}
	return &service{
		registry:   registry,
		productIDs: params.ProductIDs,
		logg:       logg,
		metrics:    params.Metrics,
	}, nil
}

// productID trims id and maps it into the catalog id space. A lookup failure
// keeps the id as given.
func (s *service) productID(ctx context.Context, id string) string {
	id = strings.TrimSpace(id)
	if id == "" || s.productIDs == nil {
		return id
	}
	canonical, err := s.productIDs.CanonicalProductID(ctx, id)
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": id, "error": err.Error()})
		s.logg.Warn(logCtx, "enquiry.product_id_unresolved")
		return id
	}
	if canonical = strings.TrimSpace(canonical); canonical == "" {
		return id
	}
	return canonical
}

// session pins the visitor's session for the caller; release must run once
// the operation is done.
func (s *service) session(ctx context.Context, visitorID string) (*Session, func(), error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "visitor identity missing")
	}
	session, release, err := s.registry.Acquire(ctx, visitorID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load enquiry session")
	}
	return session, release, nil
}

func (s *service) Cart(ctx context.Context, visitorID string) (Snapshot, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return Snapshot{}, err
	}
	defer release()
	return session.Store.Snapshot(), nil
}

func (s *service) AddItem(ctx context.Context, visitorID string, rec CatalogRecord) (Snapshot, error) {
	rec.ID = s.productID(ctx, rec.ID)
	item := Normalize(rec)
	if item.ID == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"id": "is required"})
	}
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return Snapshot{}, err
	}
	defer release()
	return session.Store.AddItem(ctx, item), nil
}

func (s *service) RemoveItem(ctx context.Context, visitorID, productID string) (Snapshot, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return Snapshot{}, err
	}
	defer release()
	return session.Store.RemoveItem(ctx, s.productID(ctx, productID)), nil
}

func (s *service) Membership(ctx context.Context, visitorID, productID string) (IndicatorState, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return IndicatorState{}, err
	}
	defer release()
	return session.Indicator.State(s.productID(ctx, productID)), nil
}

func (s *service) Press(ctx context.Context, visitorID string, rec CatalogRecord) (IndicatorResult, error) {
	rec.ID = s.productID(ctx, rec.ID)
	if rec.ID == "" {
		return IndicatorResult{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"id": "is required"})
	}
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return IndicatorResult{}, err
	}
	defer release()
	return session.Indicator.Press(ctx, rec), nil
}

func (s *service) Toggle(ctx context.Context, visitorID string) (Snapshot, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return Snapshot{}, err
	}
	defer release()
	return session.Store.Toggle(ctx), nil
}

func (s *service) Drawer(ctx context.Context, visitorID string) (Drawer, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return Drawer{}, err
	}
	defer release()
	return DrawerView(session.Store.Snapshot()), nil
}

func (s *service) Checkout(ctx context.Context, visitorID string) (FlowView, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return FlowView{}, err
	}
	defer release()
	return session.Flow.View(), nil
}

func (s *service) SetContact(ctx context.Context, visitorID string, contact Contact) (FlowView, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return FlowView{}, err
	}
	defer release()
	return session.Flow.SetContact(contact)
}

func (s *service) Submit(ctx context.Context, visitorID string, contact Contact) (FlowView, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return FlowView{}, err
	}
	defer release()
	return session.Flow.Submit(ctx, contact)
}

func (s *service) Reset(ctx context.Context, visitorID string) (ResetResult, error) {
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return ResetResult{}, err
	}
	defer release()
	redirect, err := session.Flow.Reset()
	if err != nil {
		return ResetResult{}, err
	}
	return ResetResult{Redirect: redirect, View: session.Flow.View()}, nil
}

// Subscribe pins the session for the lifetime of the observer.
func (s *service) Subscribe(ctx context.Context, visitorID string, fn Observer) (Snapshot, func(), error) {
	if fn == nil {
		return Snapshot{}, nil, pkgerrors.New(pkgerrors.CodeInternal, "observer is required")
	}
	session, release, err := s.session(ctx, visitorID)
	if err != nil {
		return Snapshot{}, nil, err
	}
	snap, cancel := session.Store.Watch(fn)
	s.metrics.AddSubscribers(1)

	logCtx := s.logg.WithVisitorID(ctx, visitorID)
	s.logg.Debug(logCtx, "enquiry.subscribed")

	var once sync.Once
	return snap, func() {
		once.Do(func() {
			cancel()
			release()
			s.metrics.AddSubscribers(-1)
		})
	}, nil
}
