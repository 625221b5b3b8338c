package enquiry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ilift/ilift-backend/pkg/redis"
)

// StateVersion is the layout version written into every persisted record.
const StateVersion = 0

type persistedItem struct {
	ID       string      `json:"_id"`
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
	ImageURL string      `json:"imageUrl"`
	Category string      `json:"category"`
	Price    json.Number `json:"price,omitempty"`
}

type persistedState struct {
	State struct {
		Items []persistedItem `json:"items"`
	} `json:"state"`
	Version int `json:"version"`
}

// EncodeState serializes the collection in the durable record layout
// {"state":{"items":[...]},"version":0}. The drawer flag is never written.
func EncodeState(items []Item) (string, error) {
	var doc persistedState
	doc.Version = StateVersion
	doc.State.Items = make([]persistedItem, 0, len(items))
	for _, item := range items {
		p := persistedItem{
			ID:       item.ID,
			Name:     item.Name,
			Slug:     item.Slug,
			ImageURL: item.ImageURL,
			Category: item.Category,
		}
		if item.Price != nil {
			p.Price = json.Number(item.Price.String())
		}
		doc.State.Items = append(doc.State.Items, p)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode enquiry state: %w", err)
	}
	return string(out), nil
}

// DecodeState parses a durable record. An empty payload is an empty collection.
func DecodeState(raw string) ([]Item, error) {
	if strings.TrimSpace(raw) == "" {
		return []Item{}, nil
	}
	var doc persistedState
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode enquiry state: %w", err)
	}
	if doc.Version != StateVersion {
		return nil, fmt.Errorf("unsupported enquiry state version %d", doc.Version)
	}
	items := make([]Item, 0, len(doc.State.Items))
	for _, p := range doc.State.Items {
		item := Item{
			ID:       p.ID,
			Name:     p.Name,
			Slug:     p.Slug,
			ImageURL: p.ImageURL,
			Category: p.Category,
		}
		if p.Price != "" {
			price, err := decimal.NewFromString(p.Price.String())
			if err != nil {
				return nil, fmt.Errorf("decode price for %s: %w", p.ID, err)
			}
			item.Price = &price
		}
		items = append(items, item)
	}
	return items, nil
}

// RedisPersister stores one visitor's collection under its namespaced key.
type RedisPersister struct {
	store     redis.CartStore
	visitorID string
	ttl       time.Duration
}

func NewRedisPersister(store redis.CartStore, visitorID string, ttl time.Duration) *RedisPersister {
	return &RedisPersister{store: store, visitorID: visitorID, ttl: ttl}
}

func (p *RedisPersister) key() string {
	return p.store.EnquiryCartKey(p.visitorID)
}

func (p *RedisPersister) Load(ctx context.Context) ([]Item, error) {
	raw, err := p.store.Get(ctx, p.key())
	if err != nil {
		if redis.IsNil(err) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("load enquiry cart: %w", err)
	}
	return DecodeState(raw)
}

// Save writes the full collection and refreshes the record TTL.
func (p *RedisPersister) Save(ctx context.Context, items []Item) error {
	payload, err := EncodeState(items)
	if err != nil {
		return err
	}
	if err := p.store.Set(ctx, p.key(), payload, p.ttl); err != nil {
		return fmt.Errorf("save enquiry cart: %w", err)
	}
	return nil
}

// MemoryPersister keeps the encoded record in process. Used when no durable
// store is configured and in tests.
type MemoryPersister struct {
	mu  sync.Mutex
	raw string
	err error
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DecodeState(m.raw)
}

func (m *MemoryPersister) Save(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	payload, err := EncodeState(items)
	if err != nil {
		return err
	}
	m.raw = payload
	return nil
}

// FailWith makes subsequent saves fail with err; nil restores writes.
func (m *MemoryPersister) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Raw returns the last encoded record.
func (m *MemoryPersister) Raw() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw
}
