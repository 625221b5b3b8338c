package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ilift/ilift-backend/pkg/enums"
)

// EnvelopeVersion is bumped when the envelope layout changes.
const EnvelopeVersion = 1

// DefaultSource names the producer when an event does not set one.
const DefaultSource = "ilift-api"

// ActorRef identifies the anonymous visitor whose enquiry produced the event.
type ActorRef struct {
	VisitorID uuid.UUID `json:"visitorId"`
}

// PayloadEnvelope is what outbox_events.payload holds and what subscribers
// of the leads topic receive verbatim.
type PayloadEnvelope struct {
	Version    int                   `json:"version"`
	EventID    string                `json:"eventId"`
	Type       enums.OutboxEventType `json:"type,omitempty"`
	Source     string                `json:"source,omitempty"`
	OccurredAt time.Time             `json:"occurredAt"`
	Actor      *ActorRef             `json:"actor,omitempty"`
	Data       json.RawMessage       `json:"data"`
}
