package enquiry

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/sse"

	"github.com/ilift/ilift-backend/api/middleware"
	"github.com/ilift/ilift-backend/api/responses"
	enquirysvc "github.com/ilift/ilift-backend/internal/enquiry"
	"github.com/ilift/ilift-backend/pkg/logger"
)

const (
	snapshotEvent = "snapshot"
	pingEvent     = "ping"

	eventBuffer       = 64
	reconnectDelayMS  = 3000
	lastEventIDHeader = "Last-Event-ID"
)

// DefaultKeepAlive is the ping interval used when none is configured.
const DefaultKeepAlive = 25 * time.Second

// Events streams a snapshot per mutation to every open view of the visitor's
// list. The first frame is the current state unless the client already has it.
func Events(svc enquirysvc.Service, keepAlive time.Duration, logg *logger.Logger) http.HandlerFunc {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, serviceUnavailable())
			return
		}

		rc := http.NewResponseController(w)
		feed := newSnapshotFeed()

		visitorID := middleware.VisitorIDFromContext(ctx)
		initial, unsubscribe, err := svc.Subscribe(ctx, visitorID, feed.push)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer unsubscribe()

		header := w.Header()
		header.Set("Content-Type", sse.ContentType)
		header.Set("Cache-Control", "no-cache")
		header.Set("Connection", "keep-alive")
		header.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		lastSent := initial.Version
		if !clientHasVersion(r, initial.Version) {
			if err := writeSnapshot(w, initial, true); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "enquiry.events.flush_unsupported")
			}
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sse.Encode(w, sse.Event{Event: pingEvent, Data: strconv.FormatInt(time.Now().Unix(), 10)}); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			case <-feed.ready:
				for _, snap := range feed.drain() {
					// The subscription may race a mutation already reflected in the initial frame.
					if snap.Version <= lastSent {
						continue
					}
					if err := writeSnapshot(w, snap, false); err != nil {
						return
					}
					lastSent = snap.Version
				}
				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snap enquirysvc.Snapshot, first bool) error {
	event := sse.Event{
		Event: snapshotEvent,
		Id:    strconv.FormatUint(snap.Version, 10),
		Data:  snap,
	}
	if first {
		event.Retry = reconnectDelayMS
	}
	return sse.Encode(w, event)
}

func clientHasVersion(r *http.Request, version uint64) bool {
	raw := strings.TrimSpace(r.Header.Get(lastEventIDHeader))
	if raw == "" {
		return false
	}
	seen, err := strconv.ParseUint(raw, 10, 64)
	return err == nil && seen == version
}

// snapshotFeed hands snapshots from the mutating goroutine to the stream
// writer without blocking the store. When the buffer overflows only the
// newest snapshot is kept, which still carries the full state.
type snapshotFeed struct {
	mu      sync.Mutex
	pending []enquirysvc.Snapshot
	ready   chan struct{}
}

func newSnapshotFeed() *snapshotFeed {
	return &snapshotFeed{
		pending: make([]enquirysvc.Snapshot, 0, eventBuffer),
		ready:   make(chan struct{}, 1),
	}
}

func (f *snapshotFeed) push(snap enquirysvc.Snapshot) {
	f.mu.Lock()
	if len(f.pending) >= eventBuffer {
		f.pending = append(f.pending[:0], snap)
	} else {
		f.pending = append(f.pending, snap)
	}
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *snapshotFeed) drain() []enquirysvc.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = make([]enquirysvc.Snapshot, 0, eventBuffer)
	return out
}
