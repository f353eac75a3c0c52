// Package event receives event callbacks pushed by the open platform and
// dispatches them to listeners by event type.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	gohttp "github.com/km-arc/go-feishu/framework/http"
	"github.com/km-arc/go-feishu/framework/log"
	"github.com/km-arc/go-feishu/framework/routing"
)

const (
	// Path is where the callback endpoint is mounted by Handler.
	Path = "/webhook/event"

	// DefaultDedupeTTL is how long a delivered event id is remembered.
	DefaultDedupeTTL = 10 * time.Minute

	schemaV2        = "2.0"
	urlVerification = "url_verification"
)

// ErrTokenMismatch is returned when a callback carries the wrong verification token.
var ErrTokenMismatch = errors.New("event: verification token mismatch")

// Header is the schema 2.0 event header.
type Header struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Token      string `json:"token"`
	AppID      string `json:"app_id"`
	TenantKey  string `json:"tenant_key"`
}

// Event is one schema 2.0 callback. Payload is left raw for the listener to decode.
type Event struct {
	Schema  string          `json:"schema"`
	Header  Header          `json:"header"`
	Payload json.RawMessage `json:"event"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Listener handles one event type.
type Listener func(ctx context.Context, e Event) error

// Dispatcher routes events to listeners. Deliveries of an event id already
// handled within the dedupe window are dropped.
type Dispatcher struct {
	token string

	mu        sync.RWMutex
	listeners map[string][]Listener

	seen *cache.Cache
}

// NewDispatcher creates a Dispatcher. An empty verificationToken disables the
// token check; a zero dedupeTTL uses DefaultDedupeTTL.
func NewDispatcher(verificationToken string, dedupeTTL time.Duration) *Dispatcher {
	if dedupeTTL <= 0 {
		dedupeTTL = DefaultDedupeTTL
	}
	return &Dispatcher{
		token:     verificationToken,
		listeners: make(map[string][]Listener),
		seen:      cache.New(dedupeTTL, 2*dedupeTTL),
	}
}

// On registers l for eventType ("im.message.receive_v1", …). Listeners run in
// registration order.
func (d *Dispatcher) On(eventType string, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], l)
}

// Dispatch runs the listeners registered for e. A duplicate event id is
// ignored. When a listener fails the id is forgotten so a redelivery is
// handled again.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	if e.Header.EventID != "" {
		if err := d.seen.Add(e.Header.EventID, struct{}{}, cache.DefaultExpiration); err != nil {
			log.Debug("duplicate event dropped", "event_id", e.Header.EventID, "event_type", e.Header.EventType)
			return nil
		}
	}

	d.mu.RLock()
	listeners := d.listeners[e.Header.EventType]
	d.mu.RUnlock()

	if len(listeners) == 0 {
		log.Debug("event has no listeners", "event_type", e.Header.EventType)
		return nil
	}

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.seen.Delete(e.Header.EventID)
		return fmt.Errorf("event %s: %w", e.Header.EventType, err)
	}
	return nil
}

// callback is the union of the url_verification and schema 2.0 bodies.
type callback struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Token     string `json:"token"`
	Encrypt   string `json:"encrypt"`
	Event
}

// ServeHTTP handles one callback request.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	var body callback
	if err := req.Bind(&body); err != nil {
		res.Error(http.StatusBadRequest, "invalid callback payload")
		return
	}

	switch {
	case body.Encrypt != "":
		res.Error(http.StatusBadRequest, "encrypted callbacks are not supported")
	case body.Type == urlVerification:
		if err := d.verify(body.Token); err != nil {
			res.Unauthorized(err.Error())
			return
		}
		res.JSON(http.StatusOK, map[string]string{"challenge": body.Challenge})
	case body.Schema == schemaV2:
		if err := d.verify(body.Header.Token); err != nil {
			log.Warn("event rejected", "event_id", body.Header.EventID, "error", err)
			res.Unauthorized(err.Error())
			return
		}
		if err := d.Dispatch(r.Context(), body.Event); err != nil {
			log.Error("event listener failed", "event_id", body.Header.EventID, "error", err)
			res.Error(http.StatusInternalServerError, "listener failed")
			return
		}
		res.OK()
	default:
		res.Error(http.StatusBadRequest, "unsupported callback schema")
	}
}

// Handler returns a router serving the callback endpoint at Path.
func (d *Dispatcher) Handler() http.Handler {
	r := routing.New()
	r.Post(Path, d.ServeHTTP)
	return r
}

func (d *Dispatcher) verify(token string) error {
	if d.token != "" && token != d.token {
		return ErrTokenMismatch
	}
	return nil
}
