package geothing

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/burugo/geothing/internal/utils"
)

// --- Lifecycle Hooks ---

// Hooks are the lifecycle steps the ORM runs around every database round trip.
// Plugins decorate a Hooks value and call through to the one they wrap.
type Hooks interface {
	// Initialize prepares the query used to fetch records of class.
	Initialize(class *ModelClass, q *Query) error
	// Parse converts a fetched row into record attributes.
	Parse(class *ModelClass, row Attributes) (Attributes, error)
	// Format converts record attributes into the values written to the database.
	// It must not modify attrs.
	Format(class *ModelClass, attrs Attributes) (Attributes, error)
	// Relate finishes a relation built by one of the Record relation methods.
	Relate(rel *Relation) (*Relation, error)
}

// Plugin wraps next with additional behaviour for dialect d.
type Plugin func(next Hooks, d Dialector) Hooks

// BaseHooks is the innermost Hooks: it leaves queries and relations alone and
// copies attributes, turning driver []byte text into strings on the way in.
type BaseHooks struct{}

var _ Hooks = BaseHooks{}

// NewBaseHooks returns the passthrough Hooks.
func NewBaseHooks() Hooks { return BaseHooks{} }

func (BaseHooks) Initialize(*ModelClass, *Query) error { return nil }

func (BaseHooks) Parse(_ *ModelClass, row Attributes) (Attributes, error) {
	out := make(Attributes, len(row))
	for k, v := range row {
		out[k] = utils.NormalizeDriverValue(v)
	}
	return out, nil
}

func (BaseHooks) Format(_ *ModelClass, attrs Attributes) (Attributes, error) {
	return attrs.Clone(), nil
}

func (BaseHooks) Relate(rel *Relation) (*Relation, error) { return rel, nil }

// --- Event System ---

// EventType defines the type for lifecycle events.
type EventType string

// Standard lifecycle event types
const (
	EventTypeBeforeSave   EventType = "BeforeSave"
	EventTypeAfterSave    EventType = "AfterSave"
	EventTypeBeforeCreate EventType = "BeforeCreate"
	EventTypeAfterCreate  EventType = "AfterCreate"
	EventTypeBeforeDelete EventType = "BeforeDelete"
	EventTypeAfterDelete  EventType = "AfterDelete"
	EventTypeAfterFetch   EventType = "AfterFetch"
)

// EventListener defines the signature for functions that can listen to events.
// Returning an error aborts the operation that triggered the event.
type EventListener func(ctx context.Context, eventType EventType, rec *Record, eventData interface{}) error

// RegisterListener adds a listener function for a specific event type.
func (o *ORM) RegisterListener(eventType EventType, listener EventListener) {
	o.listenerMu.Lock()
	defer o.listenerMu.Unlock()
	if o.listeners == nil {
		o.listeners = make(map[EventType][]EventListener)
	}
	o.listeners[eventType] = append(o.listeners[eventType], listener)
}

// triggerEvent executes all registered listeners for a given event type, in order.
func (o *ORM) triggerEvent(ctx context.Context, eventType EventType, rec *Record, eventData interface{}) error {
	o.listenerMu.RLock()
	listeners := o.listeners[eventType]
	o.listenerMu.RUnlock()

	for _, listener := range listeners {
		if err := listener(ctx, eventType, rec, eventData); err != nil {
			id, _ := rec.ID()
			log.Warn().Err(err).Str("event", string(eventType)).Str("model", rec.class.name).Int64("id", id).Msg("Event listener failed")
			return fmt.Errorf("event listener for %s failed: %w", eventType, err)
		}
	}
	return nil
}
