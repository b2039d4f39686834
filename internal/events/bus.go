package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/mediapull/internal/models"
)

// Observer receives delivered envelopes. Subscribers register an
// Observer against a topic selector; "*" matches every event type.
type Observer interface {
	OnEvent(env Envelope)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(env Envelope)

func (f ObserverFunc) OnEvent(env Envelope) { f(env) }

type subscription struct {
	topic    Type
	wildcard bool
	observer Observer
}

// Bus is the process-wide event publisher. It satisfies models.EventBus
// structurally so a pipeline Context can hold it as a narrow handle.
//
// Grounded on the shape of shared/progress.go's ProgressManager
// (mutex-guarded map + callback dispatch), generalized from a single
// progress callback to multi-topic pub/sub with both sync and async
// delivery.
type Bus struct {
	mu            sync.RWMutex
	subscriptions []subscription
	logger        *slog.Logger
}

// NewBus creates an empty event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers an observer for a topic ("*" for all event types).
func (b *Bus) Subscribe(topic Type, observer Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = append(b.subscriptions, subscription{
		topic:    topic,
		wildcard: topic == "*",
		observer: observer,
	})
}

// Emit delivers an event synchronously to every matching subscriber, in
// registration order. The payload is wrapped with a session id and
// correlation id if the caller supplies an Envelope directly; otherwise
// Emit builds one from the raw payload with a zero-value SessionID.
func (b *Bus) Emit(event any) {
	env := b.envelopeFor(event)
	for _, sub := range b.matching(env.Type) {
		b.deliver(sub.observer, env)
	}
}

// EmitAsync delivers an event to every matching subscriber on its own
// goroutine. Delivery order across subscribers is not guaranteed.
func (b *Bus) EmitAsync(event any) {
	env := b.envelopeFor(event)
	for _, sub := range b.matching(env.Type) {
		go b.deliver(sub.observer, env)
	}
}

// EmitFor is Emit with an explicit session and correlation id, used by
// callers (the Executor) that already carry those identifiers on a
// models.Context.
func (b *Bus) EmitFor(sessionID models.ULID, correlationID string, payload any) {
	env := buildEnvelope(payload)
	env.SessionID = sessionID
	env.CorrelationID = correlationID
	for _, sub := range b.matching(env.Type) {
		b.deliver(sub.observer, env)
	}
}

func (b *Bus) envelopeFor(event any) Envelope {
	if env, ok := event.(Envelope); ok {
		return env
	}
	return buildEnvelope(event)
}

func buildEnvelope(payload any) Envelope {
	env := Envelope{Payload: payload, Timestamp: time.Now().UTC()}
	switch payload.(type) {
	case StageStarted:
		env.Type = TypeStageStarted
	case StageCompleted:
		env.Type = TypeStageCompleted
	case StageFailed:
		env.Type = TypeStageFailed
	case PostDiscovered:
		env.Type = TypePostDiscovered
	case PostProcessed:
		env.Type = TypePostProcessed
	case ErrorOccurred:
		env.Type = TypeErrorOccurred
	case StatisticsEvent:
		env.Type = TypeStatisticsEvent
	}
	return env
}

func (b *Bus) matching(topic Type) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.wildcard || sub.topic == topic {
			out = append(out, sub)
		}
	}
	return out
}

func (b *Bus) deliver(observer Observer, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event observer panicked", slog.Any("recover", r), slog.String("type", string(env.Type)))
		}
	}()
	observer.OnEvent(env)
}

var _ models.EventBus = (*Bus)(nil)
