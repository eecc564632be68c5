package metrics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vulnscout/vulnscout/internal/bus"
)

// EventSubscriber subscribes to pipeline lifecycle events and updates
// metrics, optionally persisting latency history.
type EventSubscriber struct {
	metrics *Metrics
	bus     bus.Bus
	history *RedisStorage // nil when history is disabled
}

// NewEventSubscriber creates a new event subscriber. history may be
// nil.
func NewEventSubscriber(m *Metrics, eventBus bus.Bus, history *RedisStorage) *EventSubscriber {
	return &EventSubscriber{
		metrics: m,
		bus:     eventBus,
		history: history,
	}
}

// Subscribe registers handlers for all query lifecycle topics.
func (es *EventSubscriber) Subscribe(ctx context.Context) error {
	if err := es.bus.Subscribe(ctx, bus.TopicQueryReceived, es.handleReceived); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicQueryCompleted, es.handleCompleted); err != nil {
		return err
	}
	return es.bus.Subscribe(ctx, bus.TopicQueryFailed, es.handleFailed)
}

func (es *EventSubscriber) handleReceived(ctx context.Context, event bus.Event) error {
	es.metrics.QueriesTotal.Inc()
	es.metrics.InFlight.Inc()
	return nil
}

func (es *EventSubscriber) handleCompleted(ctx context.Context, event bus.Event) error {
	es.metrics.InFlight.Dec()

	payload, ok := decodePayload(event)
	if !ok {
		return nil
	}

	d := time.Duration(payload.TotalSecs * float64(time.Second))
	es.metrics.ObserveLatency(d)

	if es.history != nil {
		return es.history.SaveDataPoint(ctx, "query_latency", DataPoint{
			Timestamp: time.Now(),
			Value:     payload.TotalSecs,
		})
	}
	return nil
}

func (es *EventSubscriber) handleFailed(ctx context.Context, event bus.Event) error {
	es.metrics.InFlight.Dec()
	es.metrics.QueriesFailed.Inc()
	return nil
}

// decodePayload extracts a QueryPayload from an event. Events arriving
// over Kafka carry the payload as decoded JSON, so both the typed and
// the map form are accepted.
func decodePayload(event bus.Event) (bus.QueryPayload, bool) {
	switch p := event.Payload.(type) {
	case bus.QueryPayload:
		return p, true
	case *bus.QueryPayload:
		return *p, true
	default:
		data, err := json.Marshal(event.Payload)
		if err != nil {
			return bus.QueryPayload{}, false
		}
		var payload bus.QueryPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return bus.QueryPayload{}, false
		}
		return payload, true
	}
}
