package notifications

import (
	"context"
	"log/slog"

	"socialnet/internal/middleware"
	"socialnet/internal/observability"
)

// Dispatcher fans an event out to every configured transport. Delivery is best
// effort: failures are logged and never surface to the caller.
type Dispatcher struct {
	hub      *Hub
	notifier *Notifier
	nats     *NatsPublisher
}

// NewDispatcher builds a Dispatcher. Any transport may be nil. When a Notifier is
// present the local hub is reached through Redis, so each client sees an event once.
func NewDispatcher(hub *Hub, notifier *Notifier, natsPub *NatsPublisher) *Dispatcher {
	return &Dispatcher{hub: hub, notifier: notifier, nats: natsPub}
}

// Publish delivers an event of eventType carrying payload.
func (d *Dispatcher) Publish(ctx context.Context, eventType string, payload any) {
	if d == nil {
		return
	}
	event := Event{Type: eventType, Payload: payload}
	message, err := event.Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode event", slog.String("error", err.Error()))
		return
	}

	switch {
	case d.notifier != nil:
		if err := d.notifier.PublishBroadcast(ctx, message); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish broadcast event",
				slog.String("type", eventType), slog.String("error", err.Error()))
		} else {
			observability.EventsPublished.WithLabelValues("redis", eventType).Inc()
		}
	case d.hub != nil:
		d.hub.BroadcastAll(message)
		observability.EventsPublished.WithLabelValues("local", eventType).Inc()
	}

	if d.nats != nil {
		if err := d.nats.Publish(ctx, event); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish nats event",
				slog.String("type", eventType), slog.String("error", err.Error()))
		} else {
			observability.EventsPublished.WithLabelValues("nats", eventType).Inc()
		}
	}
}

// PublishTo delivers an event to the connections of a single user. NATS is not
// involved; per-user events are a websocket concern.
func (d *Dispatcher) PublishTo(ctx context.Context, userID uint, eventType string, payload any) {
	if d == nil {
		return
	}
	message, err := Event{Type: eventType, Payload: payload}.Encode()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode event", slog.String("error", err.Error()))
		return
	}

	switch {
	case d.notifier != nil:
		if err := d.notifier.PublishUser(ctx, userID, message); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish user event",
				slog.String("type", eventType), slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			return
		}
		observability.EventsPublished.WithLabelValues("redis", eventType).Inc()
	case d.hub != nil:
		d.hub.Broadcast(userID, message)
		observability.EventsPublished.WithLabelValues("local", eventType).Inc()
	}
}
