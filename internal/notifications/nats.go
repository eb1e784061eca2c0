package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"socialnet/internal/middleware"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// msgPublisher is the part of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NatsPublisher emits post events on "post.<action>" subjects with the caller's
// trace context in the message headers.
type NatsPublisher struct {
	nc msgPublisher
}

// NewNatsPublisher wraps an established connection.
func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// ConnectNats dials url. The connection reconnects on its own after drops.
func ConnectNats(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("socialnet-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// Subject maps an event type such as "post_created" to "post.created".
func Subject(eventType string) string {
	return strings.Replace(eventType, "_", ".", 1)
}

type natsEnvelope struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publish sends e on its subject.
func (p *NatsPublisher) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(natsEnvelope{Type: e.Type, Payload: e.Payload, OccurredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}

	msg := &nats.Msg{
		Subject: Subject(e.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	middleware.Logger.DebugContext(ctx, "publishing event", slog.String("subject", msg.Subject))
	return p.nc.PublishMsg(msg)
}
