package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type recordingConn struct {
	msgs []*nats.Msg
	err  error
}

func (r *recordingConn) PublishMsg(msg *nats.Msg) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestSubject(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "post.created", Subject(EventPostCreated))
	assert.Equal(t, "post.reaction_updated", Subject(EventPostReactionUpdated))
	assert.Equal(t, "comment.created", Subject(EventCommentCreated))
}

func TestNatsPublisher_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	conn := &recordingConn{}
	p := &NatsPublisher{nc: conn}
	require.NoError(t, p.Publish(ctx, Event{Type: EventPostDeleted, Payload: map[string]uint{"post_id": 3}}))

	require.Len(t, conn.msgs, 1)
	msg := conn.msgs[0]
	assert.Equal(t, "post.deleted", msg.Subject)
	assert.Contains(t, propagation.HeaderCarrier(msg.Header).Get("traceparent"), traceID.String())

	var body struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, EventPostDeleted, body.Type)
	assert.JSONEq(t, `{"post_id":3}`, string(body.Payload))
}

func TestDispatcher_LocalHubAndNats(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	conn := &recordingConn{err: errors.New("nats down")}
	d := NewDispatcher(hub, nil, &NatsPublisher{nc: conn})

	d.Publish(context.Background(), EventPostCreated, map[string]string{"text": "hi"})

	assert.JSONEq(t, `{"type":"post_created","payload":{"text":"hi"}}`, receive(t, c))
	assert.Len(t, conn.msgs, 1, "nats failures are swallowed after the attempt")
}

func TestDispatcher_PublishToReachesOnlyThatUser(t *testing.T) {
	hub := NewHub()
	author, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)

	conn := &recordingConn{}
	d := NewDispatcher(hub, nil, &NatsPublisher{nc: conn})
	d.PublishTo(context.Background(), 1, EventPostActivity, map[string]uint{"post_id": 5})

	assert.JSONEq(t, `{"type":"post_activity","payload":{"post_id":5}}`, receive(t, author))
	assert.Empty(t, other.Send)
	assert.Empty(t, conn.msgs)
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Publish(context.Background(), EventPostCreated, nil) })
	assert.NotPanics(t, func() { d.PublishTo(context.Background(), 1, EventPostActivity, nil) })
}
