package handlerwrapper

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/kamisato/pkg/attr"
	"github.com/Black-And-White-Club/kamisato/pkg/eventbus"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type pingPayload struct {
	UserID string `json:"user_id"`
}

type pongPayload struct {
	UserID string `json:"user_id"`
	Seen   bool   `json:"seen"`
}

type fakeMetrics struct {
	attempts, successes, failures int
}

func (f *fakeMetrics) RecordHandlerAttempt(context.Context, string)                  { f.attempts++ }
func (f *fakeMetrics) RecordHandlerSuccess(context.Context, string)                  { f.successes++ }
func (f *fakeMetrics) RecordHandlerFailure(context.Context, string)                  { f.failures++ }
func (f *fakeMetrics) RecordHandlerDuration(context.Context, string, time.Duration) {}

func TestWrapTransformingTyped(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")

	tests := []struct {
		name          string
		body          []byte
		metadata      map[string]string
		handler       func(ctx context.Context, p *pingPayload) ([]Result, error)
		wantErr       bool
		wantMsgs      int
		wantTopic     string
		wantFailures  int
		wantSuccesses int
	}{
		{
			name:     "decodes payload and encodes result",
			body:     []byte(`{"user_id":"123"}`),
			metadata: map[string]string{attr.CorrelationIDKey: "corr-1"},
			handler: func(ctx context.Context, p *pingPayload) ([]Result, error) {
				assert.Equal(t, "corr-1", attr.CorrelationIDFromContext(ctx))
				return []Result{{Topic: "pong", Payload: pongPayload{UserID: p.UserID, Seen: true}}}, nil
			},
			wantMsgs:      1,
			wantTopic:     "pong",
			wantSuccesses: 1,
		},
		{
			name: "reply_to is exposed on the context",
			body: []byte(`{"user_id":"123"}`),
			metadata: map[string]string{
				ReplyToMetadataKey: "_INBOX.abc",
			},
			handler: func(ctx context.Context, p *pingPayload) ([]Result, error) {
				rt, _ := ctx.Value(CtxKeyReplyTo).(string)
				assert.Equal(t, "_INBOX.abc", rt)
				return nil, nil
			},
			wantSuccesses: 1,
		},
		{
			name: "undecodable payload is dropped",
			body: []byte(`not json`),
			handler: func(ctx context.Context, p *pingPayload) ([]Result, error) {
				t.Fatal("handler must not run")
				return nil, nil
			},
			wantFailures: 1,
		},
		{
			name: "handler error is returned",
			body: []byte(`{"user_id":"123"}`),
			handler: func(ctx context.Context, p *pingPayload) ([]Result, error) {
				return nil, errors.New("db down")
			},
			wantErr:      true,
			wantFailures: 1,
		},
		{
			name: "result without topic fails",
			body: []byte(`{"user_id":"123"}`),
			handler: func(ctx context.Context, p *pingPayload) ([]Result, error) {
				return []Result{{Payload: pongPayload{}}}, nil
			},
			wantErr:      true,
			wantFailures: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &fakeMetrics{}
			h := WrapTransformingTyped("test.handler", slog.Default(), tracer, metrics, tt.handler)

			msg := message.NewMessage(watermill.NewUUID(), tt.body)
			for k, v := range tt.metadata {
				msg.Metadata.Set(k, v)
			}

			out, err := h(msg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, out, tt.wantMsgs)
			assert.Equal(t, 1, metrics.attempts)
			assert.Equal(t, tt.wantFailures, metrics.failures)
			assert.Equal(t, tt.wantSuccesses, metrics.successes)

			if tt.wantMsgs > 0 {
				assert.Equal(t, tt.wantTopic, out[0].Metadata.Get(eventbus.TopicMetadataKey))
				assert.Equal(t, tt.metadata[attr.CorrelationIDKey], out[0].Metadata.Get(attr.CorrelationIDKey))
				var got pongPayload
				require.NoError(t, json.Unmarshal(out[0].Payload, &got))
				assert.True(t, got.Seen)
			}
		})
	}
}

func TestNewMessage_GeneratesCorrelationWhenMissing(t *testing.T) {
	h := WrapTransformingTyped("test.handler", nil, nil, nil,
		func(ctx context.Context, p *pingPayload) ([]Result, error) {
			return []Result{{Topic: "pong", Payload: p, Metadata: map[string]string{"extra": "1"}}}, nil
		})

	out, err := h(message.NewMessage(watermill.NewUUID(), []byte(`{"user_id":"9"}`)))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.NotEmpty(t, out[0].Metadata.Get(attr.CorrelationIDKey))
	assert.Equal(t, "1", out[0].Metadata.Get("extra"))
}
