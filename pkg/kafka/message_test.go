package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"roomreserve/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("series-1").
		WithValue(map[string]string{"type": "reservation.created"}).
		WithEventType("reservation.created").
		WithSource("reservations").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "series-1", msg.Key)
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
	assert.Equal(t, "reservation.created", msg.GetEventType())

	var decoded map[string]string
	require.NoError(t, msg.DecodeValue(&decoded))
	assert.Equal(t, "reservation.created", decoded["type"])
}

func TestMessageBuilder_EncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	require.Error(t, err)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}

func TestRetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	assert.Equal(t, 0, msg.GetRetryCount())

	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("mail", errors.New("x")), ErrorTypeTransient},
		{"wrapped permanent", fmt.Errorf("handler: %w", NewPermanentError("decode", errors.New("x"))), ErrorTypePermanent},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), ErrorTypeTransient},
		{"connection reset", errors.New("read tcp: Connection Reset by peer"), ErrorTypeTransient},
		{"unknown", errors.New("bad recipient"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestConsumer_ProcessMessageRetriesTransientErrors(t *testing.T) {
	calls := 0
	c := &Consumer{
		topic:      "reservations.events",
		maxRetries: 3,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			calls++
			if calls < 3 {
				return NewTransientError("smtp", errors.New("timeout"))
			}
			return nil
		},
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestConsumer_ProcessMessageStopsOnPermanentError(t *testing.T) {
	calls := 0
	c := &Consumer{
		maxRetries: 3,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			calls++
			return NewPermanentError("decode", errors.New("bad json"))
		},
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestConsumer_ProcessMessageGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	c := &Consumer{
		maxRetries: 2,
		log:        testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			calls++
			return NewTransientError("smtp", errors.New("timeout"))
		},
	}

	err := c.processMessage(context.Background(), Message{Headers: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, 3, calls, "first attempt plus two retries")
}

func TestConsumer_MiddlewareOrder(t *testing.T) {
	var order []string
	c := &Consumer{
		log: testLogger(),
		handler: func(ctx context.Context, msg Message) error {
			order = append(order, "handler")
			return nil
		},
	}
	for _, name := range []string{"outer", "inner"} {
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	require.NoError(t, c.processMessage(context.Background(), Message{Headers: map[string]string{}}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestWithDLQHeadersCopies(t *testing.T) {
	msg := Message{Key: "k", Headers: map[string]string{HeaderEventID: "e1"}}
	dead := withDLQHeaders(msg, "reservations.events", errors.New("boom"))

	assert.Equal(t, "reservations.events", dead.Headers[HeaderOriginalTopic])
	assert.Equal(t, "boom", dead.Headers[HeaderDLQError])
	_, leaked := msg.Headers[HeaderDLQError]
	assert.False(t, leaked)
}
