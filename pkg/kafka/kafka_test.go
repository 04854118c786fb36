package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(Config{})
	require.Error(t, err)
}

func TestNewProducer_RejectsUnknownSASL(t *testing.T) {
	_, err := NewProducer(Config{
		Brokers:       []string{"localhost:9092"},
		SASLEnabled:   true,
		SASLMechanism: "GSSAPI",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GSSAPI")
}

func TestConfig_SASLMechanisms(t *testing.T) {
	for _, name := range []string{"", "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		t.Run(name, func(t *testing.T) {
			cfg := Config{SASLEnabled: true, SASLMechanism: name, SASLUsername: "u", SASLPassword: "p"}
			m, err := cfg.saslMechanism()
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}

	m, err := Config{}.saslMechanism()
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestConfig_TLS(t *testing.T) {
	assert.Nil(t, Config{}.tlsConfig())
	assert.NotNil(t, Config{TLS: true}.tlsConfig())
}

func TestProducer_WriterPerTopic(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	w1 := p.writer("risk.events")
	assert.Same(t, w1, p.writer("risk.events"))
	assert.NotSame(t, w1, p.writer("risk.audit"))
	assert.Len(t, p.writers, 2)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}

func TestMessageConversion(t *testing.T) {
	msg := Message{
		Key:     []byte("tx-1"),
		Value:   []byte(`{"amount":"100"}`),
		Headers: map[string]string{"event_type": "risk.transaction.scored"},
	}

	back := toMessage(toKafkaMessage(msg))
	assert.Equal(t, msg, back)

	empty := toMessage(kafkago.Message{})
	assert.NotNil(t, empty.Headers)
}

func TestNewConsumer_RequiresGroup(t *testing.T) {
	_, err := NewConsumer(Config{Brokers: []string{"localhost:9092"}}, "risk.events", nil, slog.Default())
	require.Error(t, err)
}

func TestConsumer_DispatchRetriesThenGivesUp(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantCalls int
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "recovers on retry", failures: 1, wantCalls: 2},
		{name: "exhausts attempts", failures: 10, wantCalls: handlerAttempts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			c := &Consumer{
				logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
				handler: func(context.Context, Message) error {
					calls++
					if calls <= tt.failures {
						return errors.New("transient")
					}
					return nil
				},
			}

			c.dispatch(context.Background(), kafkago.Message{Value: []byte("x")})
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}
