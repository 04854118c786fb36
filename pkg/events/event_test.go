package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	BaseEvent
	Amount string `json:"amount"`
}

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := NewBaseEvent("risk.transaction.scored", aggregateID, "TransactionRecord")
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "risk.transaction.scored", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "TransactionRecord", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
	var _ DomainEvent = sampleEvent{}
}

func TestMarshal_WrapsDataInEnvelope(t *testing.T) {
	event := sampleEvent{
		BaseEvent: NewBaseEvent("sample.happened", uuid.New(), "Sample"),
		Amount:    "60000",
	}

	raw, err := Marshal(event)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, event.EventID(), env.EventID)
	assert.Equal(t, "sample.happened", env.EventType)
	assert.Equal(t, event.AggregateID(), env.AggregateID)
	assert.JSONEq(t, `{"amount":"60000"}`, string(env.Data))
}

func TestEventCollector(t *testing.T) {
	collector := &EventCollector{}
	id := uuid.New()

	collector.Record(NewBaseEvent("Event1", id, "Aggregate"))
	collector.Record(NewBaseEvent("Event2", id, "Aggregate"))

	events := collector.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Event1", events[0].EventType())
	assert.Equal(t, "Event2", events[1].EventType())

	assert.Len(t, collector.Events(), 2, "Events must not clear")

	cleared := collector.ClearEvents()
	assert.Len(t, cleared, 2)
	assert.Empty(t, collector.Events())
}

func TestEventCollectorClearEventsOnEmpty(t *testing.T) {
	collector := &EventCollector{}
	assert.Nil(t, collector.ClearEvents())
}
