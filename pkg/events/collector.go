package events

import "slices"

// EventCollector buffers events raised by an aggregate until the application
// layer drains them after a successful save.
type EventCollector struct {
	pending []DomainEvent
}

// Record queues event for publication.
func (c *EventCollector) Record(event DomainEvent) {
	c.pending = append(c.pending, event)
}

// Events returns a copy of the queued events.
func (c *EventCollector) Events() []DomainEvent {
	return slices.Clone(c.pending)
}

// ClearEvents drains the queue.
func (c *EventCollector) ClearEvents() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
