package exec

import "time"

// EventType enumerates the kinds of progress event the executor emits.
type EventType string

const (
	EventPhaseStart EventType = "phase_start"
	EventStepStart  EventType = "step_start"
	EventStepRetry  EventType = "step_retry"
	EventStepDone   EventType = "step_done"
	EventStepSkip   EventType = "step_skip"
	EventPhaseDone  EventType = "phase_done"
)

// Event is one progress notification, published on a buffered, non-blocking
// channel so a slow or absent consumer never stalls the scheduler.
type Event struct {
	Type      EventType
	Timestamp time.Time
	StepName  string
	Message   string
	Data      interface{}
}

// Bus owns the channel and the emit-or-drop send. It is grounded in the
// teacher's internal/agent.Agent event-channel pattern: a single buffered
// channel, non-blocking emit, consumed by the CLI for progress output.
type Bus struct {
	ch chan Event
}

// NewBus returns a Bus with the given channel buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Events returns the read side of the channel for the CLI to consume.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Emit publishes an event, dropping it instead of blocking if the channel
// is full (a slow or absent consumer must never stall the scheduler).
func (b *Bus) Emit(eventType EventType, stepName, message string, data interface{}) {
	select {
	case b.ch <- Event{Type: eventType, Timestamp: time.Now(), StepName: stepName, Message: message, Data: data}:
	default:
	}
}

// Close closes the channel; callers must stop emitting before calling Close.
func (b *Bus) Close() {
	close(b.ch)
}
