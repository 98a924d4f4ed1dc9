package framework

import (
	"context"
	"time"
)

// Named is implemented by components carrying a display name.
type Named interface {
	Name() string
}

// Runnable is a background task bound to a context.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is anything a loop can carry between iterations.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller is a unit of control logic invoked once per loop
// iteration.
type Controller interface {
	Control(ControlContext) error
}

// TimeSource provides the time observed by control logic.
type TimeSource interface {
	Time() time.Time
}

// ControlContext is what a Controller sees during one iteration.
type ControlContext interface {
	TimeSource
	// Context retrieves the context.Context of the iteration.
	Context() context.Context
	// PriorityLevel gets the priority level being executed.
	PriorityLevel() int
	// Messages accesses the messages collected for this iteration.
	Messages() MessageStore
	// PostRun installs one-shot hooks after the current priority
	// level. From within a post-run hook, new hooks land on the next
	// iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 8

// Predefined priority levels. A pad poller senses at the top of an
// iteration, command handlers run in the middle, and state publishing
// happens after everything else settled.
const (
	PrLvSense   int = 0
	PrLvControl int = 3
	PrLvPublish int = 6
	PrLvIdle    int = PriorityLevels - 1
)

// LoopControl lets controllers and runners steer the loop they run
// in.
type LoopControl interface {
	// PreRunAt installs one-shot hooks before the controllers of a
	// priority level.
	PreRunAt(priorityLevel int, controllers ...Controller)
	// PostRunAt installs one-shot hooks after the controllers of a
	// priority level.
	PostRunAt(priorityLevel int, controllers ...Controller)
	// PostMessage queues a message for the next iteration.
	PostMessage(Message)
	// TriggerNext requests an extra iteration without waiting for the
	// tick.
	TriggerNext()
}

// MessageStore is the message view of one iteration.
type MessageStore interface {
	// ProcessMessages runs the processor over the stored messages.
	ProcessMessages(MessageProcessor)

	MessageAppender
}

// MessageAppender adds messages to the store.
type MessageAppender interface {
	// AddMessages queues messages for the next processing pass.
	AddMessages(msgs ...Message)
}

// MessageProcessor handles one message at a time from a MessageStore.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the per-message view handed to a
// MessageProcessor.
type MessageProcessingContext interface {
	// CurrentMessage gets the message under processing.
	CurrentMessage() Message
	// MessageTaken consumes the message, removing it from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()

	MessageAppender
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}
