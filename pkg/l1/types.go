// Package l1 defines the model for device-level controllers: how a
// controller (e.g. a pad daemon) registers itself, receives commands
// and emits events, and how clients discover and connect to it.
package l1

import (
	"context"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
)

// Registrar is the device side of the model: it announces the
// controller and pushes its events out to whoever is connected.
type Registrar interface {
	// SendEvent sends an event to connected clients.
	SendEvent(context.Context, fx.Message) error
}

// Command is one received command awaiting processing. Done sends the
// reply back over the connection it arrived on.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg carries a Command through the loop's message store.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef identifies a device controller.
type ControllerRef struct {
	// Type is the device type, e.g. "pad".
	Type string
	// ID identifies the device instance, usually the machine ID.
	ID string
}

// Name renders the ref in its type/id form.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid reports whether both parts of the ref are set.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is the advertised metadata of a controller.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo pairs a ref with its metadata.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector is the client side of the model.
type Connector interface {
	// Discover enumerates registered controllers.
	Discover(context.Context) ([]ControllerInfo, error)
	// Connect connects to the referenced controller.
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is an established connection to a controller.
type ControllerConn interface {
	// DoCommand sends a command, returning the pending result.
	DoCommand(fx.Message) CommandFuture
}

// Result is the outcome of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture resolves to the result of a sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
