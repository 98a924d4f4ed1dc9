package nunchuk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/comm"
	env "github.com/robotalks/nunchuk.go/pkg/l1/env/controller"
	"github.com/robotalks/nunchuk.go/pkg/nunchuk/msgs"
)

// testControlContext drives controller methods without a running loop.
type testControlContext struct {
	msgs []fx.Message
}

func (c *testControlContext) Time() time.Time { return time.Now() }

func (c *testControlContext) Context() context.Context { return context.TODO() }

func (c *testControlContext) PriorityLevel() int { return 0 }

func (c *testControlContext) Messages() fx.MessageStore { return c }

func (c *testControlContext) PostRun(hooks ...fx.Controller) {}

func (c *testControlContext) PreRunAt(lv int, ctls ...fx.Controller) {}

func (c *testControlContext) PostRunAt(lv int, ctls ...fx.Controller) {}

func (c *testControlContext) PostMessage(msg fx.Message) { c.msgs = append(c.msgs, msg) }

func (c *testControlContext) TriggerNext() {}

func (c *testControlContext) AddMessages(msgs ...fx.Message) {
	c.msgs = append(c.msgs, msgs...)
}

func (c *testControlContext) ProcessMessages(proc fx.MessageProcessor) {
	var remains []fx.Message
	for i := 0; i < len(c.msgs); i++ {
		mctx := &testMessageContext{env: c, msg: c.msgs[i]}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains = append(remains, c.msgs[i])
		}
		if mctx.stop {
			remains = append(remains, c.msgs[i+1:]...)
			break
		}
	}
	c.msgs = remains
}

type testMessageContext struct {
	env   *testControlContext
	msg   fx.Message
	taken bool
	stop  bool
}

func (c *testMessageContext) CurrentMessage() fx.Message { return c.msg }

func (c *testMessageContext) MessageTaken() { c.taken = true }

func (c *testMessageContext) StopProcessing() { c.stop = true }

func (c *testMessageContext) AddMessages(msgs ...fx.Message) { c.env.AddMessages(msgs...) }

// capturingRegistrar records events sent by the controller.
type capturingRegistrar struct {
	events []fx.Message
}

func (r *capturingRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	r.events = append(r.events, msg)
	return nil
}

type testCommand struct {
	msg    fx.Message
	result fx.Message
}

func (c *testCommand) Msg() fx.Message { return c.msg }

func (c *testCommand) Done(msg fx.Message) error {
	c.result = msg
	return nil
}

func newTestController(bus Bus) (*Controller, *capturingRegistrar) {
	reg := &capturingRegistrar{}
	mux := &comm.RegistrarMux{}
	mux.Add(reg)
	conf := NewConfig()
	ctl := conf.NewController(&env.Env{Registrar: mux}, bus, "fake")
	return ctl, reg
}

func centeredFrame() []byte {
	return []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x03}
}

func TestControllerPollPublishesState(t *testing.T) {
	bus := &fakeBus{}
	bus.respond(centeredFrame())
	ctl, reg := newTestController(bus)

	cc := &testControlContext{}
	require.NoError(t, ctl.poll(cc))
	require.NoError(t, ctl.publishChanges(cc))

	// handshake ran on first poll
	require.Equal(t, ClockHz, bus.clock)
	require.Len(t, reg.events, 2)
	info, ok := reg.events[0].(*msgs.PadInfo)
	require.True(t, ok)
	require.Equal(t, "plain", info.Mode)
	require.Equal(t, "fake", info.Bus)
	state, ok := reg.events[1].(*msgs.PadState)
	require.True(t, ok)
	require.True(t, state.Online)
	require.Equal(t, int32(0), state.JoystickX)
	require.False(t, state.ButtonC)
	require.False(t, state.ButtonZ)
}

func TestControllerUnchangedStateNotRepublished(t *testing.T) {
	bus := &fakeBus{}
	bus.respond(centeredFrame(), centeredFrame())
	ctl, reg := newTestController(bus)

	cc := &testControlContext{}
	require.NoError(t, ctl.poll(cc))
	require.NoError(t, ctl.publishChanges(cc))
	published := len(reg.events)

	require.NoError(t, ctl.poll(cc))
	require.NoError(t, ctl.publishChanges(cc))
	require.Len(t, reg.events, published)
}

func TestControllerStateQuery(t *testing.T) {
	bus := &fakeBus{}
	bus.respond(centeredFrame())
	ctl, _ := newTestController(bus)

	cc := &testControlContext{}
	require.NoError(t, ctl.poll(cc))

	cmd := &testCommand{msg: &msgs.PadStateQuery{}}
	cc.AddMessages(&l1.CommandMsg{Command: cmd})
	require.NoError(t, ctl.Control(cc))

	reply, ok := cmd.result.(*msgs.PadStateReply)
	require.True(t, ok)
	require.NotNil(t, reply.State)
	require.True(t, reply.State.Online)
}

func TestControllerReinitAfterConsecutiveFailures(t *testing.T) {
	bus := &fakeBus{}
	bus.respond(centeredFrame())
	ctl, reg := newTestController(bus)

	cc := &testControlContext{}
	require.NoError(t, ctl.poll(cc))
	require.NoError(t, ctl.publishChanges(cc))
	require.True(t, ctl.state.Online)
	handshakes := len(bus.writes)

	// bus yields nothing: reads fail until the reinit threshold
	for i := 0; i < reinitThreshold; i++ {
		require.NoError(t, ctl.poll(cc))
	}
	require.NoError(t, ctl.publishChanges(cc))
	require.False(t, ctl.state.Online)
	offline, ok := reg.events[len(reg.events)-1].(*msgs.PadState)
	require.True(t, ok)
	require.False(t, offline.Online)

	// next poll redoes the handshake
	require.NoError(t, ctl.poll(cc))
	require.True(t, len(bus.writes) > handshakes)
}
