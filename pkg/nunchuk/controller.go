package nunchuk

import (
	"log"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	env "github.com/robotalks/nunchuk.go/pkg/l1/env/controller"
	"github.com/robotalks/nunchuk.go/pkg/nunchuk/msgs"
)

// reinitThreshold is the count of consecutive failed reads after
// which the pad is considered gone and the handshake is redone.
const reinitThreshold = 8

// Controller polls a pad Device from the loop and bridges it to the
// registrars: state changes go out as events, queries are answered
// with the last known state.
type Controller struct {
	Env     *env.Env
	Device  *Device
	Verbose bool

	busName     string
	debug       bool
	initialized bool
	failures    int

	state        msgs.PadState
	stateChanged bool
	infoChanged  bool
}

// NewController creates a Controller using the config. busName is
// reported in PadInfo, e.g. "/dev/i2c-1".
func (c *Config) NewController(e *env.Env, bus Bus, busName string) *Controller {
	return &Controller{
		Env:     e,
		Device:  c.NewDevice(bus),
		Verbose: c.Verbose,
		busName: busName,
		debug:   c.Debug,
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.poll))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPublish, fx.ControlFunc(c.publishChanges))
}

func (c *Controller) poll(cc fx.ControlContext) error {
	if !c.initialized {
		c.Device.Init()
		c.initialized = true
		c.failures = 0
		c.infoChanged = true
	}
	if !c.Device.ReadFrame() {
		c.failures++
		if c.failures >= reinitThreshold {
			c.initialized = false
			if c.state.Online {
				c.setState(msgs.PadState{})
				if c.Verbose {
					log.Println("Pad offline.")
				}
			}
		}
		return nil
	}
	c.failures = 0
	d := c.Device
	c.setState(msgs.PadState{
		Online:    true,
		JoystickX: int32(d.JoystickX()),
		JoystickY: int32(d.JoystickY()),
		AccelX:    int32(d.AccelX()),
		AccelY:    int32(d.AccelY()),
		AccelZ:    int32(d.AccelZ()),
		ButtonC:   d.ButtonC(),
		ButtonZ:   d.ButtonZ(),
		Angle:     float32(d.JoystickAngle()),
		Pitch:     float32(d.Pitch()),
		Roll:      float32(d.Roll()),
	})
	return nil
}

func (c *Controller) setState(state msgs.PadState) {
	if state == c.state {
		return
	}
	c.state = state
	c.stateChanged = true
	if c.Verbose {
		log.Printf("Pad x=%d y=%d c=%v z=%v accel=(%d,%d,%d)",
			state.JoystickX, state.JoystickY,
			state.ButtonC, state.ButtonZ,
			state.AccelX, state.AccelY, state.AccelZ)
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		msg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		switch msg.Command.Msg().(type) {
		case *msgs.PadStateQuery:
			mctx.MessageTaken()
			state := c.state
			msg.Command.Done(&msgs.PadStateReply{State: &state})
		}
	}))
	return nil
}

func (c *Controller) publishChanges(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	if c.infoChanged {
		c.infoChanged = false
		info := &msgs.PadInfo{
			Mode: c.Device.Mode().String(),
			Bus:  c.busName,
		}
		if c.debug {
			if ident, ok := c.Device.Ident(); ok {
				info.Ident = ident
			}
		}
		errs.Add(c.Env.Registrar.SendEvent(cc.Context(), info))
	}
	if c.stateChanged {
		c.stateChanged = false
		state := c.state
		errs.Add(c.Env.Registrar.SendEvent(cc.Context(), &state))
	}
	return errs.Aggregate()
}
