package comm

import (
	"context"
	"sync"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/msgs"
)

// Registrar implements l1.Registrar with a Pipe, integrated with Loop.
// Incoming commands are posted into the loop as CommandMsg for the
// device controller to pick up.
type Registrar struct {
	pipe Pipe
}

// Init initializes the Registrar with defaults.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(r.incoming)
}

func (r *Registrar) incoming(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	var post fx.Message
	switch typed.Kind() {
	case msgs.TypeIDKindCommand:
		post = &l1.CommandMsg{Command: &command{
			seq:  typed.Sequence,
			msg:  msg,
			pipe: &r.pipe,
		}}
	case msgs.TypeIDKindEvent:
		post = msg
	default:
		return nil
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(post)
	loopCtl.TriggerNext()
	return nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// Run pumps the underlying pipe; the context must carry a loop
// control (i.e. run from within a loop runnable).
func (r *Registrar) Run(ctx context.Context) error {
	return r.pipe.Run(ctx)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

// command carries an incoming command message together with the
// sequence number its reply must echo.
type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message { return c.msg }

func (c *command) Done(reply fx.Message) error {
	return c.pipe.SendCommandMsg(reply, c.seq)
}

// RegistrarMux registers a device controller with multiple Registrars.
// Registrars can come and go at runtime (e.g. direct connections), so
// the set is guarded.
type RegistrarMux struct {
	Registrars []l1.Registrar

	lock sync.RWMutex
}

// SendEvent implements Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	r.lock.RLock()
	regs := make([]l1.Registrar, len(r.Registrars))
	copy(regs, r.Registrars)
	r.lock.RUnlock()
	var errs fx.AggregatedError
	for _, reg := range regs {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.lock.Lock()
	r.Registrars = append(r.Registrars, regs...)
	r.lock.Unlock()
}

// Remove detaches a registrar added at runtime.
func (r *RegistrarMux) Remove(reg l1.Registrar) {
	r.lock.Lock()
	for i, item := range r.Registrars {
		if item == reg {
			r.Registrars = append(r.Registrars[:i], r.Registrars[i+1:]...)
			break
		}
	}
	r.lock.Unlock()
}

// UnsupportedCommands runs at the idle priority level and rejects any
// command no earlier controller has taken.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(rejectCommand))
	return nil
}

func rejectCommand(mctx fx.MessageProcessingContext) {
	cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
	if !ok {
		return
	}
	mctx.MessageTaken()
	cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand))
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
