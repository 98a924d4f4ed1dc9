package comm

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/nunchuk.go/pkg/framework"
	"github.com/robotalks/nunchuk.go/pkg/l1"
	"github.com/robotalks/nunchuk.go/pkg/l1/msgs"
)

// DefaultCommandExpiration bounds how long a command waits for its
// result.
const DefaultCommandExpiration = time.Second

// ControllerConn is the base implementation of l1.ControllerConn over
// a Pipe. Replies are matched to commands by sequence number; events
// are posted into the loop.
type ControllerConn struct {
	Expiration time.Duration

	pipe    Pipe
	mu      sync.Mutex
	seq     uint32
	pending map[uint32]*commandFuture
}

// Init initializes ControllerConn with defaults.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

// DoCommand implements ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f := &commandFuture{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan l1.Result, 1),
	}
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.result <- l1.Result{Err: err}
		return f
	}
	c.pending[f.seq] = f
	return f
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.mu.Lock()
	f := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.mu.Unlock()
	if f == nil {
		return nil
	}
	result := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.complete(result)
	return nil
}

func (c *ControllerConn) purgeExpired(cc fx.ControlContext) error {
	now := time.Now()
	var expired []*commandFuture
	c.mu.Lock()
	for seq, f := range c.pending {
		if !f.expireAt.After(now) {
			delete(c.pending, seq)
			expired = append(expired, f)
		}
	}
	c.mu.Unlock()
	for _, f := range expired {
		f.complete(l1.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	result   chan l1.Result
}

func (f *commandFuture) complete(res l1.Result) {
	f.result <- res
	close(f.result)
}

func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
