package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the tick used when Interval is unset. Pad frames
// refresh fast; 20ms keeps input latency within one frame.
const DefaultInterval = 20 * time.Millisecond

// Loop runs sensors, command handlers and publishers at a fixed tick.
// Each iteration walks the priority levels in order, running the
// controllers registered at each level against the messages collected
// since the previous iteration.
type Loop struct {
	Interval time.Duration

	stages  [PriorityLevels]stage
	runners []Runnable

	mu       sync.Mutex
	inbox    []Message
	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// stage holds the controllers of one priority level plus one-shot
// hooks installed around them.
type stage struct {
	mu          sync.Mutex
	preHooks    []Controller
	controllers []Controller
	postHooks   []Controller
}

var loopCtxKey = &Loop{}

// LoopCtlFrom gets LoopControl from context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// CtlCtxFrom gets ControlContext from context.
func CtlCtxFrom(ctx context.Context) ControlContext {
	return ctx.Value(loopCtxKey).(ControlContext)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. A
// controller also implementing Runnable gets its Run started with the
// loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	st := &l.stages[priorityLevel]
	st.controllers = append(st.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementations.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. Background runners observe the loop
// control through their context.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, &loopCtl{l}))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	tick := time.Tick(interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			l.iterate(ctx)
		case <-l.wakeUpCh:
			l.iterate(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.TODO()); err != nil {
		log.Fatalln(err)
	}
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	st := &l.stages[priorityLevel]
	st.mu.Lock()
	st.preHooks = append(st.preHooks, hooks...)
	st.mu.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	st := &l.stages[priorityLevel]
	st.mu.Lock()
	st.postHooks = append(st.postHooks, hooks...)
	st.mu.Unlock()
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.mu.Lock()
	l.inbox = append(l.inbox, msg)
	l.mu.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) iterate(ctx context.Context) {
	iter := &iteration{loopCtl: loopCtl{l}, time: time.Now()}
	l.mu.Lock()
	iter.msgs, l.inbox = l.inbox, nil
	l.mu.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, iter)
	for i := range l.stages {
		iter.priorityLevel = i
		l.stages[i].run(iter)
	}
}

func (st *stage) run(iter *iteration) {
	st.mu.Lock()
	hooks := st.preHooks
	st.preHooks = nil
	st.mu.Unlock()
	runControllers(iter, hooks)
	runControllers(iter, st.controllers)
	st.mu.Lock()
	hooks, st.postHooks = st.postHooks, nil
	st.mu.Unlock()
	runControllers(iter, hooks)
}

func runControllers(iter *iteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}

// loopCtl exposes a Loop as the LoopControl placed in runner
// contexts.
type loopCtl struct {
	*Loop
}

// iteration is the ControlContext of one loop pass.
type iteration struct {
	loopCtl
	ctx           context.Context
	time          time.Time
	priorityLevel int
	msgs          []Message
}

func (t *iteration) Context() context.Context {
	return t.ctx
}

func (t *iteration) Time() time.Time {
	return t.time
}

func (t *iteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *iteration) Messages() MessageStore {
	return t
}

func (t *iteration) PostRun(hooks ...Controller) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

// ProcessMessages implements MessageStore. Messages added while
// processing are visited by the next ProcessMessages call, not this
// one.
func (t *iteration) ProcessMessages(proc MessageProcessor) {
	pending := t.msgs
	t.msgs = nil
	var remains []Message
	for i, msg := range pending {
		mc := &messageScope{iter: t, msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			remains = append(remains, msg)
		}
		if mc.stop {
			remains = append(remains, pending[i+1:]...)
			break
		}
	}
	t.msgs = append(remains, t.msgs...)
}

// AddMessages implements MessageAppender.
func (t *iteration) AddMessages(msgs ...Message) {
	t.msgs = append(t.msgs, msgs...)
}

// messageScope is the MessageProcessingContext for one message.
type messageScope struct {
	iter  *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageScope) CurrentMessage() Message { return c.msg }

func (c *messageScope) MessageTaken() { c.taken = true }

func (c *messageScope) StopProcessing() { c.stop = true }

func (c *messageScope) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }
