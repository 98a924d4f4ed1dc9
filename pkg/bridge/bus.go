package bridge

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Result is the outcome of one bus operation round-trip.
type Result struct {
	Err  error
	Code byte
	Data []byte
}

// Bus drives a remote two-wire bus through the bridge firmware. It
// satisfies the synchronous transport model: every operation blocks
// for its reply, and failures degrade to zero byte counts.
//
// Run must be active (typically as a loop runnable) for any
// operation to complete.
type Bus struct {
	// Timeout bounds one operation round-trip.
	Timeout time.Duration

	fifo     *FIFO
	reqsHead *request
	reqsTail *request
	reqsLock sync.Mutex

	addr   byte
	queued []byte
	rx     []byte
}

type request struct {
	seq      PacketSeq
	resultCh chan Result
	next     *request
}

// DefaultTimeout bounds a bus operation round-trip. Serial latency
// dominates; one frame fetch is three round-trips.
const DefaultTimeout = 250 * time.Millisecond

// NewBus creates a Bus over a serial line to the bridge firmware.
func NewBus(rw io.ReadWriter) *Bus {
	b := &Bus{
		Timeout: DefaultTimeout,
		fifo:    NewFIFO(rw),
	}
	b.fifo.Handler = b
	return b
}

// FIFO gets the wrapped FIFO.
func (b *Bus) FIFO() *FIFO {
	return b.fifo
}

// Run pumps the serial link. It implements Runnable.
func (b *Bus) Run(ctx context.Context) error {
	return b.fifo.Run(ctx)
}

// SetClock implements Bus.
func (b *Bus) SetClock(hz int32) {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], uint32(hz))
	if res := b.do(OpSetClock, data[:]); res.Err != nil {
		glog.V(1).Infof("bridge set clock: %v", res.Err)
	}
}

// Start implements Bus. Writes queue up until Stop flushes the
// transaction to the firmware in one request.
func (b *Bus) Start(addr byte) {
	b.addr = addr
	b.queued = b.queued[:0]
}

// Stop implements Bus.
func (b *Bus) Stop() {
	data := make([]byte, 0, len(b.queued)+1)
	data = append(data, b.addr)
	data = append(data, b.queued...)
	if res := b.do(OpWrite, data); res.Err != nil {
		glog.V(1).Infof("bridge write addr %#02x: %v", b.addr, res.Err)
	}
}

// WriteByte implements Bus.
func (b *Bus) WriteByte(c byte) int {
	b.queued = append(b.queued, c)
	return 1
}

// Write implements Bus.
func (b *Bus) Write(p []byte) int {
	b.queued = append(b.queued, p...)
	return len(p)
}

// RequestFrom implements Bus.
func (b *Bus) RequestFrom(addr byte, n int) int {
	res := b.do(OpRequest, []byte{addr, byte(n)})
	if res.Err != nil {
		glog.V(1).Infof("bridge request addr %#02x: %v", addr, res.Err)
		b.rx = nil
		return 0
	}
	b.rx = res.Data
	return len(b.rx)
}

// ReadByte implements Bus.
func (b *Bus) ReadByte() byte {
	c := b.rx[0]
	b.rx = b.rx[1:]
	return c
}

// Available implements Bus.
func (b *Bus) Available() int {
	return len(b.rx)
}

func (b *Bus) do(code byte, data []byte) Result {
	req := &request{resultCh: make(chan Result, 1)}

	b.reqsLock.Lock()
	pkt := &Packet{Code: code, Data: data}
	if err := b.fifo.Send(pkt); err != nil {
		b.reqsLock.Unlock()
		return Result{Err: err}
	}
	req.seq = pkt.Seq
	if b.reqsHead == nil {
		b.reqsHead = req
	} else {
		b.reqsTail.next = req
	}
	b.reqsTail = req
	b.reqsLock.Unlock()

	select {
	case res := <-req.resultCh:
		return res
	case <-time.After(b.Timeout):
		b.drop(req)
		return Result{Err: ErrTimeout}
	}
}

func (b *Bus) drop(req *request) {
	b.reqsLock.Lock()
	defer b.reqsLock.Unlock()
	var prev *request
	for curr := b.reqsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != req {
			continue
		}
		if prev == nil {
			b.reqsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if b.reqsTail == curr {
			b.reqsTail = prev
		}
		curr.next = nil
		return
	}
}

// HandlePacket implements PacketHandler.
func (b *Bus) HandlePacket(ctx context.Context, pkt *Packet) {
	if pkt.Code&codeEvtFlag != 0 {
		glog.V(2).Infof("bridge event %#02x: % x", pkt.Code, pkt.Data)
		return
	}
	if len(pkt.Data) == 0 {
		// invalid reply packet.
		return
	}
	seq := PacketSeq(pkt.Data[0])
	if !seq.IsValid() {
		// invalid sequence.
		return
	}
	b.reqsLock.Lock()
	head := b.reqsHead
	curr := b.reqsHead
	for ; curr != nil; curr = curr.next {
		if curr.seq == seq {
			if b.reqsHead = curr.next; b.reqsHead == nil {
				b.reqsTail = nil
			}
			curr.next = nil
			break
		}
	}
	b.reqsLock.Unlock()
	if curr == nil {
		return
	}
	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	if pkt.Code&codeErrFlag != 0 {
		curr.resultCh <- Result{Err: &OpError{Code: pkt.Code & 0x7e}}
	} else {
		curr.resultCh <- Result{Code: pkt.Code & 0x7e, Data: pkt.Data[1:]}
	}
}
