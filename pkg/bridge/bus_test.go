package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chanReadWriter struct {
	readCh  <-chan byte
	writeCh chan<- byte
}

func (c *chanReadWriter) Read(p []byte) (int, error) {
	p[0] = <-c.readCh
	return 1, nil
}

func (c *chanReadWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		c.writeCh <- b
	}
	return len(p), nil
}

// fakeFirmware answers bus operation requests over the reverse side
// of the serial pair.
type fakeFirmware struct {
	fifo   *FIFO
	handle func(*Packet) *Packet

	lock     sync.Mutex
	received []*Packet
}

func (f *fakeFirmware) HandlePacket(ctx context.Context, pkt *Packet) {
	f.lock.Lock()
	f.received = append(f.received, pkt)
	f.lock.Unlock()
	if f.handle == nil {
		return
	}
	if reply := f.handle(pkt); reply != nil {
		reply.Data = append([]byte{byte(pkt.Seq)}, reply.Data...)
		f.fifo.Send(reply)
	}
}

func (f *fakeFirmware) packets() []*Packet {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]*Packet(nil), f.received...)
}

type busTestEnv struct {
	bus      *Bus
	firmware *fakeFirmware
	cancel   func()
}

func newBusTestEnv(t *testing.T, handle func(*Packet) *Packet) *busTestEnv {
	hostToFw := make(chan byte, 64)
	fwToHost := make(chan byte, 64)

	env := &busTestEnv{
		bus: NewBus(&chanReadWriter{readCh: fwToHost, writeCh: hostToFw}),
		firmware: &fakeFirmware{
			fifo:   NewFIFO(&chanReadWriter{readCh: hostToFw, writeCh: fwToHost}),
			handle: handle,
		},
	}
	env.firmware.fifo.Handler = env.firmware
	env.bus.Timeout = 200 * time.Millisecond

	ctx, cancel := context.WithCancel(context.TODO())
	env.cancel = cancel
	go env.bus.Run(ctx)
	go env.firmware.fifo.Run(ctx)

	require.True(t, waitFor(time.Second, func() bool {
		return env.bus.FIFO().State().IsReady()
	}), "link never synchronized")
	return env
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

func okReply(pkt *Packet, data ...byte) *Packet {
	return &Packet{Code: pkt.Code, Data: data}
}

func TestBusRequestFrom(t *testing.T) {
	frame := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}
	env := newBusTestEnv(t, func(pkt *Packet) *Packet {
		if pkt.Code == OpRequest {
			return okReply(pkt, frame...)
		}
		return okReply(pkt)
	})
	defer env.cancel()
	n := env.bus.RequestFrom(0x52, 6)
	require.Equal(t, 6, n)
	require.Equal(t, 6, env.bus.Available())
	for _, expect := range frame {
		require.Equal(t, expect, env.bus.ReadByte())
	}
	require.Equal(t, 0, env.bus.Available())

	pkts := env.firmware.packets()
	require.Len(t, pkts, 1)
	require.Equal(t, OpRequest, pkts[0].Code)
	require.Equal(t, []byte{0x52, 6}, pkts[0].Data)
}

func TestBusWriteTransaction(t *testing.T) {
	env := newBusTestEnv(t, func(pkt *Packet) *Packet {
		return okReply(pkt)
	})
	defer env.cancel()
	env.bus.Start(0x52)
	require.Equal(t, 1, env.bus.WriteByte(0xF0))
	require.Equal(t, 1, env.bus.WriteByte(0x55))
	env.bus.Stop()

	pkts := env.firmware.packets()
	require.Len(t, pkts, 1)
	require.Equal(t, OpWrite, pkts[0].Code)
	require.Equal(t, []byte{0x52, 0xF0, 0x55}, pkts[0].Data)
}

func TestBusSetClock(t *testing.T) {
	env := newBusTestEnv(t, func(pkt *Packet) *Packet {
		return okReply(pkt)
	})
	defer env.cancel()
	env.bus.SetClock(400000)

	pkts := env.firmware.packets()
	require.Len(t, pkts, 1)
	require.Equal(t, OpSetClock, pkts[0].Code)
	// 400000 = 0x00061a80 little-endian
	require.Equal(t, []byte{0x80, 0x1a, 0x06, 0x00}, pkts[0].Data)
}

func TestBusRequestTimeout(t *testing.T) {
	env := newBusTestEnv(t, func(pkt *Packet) *Packet {
		return nil // firmware never answers
	})
	defer env.cancel()
	env.bus.Timeout = 50 * time.Millisecond
	require.Equal(t, 0, env.bus.RequestFrom(0x52, 6))
	require.Equal(t, 0, env.bus.Available())
}

func TestBusRequestOpError(t *testing.T) {
	env := newBusTestEnv(t, func(pkt *Packet) *Packet {
		return &Packet{Code: pkt.Code | codeErrFlag}
	})
	defer env.cancel()
	require.Equal(t, 0, env.bus.RequestFrom(0x52, 6))
	require.Equal(t, 0, env.bus.Available())
}

func TestBusDroppedReplyFailsEarlierRequests(t *testing.T) {
	var replies int
	env := newBusTestEnv(t, func(pkt *Packet) *Packet {
		replies++
		if replies == 1 {
			return nil // swallow the first request
		}
		return okReply(pkt, 1, 2, 3, 4, 5, 6)
	})
	defer env.cancel()
	env.bus.Timeout = time.Second

	var wg sync.WaitGroup
	wg.Add(1)
	var first Result
	go func() {
		defer wg.Done()
		first = env.bus.do(OpRequest, []byte{0x52, 6})
	}()
	// ensure ordering: the unanswered request goes out first
	require.True(t, waitFor(time.Second, func() bool {
		return len(env.firmware.packets()) == 1
	}))

	require.Equal(t, 6, env.bus.RequestFrom(0x52, 6))
	wg.Wait()
	require.Equal(t, ErrNoReply, first.Err)
}
