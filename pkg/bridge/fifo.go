package bridge

import (
	"context"
	"io"
	"os"
	"sync"
	"time"
)

// PacketHandler is called for every packet received on the link.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is the func form of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// StateNotifier is called when the link state changes.
type StateNotifier interface {
	StateChanged(context.Context, SyncState)
}

// StateChangedFunc is the func form of StateNotifier.
type StateChangedFunc func(context.Context, SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state SyncState) {
	f(ctx, state)
}

// FIFO sends and receives packets over the serial line, keeping the
// link synchronized. Send is safe for concurrent use; Run must be
// active for anything to be received.
type FIFO struct {
	ReadWriter io.ReadWriter
	Handler    PacketHandler
	Notifier   StateNotifier
	// Timeout is the resync timer period.
	Timeout time.Duration
	// ReadTimeout marks the ReadWriter as supporting read deadlines,
	// letting Run poll it directly instead of a reader goroutine.
	ReadTimeout bool

	mu     sync.RWMutex
	seq    PacketSeq
	state  SyncState
	parser Parser

	resyncTimer <-chan time.Time
}

// NewFIFO creates a FIFO over the serial line.
func NewFIFO(rw io.ReadWriter) *FIFO {
	return &FIFO{
		ReadWriter: rw,
		Timeout:    100 * time.Millisecond,
		seq:        NewPacketSeq(),
	}
}

// State gets the link state.
func (f *FIFO) State() SyncState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Send assigns the next sequence number to the packet and writes it
// out. It fails with ErrNotReady while the link is unsynchronized.
func (f *FIFO) Send(pkt *Packet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.state.IsReady() {
		return ErrNotReady
	}
	pkt.Seq = f.seq
	if _, err := pkt.WriteTo(f.ReadWriter); err != nil {
		return err
	}
	f.seq = f.seq.Next()
	return nil
}

// Run pumps the link until the context is done.
func (f *FIFO) Run(ctx context.Context) error {
	if err := f.apply(ctx, f.parser.Reset()); err != nil {
		return err
	}
	if f.ReadTimeout {
		return f.runPolled(ctx)
	}
	return f.runWithReader(ctx)
}

// runPolled reads the line inline relying on read deadlines to wake
// up for the resync timer.
func (f *FIFO) runPolled(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.resyncTimer:
			if err := f.apply(ctx, f.parser.Timeout()); err != nil {
				return err
			}
		default:
		}
		var pr ParseResult
		n, err := f.ReadWriter.Read(buf)
		switch {
		case err != nil && !os.IsTimeout(err):
			return err
		case err != nil || n == 0:
			pr = f.parser.Timeout()
		default:
			pr = f.parser.Parse(buf[0])
		}
		if err := f.apply(ctx, pr); err != nil {
			return err
		}
	}
}

// runWithReader pumps bytes through a reader goroutine so the select
// can also watch the context and the resync timer.
func (f *FIFO) runWithReader(ctx context.Context) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := f.ReadWriter.Read(buf); err != nil {
				errCh <- err
				return
			}
			select {
			case byteCh <- buf[0]:
			case <-subCtx.Done():
				return
			}
		}
	}()
	for {
		select {
		case b := <-byteCh:
			if err := f.apply(ctx, f.parser.Parse(b)); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-f.resyncTimer:
			if err := f.apply(ctx, f.parser.Timeout()); err != nil {
				return err
			}
		}
	}
}

func (f *FIFO) apply(ctx context.Context, pr ParseResult) error {
	var notifier StateNotifier
	f.mu.Lock()
	if f.state != pr.State {
		f.state = pr.State
		notifier = f.Notifier
	}
	var err error
	if pr.Sync != 0 {
		_, err = f.ReadWriter.Write([]byte{pr.Sync, byte(f.seq)})
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	switch pr.WhatAboutTimer() {
	case TimerRestart:
		f.resyncTimer = time.After(f.Timeout)
	case TimerStop:
		f.resyncTimer = nil
	}

	if notifier != nil {
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Packet != nil {
		if h := f.Handler; h != nil {
			h.HandlePacket(ctx, pr.Packet)
		}
	}
	return nil
}
