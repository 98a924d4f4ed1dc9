package nunchuk

import (
	"github.com/golang/glog"
)

// Trace wraps a Bus to log every transport operation at v-level 2.
func Trace(bus Bus) Bus {
	return &traceBus{bus: bus}
}

type traceBus struct {
	bus Bus
}

func (t *traceBus) SetClock(hz int32) {
	glog.V(2).Infof("bus: set clock %d", hz)
	t.bus.SetClock(hz)
}

func (t *traceBus) Start(addr byte) {
	glog.V(2).Infof("bus: start %#02x", addr)
	t.bus.Start(addr)
}

func (t *traceBus) Stop() {
	glog.V(2).Info("bus: stop")
	t.bus.Stop()
}

func (t *traceBus) WriteByte(b byte) int {
	n := t.bus.WriteByte(b)
	glog.V(2).Infof("bus: write %#02x -> %d", b, n)
	return n
}

func (t *traceBus) Write(p []byte) int {
	n := t.bus.Write(p)
	glog.V(2).Infof("bus: write % x -> %d", p, n)
	return n
}

func (t *traceBus) RequestFrom(addr byte, n int) int {
	got := t.bus.RequestFrom(addr, n)
	glog.V(2).Infof("bus: request %d from %#02x -> %d", n, addr, got)
	return got
}

func (t *traceBus) ReadByte() byte {
	b := t.bus.ReadByte()
	glog.V(2).Infof("bus: read %#02x", b)
	return b
}

func (t *traceBus) Available() int {
	return t.bus.Available()
}
