// Package i2c provides the pad transport over a Linux I2C device
// node (/dev/i2c-N).
package i2c

import (
	d2r2 "github.com/d2r2/go-i2c"
	d2r2log "github.com/d2r2/go-logger"
	"github.com/golang/glog"
)

func init() {
	// the i2c library logs every transfer at debug by default
	d2r2log.ChangePackageLogLevel("i2c", d2r2log.InfoLevel)
}

// Bus drives a local two-wire bus through the kernel i2c-dev
// interface. Writes queue between Start and Stop and flush as one
// transaction; reads buffer for sequential ReadByte calls.
type Bus struct {
	number int

	conn   *d2r2.I2C
	addr   byte
	queued []byte
	rx     []byte
}

// Open creates a Bus on bus number N of /dev/i2c-N. The device node
// is opened lazily on first use.
func Open(number int) *Bus {
	return &Bus{number: number}
}

// SetClock implements Bus. The i2c-dev interface has no clock
// control; the bus speed is fixed by the kernel device tree, so the
// requested rate is only recorded in logs.
func (b *Bus) SetClock(hz int32) {
	glog.V(1).Infof("i2c-%d: clock request %d Hz ignored (fixed by device tree)", b.number, hz)
}

// Start implements Bus.
func (b *Bus) Start(addr byte) {
	b.queued = b.queued[:0]
	if b.conn != nil && b.addr == addr {
		return
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
	conn, err := d2r2.NewI2C(addr, b.number)
	if err != nil {
		glog.V(1).Infof("i2c-%d: open addr %#02x: %v", b.number, addr, err)
		return
	}
	b.conn, b.addr = conn, addr
}

// Stop implements Bus.
func (b *Bus) Stop() {
	if b.conn == nil || len(b.queued) == 0 {
		return
	}
	if _, err := b.conn.WriteBytes(b.queued); err != nil {
		glog.V(1).Infof("i2c-%d: write addr %#02x: %v", b.number, b.addr, err)
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
	b.Start(addr)
	b.rx = nil
	if b.conn == nil {
		return 0
	}
	buf := make([]byte, n)
	read, err := b.conn.ReadBytes(buf)
	if err != nil {
		glog.V(1).Infof("i2c-%d: read addr %#02x: %v", b.number, addr, err)
		return 0
	}
	b.rx = buf[:read]
	return read
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

// Close releases the device node.
func (b *Bus) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
