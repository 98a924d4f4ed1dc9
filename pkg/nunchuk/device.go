package nunchuk

import (
	"math"

	"github.com/golang/glog"
)

// Wire protocol constants.
const (
	// Address is the fixed 7-bit bus address of the pad.
	Address byte = 0x52
	// FrameSize is the fixed report size in bytes.
	FrameSize = 6
	// ClockHz is the bus clock the device requires (fast mode).
	ClockHz int32 = 400000

	cmdNextFrame byte = 0x00
	cmdIdent     byte = 0xFA

	joystickZero int = 128
	accelZero    int = 512
)

// Mode selects how the device reports bytes.
type Mode int

// Reporting modes.
const (
	// ModePlain disables the device's byte obfuscation during the
	// handshake. Recommended.
	ModePlain Mode = iota
	// ModeObfuscated leaves the vendor obfuscation on; every frame
	// byte is run through the inverse transform.
	ModeObfuscated
)

// String implements Stringer.
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeObfuscated:
		return "obfuscated"
	}
	return "unknown"
}

// Device drives one pad attached to a Bus. It holds the most recent
// frame and exposes calibrated accessors over it.
type Device struct {
	bus   Bus
	mode  Mode
	debug bool

	frame [FrameSize]byte
}

// New creates a Device in plain mode.
func New(bus Bus) *Device {
	return &Device{bus: bus}
}

// Init performs the reporting-mode handshake. The transport cannot
// signal failure here; a dead device only shows up as ReadFrame
// returning false afterwards.
func (d *Device) Init() {
	d.bus.SetClock(ClockHz)
	switch d.mode {
	case ModePlain:
		d.writeCmd(0xF0, 0x55)
		d.writeCmd(0xFB, 0x00)
	case ModeObfuscated:
		d.writeCmd(0x40, 0x00)
	}
	if d.debug {
		if ident, ok := d.Ident(); ok {
			glog.Infof("pad ident: % x", ident)
		} else {
			glog.Info("pad ident: not available")
		}
	}
}

// Ident queries the device's self-reported identification. It is
// observational only and does not touch the frame buffer.
func (d *Device) Ident() ([]byte, bool) {
	d.bus.Start(Address)
	d.bus.WriteByte(cmdIdent)
	d.bus.Stop()
	n := 0
	ident := make([]byte, 0, FrameSize)
	d.bus.RequestFrom(Address, FrameSize)
	for n < FrameSize && d.bus.Available() > 0 {
		ident = append(ident, d.decode(d.bus.ReadByte()))
		n++
	}
	return ident, n == FrameSize
}

func (d *Device) writeCmd(reg, val byte) {
	d.bus.Start(Address)
	d.bus.WriteByte(reg)
	d.bus.WriteByte(val)
	d.bus.Stop()
}

// decode reverses the per-byte obfuscation. Identity in plain mode.
func (d *Device) decode(b byte) byte {
	if d.mode == ModeObfuscated {
		return (b ^ 0x17) + 0x17
	}
	return b
}

// ReadFrame fetches one frame from the device and returns whether a
// full frame was obtained. On a short read the bytes received still
// overwrite the low slots of the buffer and the tail keeps data from
// the previous successful read; accessors then mix old and new bytes.
// The re-arm write is issued regardless, so the device prepares the
// next frame either way.
func (d *Device) ReadFrame() bool {
	n := 0
	d.bus.RequestFrom(Address, FrameSize)
	for n < FrameSize && d.bus.Available() > 0 {
		d.frame[n] = d.decode(d.bus.ReadByte())
		n++
	}
	d.bus.Start(Address)
	d.bus.WriteByte(cmdNextFrame)
	d.bus.Stop()
	return n == FrameSize
}

func (d *Device) joystickRawX() int { return int(d.frame[0]) }
func (d *Device) joystickRawY() int { return int(d.frame[1]) }

func (d *Device) accelRawX() int {
	return int(d.frame[2])<<2 | int(d.frame[5]>>2)&0x3
}

func (d *Device) accelRawY() int {
	return int(d.frame[3])<<2 | int(d.frame[5]>>4)&0x3
}

func (d *Device) accelRawZ() int {
	return int(d.frame[4])<<2 | int(d.frame[5]>>6)&0x3
}

// JoystickX is the calibrated joystick X deflection.
func (d *Device) JoystickX() int8 {
	return int8(d.joystickRawX() - joystickZero)
}

// JoystickY is the calibrated joystick Y deflection.
func (d *Device) JoystickY() int8 {
	return int8(d.joystickRawY() - joystickZero)
}

// JoystickAngle is the joystick direction in radians.
func (d *Device) JoystickAngle() float64 {
	return math.Atan2(float64(d.JoystickY()), float64(d.JoystickX()))
}

// AccelX is the calibrated 10-bit acceleration on X.
func (d *Device) AccelX() int16 {
	return int16(d.accelRawX() - accelZero)
}

// AccelY is the calibrated 10-bit acceleration on Y.
func (d *Device) AccelY() int16 {
	return int16(d.accelRawY() - accelZero)
}

// AccelZ is the calibrated 10-bit acceleration on Z.
func (d *Device) AccelZ() int16 {
	return int16(d.accelRawZ() - accelZero)
}

// ButtonZ reports whether the Z button is pressed. The device
// transmits active-low.
func (d *Device) ButtonZ() bool {
	return (^d.frame[5]>>0)&1 == 1
}

// ButtonC reports whether the C button is pressed. The device
// transmits active-low.
func (d *Device) ButtonC() bool {
	return (^d.frame[5]>>1)&1 == 1
}

// Pitch is the pad tilt around the X axis in radians.
func (d *Device) Pitch() float64 {
	return math.Atan2(float64(d.AccelY()), float64(d.AccelZ()))
}

// Roll is the pad tilt around the Y axis in radians.
func (d *Device) Roll() float64 {
	return math.Atan2(float64(d.AccelX()), float64(d.AccelZ()))
}

// Mode reports the configured reporting mode.
func (d *Device) Mode() Mode {
	return d.mode
}
