package nunchuk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBus scripts RequestFrom responses and records every addressed
// write transaction.
type fakeBus struct {
	clock    int32
	writes   [][]byte
	requests []int

	responses [][]byte
	rx        []byte

	current []byte
	started bool
}

func (b *fakeBus) respond(frames ...[]byte) {
	b.responses = append(b.responses, frames...)
}

func (b *fakeBus) SetClock(hz int32) { b.clock = hz }

func (b *fakeBus) Start(addr byte) {
	b.started = true
	b.current = nil
}

func (b *fakeBus) Stop() {
	b.writes = append(b.writes, b.current)
	b.started = false
}

func (b *fakeBus) WriteByte(c byte) int {
	b.current = append(b.current, c)
	return 1
}

func (b *fakeBus) Write(p []byte) int {
	b.current = append(b.current, p...)
	return len(p)
}

func (b *fakeBus) RequestFrom(addr byte, n int) int {
	b.requests = append(b.requests, n)
	if len(b.responses) == 0 {
		b.rx = nil
		return 0
	}
	b.rx = b.responses[0]
	b.responses = b.responses[1:]
	return len(b.rx)
}

func (b *fakeBus) ReadByte() byte {
	c := b.rx[0]
	b.rx = b.rx[1:]
	return c
}

func (b *fakeBus) Available() int { return len(b.rx) }

// obfuscate is the device-side transform, the inverse of decode.
func obfuscate(b byte) byte {
	return (b - 0x17) ^ 0x17
}

func obfuscateFrame(frame []byte) []byte {
	out := make([]byte, len(frame))
	for i, b := range frame {
		out[i] = obfuscate(b)
	}
	return out
}

func TestDecodePlainIsIdentity(t *testing.T) {
	d := New(&fakeBus{})
	for i := 0; i < 256; i++ {
		b := byte(i)
		require.Equal(t, b, d.decode(b))
	}
}

func TestDecodeObfuscated(t *testing.T) {
	conf := Config{Obfuscated: true}
	d := conf.NewDevice(&fakeBus{})
	for i := 0; i < 256; i++ {
		b := byte(i)
		require.Equal(t, (b^0x17)+0x17, d.decode(b))
		require.Equal(t, b, d.decode(obfuscate(b)))
	}
}

func TestInitHandshake(t *testing.T) {
	for _, tc := range []struct {
		name   string
		conf   Config
		writes [][]byte
	}{
		{
			name:   "plain",
			conf:   Config{},
			writes: [][]byte{{0xF0, 0x55}, {0xFB, 0x00}},
		},
		{
			name:   "obfuscated",
			conf:   Config{Obfuscated: true},
			writes: [][]byte{{0x40, 0x00}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			bus := &fakeBus{}
			d := tc.conf.NewDevice(bus)
			d.Init()
			require.Equal(t, ClockHz, bus.clock)
			require.Equal(t, tc.writes, bus.writes)
		})
	}
}

func TestReadFrame(t *testing.T) {
	bus := &fakeBus{}
	bus.respond([]byte{0x85, 0x7b, 0x80, 0x80, 0x80, 0x02})
	d := New(bus)
	require.True(t, d.ReadFrame())
	require.Equal(t, []int{FrameSize}, bus.requests)
	// re-arm write after the read
	require.Equal(t, [][]byte{{0x00}}, bus.writes)
	require.Equal(t, int8(5), d.JoystickX())
	require.Equal(t, int8(-5), d.JoystickY())
	require.False(t, d.ButtonC())
	require.True(t, d.ButtonZ())
}

func TestReadFrameObfuscated(t *testing.T) {
	bus := &fakeBus{}
	bus.respond(obfuscateFrame([]byte{0x85, 0x7b, 0x80, 0x80, 0x80, 0x02}))
	conf := Config{Obfuscated: true}
	d := conf.NewDevice(bus)
	require.True(t, d.ReadFrame())
	require.Equal(t, int8(5), d.JoystickX())
	require.Equal(t, int8(-5), d.JoystickY())
	require.False(t, d.ButtonC())
	require.True(t, d.ButtonZ())
}

func TestReadFrameNothingAvailable(t *testing.T) {
	bus := &fakeBus{}
	d := New(bus)
	require.False(t, d.ReadFrame())
	// re-arm still issued
	require.Equal(t, [][]byte{{0x00}}, bus.writes)
}

func TestPartialReadKeepsStaleTail(t *testing.T) {
	bus := &fakeBus{}
	bus.respond([]byte{1, 2, 3, 4, 5, 6})
	d := New(bus)
	require.True(t, d.ReadFrame())

	bus.respond([]byte{0xa1, 0xa2, 0xa3})
	require.False(t, d.ReadFrame())
	require.Equal(t, [FrameSize]byte{0xa1, 0xa2, 0xa3, 4, 5, 6}, d.frame)
	// one re-arm write per attempt
	require.Equal(t, [][]byte{{0x00}, {0x00}}, bus.writes)
}

func TestJoystickCalibration(t *testing.T) {
	d := New(&fakeBus{})
	for _, tc := range []struct {
		raw byte
		cal int8
	}{
		{raw: 128, cal: 0},
		{raw: 0, cal: -128},
		{raw: 255, cal: 127},
	} {
		d.frame[0] = tc.raw
		d.frame[1] = tc.raw
		require.Equal(t, tc.cal, d.JoystickX())
		require.Equal(t, tc.cal, d.JoystickY())
	}
}

func TestAccelBitPacking(t *testing.T) {
	d := New(&fakeBus{})
	d.frame[2] = 0x80
	d.frame[5] = 0x0c // accel X low bits = 0b11
	require.Equal(t, 515, d.accelRawX())
	require.Equal(t, int16(3), d.AccelX())
}

func TestButtonsActiveLow(t *testing.T) {
	d := New(&fakeBus{})
	for _, tc := range []struct {
		byte5 byte
		c, z  bool
	}{
		{byte5: 0x00, c: true, z: true},
		{byte5: 0x03, c: false, z: false},
		{byte5: 0x01, c: true, z: false},
		{byte5: 0x02, c: false, z: true},
	} {
		d.frame[5] = tc.byte5
		require.Equal(t, tc.c, d.ButtonC(), "byte5=%#02x", tc.byte5)
		require.Equal(t, tc.z, d.ButtonZ(), "byte5=%#02x", tc.byte5)
	}
}

func TestCenteredFrameEndToEnd(t *testing.T) {
	bus := &fakeBus{}
	bus.respond([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
	d := New(bus)
	require.True(t, d.ReadFrame())
	require.Equal(t, int8(0), d.JoystickX())
	require.Equal(t, int8(0), d.JoystickY())
	require.Equal(t, int16(0), d.AccelX())
	require.Equal(t, int16(0), d.AccelY())
	require.Equal(t, int16(0), d.AccelZ())
	require.True(t, d.ButtonC())
	require.True(t, d.ButtonZ())
}

func TestIdent(t *testing.T) {
	bus := &fakeBus{}
	bus.respond([]byte{0x00, 0x00, 0xa4, 0x20, 0x00, 0x00})
	d := New(bus)
	ident, ok := d.Ident()
	require.True(t, ok)
	require.Equal(t, []byte{0x00, 0x00, 0xa4, 0x20, 0x00, 0x00}, ident)
	require.Equal(t, [][]byte{{0xFA}}, bus.writes)
}
