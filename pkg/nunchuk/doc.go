// Package nunchuk drives a Nunchuk-style pad over a two-wire bus.
//
// The device reports a fixed 6-byte frame per read cycle:
//
//	byte 0: joystick X
//	byte 1: joystick Y
//	byte 2: accel X bits 9..2
//	byte 3: accel Y bits 9..2
//	byte 4: accel Z bits 9..2
//	byte 5: bit 0 button Z (active low), bit 1 button C (active low),
//	        bits 2..7 accel X/Y/Z bits 1..0
//
// A Device owns its frame buffer exclusively and is meant to be
// polled from a single control loop. Callers sharing a Device across
// goroutines must serialize access themselves.
package nunchuk
