// Package bridge links the pad to a microcontroller exposing its
// two-wire bus over a serial line. The link uses a byte-oriented
// sync protocol: both ends exchange sync/ack sequences to establish
// packet framing, then the host issues bus operations as request
// packets and the firmware answers with reply packets.
//
// Operation codes are even; bit 0 of a reply code flags an error.
// The first data byte of a reply echoes the request sequence number
// so replies can be matched to pending requests.
package bridge
