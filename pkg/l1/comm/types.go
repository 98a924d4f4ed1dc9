// Package comm carries typed messages between device controllers and
// their clients over pluggable packet transports.
package comm

// PacketReader reads one whole packet per call.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes one whole packet per call.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter combines both directions of a packet transport.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
