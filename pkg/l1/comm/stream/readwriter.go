// Package stream frames packets over a byte stream with a 4-byte
// little-endian length prefix.
package stream

import (
	"encoding/binary"
	"io"
)

// ReadWriter implements PacketReadWriter over a byte stream.
type ReadWriter struct {
	io.ReadWriter
}

// New wraps a byte stream, e.g. a TCP connection.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(p, head[:]); err != nil {
		return nil, err
	}
	pkt := make([]byte, binary.LittleEndian.Uint32(head[:]))
	_, err := io.ReadFull(p, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	var head [4]byte
	binary.LittleEndian.PutUint32(head[:], uint32(len(pkt)))
	if _, err := p.Write(head[:]); err != nil {
		return err
	}
	_, err := p.Write(pkt)
	return err
}
