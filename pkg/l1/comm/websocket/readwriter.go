// Package websocket frames packets as binary websocket messages.
package websocket

import "golang.org/x/net/websocket"

// ReadWriter implements PacketReadWriter over a websocket connection,
// one packet per message.
type ReadWriter struct {
	conn *websocket.Conn
}

// New wraps a websocket connection.
func New(conn *websocket.Conn) *ReadWriter {
	return &ReadWriter{conn: conn}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.conn, &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.conn.Close()
}
