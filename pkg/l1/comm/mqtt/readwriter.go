package mqtt

import (
	"context"
	"io"

	"github.com/robotalks/nunchuk.go/pkg/l1"
)

// ReadWriter implements PacketReadWriter over a pair of topics: one
// subscribed for inbound packets, one published for outbound. The
// controller and its clients use the same pair with the directions
// swapped.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
}

// NewPacketReadWriter creates a ReadWriter over the queue; topics are
// set with one of the For helpers or WithTopics.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 1)}
}

// WithTopics sets the topic pair explicitly.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForConnector arranges topics for the client side: commands go out
// on <ref>/cmd, messages come in on <ref>/msg.
func (p *ReadWriter) ForConnector(ref l1.ControllerRef) *ReadWriter {
	name := ref.Name()
	return p.WithTopics(name+"/msg", name+"/cmd")
}

// ForController arranges topics for the device side: commands come in
// on <ref>/cmd, messages go out on <ref>/msg.
func (p *ReadWriter) ForController(ref l1.ControllerRef) *ReadWriter {
	name := ref.Name()
	return p.WithTopics(name+"/cmd", name+"/msg")
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run subscribes the inbound topic for the lifetime of the context.
// It implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, func(_ string, payload []byte) {
		p.packetCh <- payload
	})
	defer sub.Close()
	defer close(p.packetCh)
	<-ctx.Done()
	return ctx.Err()
}
