package bridge

// Link control bytes. Both values fall outside the valid sequence
// range so they can interleave with packet streams.
const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe
)

// SyncState indicates the state of the link.
type SyncState int

const (
	// SyncStateSyncing means the link is not synchronized.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the link is synchronized and ready for packets.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a sync exchange or a packet is in flight.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the link is ready for packets.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of syncing or receiving a packet.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// TimerAction defines what to do with the resync timer.
type TimerAction int

const (
	// TimerNoChange keeps the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart restarts the timer.
	TimerRestart
	// TimerStop cancels the timer.
	TimerStop
)

// ParseResult is the outcome of one parsing step: an optional sync
// byte to send back, the link state, and a completed packet if any.
type ParseResult struct {
	Sync   byte
	State  SyncState
	Packet *Packet
}

// WhatAboutTimer decides what to do with the resync timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	switch {
	case r.State.IsReceiving() || r.Sync == syncREQ:
		return TimerRestart
	case r.State.IsReady():
		return TimerStop
	}
	return TimerNoChange
}

// Parser consumes the byte stream from the firmware one byte at a
// time, tracking link synchronization and assembling packets.
type Parser struct {
	peerSeq PacketSeq
	packet  *Packet
	dataPos int
	state   parseState
}

type parseState int

const (
	awaitSync    parseState = iota // nothing synchronized, hunting for sync bytes
	awaitReqSeq                    // peer sent syncREQ, expecting its sequence
	awaitAckSeq                    // peer sent syncACK, expecting its sequence
	awaitPktSeq                    // synchronized, expecting next packet sequence
	awaitEchoSeq                   // syncACK mid-stream, validating echoed sequence
	awaitCode                      // expecting the packet code byte
	awaitLen                       // expecting the extended length byte
	awaitData                      // expecting packet payload bytes
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.state == awaitSync:
		return SyncStateSyncing
	case p.state == awaitPktSeq:
		return SyncStateReady
	case p.state > awaitPktSeq:
		return SyncStateReady | SyncStateReceiving
	}
	return SyncStateSyncing | SyncStateReceiving
}

// Reset drops all parser state and requests a fresh sync.
func (p *Parser) Reset() (pr ParseResult) {
	p.packet = nil
	pr.Sync, pr.Packet = p.resync()
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Sync, pr.Packet = p.feed(b)
	pr.State = p.State()
	return
}

// Timeout notifies the parser that the resync timer expired.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != awaitPktSeq {
		pr.Sync, pr.Packet = p.resync()
	}
	pr.State = p.State()
	return
}

func (p *Parser) feed(b byte) (syncCmd byte, pkt *Packet) {
	switch p.state {
	case awaitSync:
		switch b {
		case syncREQ:
			p.state = awaitReqSeq
		case syncACK:
			p.state = awaitAckSeq
		}
		return
	case awaitReqSeq:
		if p.adoptPeerSeq(b) {
			syncCmd = syncACK
			return
		}
		return p.resync()
	case awaitAckSeq:
		if p.adoptPeerSeq(b) {
			return
		}
		return p.resync()
	case awaitPktSeq:
		return p.feedSeq(b)
	case awaitEchoSeq:
		if b != byte(p.peerSeq) {
			return p.resync()
		}
		p.state = awaitPktSeq
		return
	case awaitCode:
		return p.feedCode(b)
	case awaitLen:
		return p.feedLen(b)
	case awaitData:
		p.packet.Data[p.dataPos] = b
		if p.dataPos++; p.dataPos >= len(p.packet.Data) {
			return p.emit()
		}
		return
	}
	return
}

// adoptPeerSeq takes b as the peer's sequence if valid and moves the
// link to the synchronized state.
func (p *Parser) adoptPeerSeq(b byte) bool {
	seq := PacketSeq(b)
	if !seq.IsValid() {
		return false
	}
	p.peerSeq, p.state = seq, awaitPktSeq
	return true
}

func (p *Parser) feedSeq(b byte) (byte, *Packet) {
	switch b {
	case syncREQ:
		p.state = awaitReqSeq
		return 0, nil
	case syncACK:
		p.state = awaitEchoSeq
		return 0, nil
	case byte(p.peerSeq):
		p.packet = &Packet{Seq: p.peerSeq}
		p.peerSeq = p.peerSeq.Next()
		p.state = awaitCode
		return 0, nil
	}
	return p.resync()
}

func (p *Parser) feedCode(b byte) (byte, *Packet) {
	p.packet.Code = b & 0x8f
	switch n := (b >> 4) & 7; n {
	case 0:
		return p.emit()
	case 7:
		p.state = awaitLen
	default:
		p.packet.Data, p.dataPos = make([]byte, n), 0
		p.state = awaitData
	}
	return 0, nil
}

func (p *Parser) feedLen(b byte) (byte, *Packet) {
	switch {
	case b >= 0x80:
		return p.resync()
	case b == 0:
		return p.emit()
	}
	p.packet.Data, p.dataPos = make([]byte, b), 0
	p.state = awaitData
	return 0, nil
}

func (p *Parser) resync() (byte, *Packet) {
	p.state = awaitSync
	return syncREQ, nil
}

func (p *Parser) emit() (syncCmd byte, pkt *Packet) {
	p.state = awaitPktSeq
	pkt, p.packet = p.packet, nil
	return
}
