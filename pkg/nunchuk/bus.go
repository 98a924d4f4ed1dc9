package nunchuk

// Bus abstracts the two-wire transport the pad is attached to. The
// model follows addressed transactions: Start begins one, writes
// queue bytes into it, Stop releases the bus. Reads go through
// RequestFrom which buffers up to n bytes for sequential ReadByte
// calls.
//
// Operations are synchronous and report failures only through the
// accepted/returned counts.
type Bus interface {
	// SetClock configures the bus timing in Hz. Implementations
	// unable to change the clock may ignore it.
	SetClock(hz int32)
	// Start begins an addressed write transaction.
	Start(addr byte)
	// Stop ends the current transaction, releasing the bus.
	Stop()
	// WriteByte queues one byte for the current transaction and
	// returns the count accepted.
	WriteByte(b byte) int
	// Write queues a buffer for the current transaction and returns
	// the count accepted.
	Write(p []byte) int
	// RequestFrom initiates a read of n bytes from addr and returns
	// the count actually buffered.
	RequestFrom(addr byte, n int) int
	// ReadByte returns the next buffered byte.
	ReadByte() byte
	// Available returns the count of buffered bytes not yet read.
	Available() int
}
