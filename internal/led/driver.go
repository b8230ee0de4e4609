package led

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes one encoded frame, already in wire order and channel
	// order, to the hardware. len(b) must be 3*N.
	Write(b []byte) error
	// Close releases resources.
	Close() error
}
