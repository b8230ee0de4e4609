//go:build linux

package led

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// spidev ioctls, from linux/spi/spidev.h.
const (
	spiIOCWriteMode        = 0x40016b01
	spiIOCWriteBitsPerWord = 0x40016b03
	spiIOCWriteMaxSpeedHz  = 0x40046b04
)

// SPI drives a WS2812 chain from a bare spidev node, encoding every data
// bit as three SPI bits.
type SPI struct {
	mu      sync.Mutex
	f       *os.File
	count   int
	resetUs int
	lut     *spiLUT
	enc     []byte
	latch   []byte
}

// NewSPI opens spidev (e.g. "/dev/spidev0.0") for count LEDs.
// speedHz in the 2_400_000–3_200_000 range works well with the 3x expansion.
// resetUs is the latch time (usually >= 280µs; 300–400 is safe).
func NewSPI(spiDev string, count int, speedHz int, resetUs int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if speedHz <= 0 {
		speedHz = 2400000
	}
	if resetUs <= 0 {
		resetUs = 300
	}
	f, err := os.OpenFile(spiDev, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open spidev: %w", err)
	}
	fd := int(f.Fd())
	// mode 0, 8 bits per word
	if err := unix.IoctlSetPointerInt(fd, spiIOCWriteMode, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set mode: %w", err)
	}
	if err := unix.IoctlSetPointerInt(fd, spiIOCWriteBitsPerWord, 8); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set bits-per-word: %w", err)
	}
	if err := unix.IoctlSetPointerInt(fd, spiIOCWriteMaxSpeedHz, speedHz); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("SPI set speed: %w", err)
	}

	return &SPI{
		f:       f,
		count:   count,
		resetUs: resetUs,
		lut:     buildSPILUT(),
		enc:     make([]byte, count*9),
		latch:   make([]byte, latchBytes(resetUs)),
	}, nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}

// Write takes len(b)==3*count and sends 9 bytes per pixel plus the latch.
func (s *SPI) Write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return fmt.Errorf("SPI closed")
	}
	if len(b) != s.count*3 {
		return fmt.Errorf("frame length %d does not match count %d", len(b), s.count)
	}
	s.lut.expand(s.enc, b)
	if _, err := s.f.Write(s.enc); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	if _, err := s.f.Write(s.latch); err != nil {
		return fmt.Errorf("spi latch: %w", err)
	}
	return nil
}
