package led

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sim is a driver with no hardware behind it. It keeps the last frame so
// tests and the health endpoint can inspect what would have been sent.
type Sim struct {
	mu     sync.Mutex
	last   []byte
	frames uint64
	closed bool
}

func NewSim() *Sim { return &Sim{} }

func (s *Sim) Write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], b...)
	s.frames++
	if s.frames%600 == 1 {
		log.Debug().Uint64("frame", s.frames).Int("bytes", len(b)).
			Float64("amps", EstimateAmps(b)).Msg("sim frame")
	}
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Last returns a copy of the most recent frame and how many were written.
func (s *Sim) Last() ([]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...), s.frames
}
