package led

import (
	"fmt"
	"sync"
)

// Output pairs an Encoder with a Driver: logical frames in, wire bytes out.
type Output struct {
	mu   sync.Mutex
	enc  *Encoder
	drv  Driver
	amps float64
}

func NewOutput(enc *Encoder, drv Driver) *Output {
	return &Output{enc: enc, drv: drv}
}

// Show encodes frame and writes it to the driver.
func (o *Output) Show(frame []Pixel) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(frame) < o.enc.Len() {
		return fmt.Errorf("frame has %d pixels, panel has %d", len(frame), o.enc.Len())
	}
	b := o.enc.Encode(frame)
	o.amps = EstimateAmps(b)
	return o.drv.Write(b)
}

// Amps is the estimated current of the last frame shown, after white cap
// and brightness.
func (o *Output) Amps() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.amps
}

// SetBrightness adjusts the encoder between frames.
func (o *Output) SetBrightness(b float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enc.SetBrightness(b)
}

func (o *Output) SetWhiteCap(c float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enc.SetWhiteCap(c)
}

// Swap replaces the encoder, e.g. after the geometry changed, and
// returns the previous one.
func (o *Output) Swap(enc *Encoder) *Encoder {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev := o.enc
	o.enc = enc
	return prev
}

func (o *Output) Driver() Driver { return o.drv }

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drv.Close()
}
