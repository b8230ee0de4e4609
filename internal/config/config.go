package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/serpentine/internal/layout"
)

type PowerCfg struct {
	LimitAmps float64 `yaml:"limit_amps"`
	WhiteCap  float64 `yaml:"white_cap"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0
	SpeedHz int    `yaml:"speed_hz"` // e.g. 2400000
	ResetUs int    `yaml:"reset_us"` // e.g. 300
}

// Panel is the wiring geometry. The flags are pointers so a config file
// can leave them to the command line.
type Panel struct {
	Segments        int   `yaml:"segments"`
	SegmentWidth    int   `yaml:"segment_width"`
	Rows            int   `yaml:"rows"`
	Zigzag          *bool `yaml:"zigzag,omitempty"`
	RightToLeft     *bool `yaml:"right_to_left,omitempty"`
	RowReversePhase *bool `yaml:"row_reverse_phase,omitempty"`
}

type Config struct {
	Driver     string  `yaml:"driver"` // "spi" | "nrz" | "sim"
	ColorOrder string  `yaml:"color_order"`
	Brightness float64 `yaml:"brightness"`
	FPS        int     `yaml:"fps"`
	PitchMM    float64 `yaml:"pitch_mm"`

	Panel Panel    `yaml:"panel"`
	Power PowerCfg `yaml:"power"`
	SPI   SPI      `yaml:"spi,omitempty"`
}

// Default matches a single 4x4 zigzag panel.
func Default() *Config {
	zz, rtl, phase := true, false, false
	return &Config{
		Driver:     "sim",
		ColorOrder: "GRB",
		Brightness: 0.8,
		FPS:        60,
		PitchMM:    10,
		Panel: Panel{
			Segments:        1,
			SegmentWidth:    4,
			Rows:            4,
			Zigzag:          &zz,
			RightToLeft:     &rtl,
			RowReversePhase: &phase,
		},
		Power: PowerCfg{LimitAmps: 10, WhiteCap: 0.85},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Environment variables read by ApplyEnv.
const (
	EnvWidth       = "LEDS_W"
	EnvHeight      = "LEDS_H"
	EnvSegments    = "LEDS_SEGMENTS"
	EnvNoZigzag    = "LEDS_NO_ZIGZAG"
	EnvRightToLeft = "LEDS_RIGHT_TO_LEFT"
	EnvRowPhase    = "LEDS_ROW_PHASE"
)

// ApplyEnv overrides panel geometry from the environment. lookup is
// normally os.LookupEnv. LEDS_NO_ZIGZAG disables zigzag by being set at
// all, whatever its value.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvWidth, &c.Panel.SegmentWidth},
		{EnvHeight, &c.Panel.Rows},
		{EnvSegments, &c.Panel.Segments},
	}
	for _, e := range ints {
		s, ok := lookup(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s=%q: want a positive integer", e.key, s)
		}
		*e.dst = n
	}

	if _, ok := lookup(EnvNoZigzag); ok {
		off := false
		c.Panel.Zigzag = &off
	}
	bools := []struct {
		key string
		dst **bool
	}{
		{EnvRightToLeft, &c.Panel.RightToLeft},
		{EnvRowPhase, &c.Panel.RowReversePhase},
	}
	for _, e := range bools {
		s, ok := lookup(e.key)
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", e.key, s, err)
		}
		*e.dst = &v
	}
	return nil
}

// Layout builds the panel layout, taking unset flags from fallback.
func (c *Config) Layout(fallback layout.Serpentine) layout.Layout {
	order := fallback
	if c.Panel.Zigzag != nil {
		order.Zigzag = *c.Panel.Zigzag
	}
	if c.Panel.RightToLeft != nil {
		order.RightToLeft = *c.Panel.RightToLeft
	}
	if c.Panel.RowReversePhase != nil {
		order.RowReversePhase = *c.Panel.RowReversePhase
	}
	return layout.Layout{
		Segments:     c.Panel.Segments,
		SegmentWidth: c.Panel.SegmentWidth,
		Rows:         c.Panel.Rows,
		Order:        order,
		PitchMM:      c.PitchMM,
	}
}

// FromLayout is the inverse of Layout, used when persisting live changes.
func (c *Config) FromLayout(l layout.Layout) {
	zz, rtl, phase := l.Order.Zigzag, l.Order.RightToLeft, l.Order.RowReversePhase
	c.Panel = Panel{
		Segments:        l.Segments,
		SegmentWidth:    l.SegmentWidth,
		Rows:            l.Rows,
		Zigzag:          &zz,
		RightToLeft:     &rtl,
		RowReversePhase: &phase,
	}
	c.PitchMM = l.PitchMM
}
