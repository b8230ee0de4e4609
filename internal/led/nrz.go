package led

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/devices/v3/screen1d"
	"periph.io/x/host/v3"
)

// RefreshRate is the nominal NRZ bit rate in kHz of WS281x parts.
const RefreshRate = 800

// NRZ drives a WS281x chain through periph's nrzled over any SPI port.
// nrzled reorders channels itself, so frames must be encoded as RGB.
type NRZ struct {
	dev  *nrzled.Dev
	port spi.PortCloser
}

// OpenNRZ initialises the host drivers and opens the named SPI port
// ("" picks the first one) for count LEDs.
func OpenNRZ(name string, count int) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	n, err := NewNRZ(p, count)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	n.port = p
	return n, nil
}

// NewNRZ wraps an already open port. The port is not closed by Close.
func NewNRZ(p spi.Port, count int) (*NRZ, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      ((RefreshRate * 3) + 100) * physic.KiloHertz,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &NRZ{dev: d}, nil
}

func (n *NRZ) String() string { return n.dev.String() }

func (n *NRZ) Write(b []byte) error {
	_, err := n.dev.Write(b)
	return err
}

func (n *NRZ) Close() error {
	err := n.dev.Halt()
	if n.port != nil {
		if cerr := n.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Console renders frames on a display.Drawer, by default a one-line
// terminal strip. Frames must be encoded as RGB.
type Console struct {
	drawer display.Drawer
	img    *image.NRGBA
}

func NewConsole(count int) *Console {
	return NewDrawer(screen1d.New(&screen1d.Opts{X: count}), count)
}

// NewDrawer shows frames on any periph drawer of at least count pixels.
func NewDrawer(d display.Drawer, count int) *Console {
	return &Console{drawer: d, img: image.NewNRGBA(image.Rect(0, 0, count, 1))}
}

func (c *Console) Write(b []byte) error {
	n := c.img.Rect.Dx()
	if len(b) != n*3 {
		return fmt.Errorf("frame length %d does not match count %d", len(b), n)
	}
	for x := 0; x < n; x++ {
		c.img.SetNRGBA(x, 0, color.NRGBA{R: b[x*3], G: b[x*3+1], B: b[x*3+2], A: 255})
	}
	return c.drawer.Draw(c.drawer.Bounds(), c.img, image.Point{})
}

func (c *Console) Close() error {
	return c.drawer.Halt()
}
