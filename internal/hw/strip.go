package hw

import (
	"fmt"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiostream"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	"github.com/example/sj201-leds/internal/led"
)

const (
	// StreamFreq is the WS2812 bit rate when bit-banging a GPIO.
	StreamFreq = 800 * physic.KiloHertz
	// SPIFreq is 3x the WS2812 bit rate, one 3 bit SPI symbol per LED bit.
	SPIFreq = 2500 * physic.KiloHertz
)

func stripOpts(freq physic.Frequency) *nrzled.Opts {
	return &nrzled.Opts{NumPixels: led.NumPixels, Channels: 3, Freq: freq}
}

// OpenStreamStrip drives the ring from a GPIO that can stream bits, the
// SJ201 R10 wiring (GPIO12).
func OpenStreamStrip(pin string) (*nrzled.Dev, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, fmt.Errorf("gpio %q not found", pin)
	}
	po, ok := p.(gpiostream.PinOut)
	if !ok {
		return nil, fmt.Errorf("gpio %s cannot stream", p)
	}
	d, err := nrzled.NewStream(po, stripOpts(StreamFreq))
	if err != nil {
		return nil, fmt.Errorf("nrzled on %s: %w", p, err)
	}
	return d, nil
}

// OpenSPIStrip drives the ring from an SPI MOSI line.
func OpenSPIStrip(dev string) (*nrzled.Dev, spi.PortCloser, error) {
	if err := Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(dev)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi %q: %w", dev, err)
	}
	d, err := NewSPIStrip(p)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return d, p, nil
}

// NewSPIStrip wraps an already open port.
func NewSPIStrip(p spi.Port) (*nrzled.Dev, error) {
	d, err := nrzled.NewSPI(p, stripOpts(SPIFreq))
	if err != nil {
		return nil, fmt.Errorf("nrzled on spi: %w", err)
	}
	return d, nil
}

// NewScreenStrip is a ring drawn on the terminal with ANSI color blocks, for
// running without LEDs attached.
func NewScreenStrip() *screen.Dev {
	return screen.New(led.NumPixels)
}
