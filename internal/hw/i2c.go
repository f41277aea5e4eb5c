package hw

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"github.com/example/sj201-leds/internal/led"
)

// I2CBus sends LED commands as one block write per pixel: the pixel
// register followed by R, G, B.
type I2CBus struct {
	bus i2c.Bus
}

func NewI2CBus(b i2c.Bus) *I2CBus { return &I2CBus{bus: b} }

func (b *I2CBus) Send(cmd led.Command) error {
	return b.bus.Tx(cmd.Addr, cmd.Payload(), nil)
}

func (b *I2CBus) String() string { return b.bus.String() }

// OpenI2C opens the named bus ("" picks the first one available).
func OpenI2C(name string) (i2c.BusCloser, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return b, nil
}

// Probe reports whether a device acknowledges a one byte read at addr.
func Probe(b i2c.Bus, addr uint16) bool {
	d := i2c.Dev{Bus: b, Addr: addr}
	return d.Tx(nil, make([]byte, 1)) == nil
}

// ProbeBus opens the named bus, probes addr and closes the bus again.
func ProbeBus(name string, addr uint16) bool {
	b, err := OpenI2C(name)
	if err != nil {
		return false
	}
	defer b.Close()
	return Probe(b, addr)
}
