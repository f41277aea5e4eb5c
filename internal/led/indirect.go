package led

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DeviceAddr is the I2C address of the SJ201 LED companion controller.
const DeviceAddr uint16 = 0x04

// Command is one pixel update addressed to a subordinate LED controller.
type Command struct {
	Addr  uint16
	Pixel uint8
	Color Color
}

// Payload is the block written to the controller: pixel register then R, G, B.
func (c Command) Payload() []byte {
	return []byte{c.Pixel, c.Color.R, c.Color.G, c.Color.B}
}

// String renders the command as "addr pixel r g b".
func (c Command) String() string {
	return fmt.Sprintf("%d %d %d %d %d", c.Addr, c.Pixel, c.Color.R, c.Color.G, c.Color.B)
}

// Bus delivers commands to the controller. Implementations must not retry.
type Bus interface {
	Send(cmd Command) error
}

// BusFunc adapts a function to Bus.
type BusFunc func(cmd Command) error

func (f BusFunc) Send(cmd Command) error { return f(cmd) }

// Indirect drives the ring through a companion controller: every SetPixel is
// one bus transaction, sent immediately with no batching.
type Indirect struct {
	frame
	bus    Bus
	addr   uint16
	logger zerolog.Logger
}

type IndirectOption func(*Indirect)

// WithAddr overrides the controller address.
func WithAddr(addr uint16) IndirectOption {
	return func(t *Indirect) { t.addr = addr }
}

// WithBusLogger sets the logger used to report failed transactions.
func WithBusLogger(l zerolog.Logger) IndirectOption {
	return func(t *Indirect) { t.logger = l }
}

// NewIndirect returns a transport that sends commands over bus. The bus is
// owned by the caller.
func NewIndirect(bus Bus, opts ...IndirectOption) *Indirect {
	t := &Indirect{bus: bus, addr: DeviceAddr, logger: zerolog.Nop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Indirect) SetPixel(index int, c Color) Status {
	checkIndex(index)
	t.set(index, c)

	cmd := Command{Addr: t.addr, Pixel: uint8(index), Color: c}
	if err := t.bus.Send(cmd); err != nil {
		t.logger.Debug().Err(err).Stringer("cmd", cmd).Msg("bus write failed")
		return Unreachable
	}
	return Committed
}

func (t *Indirect) TurnOff() Status { return turnOff(t) }
