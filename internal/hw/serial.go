package hw

import (
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/example/sj201-leds/internal/led"
)

// SerialBus reaches a companion controller over a UART. Each command is
// one text line "addr pixel r g b".
type SerialBus struct {
	w io.Writer
}

func NewSerialBus(w io.Writer) *SerialBus { return &SerialBus{w: w} }

func (b *SerialBus) Send(cmd led.Command) error {
	_, err := fmt.Fprintf(b.w, "%s\n", cmd)
	return err
}

// OpenSerial opens port at baud. The caller owns the returned port.
func OpenSerial(port string, baud int) (*serial.Port, error) {
	if port == "" {
		return nil, fmt.Errorf("serial port not configured")
	}
	c := &serial.Config{Name: port, Baud: baud}
	p, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", port, err)
	}
	return p, nil
}
