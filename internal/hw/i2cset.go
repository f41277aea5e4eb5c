package hw

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/example/sj201-leds/internal/led"
)

// I2CSetBus shells out to i2c-tools for every command, for boards where the
// kernel bus is only reachable through the i2cset binary.
type I2CSetBus struct {
	Bus  string
	Path string

	run func(name string, args ...string) error
}

func NewI2CSetBus(bus string) *I2CSetBus {
	return &I2CSetBus{
		Bus:  bus,
		Path: "i2cset",
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Args is the i2cset argument list for cmd: a block write with the pixel as
// the data address.
func (b *I2CSetBus) Args(cmd led.Command) []string {
	return []string{
		"-a", "-y", b.Bus,
		strconv.Itoa(int(cmd.Addr)),
		strconv.Itoa(int(cmd.Pixel)),
		strconv.Itoa(int(cmd.Color.R)),
		strconv.Itoa(int(cmd.Color.G)),
		strconv.Itoa(int(cmd.Color.B)),
		"i",
	}
}

func (b *I2CSetBus) Send(cmd led.Command) error {
	if err := b.run(b.Path, b.Args(cmd)...); err != nil {
		return fmt.Errorf("%s: %w", b.Path, err)
	}
	return nil
}
