package hw

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/sj201-leds/internal/config"
	"github.com/example/sj201-leds/internal/led"
)

// Opened is a transport plus the handle backing it. The transport never
// closes the handle; Close does.
type Opened struct {
	Transport led.Transport
	Driver    string
	closers   []func() error
}

func (o *Opened) Close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	return errors.Join(errs...)
}

// ResolveDriver maps "auto" (or empty) onto a concrete driver for platform.
func ResolveDriver(driver string, platform Platform) string {
	if driver != "" && driver != config.DriverAuto {
		return driver
	}
	if platform == PlatformSJ201V10 {
		return config.DriverGPIO
	}
	return config.DriverI2C
}

// Open resolves the configured driver and returns the matching transport.
// The sim driver draws frames on stdout.
func Open(cfg *config.Config, platform Platform, logger zerolog.Logger) (*Opened, error) {
	driver := ResolveDriver(cfg.Driver, platform)
	o := &Opened{Driver: driver}
	busLog := led.WithBusLogger(logger)
	stripLog := led.WithStripLogger(logger)
	addr := cfg.I2C.Addr
	if addr == 0 {
		addr = led.DeviceAddr
	}

	switch driver {
	case config.DriverI2C:
		b, err := OpenI2C(cfg.I2C.Bus)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, b.Close)
		o.Transport = led.NewIndirect(NewI2CBus(b), led.WithAddr(addr), busLog)

	case config.DriverI2CSet:
		o.Transport = led.NewIndirect(NewI2CSetBus(cfg.I2C.Bus), led.WithAddr(addr), busLog)

	case config.DriverSerial:
		p, err := OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, p.Close)
		o.Transport = led.NewIndirect(NewSerialBus(p), led.WithAddr(addr), busLog)

	case config.DriverGPIO:
		d, err := OpenStreamStrip(cfg.GPIO.Pin)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, d.Halt)
		o.Transport = led.NewDirect(d, cfg.Brightness, stripLog)

	case config.DriverSPI:
		d, p, err := OpenSPIStrip(cfg.SPI.Dev)
		if err != nil {
			return nil, err
		}
		o.closers = append(o.closers, p.Close, d.Halt)
		o.Transport = led.NewDirect(d, cfg.Brightness, stripLog)

	case config.DriverSim:
		d := NewScreenStrip()
		o.closers = append(o.closers, d.Halt)
		o.Transport = led.NewDirect(d, cfg.Brightness, stripLog)

	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}

	logger.Info().Str("driver", driver).Str("platform", string(platform)).Msg("led transport ready")
	return o, nil
}
