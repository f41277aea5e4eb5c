package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Drivers understood by the transport factory.
const (
	DriverAuto   = "auto"
	DriverI2C    = "i2c"
	DriverI2CSet = "i2cset"
	DriverSerial = "serial"
	DriverGPIO   = "gpio"
	DriverSPI    = "spi"
	DriverSim    = "sim"
)

type I2C struct {
	Bus  string `yaml:"bus"`  // periph bus name, e.g. "1"
	Addr uint16 `yaml:"addr"` // companion controller address
}

type Serial struct {
	Port string `yaml:"port"` // e.g. /dev/ttyACM0
	Baud int    `yaml:"baud"`
}

type GPIO struct {
	Pin string `yaml:"pin"` // e.g. GPIO12
}

type SPI struct {
	Dev string `yaml:"dev"` // periph port name, "" picks the first
}

type MessageBus struct {
	URL string `yaml:"url"`
}

type HTTP struct {
	Addr string `yaml:"addr"` // empty disables the status server
}

type Config struct {
	Enabled      bool    `yaml:"enabled"`
	DefaultColor string  `yaml:"default_color"`
	Driver       string  `yaml:"driver"`
	Brightness   float64 `yaml:"brightness"`
	PlatformFile string  `yaml:"platform_file"`
	FPS          int     `yaml:"fps"`

	I2C        I2C        `yaml:"i2c"`
	Serial     Serial     `yaml:"serial,omitempty"`
	GPIO       GPIO       `yaml:"gpio"`
	SPI        SPI        `yaml:"spi,omitempty"`
	MessageBus MessageBus `yaml:"messagebus"`
	HTTP       HTTP       `yaml:"http,omitempty"`
}

// Default returns the configuration of a stock SJ201 board.
func Default() *Config {
	return &Config{
		DefaultColor: "red",
		Driver:       DriverAuto,
		Brightness:   0.6,
		PlatformFile: "/etc/OpenVoiceOS/i2c_platform",
		FPS:          20,
		I2C:          I2C{Bus: "1", Addr: 0x04},
		Serial:       Serial{Baud: 115200},
		GPIO:         GPIO{Pin: "GPIO12"},
		MessageBus:   MessageBus{URL: "ws://127.0.0.1:8181/core"},
	}
}

// Load reads path over the defaults; keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
