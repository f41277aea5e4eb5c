package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
enabled: true
default_color: purple
driver: gpio
gpio:
  pin: GPIO18
i2c:
  addr: 5
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.True(t, c.Enabled)
	assert.Equal(t, "purple", c.DefaultColor)
	assert.Equal(t, DriverGPIO, c.Driver)
	assert.Equal(t, "GPIO18", c.GPIO.Pin)
	assert.Equal(t, uint16(5), c.I2C.Addr)
	// untouched keys keep defaults
	assert.Equal(t, "1", c.I2C.Bus)
	assert.Equal(t, 0.6, c.Brightness)
	assert.Equal(t, "ws://127.0.0.1:8181/core", c.MessageBus.URL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: [\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Default()
	c.DefaultColor = "cyan"
	c.HTTP.Addr = ":9090"
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
