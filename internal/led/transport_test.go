package led_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"

	. "github.com/example/sj201-leds/internal/led"
)

type recordBus struct {
	cmds []Command
	err  error
}

func (b *recordBus) Send(cmd Command) error {
	b.cmds = append(b.cmds, cmd)
	return b.err
}

type recordStrip struct {
	frames [][]byte
	err    error
}

func (s *recordStrip) Write(rgb []byte) (int, error) {
	s.frames = append(s.frames, append([]byte(nil), rgb...))
	if s.err != nil {
		return 0, s.err
	}
	return len(rgb), nil
}

func (s *recordStrip) Halt() error { return nil }

func transports() map[string]func() Transport {
	return map[string]func() Transport{
		"indirect": func() Transport { return NewIndirect(&recordBus{}) },
		"direct":   func() Transport { return NewDirect(&recordStrip{}, 1) },
	}
}

func TestSetPixelUpdatesOnlyThatIndex(t *testing.T) {
	for name, mk := range transports() {
		t.Run(name, func(t *testing.T) {
			tr := mk()
			for i := 0; i < NumPixels; i++ {
				c := Color{uint8(i), uint8(i * 2), uint8(i * 3)}
				before := tr.State()

				assert.Equal(t, Committed, tr.SetPixel(i, c))

				after := tr.State()
				assert.Equal(t, c, after[i])
				for j := range after {
					if j != i {
						assert.Equal(t, before[j], after[j], "pixel %d changed", j)
					}
				}
			}
		})
	}
}

func TestSetPixelOutOfRangePanics(t *testing.T) {
	for name, mk := range transports() {
		t.Run(name, func(t *testing.T) {
			tr := mk()
			assert.Panics(t, func() { tr.SetPixel(NumPixels, Red) })
			assert.Panics(t, func() { tr.SetPixel(99, Red) })
			assert.Panics(t, func() { tr.SetPixel(-1, Red) })
		})
	}
}

func TestTurnOffBlacksOutRing(t *testing.T) {
	for name, mk := range transports() {
		t.Run(name, func(t *testing.T) {
			tr := mk()
			for i := 0; i < NumPixels; i++ {
				tr.SetPixel(i, Wheel(i*20))
			}
			assert.Equal(t, Committed, tr.TurnOff())
			assert.Equal(t, PixelState{}, tr.State())
		})
	}
}

func TestStateIsPerInstance(t *testing.T) {
	a := NewIndirect(&recordBus{})
	b := NewIndirect(&recordBus{})
	a.SetPixel(0, Green)
	assert.Equal(t, Black, b.State()[0])
}

func TestIndirectSendsOneCommandPerPixel(t *testing.T) {
	bus := &recordBus{}
	tr := NewIndirect(bus, WithAddr(4))

	tr.SetPixel(3, Color{10, 20, 30})

	require.Len(t, bus.cmds, 1)
	assert.True(t, strings.Contains(bus.cmds[0].String(), "4 3 10 20 30"))
	assert.Equal(t, []byte{3, 10, 20, 30}, bus.cmds[0].Payload())
	assert.Equal(t, Color{10, 20, 30}, tr.State()[3])

	tr.TurnOff()
	assert.Len(t, bus.cmds, 1+NumPixels)
}

func TestIndirectBusFailureIsUnreachableButStateUpdated(t *testing.T) {
	bus := &recordBus{err: errors.New("no such device")}
	tr := NewIndirect(bus)

	assert.Equal(t, Unreachable, tr.SetPixel(5, Blue))
	assert.Equal(t, Blue, tr.State()[5])
	assert.Equal(t, Unreachable, tr.TurnOff())
	assert.Equal(t, PixelState{}, tr.State())
}

func TestDirectFlushesScaledFramebufferEveryCall(t *testing.T) {
	strip := &recordStrip{}
	tr := NewDirect(strip, 0.5)

	tr.SetPixel(0, Color{200, 100, 50})
	tr.SetPixel(11, Color{255, 255, 255})

	require.Len(t, strip.frames, 2)
	assert.Len(t, strip.frames[0], NumPixels*3)
	assert.Equal(t, []byte{100, 50, 25}, strip.frames[1][0:3])
	assert.Equal(t, []byte{127, 127, 127}, strip.frames[1][33:36])
	// state keeps the requested color, not the scaled one
	assert.Equal(t, Color{200, 100, 50}, tr.State()[0])
}

func TestDirectBrightnessClamped(t *testing.T) {
	assert.Equal(t, 1.0, NewDirect(&recordStrip{}, 3).Brightness())
	assert.Equal(t, 0.0, NewDirect(&recordStrip{}, -1).Brightness())
}

func TestDirectStripFailureIsUnreachable(t *testing.T) {
	tr := NewDirect(&recordStrip{err: errors.New("halted")}, 1)
	assert.Equal(t, Unreachable, tr.SetPixel(2, Red))
	assert.Equal(t, Red, tr.State()[2])
}

func TestDirectOverNRZSPI(t *testing.T) {
	buf := bytes.Buffer{}
	o := nrzled.Opts{NumPixels: NumPixels, Channels: 3, Freq: 2500 * physic.KiloHertz}
	d, err := nrzled.NewSPI(spitest.NewRecordRaw(&buf), &o)
	require.NoError(t, err)

	tr := NewDirect(d, DefaultBrightness)
	n := buf.Len()
	assert.Equal(t, Committed, tr.SetPixel(0, Red))
	assert.Greater(t, buf.Len(), n)

	n = buf.Len()
	fillRing(tr, Green)
	assert.Greater(t, buf.Len(), n)
}

func fillRing(tr Transport, c Color) {
	for i := 0; i < NumPixels; i++ {
		tr.SetPixel(i, c)
	}
}

func TestObserveSeesEveryOutcome(t *testing.T) {
	bus := &recordBus{}
	var seen []Status
	tr := Observe(NewIndirect(bus), func(i int, c Color, st Status) {
		seen = append(seen, st)
	})
	tr.SetPixel(0, Red)
	bus.err = errors.New("nack")
	tr.TurnOff()

	require.Len(t, seen, 1+NumPixels)
	assert.Equal(t, Committed, seen[0])
	assert.Equal(t, Unreachable, seen[NumPixels])
	assert.Equal(t, PixelState{}, tr.State())
}

func TestDirectOverScreen(t *testing.T) {
	var s Strip = screen.New(NumPixels)
	tr := NewDirect(s, 1)

	assert.Equal(t, Committed, tr.SetPixel(0, Red))
	assert.Equal(t, Red, tr.State()[0])
	assert.Equal(t, Black, tr.State()[1])
	assert.Equal(t, "unreachable", Unreachable.String())
}
