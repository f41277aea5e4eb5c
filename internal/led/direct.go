package led

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultBrightness matches the factory setting of the SJ201 ring.
const DefaultBrightness = 0.6

// Strip is a directly wired addressable LED strip. Write takes packed R, G, B
// bytes for the whole strip and latches them. *nrzled.Dev satisfies it.
type Strip interface {
	Write(rgb []byte) (int, error)
	Halt() error
}

// Direct drives the ring from a local framebuffer that is flushed to the
// strip after every SetPixel.
type Direct struct {
	frame
	strip      Strip
	brightness float64
	logger     zerolog.Logger

	wmu sync.Mutex
	buf [NumPixels * 3]byte
}

type DirectOption func(*Direct)

// WithStripLogger sets the logger used to report failed flushes.
func WithStripLogger(l zerolog.Logger) DirectOption {
	return func(t *Direct) { t.logger = l }
}

// NewDirect returns a transport flushing to strip. brightness is clamped to
// [0,1] and applied to every channel before a flush.
func NewDirect(strip Strip, brightness float64, opts ...DirectOption) *Direct {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 1 {
		brightness = 1
	}
	t := &Direct{strip: strip, brightness: brightness, logger: zerolog.Nop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Brightness returns the scaling factor applied before a flush.
func (t *Direct) Brightness() float64 { return t.brightness }

func (t *Direct) SetPixel(index int, c Color) Status {
	checkIndex(index)
	t.set(index, c)

	px := c.Scale(t.brightness).Bytes()
	t.wmu.Lock()
	copy(t.buf[index*3:index*3+3], px[:])
	_, err := t.strip.Write(t.buf[:])
	t.wmu.Unlock()
	if err != nil {
		t.logger.Debug().Err(err).Int("pixel", index).Msg("strip flush failed")
		return Unreachable
	}
	return Committed
}

func (t *Direct) TurnOff() Status { return turnOff(t) }
