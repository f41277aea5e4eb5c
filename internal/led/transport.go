package led

import (
	"fmt"
	"sync"
)

// NumPixels is the size of the ring.
const NumPixels = 12

// PixelState is the last committed color of every pixel in the ring.
type PixelState [NumPixels]Color

// Status reports whether a pixel update reached the hardware.
type Status int

const (
	Committed Status = iota
	Unreachable
)

func (s Status) String() string {
	switch s {
	case Committed:
		return "committed"
	case Unreachable:
		return "unreachable"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Transport commits pixel colors to the physical ring.
//
// SetPixel panics when index is outside [0, NumPixels). The returned Status may
// be ignored: state is updated whether or not the hardware acknowledged it.
type Transport interface {
	SetPixel(index int, c Color) Status
	TurnOff() Status
	State() PixelState
}

func checkIndex(index int) {
	if index < 0 || index >= NumPixels {
		panic(fmt.Sprintf("led: pixel index %d out of range [0,%d)", index, NumPixels))
	}
}

// frame holds the per-transport snapshot. It is safe to read from other
// goroutines while the owning transport writes it.
type frame struct {
	mu    sync.RWMutex
	state PixelState
}

func (f *frame) set(index int, c Color) {
	f.mu.Lock()
	f.state[index] = c
	f.mu.Unlock()
}

func (f *frame) State() PixelState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

func turnOff(t Transport) Status {
	st := Committed
	for i := 0; i < NumPixels; i++ {
		if t.SetPixel(i, Black) != Committed {
			st = Unreachable
		}
	}
	return st
}

// Observe wraps t so fn sees the outcome of every SetPixel call.
func Observe(t Transport, fn func(index int, c Color, st Status)) Transport {
	return &observed{Transport: t, fn: fn}
}

type observed struct {
	Transport
	fn func(int, Color, Status)
}

func (o *observed) SetPixel(index int, c Color) Status {
	st := o.Transport.SetPixel(index, c)
	o.fn(index, c, st)
	return st
}

func (o *observed) TurnOff() Status { return turnOff(o) }
