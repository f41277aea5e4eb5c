// Package selftest holds stepped hardware checks for the ring.
package selftest

import (
	"fmt"

	"github.com/example/sj201-leds/internal/led"
)

type Kind string

const (
	None        Kind = ""
	IndexSweep  Kind = "index_sweep"
	RGBChannels Kind = "rgb_channels"
)

// ParseKind validates a self-test name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case IndexSweep, RGBChannels:
		return k, nil
	default:
		return None, fmt.Errorf("unknown self-test %q", s)
	}
}

type Plan struct{ Kind Kind }

// Runner renders one frame of its plan per Step.
type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind      { return r.plan.Kind }

// Step writes the next frame; returns false when complete. The ring is left
// dark once the plan finishes.
func (r *Runner) Step(t led.Transport) bool {
	switch r.plan.Kind {
	case IndexSweep:
		// one white pixel walks the ring
		if r.step >= led.NumPixels {
			t.TurnOff()
			return false
		}
		if r.step > 0 {
			t.SetPixel(r.step-1, led.Black)
		}
		t.SetPixel(r.step, led.Color{R: 255, G: 255, B: 255})
	case RGBChannels:
		if r.step >= 3 {
			t.TurnOff()
			return false
		}
		c := [3]led.Color{led.Red, led.Green, led.Blue}[r.step]
		for i := 0; i < led.NumPixels; i++ {
			t.SetPixel(i, c)
		}
	default:
		return false
	}
	r.step++
	return true
}
