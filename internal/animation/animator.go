// Package animation sequences pixel updates into the ring's visual cues.
//
// Every operation blocks the caller until the last pixel is committed.
// Operations hold the animator for their whole run, so concurrent callers
// are served one animation at a time and nothing is ever preempted.
package animation

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/sj201-leds/internal/led"
)

const (
	// SpinDelay is the per-pixel delay of the plain spin cue.
	SpinDelay = 200 * time.Millisecond
	// TalkDelay is the per-pixel delay of the talking cue.
	TalkDelay = 100 * time.Millisecond
	// TimedSpinDelay is the per-pixel delay of one timed spin step.
	TimedSpinDelay = 10 * time.Millisecond
	// Pause is the hold between the lit and dark phase of blink and intro.
	Pause = time.Second
	// RainbowFrames is the number of frames in one rainbow cycle.
	RainbowFrames = 255
)

// Animator drives a Transport.
type Animator struct {
	mu           sync.Mutex
	t            led.Transport
	defaultColor led.Color
	sleep        func(time.Duration)

	speaking  atomic.Bool
	listening atomic.Bool
}

type Option func(*Animator)

// WithDefaultColor sets the color used by cues that do not name one.
func WithDefaultColor(c led.Color) Option {
	return func(a *Animator) { a.defaultColor = c }
}

// WithSleep replaces time.Sleep for pacing.
func WithSleep(fn func(time.Duration)) Option {
	return func(a *Animator) { a.sleep = fn }
}

func New(t led.Transport, opts ...Option) *Animator {
	a := &Animator{t: t, defaultColor: led.Red, sleep: time.Sleep}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Animator) DefaultColor() led.Color { return a.defaultColor }

// CurrentColors is the last committed color of every pixel.
func (a *Animator) CurrentColors() led.PixelState { return a.t.State() }

func (a *Animator) Speaking() bool      { return a.speaking.Load() }
func (a *Animator) SetSpeaking(v bool)  { a.speaking.Store(v) }
func (a *Animator) Listening() bool     { return a.listening.Load() }
func (a *Animator) SetListening(v bool) { a.listening.Store(v) }

func (a *Animator) pause(d time.Duration) {
	if d > 0 {
		a.sleep(d)
	}
}

func (a *Animator) chase(c led.Color, delay time.Duration) {
	for i := 0; i < led.NumPixels; i++ {
		a.t.SetPixel(i, c)
		a.pause(delay)
	}
}

// ColorChase sets pixels 0..11 to c in order, waiting delay after each.
func (a *Animator) ColorChase(c led.Color, delay time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chase(c, delay)
}

// RainbowCycle sweeps the hue wheel around the ring for RainbowFrames frames,
// waiting delay after every pixel.
func (a *Animator) RainbowCycle(delay time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for j := 0; j < RainbowFrames; j++ {
		for i := 0; i < led.NumPixels; i++ {
			a.t.SetPixel(i, led.Wheel(led.RainbowIndex(i, j)))
			a.pause(delay)
		}
	}
}

// TurnOff blacks the ring out immediately.
func (a *Animator) TurnOff() led.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t.TurnOff()
}

// SetPixel sets a single pixel.
func (a *Animator) SetPixel(index int, c led.Color) led.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t.SetPixel(index, c)
}

// TimedSpin runs steps fast chases of the default color.
func (a *Animator) TimedSpin(steps int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for n := 0; n < steps; n++ {
		a.chase(a.defaultColor, TimedSpinDelay)
	}
}

// VolumeIndicator lights pixels [0, level) with the default color and leaves
// the rest as they were. A level above NumPixels panics in the transport.
func (a *Animator) VolumeIndicator(level int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for n := 0; n < level; n++ {
		a.t.SetPixel(n, a.defaultColor)
	}
}

// Blink lights the whole ring, holds for Pause and blacks it out, times times.
func (a *Animator) Blink(times int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for n := 0; n < times; n++ {
		a.chase(a.defaultColor, 0)
		a.pause(Pause)
		a.t.TurnOff()
	}
}

// Intro is the start up and wake cue: one blink.
func (a *Animator) Intro() { a.Blink(1) }

// Spin is a slow chase of the default color.
func (a *Animator) Spin() { a.ColorChase(a.defaultColor, SpinDelay) }

// Talk is the generic speaking cue.
func (a *Animator) Talk() { a.ColorChase(a.defaultColor, TalkDelay) }

// Stepper renders one frame of a stepped program per call and reports
// whether more frames follow.
type Stepper interface {
	Step(t led.Transport) bool
}

// Play runs s to completion, waiting delay between frames, and returns the
// number of frames rendered.
func (a *Animator) Play(s Stepper, delay time.Duration) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for s.Step(a.t) {
		n++
		a.pause(delay)
	}
	return n
}
