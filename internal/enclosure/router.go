// Package enclosure maps enclosure bus events onto LED ring animations.
package enclosure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/sj201-leds/internal/animation"
	"github.com/example/sj201-leds/internal/led"
	"github.com/example/sj201-leds/internal/messagebus"
	"github.com/example/sj201-leds/internal/selftest"
)

// Event names handled by the router.
const (
	RecordBegin       = "recognizer_loop:record_begin"
	RecordEnd         = "recognizer_loop:record_end"
	AudioOutputStart  = "recognizer_loop:audio_output_start"
	AudioOutputEnd    = "recognizer_loop:audio_output_end"
	Sleep             = "recognizer_loop:sleep"
	Awoken            = "mycroft.awoken"
	InternetConnected = "mycroft.internet.connected"
	Stop              = "mycroft.stop"

	Reset        = "enclosure.reset"
	NoInternet   = "enclosure.notify.no_internet"
	SystemReset  = "enclosure.system.reset"
	SystemBlink  = "enclosure.system.blink"
	EyesOn       = "enclosure.eyes.on"
	EyesOff      = "enclosure.eyes.off"
	EyesFill     = "enclosure.eyes.fill"
	EyesBlink    = "enclosure.eyes.blink"
	EyesNarrow   = "enclosure.eyes.narrow"
	EyesLook     = "enclosure.eyes.look"
	EyesColor    = "enclosure.eyes.color"
	EyesBright   = "enclosure.eyes.brightness"
	EyesReset    = "enclosure.eyes.reset"
	EyesTimeSpin = "enclosure.eyes.timedspin"
	EyesVolume   = "enclosure.eyes.volume"
	EyesSpin     = "enclosure.eyes.spin"
	EyesSetPixel = "enclosure.eyes.set_pixel"
	EyesGetRGB   = "enclosure.eyes.rgb.get"
	EyesRGB      = "enclosure.eyes.rgb"
	MouthReset   = "enclosure.mouth.reset"
	MouthTalk    = "enclosure.mouth.talk"
	MouthThink   = "enclosure.mouth.think"
	MouthListen  = "enclosure.mouth.listen"
	MouthSmile   = "enclosure.mouth.smile"
	Weather      = "enclosure.weather.display"
	SelfTest     = "enclosure.leds.selftest"
)

// QueueSize is the number of events buffered ahead of the dispatch loop.
const QueueSize = 64

// Emitter sends replies back onto the bus.
type Emitter interface {
	Emit(m messagebus.Message) error
}

// Router owns the dispatch queue: events are handled one at a time, in
// arrival order, each animation running to completion before the next.
type Router struct {
	anim     *animation.Animator
	emit     Emitter
	logger   zerolog.Logger
	queue    chan messagebus.Message
	done     chan struct{}
	stopOnce sync.Once
	handlers map[string]func(messagebus.Message)

	// SelfTestDelay is the hold between self-test frames.
	SelfTestDelay time.Duration
}

func NewRouter(a *animation.Animator, emit Emitter, logger zerolog.Logger) *Router {
	r := &Router{
		anim:          a,
		emit:          emit,
		logger:        logger,
		queue:         make(chan messagebus.Message, QueueSize),
		done:          make(chan struct{}),
		SelfTestDelay: 500 * time.Millisecond,
	}
	off := func(messagebus.Message) { a.TurnOff() }
	intro := func(messagebus.Message) { a.Intro() }
	noop := func(messagebus.Message) {}

	r.handlers = map[string]func(messagebus.Message){
		RecordBegin: func(messagebus.Message) {
			a.SetListening(true)
		},
		RecordEnd: func(messagebus.Message) {
			a.SetListening(false)
			a.TurnOff()
		},
		AudioOutputStart: func(messagebus.Message) {
			a.SetSpeaking(true)
			a.Talk()
		},
		AudioOutputEnd: func(messagebus.Message) {
			a.SetSpeaking(false)
			a.TurnOff()
		},
		Awoken: intro,
		Sleep:  intro,

		Reset:             off,
		SystemReset:       off,
		EyesOff:           off,
		EyesReset:         off,
		MouthReset:        off,
		InternetConnected: off,
		Stop:              off,

		SystemBlink: func(m messagebus.Message) { a.Blink(m.Int("times", 1)) },
		EyesOn:      func(messagebus.Message) { a.ColorChase(a.DefaultColor(), 0) },
		EyesColor: func(m messagebus.Message) {
			a.ColorChase(colorParam(m, 0), 0)
		},
		EyesTimeSpin: func(m messagebus.Message) { a.TimedSpin(m.Int("length", 10)) },
		EyesVolume:   func(m messagebus.Message) { a.VolumeIndicator(m.Int("volume", 0)) },
		EyesSpin:     func(messagebus.Message) { a.Spin() },
		EyesSetPixel: func(m messagebus.Message) {
			a.SetPixel(m.Int("idx", 0), colorParam(m, 255))
		},
		MouthTalk:  func(messagebus.Message) { a.Talk() },
		EyesGetRGB: r.replyColors,
		SelfTest:   r.selfTest,

		NoInternet:  noop,
		EyesFill:    noop,
		EyesBlink:   noop,
		EyesNarrow:  noop,
		EyesLook:    noop,
		EyesBright:  noop,
		MouthThink:  noop,
		MouthListen: noop,
		MouthSmile:  noop,
		Weather:     noop,
	}
	return r
}

// colorParam reads r, g, b from m, each defaulting to def and clamped to a byte.
func colorParam(m messagebus.Message, def int) led.Color {
	ch := func(k string) uint8 {
		v := m.Int(k, def)
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	return led.Color{R: ch("r"), G: ch("g"), B: ch("b")}
}

// PixelsPayload is the enclosure.eyes.rgb reply body.
func PixelsPayload(s led.PixelState) map[string]any {
	px := make([][]int, len(s))
	for i, c := range s {
		px[i] = []int{int(c.R), int(c.G), int(c.B)}
	}
	return map[string]any{"pixels": px}
}

func (r *Router) replyColors(m messagebus.Message) {
	if r.emit == nil {
		return
	}
	if err := r.emit.Emit(m.Reply(EyesRGB, PixelsPayload(r.anim.CurrentColors()))); err != nil {
		r.logger.Warn().Err(err).Msg("color reply not sent")
	}
}

func (r *Router) selfTest(m messagebus.Message) {
	kind, err := selftest.ParseKind(m.Str("kind", string(selftest.IndexSweep)))
	if err != nil {
		r.logger.Warn().Err(err).Msg("self-test skipped")
		return
	}
	n := r.anim.Play(selftest.NewRunner(selftest.Plan{Kind: kind}), r.SelfTestDelay)
	r.logger.Info().Str("kind", string(kind)).Int("frames", n).Msg("self-test complete")
}

// Events lists every handled event name, sorted.
func (r *Router) Events() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Subscriber is the part of the bus client the router binds to.
type Subscriber interface {
	On(typ string, h messagebus.Handler)
}

// Bind subscribes the router's queue to every handled event.
func (r *Router) Bind(s Subscriber) {
	for _, name := range r.Events() {
		s.On(name, r.Enqueue)
	}
}

// Enqueue schedules m for the dispatch loop. It blocks while the queue is
// full, and drops m once Run has returned.
func (r *Router) Enqueue(m messagebus.Message) {
	select {
	case r.queue <- m:
	case <-r.done:
		r.logger.Debug().Str("event", m.Type).Msg("router stopped, event dropped")
	}
}

// Run handles queued events until ctx is done.
func (r *Router) Run(ctx context.Context) {
	defer r.stopOnce.Do(func() { close(r.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-r.queue:
			r.Handle(m)
		}
	}
}

// Handle runs the handler for m on the calling goroutine and reports whether
// the event is known. A panicking handler is logged and swallowed so the
// dispatch loop survives a bad request.
func (r *Router) Handle(m messagebus.Message) (known bool) {
	h, ok := r.handlers[m.Type]
	if !ok {
		r.logger.Debug().Str("event", m.Type).Msg("unhandled event")
		return false
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("event", m.Type).Interface("panic", p).Msg("handler failed")
		}
	}()
	r.logger.Debug().Str("event", m.Type).Msg("handling event")
	known = true
	h(m)
	return known
}
