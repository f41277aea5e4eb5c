package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/sj201-leds/internal/animation"
	"github.com/example/sj201-leds/internal/hw"
	"github.com/example/sj201-leds/internal/led"
	"github.com/example/sj201-leds/internal/selftest"
)

func main() {
	var (
		name       = flag.String("anim", "chase", "chase | rainbow | blink | spin | talk | timedspin | volume | off | selftest")
		color      = flag.String("color", "blue", "palette color")
		n          = flag.Int("n", 3, "blink times, timed spin length or volume level")
		delay      = flag.Duration("delay", 50*time.Millisecond, "step delay for chase and rainbow")
		kind       = flag.String("kind", string(selftest.IndexSweep), "self-test kind")
		brightness = flag.Float64("brightness", led.DefaultBrightness, "brightness 0..1")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	strip := hw.NewScreenStrip()
	defer strip.Halt()

	frames := 0
	tr := led.Observe(led.NewDirect(strip, *brightness, led.WithStripLogger(log.Logger)),
		func(int, led.Color, led.Status) { frames++ })
	c := led.ResolveColor(*color, log.Logger)
	a := animation.New(tr, animation.WithDefaultColor(c))

	start := time.Now()
	switch *name {
	case "chase":
		a.ColorChase(c, *delay)
	case "rainbow":
		a.RainbowCycle(*delay)
	case "blink":
		a.Blink(*n)
	case "spin":
		a.Spin()
	case "talk":
		a.Talk()
	case "timedspin":
		a.TimedSpin(*n)
	case "volume":
		a.VolumeIndicator(*n)
	case "off":
		a.TurnOff()
	case "selftest":
		k, err := selftest.ParseKind(*kind)
		if err != nil {
			log.Fatal().Err(err).Msg("self-test")
		}
		a.Play(selftest.NewRunner(selftest.Plan{Kind: k}), 500*time.Millisecond)
	default:
		log.Fatal().Str("anim", *name).Msg("unknown animation")
	}
	log.Info().Str("anim", *name).Int("frames", frames).Dur("took", time.Since(start)).Msg("done")
}
