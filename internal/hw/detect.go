package hw

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Platform is the board revision named in the platform file.
type Platform string

const (
	PlatformUnknown  Platform = ""
	PlatformSJ201V6  Platform = "sj201v6"
	PlatformSJ201V10 Platform = "sj201v10"
)

// ReadPlatform returns the first line of path, lower-cased, or
// PlatformUnknown when the file is missing or empty.
func ReadPlatform(path string) Platform {
	f, err := os.Open(path)
	if err != nil {
		return PlatformUnknown
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return PlatformUnknown
	}
	return Platform(strings.ToLower(strings.TrimSpace(sc.Text())))
}

// Validator decides once at startup whether the LED ring is present.
type Validator struct {
	Enabled      bool
	PlatformFile string
	// Probe is the direct hardware check, run when the file is inconclusive.
	Probe  func() bool
	Logger zerolog.Logger
}

// Validate reports whether the ring should be driven and which board was seen.
func (v Validator) Validate() (bool, Platform) {
	p := PlatformUnknown
	if v.PlatformFile != "" {
		v.Logger.Debug().Str("path", v.PlatformFile).Msg("checking platform file")
		p = ReadPlatform(v.PlatformFile)
	}
	if v.Enabled {
		v.Logger.Debug().Msg("enabled by configuration")
		return true, p
	}
	switch p {
	case PlatformSJ201V6, PlatformSJ201V10:
		return true, p
	}
	if v.Probe != nil && v.Probe() {
		v.Logger.Debug().Msg("direct hardware check")
		return true, PlatformSJ201V6
	}
	v.Logger.Debug().Msg("no validation")
	return false, p
}
