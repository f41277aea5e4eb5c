package diagnostics

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
)

// Codes pushed by the status server.
const (
	TransportUnreachable = "TRANSPORT.UNREACHABLE"
	TransportRecovered   = "TRANSPORT.RECOVERED"
	ControlRejected      = "CONTROL.REJECTED"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Unreachable describes a pixel write the hardware did not take.
func Unreachable(driver string, pixel int) Diagnostic {
	return Diagnostic{
		Severity: Warn,
		Code:     TransportUnreachable,
		Summary:  "LED transport not acknowledging writes",
		LikelyCauses: []string{
			"LED controller not powered or not present at the configured address",
			"wrong bus, pin or serial port in configuration",
		},
		SuggestedFixes: []string{
			"check the platform file and i2c address (i2cdetect -y 1)",
			"run with driver: sim to rule out the animation layer",
		},
		Evidence: map[string]any{"driver": driver, "pixel": pixel},
	}
}

// Recovered marks the first successful write after a failure.
func Recovered(driver string) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     TransportRecovered,
		Summary:  "LED transport accepting writes again",
		Evidence: map[string]any{"driver": driver},
	}
}
