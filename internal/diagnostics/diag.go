package diagnostics

import (
	"fmt"

	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
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

// Rejected describes a line the decoder discarded.
func Rejected(r protocol.Result) Diagnostic {
	d := Diagnostic{
		Severity: Warn,
		Code:     "LINE.MALFORMED",
		Summary:  "Command line discarded",
		Evidence: map[string]any{"reason": r.Reason.String()},
	}
	if r.Err != nil {
		d.Detail = r.Err.Error()
	}
	switch r.Reason {
	case protocol.ReasonOversized:
		d.Code = "LINE.OVERSIZED"
		d.LikelyCauses = []string{"missing newline upstream", "baud rate mismatch"}
		d.SuggestedFixes = []string{"check both ends use the same baud rate"}
	case protocol.ReasonIdentityRange:
		d.Code = "IDENTITY.RANGE"
		d.LikelyCauses = []string{"more stations in the chain than station_count"}
		d.SuggestedFixes = []string{"raise station_count on every station"}
	case protocol.ReasonSyntax:
		d.LikelyCauses = []string{"line corrupted in transit", "authoring tool out of date"}
	}
	return d
}

func Identity(id, count int, geometryErr error) Diagnostic {
	d := Diagnostic{
		Severity: Info,
		Code:     "IDENTITY.SET",
		Summary:  fmt.Sprintf("Station is %d of %d", id, count),
		Evidence: map[string]any{"station": id, "count": count},
	}
	if geometryErr != nil {
		d.Severity = Warn
		d.Code = "GEOMETRY.MISSING"
		d.Detail = geometryErr.Error()
		d.SuggestedFixes = []string{"add a layout table for this station"}
	}
	return d
}

func DriverFallback(want string, err error) Diagnostic {
	return Diagnostic{
		Severity:       Warn,
		Code:           "DRIVER.FALLBACK",
		Summary:        "LED driver unavailable, using sim",
		Detail:         err.Error(),
		LikelyCauses:   []string{"SPI not enabled", "insufficient permissions on the device"},
		SuggestedFixes: []string{"enable SPI (raspi-config)", "run as a user in the spi group"},
		Evidence:       map[string]any{"driver": want},
	}
}

func Attract(running bool, clip string) Diagnostic {
	if !running {
		return Diagnostic{Severity: Info, Code: "ATTRACT.STOP", Summary: "Upstream active, attract stopped"}
	}
	return Diagnostic{
		Severity: Info, Code: "ATTRACT.PLAY", Summary: "Attract clip playing",
		Evidence: map[string]any{"clip": clip},
	}
}

// Ring keeps the most recent diagnostics, oldest first.
type Ring struct {
	buf  []Diagnostic
	next int
	full bool
}

func NewRing(n int) *Ring {
	if n < 1 {
		n = 1
	}
	return &Ring{buf: make([]Diagnostic, n)}
}

func (r *Ring) Push(d Diagnostic) {
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *Ring) Recent() []Diagnostic {
	if !r.full {
		return append([]Diagnostic(nil), r.buf[:r.next]...)
	}
	out := make([]Diagnostic, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}
