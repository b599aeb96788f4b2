// Package protocol decodes the newline-framed command stream that reprograms a
// station and decides what gets relayed to the next station down the chain.
package protocol

import (
	"bytes"

	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

const DefaultMaxLineLength = 64

// Code tells the caller what became of a byte or line.
type Code uint8

const (
	// Pending: mid-line, nothing to do yet.
	Pending Code = iota
	// Forward: line applied, Relay holds the copy for downstream.
	Forward
	// Local: line applied, the raw line must not be forwarded. Relay may still
	// hold a rewritten line (identity assignment).
	Local
	// Malformed: line discarded without effect.
	Malformed
)

func (c Code) String() string {
	switch c {
	case Pending:
		return "pending"
	case Forward:
		return "forward"
	case Local:
		return "local"
	case Malformed:
		return "malformed"
	}
	return "unknown"
}

// Reason qualifies a Malformed result.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonEmpty
	ReasonOversized
	ReasonSyntax
	ReasonIdentityRange
)

func (r Reason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty line"
	case ReasonOversized:
		return "line too long"
	case ReasonSyntax:
		return "syntax"
	case ReasonIdentityRange:
		return "identity hop out of range"
	}
	return ""
}

type Result struct {
	Code   Code
	Reason Reason
	// Relay is the line (terminator included) to send downstream, or nil.
	Relay []byte
	// Identity reports that the line assigned this station's id.
	Identity bool
	// Err is set when an applied line had a side failure, e.g. no geometry for the new identity.
	Err error
}

type Stats struct {
	Lines     uint64
	Forwarded uint64
	Local     uint64
	Malformed uint64
	Oversized uint64
}

// Decoder frames bytes into lines and applies each complete line to a vm.State.
// It is not safe for concurrent use.
type Decoder struct {
	max   int
	buf   []byte
	n     int
	stats Stats
}

func NewDecoder(maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	return &Decoder{max: maxLine, buf: make([]byte, 0, maxLine)}
}

func (d *Decoder) MaxLineLength() int { return d.max }
func (d *Decoder) Stats() Stats       { return d.stats }

// Reset drops any partial line.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.n = 0
}

// Feed consumes one byte. s is only touched when b completes a well-formed line.
func (d *Decoder) Feed(s *vm.State, b byte) Result {
	if b != '\n' {
		if d.n < d.max {
			d.buf = append(d.buf, b)
		}
		d.n++
		return Result{}
	}

	n := d.n
	line := d.buf
	defer d.Reset()

	d.stats.Lines++
	switch {
	case n == 0:
		return d.malformed(ReasonEmpty)
	case n > d.max:
		d.stats.Oversized++
		return d.malformed(ReasonOversized)
	}

	var p parser
	for _, c := range line {
		p, _ = transition(p, c)
	}
	_, eff := transition(p, '\n')
	return d.apply(s, eff, line)
}

// Write feeds a chunk and returns the results for every completed line, in order.
func (d *Decoder) Write(s *vm.State, chunk []byte) []Result {
	var out []Result
	for _, b := range chunk {
		if r := d.Feed(s, b); r.Code != Pending {
			out = append(out, r)
		}
	}
	return out
}

func (d *Decoder) malformed(r Reason) Result {
	d.stats.Malformed++
	return Result{Code: Malformed, Reason: r}
}

func (d *Decoder) apply(s *vm.State, e effect, line []byte) Result {
	switch e.kind {
	case effReject, effNone:
		return d.malformed(ReasonSyntax)

	case effIdentity:
		hop := int(e.addr) - vm.IndexBase
		if isDigit(e.addr) && hop >= s.StationCount {
			// lifespan-addressed "2i" from authoring tools starts the count
			hop = 0
		}
		if hop < 0 || hop >= s.StationCount {
			return d.malformed(ReasonIdentityRange)
		}
		r := Result{Code: Local, Identity: true}
		r.Err = s.SetStation(s.StationCount - 1 - hop)
		if hop+1 < s.StationCount {
			r.Relay = []byte{byte(vm.IndexBase + hop + 1), CmdIdentity, '\n'}
		}
		d.stats.Local++
		return r

	case effCount:
		s.SetStepCount(e.count)
	case effStep:
		s.SetStep(e.step, e.def)
	case effResetTime:
		s.ResetTime()
	case effGamma:
		s.SetGamma(e.gamma, e.bright)
	case effBlink:
		s.Blink = e.blink
	}

	if e.addr == '0' {
		d.stats.Local++
		return Result{Code: Local}
	}
	relay := make([]byte, 0, len(line)+1)
	relay = append(relay, line...)
	relay = append(relay, '\n')
	relay[0]--
	d.stats.Forwarded++
	return Result{Code: Forward, Relay: relay}
}

// FeedScript applies an address-less script, one command per line, as lifespan-'0'
// lines: applied here, never relayed. Any partial line is dropped first.
func (d *Decoder) FeedScript(s *vm.State, script []byte) (applied, rejected int) {
	d.Reset()
	for len(script) > 0 {
		var line []byte
		line, script, _ = bytes.Cut(script, []byte{'\n'})
		if len(line) == 0 {
			continue
		}
		d.Feed(s, '0')
		for _, b := range line {
			d.Feed(s, b)
		}
		if r := d.Feed(s, '\n'); r.Code == Malformed {
			rejected++
		} else {
			applied++
		}
	}
	return applied, rejected
}
