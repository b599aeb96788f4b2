package diagnostics

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
)

func TestRejectedCodes(t *testing.T) {
	cases := []struct {
		reason protocol.Reason
		code   string
	}{
		{protocol.ReasonSyntax, "LINE.MALFORMED"},
		{protocol.ReasonEmpty, "LINE.MALFORMED"},
		{protocol.ReasonOversized, "LINE.OVERSIZED"},
		{protocol.ReasonIdentityRange, "IDENTITY.RANGE"},
	}
	for _, c := range cases {
		d := Rejected(protocol.Result{Code: protocol.Malformed, Reason: c.reason})
		assert.Equal(t, c.code, d.Code, c.reason.String())
		assert.Equal(t, Warn, d.Severity)
	}
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, "IDENTITY.SET", Identity(3, 8, nil).Code)
	d := Identity(9, 10, errors.New("no table"))
	assert.Equal(t, "GEOMETRY.MISSING", d.Code)
	assert.Equal(t, "no table", d.Detail)
}

func TestJSONShape(t *testing.T) {
	b, err := json.Marshal(DriverFallback("spi", errors.New("no port")))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "warning", m["severity"])
	assert.Equal(t, "DRIVER.FALLBACK", m["code"])
	assert.Equal(t, map[string]any{"driver": "spi"}, m["evidence"])
}

func TestRing(t *testing.T) {
	r := NewRing(3)
	assert.Empty(t, r.Recent())
	for _, c := range []string{"a", "b", "c", "d"} {
		r.Push(Diagnostic{Code: c})
	}
	var codes []string
	for _, d := range r.Recent() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{"b", "c", "d"}, codes)
}
