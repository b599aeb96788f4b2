package sequence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-stationchain/internal/protocol"
	"github.com/coreman2200/funtimes-stationchain/internal/vm"
)

type recorder struct {
	played  []string
	stopped int
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		Play: func(c Clip) { r.played = append(r.played, c.Name) },
		Stop: func() { r.stopped++ },
	}
}

func clips() []Clip {
	return []Clip{{Name: "a", DurationS: 1}, {Name: "b", DurationS: 2}}
}

func TestLoadRejectsEmpty(t *testing.T) {
	p := NewPlayer(Hooks{}, 5)
	assert.Error(t, p.Load(nil))
}

func TestLoadDefaultsDuration(t *testing.T) {
	p := NewPlayer(Hooks{}, 5)
	require.NoError(t, p.Load([]Clip{{Name: "x"}}))
	assert.Equal(t, DefaultDurationS, p.Clips()[0].DurationS)
}

func TestStartsAfterQuietPeriod(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks(), 3)
	require.NoError(t, p.Load(clips()))

	p.Tick(2)
	assert.Equal(t, Idle, p.State)
	p.Tick(1)
	assert.Equal(t, Running, p.State)
	assert.Equal(t, []string{"a"}, r.played)

	c, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "a", c.Name)
}

func TestCyclesClips(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks(), 1)
	require.NoError(t, p.Load(clips()))

	p.Tick(1)   // start a
	p.Tick(0.5) // a
	p.Tick(0.5) // -> b
	p.Tick(1.5) // b
	p.Tick(0.5) // -> a
	assert.Equal(t, []string{"a", "b", "a"}, r.played)
}

func TestTouchStopsAndResetsQuiet(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks(), 2)
	require.NoError(t, p.Load(clips()))

	p.Tick(1.5)
	p.Touch()
	p.Tick(1.5)
	assert.Equal(t, Idle, p.State)
	assert.Zero(t, r.stopped)

	p.Tick(0.5)
	assert.Equal(t, Running, p.State)
	p.Touch()
	assert.Equal(t, Idle, p.State)
	assert.Equal(t, 1, r.stopped)
	_, ok := p.Current()
	assert.False(t, ok)
}

func TestDisabledWhenIdleZero(t *testing.T) {
	r := &recorder{}
	p := NewPlayer(r.hooks(), 0)
	require.NoError(t, p.Load(clips()))
	p.Tick(1000)
	assert.Equal(t, Idle, p.State)
	assert.Empty(t, r.played)
}

func TestDefaultClipsParse(t *testing.T) {
	for _, c := range DefaultClips {
		t.Run(c.Name, func(t *testing.T) {
			s := vm.NewState(vm.DefaultOptions())
			d := protocol.NewDecoder(0)
			applied, rejected := d.FeedScript(s, []byte(c.Script))
			assert.Zero(t, rejected)
			assert.Equal(t, strings.Count(c.Script, "\n"), applied)
			assert.NotZero(t, s.StepCount)
		})
	}
}
