package sequence

// Clip is one attract program: an address-less command script held for DurationS.
type Clip struct {
	Name      string  `yaml:"name" json:"name"`
	Script    string  `yaml:"script" json:"script"`
	DurationS float64 `yaml:"duration_s" json:"durationS"`
}

// PlayerState enumerates attract states.
type PlayerState string

const (
	// Idle: the link is live, or not quiet for long enough yet.
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
)

// Hooks are callbacks into the station loop.
type Hooks struct {
	// Play loads the clip's script into the engine.
	Play func(c Clip)
	// Stop is called when upstream traffic ends attract mode.
	Stop func()
}

// Player runs the attract cycle once the link has been quiet for IdleS seconds.
type Player struct {
	State PlayerState
	IdleS float64

	clips []Clip
	idx   int
	clipT float64 // time within the current clip
	quiet float64 // seconds since the last Touch

	hooks Hooks
}

// DefaultDurationS applies to clips with no duration.
const DefaultDurationS = 20.0
