package sequence

import "errors"

// NewPlayer constructs a Player with provided hooks.
func NewPlayer(h Hooks, idleS float64) *Player {
	return &Player{
		State: Idle,
		IdleS: idleS,
		hooks: h,
	}
}

// Load replaces the clip list and returns to Idle. Zero durations get DefaultDurationS.
func (p *Player) Load(clips []Clip) error {
	if len(clips) == 0 {
		return errors.New("no attract clips")
	}
	p.clips = make([]Clip, len(clips))
	copy(p.clips, clips)
	for i := range p.clips {
		if p.clips[i].DurationS <= 0 {
			p.clips[i].DurationS = DefaultDurationS
		}
	}
	p.State = Idle
	p.idx = 0
	p.clipT = 0
	return nil
}

// Clips returns the loaded clip list.
func (p *Player) Clips() []Clip { return p.clips }

// Current returns the playing clip, if any.
func (p *Player) Current() (Clip, bool) {
	if p.State != Running {
		return Clip{}, false
	}
	return p.clips[p.idx], true
}

// Start plays the first clip immediately.
func (p *Player) Start() {
	if p.State == Running || len(p.clips) == 0 {
		return
	}
	p.State = Running
	p.idx = 0
	p.clipT = 0
	p.play()
}

// Touch records link activity. A running cycle stops.
func (p *Player) Touch() {
	p.quiet = 0
	if p.State != Running {
		return
	}
	p.State = Idle
	if p.hooks.Stop != nil {
		p.hooks.Stop()
	}
}

// Tick advances by dt seconds. It starts the cycle once the link has been
// quiet for IdleS and moves to the next clip when the current one expires.
func (p *Player) Tick(dt float64) {
	if dt <= 0 || len(p.clips) == 0 {
		return
	}
	if p.State != Running {
		if p.IdleS <= 0 {
			return
		}
		p.quiet += dt
		if p.quiet >= p.IdleS {
			p.Start()
		}
		return
	}

	p.clipT += dt
	if p.clipT >= p.clips[p.idx].DurationS {
		p.clipT = 0
		p.idx = (p.idx + 1) % len(p.clips)
		p.play()
	}
}

func (p *Player) play() {
	if p.hooks.Play != nil {
		p.hooks.Play(p.clips[p.idx])
	}
}
