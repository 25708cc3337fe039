// Package anim drives the frame timeline of an animated image. It is a
// state machine over abstract elapsed time: the decoder supplies the
// timeline, a scheduler supplies timer callbacks, and the player reports
// frame-index changes back to its owner. No pixels are touched here.
package anim

import (
	"time"

	"piew/internal/sched"
)

// Infinite marks a frame that the source wants displayed indefinitely.
// During playback it is substituted with a finite delay (DefaultInfiniteSubstitute
// unless reconfigured).
const Infinite time.Duration = -1

// DefaultInfiniteSubstitute is the playback delay used for Infinite frames.
const DefaultInfiniteSubstitute = 2 * time.Second

// Timeline is the ordered frame duration sequence of an animated image.
type Timeline struct {
	Durations []time.Duration
}

// FrameCount returns the number of frames.
func (tl Timeline) FrameCount() int { return len(tl.Durations) }

// State is the player's playback state.
type State int

const (
	// NoAnimation means the loaded image has at most one frame; every
	// playback operation is a silent no-op.
	NoAnimation State = iota
	Paused
	Playing
)

func (s State) String() string {
	switch s {
	case Paused:
		return "Paused"
	case Playing:
		return "Playing"
	default:
		return "NoAnimation"
	}
}

// Player advances a frame timeline despite timer-rounding error. It owns at
// most one pending timer; loading a new timeline or pausing cancels it
// synchronously, so a timer belonging to a replaced image can never advance
// the current one.
type Player struct {
	sch     sched.Scheduler
	onFrame func(index int)

	timeline Timeline
	state    State
	current  int
	elapsed  time.Duration
	timer    sched.Handle
	infinite time.Duration
}

// NewPlayer returns a player in the NoAnimation state. onFrame is invoked
// whenever the current frame index changes; it may be nil.
func NewPlayer(sch sched.Scheduler, onFrame func(index int)) *Player {
	return &Player{
		sch:      sch,
		onFrame:  onFrame,
		infinite: DefaultInfiniteSubstitute,
	}
}

// SetInfiniteSubstitute configures the finite delay used in place of
// Infinite frame durations. Non-positive values restore the default.
func (p *Player) SetInfiniteSubstitute(d time.Duration) {
	if d <= 0 {
		d = DefaultInfiniteSubstitute
	}
	p.infinite = d
}

// State returns the current playback state.
func (p *Player) State() State { return p.state }

// Current returns the current frame index.
func (p *Player) Current() int { return p.current }

// Load replaces the timeline. Any outstanding timer is cancelled first.
// Multi-frame timelines start Paused at frame 0, or Playing when autoplay
// is set; anything else leaves the player in NoAnimation.
func (p *Player) Load(tl Timeline, autoplay bool) {
	p.cancelTimer()
	p.timeline = tl
	p.current = 0
	p.elapsed = 0

	if tl.FrameCount() > 1 {
		p.state = Paused
		if autoplay {
			p.Play()
		}
	} else {
		p.state = NoAnimation
	}
}

// Play starts playback and schedules the first advancement. No-op unless
// Paused.
func (p *Player) Play() {
	if p.state != Paused {
		return
	}
	p.state = Playing
	p.schedule()
}

// Pause stops playback and cancels the pending timer. No-op unless Playing.
func (p *Player) Pause() {
	if p.state != Playing {
		return
	}
	p.cancelTimer()
	p.state = Paused
}

// Toggle switches between Playing and Paused. No-op in NoAnimation.
func (p *Player) Toggle() {
	switch p.state {
	case Playing:
		p.Pause()
	case Paused:
		p.Play()
	}
}

// Step advances exactly one frame without touching the play/pause state or
// any timer. Valid while Paused or Playing; no-op in NoAnimation.
func (p *Player) Step() {
	if p.state == NoAnimation {
		return
	}
	p.current = (p.current + 1) % p.timeline.FrameCount()
	// Realign elapsed time with the start of the new frame so a later
	// timer tick measures from a frame boundary.
	p.elapsed = p.frameStart(p.current)
	p.notify()
}

// advance is the timer callback. It accumulates the current frame's
// duration and re-queries the timeline until the frame index actually
// changes: a timer that fires a fraction of a millisecond early must not
// leave the index stuck, and one firing late must not skip the
// re-scheduling step.
func (p *Player) advance() {
	p.timer = sched.None
	if p.state != Playing {
		return
	}

	for range p.timeline.Durations {
		p.elapsed += p.effective(p.current)
		if idx := p.frameAt(p.elapsed); idx != p.current {
			p.current = idx
			break
		}
	}
	p.notify()
	p.schedule()
}

func (p *Player) schedule() {
	p.timer = p.sch.ScheduleOnce(p.effective(p.current), p.advance)
}

func (p *Player) cancelTimer() {
	if p.timer != sched.None {
		p.sch.Cancel(p.timer)
		p.timer = sched.None
	}
}

func (p *Player) notify() {
	if p.onFrame != nil {
		p.onFrame(p.current)
	}
}

// effective returns the playback duration of a frame, substituting the
// configured finite delay for Infinite or degenerate values.
func (p *Player) effective(index int) time.Duration {
	d := p.timeline.Durations[index]
	if d <= 0 {
		return p.infinite
	}
	return d
}

func (p *Player) total() time.Duration {
	var sum time.Duration
	for i := range p.timeline.Durations {
		sum += p.effective(i)
	}
	return sum
}

func (p *Player) frameStart(index int) time.Duration {
	var sum time.Duration
	for i := 0; i < index; i++ {
		sum += p.effective(i)
	}
	return sum
}

// frameAt returns the frame index shown at a given elapsed time, with the
// timeline looping forever.
func (p *Player) frameAt(t time.Duration) int {
	total := p.total()
	if total <= 0 {
		return 0
	}
	t %= total
	var acc time.Duration
	for i := range p.timeline.Durations {
		acc += p.effective(i)
		if t < acc {
			return i
		}
	}
	return p.timeline.FrameCount() - 1
}
