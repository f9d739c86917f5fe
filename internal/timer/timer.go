// Package timer implements the per-room countdown state machine with
// one-shot milestone notifications.
package timer

import (
	"sync"
	"time"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

type Milestone string

const (
	MilestoneHalfway     Milestone = "halfway"
	MilestoneTenMinutes  Milestone = "ten_minutes"
	MilestoneFiveMinutes Milestone = "five_minutes"
	MilestoneOneMinute   Milestone = "one_minute"
	MilestoneComplete    Milestone = "complete"
)

// NotifyFunc receives each milestone exactly once per run.
type NotifyFunc func(m Milestone, remainingSeconds int)

// Timer counts down a single session. Ticks only advance while Running;
// a paused timer neither advances nor fires notifications.
type Timer struct {
	mu        sync.Mutex
	state     State
	duration  int // seconds
	remaining int // seconds
	notify    NotifyFunc

	halfwayNotified bool
	tenMinNotified  bool
	fiveMinNotified bool
	oneMinNotified  bool

	tickEvery time.Duration
	stopTick  chan struct{}
}

// New builds a timer. tickEvery is the wall-clock tick interval; pass 0
// to drive the timer manually through Tick (simulations and tests).
func New(notify NotifyFunc, tickEvery time.Duration) *Timer {
	if notify == nil {
		notify = func(Milestone, int) {}
	}
	return &Timer{state: StateIdle, notify: notify, tickEvery: tickEvery}
}

// Start resets milestone flags and begins a fresh run. Starting over a
// live run replaces it.
func (t *Timer) Start(durationMinutes int) {
	t.mu.Lock()
	t.haltLocked()
	t.duration = durationMinutes * 60
	t.remaining = t.duration
	t.state = StateRunning
	t.halfwayNotified = false
	t.tenMinNotified = false
	t.fiveMinNotified = false
	t.oneMinNotified = false
	var stop chan struct{}
	if t.tickEvery > 0 {
		stop = make(chan struct{})
		t.stopTick = stop
	}
	t.mu.Unlock()

	if stop != nil {
		go t.run(stop)
	}
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick advances the countdown by one second. Exposed so tests and
// simulations can drive the timer deterministically; the wall-clock loop
// calls the same method.
func (t *Timer) Tick() {
	t.mu.Lock()

	if t.state != StateRunning {
		t.mu.Unlock()
		return
	}

	t.remaining--
	type event struct {
		m         Milestone
		remaining int
	}
	var events []event

	elapsed := t.duration - t.remaining
	if !t.halfwayNotified && elapsed*2 >= t.duration {
		t.halfwayNotified = true
		events = append(events, event{MilestoneHalfway, t.remaining})
	}
	if !t.tenMinNotified && t.duration > 1200 && t.remaining == 600 {
		t.tenMinNotified = true
		events = append(events, event{MilestoneTenMinutes, t.remaining})
	}
	if !t.fiveMinNotified && t.remaining == 300 {
		t.fiveMinNotified = true
		events = append(events, event{MilestoneFiveMinutes, t.remaining})
	}
	if !t.oneMinNotified && t.remaining == 60 {
		t.oneMinNotified = true
		events = append(events, event{MilestoneOneMinute, t.remaining})
	}

	if t.remaining <= 0 {
		t.remaining = 0
		t.state = StateCompleted
		t.haltLocked()
		events = append(events, event{MilestoneComplete, 0})
	}

	notify := t.notify
	t.mu.Unlock()

	for _, ev := range events {
		notify(ev.m, ev.remaining)
	}
}

// Pause halts ticking without losing remaining time. Valid only from
// Running.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateRunning {
		t.state = StatePaused
	}
}

// Resume continues a paused run. Valid only from Paused.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StatePaused {
		t.state = StateRunning
	}
}

// Stop forces the timer back to Idle from any state.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	t.remaining = 0
	t.duration = 0
	t.haltLocked()
}

func (t *Timer) haltLocked() {
	if t.stopTick != nil {
		close(t.stopTick)
		t.stopTick = nil
	}
}

func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Remaining reports seconds left in the current run.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Progress reports elapsed fraction in [0,1].
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.duration == 0 {
		return 0
	}
	return float64(t.duration-t.remaining) / float64(t.duration)
}

// Snapshot is the timer state as surfaced over the API.
type Snapshot struct {
	State     State   `json:"state"`
	Duration  int     `json:"duration_seconds"`
	Remaining int     `json:"remaining_seconds"`
	Progress  float64 `json:"progress"`
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	var progress float64
	if t.duration > 0 {
		progress = float64(t.duration-t.remaining) / float64(t.duration)
	}
	return Snapshot{
		State:     t.state,
		Duration:  t.duration,
		Remaining: t.remaining,
		Progress:  progress,
	}
}
