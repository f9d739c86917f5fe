package timer

import (
	"testing"
)

type recorder struct {
	events []Milestone
}

func (r *recorder) notify(m Milestone, _ int) {
	r.events = append(r.events, m)
}

func (r *recorder) count(m Milestone) int {
	n := 0
	for _, e := range r.events {
		if e == m {
			n++
		}
	}
	return n
}

func tick(t *Timer, n int) {
	for i := 0; i < n; i++ {
		t.Tick()
	}
}

func TestHalfwayFiresOnceAt50Percent(t *testing.T) {
	rec := &recorder{}
	tm := New(rec.notify, 0)
	tm.Start(20)

	tick(tm, 599)
	if rec.count(MilestoneHalfway) != 0 {
		t.Fatal("halfway fired before 50% elapsed")
	}
	tick(tm, 1)
	if rec.count(MilestoneHalfway) != 1 {
		t.Fatalf("expected halfway exactly once at 10 minutes, got %d", rec.count(MilestoneHalfway))
	}
	tick(tm, 100)
	if rec.count(MilestoneHalfway) != 1 {
		t.Errorf("halfway fired again after the threshold, got %d", rec.count(MilestoneHalfway))
	}
}

func TestHalfwayUsesRunningTimeNotWallClock(t *testing.T) {
	rec := &recorder{}
	tm := New(rec.notify, 0)
	tm.Start(20)

	// Run 9 minutes, pause.
	tick(tm, 9*60)
	tm.Pause()

	// Ticks while paused must not advance or notify.
	tick(tm, 5*60)
	if tm.Remaining() != 11*60 {
		t.Fatalf("paused timer advanced: remaining %d", tm.Remaining())
	}
	if len(rec.events) != 0 {
		t.Fatalf("paused timer fired %v", rec.events)
	}

	// Resume; the 10th minute of running time crosses halfway.
	tm.Resume()
	tick(tm, 60)
	if rec.count(MilestoneHalfway) != 1 {
		t.Errorf("expected halfway once at 10 simulated running minutes, got %d", rec.count(MilestoneHalfway))
	}
}

func TestTenMinuteCueOnlyForLongSessions(t *testing.T) {
	rec := &recorder{}
	tm := New(rec.notify, 0)

	// 20-minute session: no 10-minute warning (total not > 20 min).
	tm.Start(20)
	tick(tm, 20*60)
	if rec.count(MilestoneTenMinutes) != 0 {
		t.Error("10-minute cue fired for a 20-minute session")
	}

	// 25-minute session: fires once at 10 minutes remaining.
	rec.events = nil
	tm.Start(25)
	tick(tm, 15*60)
	if rec.count(MilestoneTenMinutes) != 1 {
		t.Errorf("expected one 10-minute cue, got %d", rec.count(MilestoneTenMinutes))
	}
}

func TestFiveAndOneMinuteCues(t *testing.T) {
	rec := &recorder{}
	tm := New(rec.notify, 0)
	tm.Start(25)

	tick(tm, 20*60)
	if rec.count(MilestoneFiveMinutes) != 1 {
		t.Errorf("expected one 5-minute cue, got %d", rec.count(MilestoneFiveMinutes))
	}
	tick(tm, 4*60)
	if rec.count(MilestoneOneMinute) != 1 {
		t.Errorf("expected one 1-minute cue, got %d", rec.count(MilestoneOneMinute))
	}
}

func TestCompletionAfterFullRun(t *testing.T) {
	rec := &recorder{}
	tm := New(rec.notify, 0)
	tm.Start(25)

	tick(tm, 1500)
	if tm.State() != StateCompleted {
		t.Fatalf("expected Completed after 1500 ticks, got %s", tm.State())
	}
	if rec.count(MilestoneComplete) != 1 {
		t.Errorf("expected one completion event, got %d", rec.count(MilestoneComplete))
	}

	// Further ticks are inert.
	tick(tm, 10)
	if tm.Remaining() != 0 {
		t.Errorf("remaining moved after completion: %d", tm.Remaining())
	}
	if rec.count(MilestoneComplete) != 1 {
		t.Error("completion fired again after the run ended")
	}
}

func TestStopForcesIdle(t *testing.T) {
	tm := New(nil, 0)
	tm.Start(25)
	tick(tm, 30)

	tm.Stop()
	if tm.State() != StateIdle {
		t.Fatalf("expected Idle after Stop, got %s", tm.State())
	}

	// Stop from Paused too.
	tm.Start(25)
	tm.Pause()
	tm.Stop()
	if tm.State() != StateIdle {
		t.Errorf("expected Idle after Stop from Paused, got %s", tm.State())
	}
}

func TestPauseResumeTransitionsGuarded(t *testing.T) {
	tm := New(nil, 0)

	// Pause from Idle is a no-op.
	tm.Pause()
	if tm.State() != StateIdle {
		t.Errorf("Pause from Idle changed state to %s", tm.State())
	}

	tm.Start(25)
	tm.Resume() // Resume from Running is a no-op.
	if tm.State() != StateRunning {
		t.Errorf("Resume from Running changed state to %s", tm.State())
	}

	tm.Pause()
	if tm.State() != StatePaused {
		t.Fatalf("expected Paused, got %s", tm.State())
	}
	tm.Resume()
	if tm.State() != StateRunning {
		t.Errorf("expected Running after Resume, got %s", tm.State())
	}
}

func TestMilestonesResetBetweenRuns(t *testing.T) {
	rec := &recorder{}
	tm := New(rec.notify, 0)

	tm.Start(20)
	tick(tm, 20*60)
	first := rec.count(MilestoneHalfway)

	tm.Start(20)
	tick(tm, 20*60)
	if rec.count(MilestoneHalfway) != first*2 {
		t.Errorf("expected milestone flags reset for the second run")
	}
}
