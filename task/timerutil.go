package task

import "time"

// resetTimer safely stops, drains, and resets a timer — the same
// stop/drain/reset idiom as the teacher's services/hal/timerutil.go,
// reused here to re-arm the pause-poll timer without leaking a stale
// tick into the next wait.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		drainTimer(t)
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
