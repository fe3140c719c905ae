package conversation

import "time"

// Scheduler runs f once after d. The returned stop function cancels the call
// if it has not started yet.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// pendingTimer is one armed timer. gen identifies the arming so a callback
// that lost the race against a re-arm or cancel does nothing.
type pendingTimer struct {
	gen  uint64
	stop func() bool
}
