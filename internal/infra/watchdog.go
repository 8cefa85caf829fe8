package infra

import (
	"sync/atomic"
	"syscall"
	"time"
)

// graceKillDelay is how long the process group gets between SIGTERM and the
// SIGKILL escalation.
const graceKillDelay = 1 * time.Second

// Watchdog force-terminates the child's process group when the wall-clock
// deadline expires. The fired flag is a latch: once set, the run is timed
// out no matter what a later liveness check observes.
type Watchdog struct {
	limit  time.Duration
	pgid   int
	fired  atomic.Bool
	reaped atomic.Bool
	timer  *time.Timer
}

func NewWatchdog(limit time.Duration, pgid int) *Watchdog {
	return &Watchdog{limit: limit, pgid: pgid}
}

// Arm schedules the one-shot deadline. A non-positive limit leaves the run
// unbounded. The expiry callback only latches state and signals the group;
// it performs no I/O.
func (w *Watchdog) Arm() {
	if w.limit <= 0 {
		return
	}
	w.timer = time.AfterFunc(w.limit, func() {
		w.fired.Store(true)
		killProcessGroup(w.pgid, syscall.SIGTERM)
		time.AfterFunc(graceKillDelay, func() {
			if !w.reaped.Load() {
				killProcessGroup(w.pgid, syscall.SIGKILL)
			}
		})
	})
}

// Disarm stops the deadline after the child has been reaped. The escalation
// check keys off the reaped flag so a recycled pgid is never signalled.
func (w *Watchdog) Disarm() {
	w.reaped.Store(true)
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Fired reports whether the deadline expired.
func (w *Watchdog) Fired() bool {
	return w.fired.Load()
}
