package service

import (
	"errors"
	"sync/atomic"
)

// ErrOperationInFlight is returned when a logical action is started while a
// previous one is still outstanding.
var ErrOperationInFlight = errors.New("another operation is already in flight")

// latch is a single-slot in-flight guard for one logical action (search,
// book). It replaces ad hoc boolean re-entrancy flags: a new start is
// rejected until the outstanding one releases.
type latch struct {
	busy atomic.Bool
}

func (l *latch) tryAcquire() bool {
	return l.busy.CompareAndSwap(false, true)
}

func (l *latch) release() {
	l.busy.Store(false)
}
