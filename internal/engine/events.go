package engine

import (
	"sort"
	"time"
)

// scheduledEvent is a timed callback. Cancelled events stay in the queue
// until they reach the front.
type scheduledEvent struct {
	label     string
	executeAt time.Duration
	action    func()
	cancelled bool
}

func (e *scheduledEvent) Cancel() {
	if e == nil {
		return
	}
	e.cancelled = true
	e.action = nil
}

// eventQueue is ordered by executeAt; events at the same time keep
// insertion order.
type eventQueue []*scheduledEvent

func (eq *eventQueue) add(ev *scheduledEvent) {
	if ev == nil {
		return
	}
	i := sort.Search(len(*eq), func(i int) bool {
		return (*eq)[i].executeAt > ev.executeAt
	})
	*eq = append(*eq, nil)
	copy((*eq)[i+1:], (*eq)[i:])
	(*eq)[i] = ev
}

func (eq *eventQueue) reset() {
	for i := range *eq {
		(*eq)[i] = nil
	}
	*eq = (*eq)[:0]
}

func (eq *eventQueue) cleanFront() {
	for len(*eq) > 0 {
		if ev := (*eq)[0]; ev != nil && !ev.cancelled {
			return
		}
		*eq = (*eq)[1:]
	}
}

func (eq *eventQueue) popReady(now time.Duration) *scheduledEvent {
	eq.cleanFront()
	if len(*eq) == 0 || (*eq)[0].executeAt > now {
		return nil
	}
	ev := (*eq)[0]
	*eq = (*eq)[1:]
	return ev
}

// next returns the time of the earliest live event.
func (eq *eventQueue) next() (time.Duration, bool) {
	eq.cleanFront()
	if len(*eq) == 0 {
		return 0, false
	}
	return (*eq)[0].executeAt, true
}
