package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a Clock whose time only moves when Advance is called.
// AfterFunc callbacks run synchronously inside Advance, in deadline
// order, without the clock lock held.
type Fake struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	waiters []*fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
	fn       func()
	stopped  bool
	fired    bool
}

// NewFake returns a fake clock set to start.
func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.changed = sync.NewCond(&f.mu)
	return f
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, &fakeWaiter{deadline: f.now.Add(d), ch: ch})
	f.changed.Broadcast()
	return ch
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	w := &fakeWaiter{deadline: f.now.Add(d), fn: fn}
	if d <= 0 {
		w.fired = true
		f.mu.Unlock()
		fn()
		return &fakeTimer{clock: f, waiter: w}
	}
	f.waiters = append(f.waiters, w)
	f.changed.Broadcast()
	f.mu.Unlock()
	return &fakeTimer{clock: f, waiter: w}
}

// Advance moves time forward by d, firing every waiter whose deadline
// falls inside the window. Time steps to each deadline before its
// waiter fires, so callbacks that reschedule observe the right Now.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		w := f.nextDue(target)
		if w == nil {
			break
		}
		if w.fn != nil {
			w.fn()
		} else {
			select {
			case w.ch <- w.deadline:
			default:
			}
		}
	}

	f.mu.Lock()
	if target.After(f.now) {
		f.now = target
	}
	f.mu.Unlock()
}

func (f *Fake) nextDue(target time.Time) *fakeWaiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	live := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.stopped && !w.fired {
			live = append(live, w)
		}
	}
	f.waiters = live
	if len(f.waiters) == 0 {
		return nil
	}
	sort.SliceStable(f.waiters, func(i, j int) bool {
		return f.waiters[i].deadline.Before(f.waiters[j].deadline)
	})
	w := f.waiters[0]
	if w.deadline.After(target) {
		return nil
	}
	w.fired = true
	if w.deadline.After(f.now) {
		f.now = w.deadline
	}
	f.changed.Broadcast()
	return w
}

// Pending returns the number of waiters that have not fired or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingLocked()
}

// WaitForPending blocks until at least n waiters are pending. It closes
// the race between a goroutine registering a timer and the test
// advancing the clock.
func (f *Fake) WaitForPending(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.pendingLocked() < n {
		f.changed.Wait()
	}
}

func (f *Fake) pendingLocked() int {
	count := 0
	for _, w := range f.waiters {
		if !w.stopped && !w.fired {
			count++
		}
	}
	return count
}

type fakeTimer struct {
	clock  *Fake
	waiter *fakeWaiter
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.waiter.stopped || t.waiter.fired {
		return false
	}
	t.waiter.stopped = true
	t.clock.changed.Broadcast()
	return true
}
