// Package clock abstracts wall-clock access so scheduling logic can be tested
// against fixed or manually-advanced time instead of time.Now.
package clock

import (
	"sync"
	"time"
)

// Clock is the single time source every scheduling component must use.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker mirrors time.Ticker so the real and fake clocks can share an interface.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real is the production Clock backed by the time package.
type Real struct{}

func NewReal() Real { return Real{} }

func (Real) Now() time.Time                      { return time.Now().UTC() }
func (Real) Sleep(d time.Duration)                { time.Sleep(d) }
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (Real) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// Fake is a manually-advanced Clock for deterministic tests.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
	tickers []*fakeTicker
}

type fakeWaiter struct {
	at time.Time
	ch chan time.Time
}

// NewFake creates a Fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep on a fake clock is a no-op; tests drive time with Advance instead.
func (f *Fake) Sleep(d time.Duration) {}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	fireAt := f.now.Add(d)
	if !fireAt.After(f.now) {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, fakeWaiter{at: fireAt, ch: ch})
	return ch
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{f: f, d: d, ch: make(chan time.Time, 1), next: f.now.Add(d)}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves the fake clock forward, firing any pending waiters or
// tickers whose deadline falls within the new window. A ticker re-arms for
// its next period immediately, mirroring time.Ticker's behavior.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)

	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.at.After(f.now) {
			w.ch <- f.now
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining

	for _, t := range f.tickers {
		for !t.stopped && !t.next.After(f.now) {
			select {
			case t.ch <- f.now:
			default:
			}
			t.next = t.next.Add(t.d)
		}
	}
}

func (f *Fake) removeTicker(target *fakeTicker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tickers {
		if t == target {
			f.tickers = append(f.tickers[:i], f.tickers[i+1:]...)
			return
		}
	}
}

type fakeTicker struct {
	f       *Fake
	d       time.Duration
	ch      chan time.Time
	next    time.Time
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.f.mu.Lock()
	t.stopped = true
	t.f.mu.Unlock()
	t.f.removeTicker(t)
}
