package controls

import "github.com/pkg/errors"

// maxReruns bounds how often a computation may invalidate itself within a
// single run before it is considered a loop.
const maxReruns = 100

// Computation re-runs a function whenever a control field it read during its
// previous run changes.
type Computation struct {
	fn      func()
	tracker *Tracker
	running bool
	again   bool
	queued  bool
	stopped bool
	runs    int
}

// Compute runs fn immediately and again on every relevant change until Stop
// is called.
func Compute(fn func()) *Computation {
	c := &Computation{fn: fn}
	c.tracker = NewTracker(c.trigger)
	c.run()
	return c
}

// Runs reports how many times fn has executed.
func (c *Computation) Runs() int { return c.runs }

// Tracker exposes the underlying subscriptions.
func (c *Computation) Tracker() *Tracker { return c.tracker }

// Stop unsubscribes from everything. It is safe to call from inside fn.
func (c *Computation) Stop() {
	c.stopped = true
	c.tracker.Close()
}

func (c *Computation) trigger() {
	if c.stopped {
		return
	}
	if c.running {
		c.again = true
		return
	}
	if c.queued || holdEffect(c) {
		return
	}
	c.run()
}

func (c *Computation) run() {
	c.running = true
	defer func() { c.running = false }()

	for i := 0; ; i++ {
		if i == maxReruns {
			err := errors.Wrapf(ErrComputeLoop, "after %d runs", maxReruns)
			log().Error("computation loop", "error", err)
			panic(err)
		}
		c.again = false
		c.tracker.Run(c.fn)
		c.runs++
		if !c.again || c.stopped {
			return
		}
	}
}

// Computed returns a leaf control whose value is fn's result, kept up to date
// by a Computation. The control is itself trackable.
func Computed(fn func() any, opts ...Option) (*Control, *Computation) {
	target := New(nil, append([]Option{WithKind(KindLeaf)}, opts...)...)
	comp := Compute(func() {
		v := fn()
		untracked(func() { target.SetValueInitial(v) })
	})
	return target, comp
}
