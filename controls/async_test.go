package controls_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delaneyj/formsignals/controls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

const asyncDelay = 500 * time.Millisecond

// loop stands in for the goroutine that owns the control graph.
type loop struct {
	ch chan func()
}

func newLoop() *loop {
	return &loop{ch: make(chan func(), 16)}
}

func (l *loop) dispatch(fn func()) {
	l.ch <- fn
}

func (l *loop) runOne(t *testing.T) {
	t.Helper()
	select {
	case fn := <-l.ch:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no async result was dispatched")
	}
}

func (l *loop) idle(t *testing.T) {
	t.Helper()
	select {
	case <-l.ch:
		t.Fatal("unexpected async result")
	case <-time.After(50 * time.Millisecond):
	}
}

// gate lets a test decide when each check returns.
type gate struct {
	mu       sync.Mutex
	started  chan string
	releases map[string]chan struct{}
	calls    atomic.Int32
}

func newGate() *gate {
	return &gate{started: make(chan string, 16), releases: map[string]chan struct{}{}}
}

func (g *gate) release(value string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.releases[value]
	if !ok {
		ch = make(chan struct{})
		g.releases[value] = ch
	}
	return ch
}

// check ignores cancellation and reports "bad <value>" once released.
func (g *gate) check(_ context.Context, value any) (string, error) {
	g.calls.Add(1)
	s, _ := value.(string)
	g.started <- s
	<-g.release(s)
	return "bad " + s, nil
}

func (g *gate) waitStarted(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-g.started:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("check for %q never started", want)
	}
}

func fire(clock *clockz.FakeClock) {
	clock.Advance(asyncDelay + time.Millisecond)
	clock.BlockUntilReady()
}

func TestAsyncValidator(t *testing.T) {
	t.Run("applies the result after the delay", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		c := controls.New("ann")
		v := controls.RegisterAsyncValidator(c, func(_ context.Context, value any) (string, error) {
			if value == "taken" {
				return "already taken", nil
			}
			return "", nil
		}, asyncDelay, controls.WithClock(clock), controls.WithDispatcher(lp.dispatch))
		defer v.Close()
		assert.False(t, v.Pending())

		c.SetValue("taken")
		assert.True(t, v.Pending())
		lp.idle(t)

		fire(clock)
		lp.runOne(t)
		assert.False(t, v.Pending())
		assert.Equal(t, "already taken", c.Error())
		assert.Equal(t, map[string]string{controls.AsyncErrorKey: "already taken"}, c.Errors())
		assert.False(t, c.Valid())

		c.SetValue("free")
		fire(clock)
		lp.runOne(t)
		assert.True(t, c.Valid())
	})

	t.Run("stale results are dropped", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		g := newGate()
		form := controls.New(map[string]any{"staleUsername": ""})
		c := form.Field("staleUsername")
		v := controls.RegisterAsyncValidator(c, g.check, asyncDelay, controls.WithClock(clock), controls.WithDispatcher(lp.dispatch))
		defer v.Close()

		stale := make(chan string, 4)
		capitan.Hook(controls.AsyncValidationStale, func(_ context.Context, e *capitan.Event) {
			if path, _ := controls.KeyPath.From(e); path == "$.staleUsername" {
				msg, _ := controls.KeyMessage.From(e)
				stale <- msg
			}
		})

		c.SetValue("X")
		fire(clock)
		g.waitStarted(t, "X")

		c.SetValue("Y")
		fire(clock)
		g.waitStarted(t, "Y")

		close(g.release("X"))
		lp.runOne(t)
		assert.Empty(t, c.Error())
		assert.True(t, v.Pending())

		close(g.release("Y"))
		lp.runOne(t)
		assert.Equal(t, "bad Y", c.Error())
		assert.False(t, v.Pending())

		select {
		case msg := <-stale:
			assert.Equal(t, "bad X", msg)
		case <-time.After(2 * time.Second):
			t.Fatal("no stale event")
		}
	})

	t.Run("a changed version drops the result", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		g := newGate()
		c := controls.New("X", controls.WithMeta(map[string]any{"rev": 1}))
		v := controls.RegisterAsyncValidator(c, g.check, asyncDelay,
			controls.WithClock(clock),
			controls.WithDispatcher(lp.dispatch),
			controls.WithVersion(func(c *controls.Control) any { return c.Meta()["rev"] }),
		)
		defer v.Close()

		c.Validate()
		fire(clock)
		g.waitStarted(t, "X")

		c.Meta()["rev"] = 2
		close(g.release("X"))
		lp.runOne(t)
		assert.Empty(t, c.Error())
	})

	t.Run("cancelled checks are silent", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		started := make(chan struct{}, 1)
		var failures atomic.Int32
		c := controls.New("")
		v := controls.RegisterAsyncValidator(c, func(ctx context.Context, value any) (string, error) {
			if value == "slow" {
				started <- struct{}{}
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "", nil
		}, asyncDelay,
			controls.WithClock(clock),
			controls.WithDispatcher(lp.dispatch),
			controls.WithAsyncErrorHandler(func(*controls.Control, error) { failures.Add(1) }),
		)
		defer v.Close()

		c.SetValue("slow")
		fire(clock)
		<-started

		c.SetValue("fast")
		fire(clock)
		lp.runOne(t)
		lp.idle(t)
		assert.Equal(t, int32(0), failures.Load())
		assert.True(t, c.Valid())
	})

	t.Run("rapid changes are debounced", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		g := newGate()
		c := controls.New("")
		v := controls.RegisterAsyncValidator(c, g.check, asyncDelay, controls.WithClock(clock), controls.WithDispatcher(lp.dispatch))
		defer v.Close()

		c.SetValue("a")
		c.SetValue("ab")
		c.SetValue("abc")
		close(g.release("abc"))
		fire(clock)
		g.waitStarted(t, "abc")
		lp.runOne(t)

		assert.Equal(t, int32(1), g.calls.Load())
		assert.Equal(t, "bad abc", c.Error())
	})

	t.Run("failures go to the handler", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		network := errors.New("network down")
		var got error
		c := controls.New("")
		v := controls.RegisterAsyncValidator(c, func(context.Context, any) (string, error) {
			return "", network
		}, asyncDelay,
			controls.WithClock(clock),
			controls.WithDispatcher(lp.dispatch),
			controls.WithAsyncErrorHandler(func(_ *controls.Control, err error) { got = err }),
		)
		defer v.Close()

		c.SetValue("x")
		fire(clock)
		lp.runOne(t)
		require.ErrorIs(t, got, network)
		assert.False(t, v.Pending())
		assert.True(t, c.Valid())
	})

	t.Run("unhandled failures panic", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		network := errors.New("network down")
		c := controls.New("")
		v := controls.RegisterAsyncValidator(c, func(context.Context, any) (string, error) {
			return "", network
		}, asyncDelay, controls.WithClock(clock), controls.WithDispatcher(lp.dispatch))
		defer v.Close()

		c.SetValue("x")
		fire(clock)
		err := recoverError(func() { lp.runOne(t) })
		require.ErrorIs(t, err, network)
	})

	t.Run("custom key and close", func(t *testing.T) {
		clock := clockz.NewFakeClock()
		lp := newLoop()
		var calls atomic.Int32
		c := controls.New("")
		v := controls.RegisterAsyncValidator(c, func(context.Context, any) (string, error) {
			calls.Add(1)
			return "nope", nil
		}, asyncDelay,
			controls.WithClock(clock),
			controls.WithDispatcher(lp.dispatch),
			controls.WithAsyncKey("server"),
		)

		c.SetValue("x")
		fire(clock)
		lp.runOne(t)
		assert.Equal(t, map[string]string{"server": "nope"}, c.Errors())

		c.SetValue("y")
		v.Close()
		assert.False(t, v.Pending())
		fire(clock)
		lp.idle(t)

		c.SetValue("z")
		assert.False(t, v.Pending())
		assert.Equal(t, int32(1), calls.Load())
	})
}
