package controls

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// AsyncErrorKey is the default error key written by async validators.
const AsyncErrorKey = "async"

// AsyncCheck validates value out of band. It should return promptly with
// ctx.Err() once ctx is cancelled.
type AsyncCheck func(ctx context.Context, value any) (string, error)

type asyncConfig struct {
	key      string
	version  func(*Control) any
	clock    clockz.Clock
	dispatch func(func())
	onError  func(*Control, error)
	ctx      context.Context
}

// AsyncOption configures an AsyncValidator.
type AsyncOption func(*asyncConfig)

// WithAsyncKey sets the error key results are written to.
func WithAsyncKey(key string) AsyncOption {
	return func(c *asyncConfig) {
		c.key = key
	}
}

// WithVersion sets the snapshot a result must still match to be applied.
// The default is the control's value.
func WithVersion(fn func(*Control) any) AsyncOption {
	return func(c *asyncConfig) {
		c.version = fn
	}
}

// WithClock sets the clock used for the debounce delay.
// Use this with clockz.FakeClock for deterministic tests.
func WithClock(clock clockz.Clock) AsyncOption {
	return func(c *asyncConfig) {
		c.clock = clock
	}
}

// WithDispatcher sets how results get back to the goroutine that owns the
// control graph. The default applies them directly from the checking
// goroutine, which is only safe when nothing else touches the graph.
func WithDispatcher(fn func(func())) AsyncOption {
	return func(c *asyncConfig) {
		c.dispatch = fn
	}
}

// WithAsyncErrorHandler receives checks that fail with anything other than
// a cancellation. Without a handler such failures panic.
func WithAsyncErrorHandler(fn func(*Control, error)) AsyncOption {
	return func(c *asyncConfig) {
		c.onError = fn
	}
}

// WithContext sets the parent context of every check.
func WithContext(ctx context.Context) AsyncOption {
	return func(c *asyncConfig) {
		c.ctx = ctx
	}
}

// AsyncValidator debounces and runs an AsyncCheck whenever its control's
// value changes or validation is requested. A newer change cancels the older
// check; a result whose version no longer matches is dropped.
type AsyncValidator struct {
	control  *Control
	check    AsyncCheck
	delay    time.Duration
	cfg      asyncConfig
	listener *Listener

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	timer  clockz.Timer
	closed bool
}

type asyncRun struct {
	seq     uint64
	version any
	value   any
	path    string
}

// RegisterAsyncValidator attaches check to c with the given debounce delay.
func RegisterAsyncValidator(c *Control, check AsyncCheck, delay time.Duration, opts ...AsyncOption) *AsyncValidator {
	cfg := asyncConfig{
		key:      AsyncErrorKey,
		version:  func(c *Control) any { return c.rawValue() },
		clock:    clockz.RealClock,
		dispatch: func(fn func()) { fn() },
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	v := &AsyncValidator{
		control: c,
		check:   check,
		delay:   delay,
		cfg:     cfg,
	}
	v.listener = c.AddChangeListener(func(*Control, ChangeFlags) { v.schedule() }, FlagValue|FlagValidate)
	return v
}

// Pending reports whether a check is waiting for its delay or still running.
func (v *AsyncValidator) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cancel != nil
}

// Close detaches the validator and cancels any outstanding check.
func (v *AsyncValidator) Close() {
	v.control.RemoveChangeListener(v.listener)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.stopLocked()
}

func (v *AsyncValidator) schedule() {
	var run asyncRun
	untracked(func() {
		run = asyncRun{
			version: v.cfg.version(v.control),
			value:   v.control.rawValue(),
			path:    PathString(v.control.Path()),
		}
	})

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	aborted := v.stopLocked()
	v.seq++
	run.seq = v.seq
	ctx, cancel := context.WithCancel(v.cfg.ctx)
	v.cancel = cancel
	timer := v.cfg.clock.NewTimer(v.delay)
	v.timer = timer
	v.mu.Unlock()

	if aborted {
		capitan.Emit(v.cfg.ctx, AsyncValidationAborted, KeyPath.Field(run.path), KeyErrorKey.Field(v.cfg.key))
	}
	capitan.Emit(v.cfg.ctx, AsyncValidationScheduled,
		KeyPath.Field(run.path),
		KeyErrorKey.Field(v.cfg.key),
		KeyDelay.Field(v.delay),
	)
	go v.await(ctx, timer, run)
}

func (v *AsyncValidator) stopLocked() bool {
	active := v.cancel != nil
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	return active
}

func (v *AsyncValidator) await(ctx context.Context, timer clockz.Timer, run asyncRun) {
	select {
	case <-ctx.Done():
		return
	case <-timer.C():
	}
	if ctx.Err() != nil {
		return
	}

	msg, err := v.check(ctx, run.value)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log().Debug("async validation cancelled", "path", run.path, "error", err)
			return
		}
		v.cfg.dispatch(func() { v.fail(run, err) })
		return
	}
	v.cfg.dispatch(func() { v.apply(run, msg) })
}

func (v *AsyncValidator) finish(run asyncRun) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || run.seq != v.seq {
		return false
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.timer = nil
	return true
}

func (v *AsyncValidator) apply(run asyncRun, msg string) {
	current := v.finish(run)
	if current {
		untracked(func() { current = reflect.DeepEqual(v.cfg.version(v.control), run.version) })
	}
	if !current {
		capitan.Emit(v.cfg.ctx, AsyncValidationStale, KeyPath.Field(run.path), KeyMessage.Field(msg))
		return
	}
	v.control.SetErrorKey(v.cfg.key, msg)
	capitan.Emit(v.cfg.ctx, AsyncValidationApplied, KeyPath.Field(run.path), KeyMessage.Field(msg))
}

func (v *AsyncValidator) fail(run asyncRun, err error) {
	v.finish(run)
	capitan.Emit(v.cfg.ctx, AsyncValidationFailed, KeyPath.Field(run.path), KeyError.Field(err.Error()))
	if v.cfg.onError != nil {
		v.cfg.onError(v.control, err)
		return
	}
	panic(errors.Wrapf(err, "async validation of %s", run.path))
}
