package controls

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Collector is told about every tracked read made while it is the ambient
// collector of the current goroutine.
type Collector func(c *Control, flags ChangeFlags)

type collectorStack struct {
	stack []Collector
}

var (
	// goroutine id -> *collectorStack
	collectors sync.Map
	// number of collectors pushed across all goroutines; reads skip the
	// goroutine lookup entirely while it is zero
	activeCollectors atomic.Int64
)

// WithCollector runs fn with col as the ambient collector of the calling
// goroutine, restoring the previous one afterwards even if fn panics. Calls
// nest. A nil col disables collection for the duration of fn.
func WithCollector(col Collector, fn func()) {
	gid := goid.Get()
	v, _ := collectors.LoadOrStore(gid, &collectorStack{})
	s := v.(*collectorStack)

	s.stack = append(s.stack, col)
	activeCollectors.Add(1)
	defer func() {
		s.stack[len(s.stack)-1] = nil
		s.stack = s.stack[:len(s.stack)-1]
		activeCollectors.Add(-1)
		if len(s.stack) == 0 {
			collectors.Delete(gid)
		}
	}()

	fn()
}

// Untracked runs fn without reporting reads to the ambient collector.
func Untracked(fn func()) {
	untracked(fn)
}

func untracked(fn func()) {
	if activeCollectors.Load() == 0 {
		fn()
		return
	}
	WithCollector(nil, fn)
}

func collect(c *Control, flags ChangeFlags) {
	if activeCollectors.Load() == 0 {
		return
	}
	v, ok := collectors.Load(goid.Get())
	if !ok {
		return
	}
	s := v.(*collectorStack)
	if len(s.stack) == 0 {
		return
	}
	if col := s.stack[len(s.stack)-1]; col != nil {
		col(c, flags)
	}
}

type effectQueue struct {
	depth   int
	pending []*Computation
}

var (
	// goroutine id -> *effectQueue
	effects       sync.Map
	activeEffects atomic.Int64
)

// deferEffects runs fn holding back computation reruns until the outermost
// call on this goroutine returns. Each held computation then reruns once. A
// panic drops the held reruns.
func deferEffects(fn func()) {
	gid := goid.Get()
	v, _ := effects.LoadOrStore(gid, &effectQueue{})
	q := v.(*effectQueue)

	q.depth++
	activeEffects.Add(1)
	var held []*Computation
	defer func() {
		for _, comp := range held {
			comp.queued = false
		}
	}()
	func() {
		defer func() {
			q.depth--
			activeEffects.Add(-1)
			if q.depth == 0 {
				effects.Delete(gid)
				held, q.pending = q.pending, nil
			}
		}()
		fn()
	}()

	for len(held) > 0 {
		comp := held[0]
		held = held[1:]
		comp.queued = false
		comp.trigger()
	}
}

// holdEffect queues comp when the calling goroutine is inside deferEffects.
func holdEffect(comp *Computation) bool {
	if activeEffects.Load() == 0 {
		return false
	}
	v, ok := effects.Load(goid.Get())
	if !ok {
		return false
	}
	q := v.(*effectQueue)
	if !comp.queued {
		comp.queued = true
		q.pending = append(q.pending, comp)
	}
	return true
}
