package controls

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
)

// Tracker subscribes to exactly the controls read during its last Run and
// calls onChange when any of them changes in a way that was read.
type Tracker struct {
	onChange func()

	// reads of the run in progress
	order []*Control
	masks map[*Control]ChangeFlags

	subscribed  mapset.Set[*Control]
	listeners   map[*Control]*Listener
	fingerprint uint64
	closed      bool
}

// NewTracker returns a tracker that calls onChange on relevant changes.
func NewTracker(onChange func()) *Tracker {
	return &Tracker{
		onChange:   onChange,
		masks:      map[*Control]ChangeFlags{},
		subscribed: mapset.NewThreadUnsafeSet[*Control](),
		listeners:  map[*Control]*Listener{},
	}
}

// Collect records a read. It is the tracker's Collector.
func (t *Tracker) Collect(c *Control, flags ChangeFlags) {
	prev, seen := t.masks[c]
	if !seen {
		t.order = append(t.order, c)
	}
	t.masks[c] = prev | flags
}

// Run executes fn with t collecting reads, then replaces the subscriptions
// with the ones fn actually made.
func (t *Tracker) Run(fn func()) {
	clear(t.masks)
	t.order = t.order[:0]
	defer t.update()
	WithCollector(t.Collect, fn)
}

// Subscriptions reports the controls currently subscribed and their masks.
func (t *Tracker) Subscriptions() map[*Control]ChangeFlags {
	out := make(map[*Control]ChangeFlags, len(t.listeners))
	for c, l := range t.listeners {
		out[c] = l.mask
	}
	return out
}

// Close drops every subscription; onChange is never called again.
func (t *Tracker) Close() {
	t.closed = true
	for c, l := range t.listeners {
		c.RemoveChangeListener(l)
	}
	clear(t.listeners)
	t.subscribed.Clear()
	t.fingerprint = 0
}

func (t *Tracker) update() {
	if t.closed {
		return
	}
	fp := t.readFingerprint()
	if fp == t.fingerprint && t.subscribed.Cardinality() == len(t.order) {
		return
	}
	t.fingerprint = fp

	next := mapset.NewThreadUnsafeSet(t.order...)
	for _, c := range t.subscribed.Difference(next).ToSlice() {
		c.RemoveChangeListener(t.listeners[c])
		delete(t.listeners, c)
	}
	for _, c := range t.order {
		mask := t.masks[c]
		if l, ok := t.listeners[c]; ok {
			if l.mask == mask {
				continue
			}
			c.RemoveChangeListener(l)
		}
		t.listeners[c] = c.AddChangeListener(t.changed, mask)
	}
	t.subscribed = next
}

func (t *Tracker) changed(*Control, ChangeFlags) {
	if !t.closed {
		t.onChange()
	}
}

func (t *Tracker) readFingerprint() uint64 {
	d := xxhash.New()
	var buf [10]byte
	for _, c := range t.order {
		binary.LittleEndian.PutUint64(buf[:8], c.id)
		binary.LittleEndian.PutUint16(buf[8:], uint16(t.masks[c]))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
