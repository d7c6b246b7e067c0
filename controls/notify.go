package controls

import "slices"

// ListenerFunc receives the control that changed and the flags describing
// the change. It may be called once per flush regardless of how many
// mutations were grouped into it.
type ListenerFunc func(c *Control, flags ChangeFlags)

// Listener is the handle returned by AddChangeListener.
type Listener struct {
	fn      ListenerFunc
	mask    ChangeFlags
	removed bool
}

// Mask reports the flags the listener is interested in.
func (l *Listener) Mask() ChangeFlags { return l.mask }

// AddChangeListener registers fn for changes intersecting mask. A zero mask
// means FlagAll. Listeners are called in registration order.
func (c *Control) AddChangeListener(fn ListenerFunc, mask ChangeFlags) *Listener {
	if mask == FlagNone {
		mask = FlagAll
	}
	l := &Listener{fn: fn, mask: mask}
	c.listeners = append(c.listeners, l)
	return l
}

// RemoveChangeListener unregisters l. It is safe to call from inside a
// notification; l will not be called again.
func (c *Control) RemoveChangeListener(l *Listener) {
	if l == nil {
		return
	}
	l.removed = true
	c.listeners = slices.DeleteFunc(c.listeners, func(x *Listener) bool { return x == l })
}

// StateVersion increments once per delivered notification.
func (c *Control) StateVersion() uint64 {
	return c.version
}

// GroupedChanges runs fn with notifications on c and all of its descendants
// deferred. When the outermost group completes every frozen control flushes
// once, children before their parents, so a parent delivers the union of its
// own flags and whatever its children reported. Computations triggered by the
// flush rerun once afterwards and see the fully applied state.
//
// State maintained by listeners, such as validator errors and parent
// aggregates, settles during the flush.
func (c *Control) GroupedChanges(fn func()) {
	frozen := c.postorder(nil)
	for _, n := range frozen {
		n.freeze++
	}
	deferEffects(func() {
		i := 0
		defer func() {
			for _, n := range frozen[i:] {
				n.freeze--
			}
		}()
		fn()
		for i < len(frozen) {
			n := frozen[i]
			i++
			n.freeze--
			if n.freeze == 0 {
				n.runChange(FlagNone)
			}
		}
	})
}

func (c *Control) runChange(flags ChangeFlags) {
	if c.freeze > 0 {
		c.pending |= flags
		return
	}
	flags |= c.pending
	c.pending = FlagNone
	if flags == FlagNone {
		return
	}
	c.version++
	for _, l := range slices.Clone(c.listeners) {
		if !l.removed && l.mask&flags != 0 {
			l.fn(c, flags)
		}
	}
}
