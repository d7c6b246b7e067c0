package controls

import (
	"sync/atomic"
)

// Kind discriminates the three control variants.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindGroup
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindGroup:
		return "group"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

var lastID atomic.Uint64

// Control is a node of the reactive form graph. Leaves hold a value; groups
// and arrays derive theirs from their children.
//
// A control graph is not safe for concurrent use. All mutation and
// notification happens synchronously on the calling goroutine.
type Control struct {
	id   uint64
	kind Kind

	parent     *Control
	key        string
	parentLink *Listener

	value   any
	initial any
	equals  EqualsFunc

	errors   []keyedError
	valid    bool
	touched  bool
	disabled bool
	dirty    bool

	listeners []*Listener
	freeze    int
	pending   ChangeFlags
	version   uint64

	element         any
	elementListener *Listener
	meta            map[string]any

	group *groupState
	array *arrayState
}

// New builds a control from an initial value. The kind is taken from the
// options (WithFields, WithElems, WithKind) or else inferred from the value:
// map[string]any becomes a group, []any an array, anything else a leaf.
func New(initial any, opts ...Option) *Control {
	return build(opts, initial)
}

// NewFrom builds a control from a definition.
func NewFrom(def Definition, initial any) *Control {
	return build(def.options(), initial)
}

func build(opts []Option, initial any) *Control {
	cfg := newConfig(opts)
	c := &Control{
		id:       lastID.Add(1),
		kind:     cfg.kindFor(initial),
		equals:   cfg.equals,
		meta:     cfg.meta,
		disabled: cfg.disabled,
		touched:  cfg.touched,
		valid:    true,
	}

	switch c.kind {
	case KindGroup:
		c.initGroup(cfg, asRecord(initial))
	case KindArray:
		c.initArray(cfg, asList(initial))
	default:
		c.value = initial
		c.initial = initial
	}

	for _, v := range cfg.validators {
		c.installValidator(v.key, v.fn)
	}
	return c
}

// ID is unique for the life of the process and never reused.
func (c *Control) ID() uint64 { return c.id }

// Kind reports the variant of c.
func (c *Control) Kind() Kind { return c.kind }

// Parent is nil for a root or a control removed from its array.
func (c *Control) Parent() *Control { return c.parent }

// Value returns the current value. For groups this is a fresh map built from
// the children, for arrays a fresh slice.
func (c *Control) Value() any {
	collect(c, FlagValue)
	return c.rawValue()
}

func (c *Control) rawValue() any {
	switch c.kind {
	case KindGroup:
		return c.groupValue()
	case KindArray:
		return c.arrayValue()
	default:
		return c.value
	}
}

// InitialValue returns the value dirtiness is measured against. Tracked reads
// follow both value and dirty changes, since a new initial value raises one
// or the other.
func (c *Control) InitialValue() any {
	collect(c, FlagValue|FlagDirty)
	switch c.kind {
	case KindGroup:
		out := make(map[string]any, len(c.group.names))
		for _, name := range c.group.names {
			out[name] = c.group.fields[name].InitialValue()
		}
		return out
	case KindArray:
		out := make([]any, 0, len(c.array.elems))
		for _, e := range c.array.elems {
			out = append(out, e.InitialValue())
		}
		return out
	default:
		return c.initial
	}
}

func (c *Control) Valid() bool {
	collect(c, FlagValid)
	return c.valid
}

func (c *Control) Dirty() bool {
	collect(c, FlagDirty)
	return c.dirty
}

func (c *Control) Touched() bool {
	collect(c, FlagTouched)
	return c.touched
}

func (c *Control) Disabled() bool {
	collect(c, FlagDisabled)
	return c.disabled
}

// SetValue assigns v. Leaves compare by reference; groups and arrays assign
// each child in one grouped change.
func (c *Control) SetValue(v any) {
	c.setValue(v, false)
}

// SetValueInitial assigns v and also records it as the initial value, so the
// control ends up clean.
func (c *Control) SetValueInitial(v any) {
	c.setValue(v, true)
}

func (c *Control) setValue(v any, markInitial bool) {
	switch c.kind {
	case KindGroup:
		c.setGroupValue(v, markInitial)
	case KindArray:
		c.setArrayValue(v, markInitial)
	default:
		c.setLeafValue(v, markInitial)
	}
}

func (c *Control) setLeafValue(v any, markInitial bool) {
	var flags ChangeFlags
	if !c.same(c.value, v) {
		c.value = v
		flags |= FlagValue
	}
	if markInitial {
		c.initial = v
	}
	flags |= c.updateDirty(!c.same(c.value, c.initial))
	c.runChange(flags)
}

// MarkAsClean records the current value as the initial value, here and in
// every descendant.
func (c *Control) MarkAsClean() {
	switch c.kind {
	case KindLeaf:
		c.initial = c.value
		c.runChange(c.updateDirty(false))
	default:
		c.GroupedChanges(func() {
			if c.kind == KindArray {
				c.array.initialLen = len(c.array.elems)
			}
			c.visitChildren(func(child *Control) bool {
				child.MarkAsClean()
				return false
			}, false, false)
			c.runChange(c.refreshAggregates())
		})
	}
}

// SetTouched sets touched on c and all of its descendants.
func (c *Control) SetTouched(touched bool) {
	c.GroupedChanges(func() {
		c.visitChildren(func(n *Control) bool {
			n.runChange(n.updateTouched(touched))
			return false
		}, true, true)
	})
}

// SetDisabled sets disabled on c and all of its descendants. Disabled never
// propagates upwards.
func (c *Control) SetDisabled(disabled bool) {
	c.GroupedChanges(func() {
		c.visitChildren(func(n *Control) bool {
			if n.disabled != disabled {
				n.disabled = disabled
				n.runChange(FlagDisabled)
			}
			return false
		}, true, true)
	})
}

// Validate asks every validator on c and its descendants to run again.
func (c *Control) Validate() {
	c.GroupedChanges(func() {
		c.visitChildren(func(n *Control) bool {
			n.runChange(FlagValidate)
			return false
		}, true, true)
	})
}

func (c *Control) updateDirty(dirty bool) ChangeFlags {
	if c.dirty == dirty {
		return FlagNone
	}
	c.dirty = dirty
	return FlagDirty
}

func (c *Control) updateTouched(touched bool) ChangeFlags {
	if c.touched == touched {
		return FlagNone
	}
	c.touched = touched
	return FlagTouched
}

func (c *Control) updateValid() ChangeFlags {
	valid := c.errorMessage() == "" && c.childrenValid()
	if c.valid == valid {
		return FlagNone
	}
	c.valid = valid
	return FlagValid
}

func (c *Control) same(a, b any) bool {
	if c.equals != nil {
		return c.equals(a, b)
	}
	return sameValue(a, b)
}
