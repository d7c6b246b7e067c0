package controls

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

type arrayState struct {
	elems      []*Control
	elem       Definition
	initialLen int
}

// ElementFactory builds a new, already wired element holding v.
type ElementFactory func(v any) *Control

func (c *Control) initArray(cfg *config, initial []any) {
	c.array = &arrayState{elem: cfg.elemDef()}
	for _, v := range initial {
		c.array.elems = append(c.array.elems, c.newElement(v))
	}
	c.array.initialLen = len(c.array.elems)
	c.refreshAggregates()
}

func (c *Control) newElement(v any) *Control {
	return c.adopt(NewFrom(c.array.elem, v), "")
}

// setArrayValue reconciles the children with vals: existing elements keep
// their identity and receive the value at their index, missing ones are
// created clean, surplus ones are dropped from the tail.
func (c *Control) setArrayValue(v any, markInitial bool) {
	vals := asList(v)
	a := c.array
	c.GroupedChanges(func() {
		var flags ChangeFlags
		if len(a.elems) != len(vals) {
			flags |= FlagValue | FlagStructure
		}
		for i, ev := range vals {
			if i < len(a.elems) {
				a.elems[i].setValue(ev, markInitial)
				continue
			}
			a.elems = append(a.elems, c.newElement(ev))
		}
		if len(a.elems) > len(vals) {
			for _, dropped := range a.elems[len(vals):] {
				c.release(dropped)
			}
			clear(a.elems[len(vals):])
			a.elems = a.elems[:len(vals)]
		}
		if markInitial {
			a.initialLen = len(a.elems)
		}
		c.runChange(flags | c.refreshAggregates())
	})
}

func (c *Control) arrayValue() []any {
	out := make([]any, 0, len(c.array.elems))
	for _, e := range c.array.elems {
		out = append(out, e.rawValue())
	}
	return out
}

func (c *Control) indexOf(child *Control) int {
	return slices.Index(c.array.elems, child)
}

// Elements returns a copy of the array's children.
func (c *Control) Elements() []*Control {
	c.mustKind(KindArray, "Elements")
	collect(c, FlagStructure)
	return slices.Clone(c.array.elems)
}

// Element returns the child at i, or nil when i is out of range.
func (c *Control) Element(i int) *Control {
	c.mustKind(KindArray, "Element")
	collect(c, FlagStructure)
	if i < 0 || i >= len(c.array.elems) {
		return nil
	}
	return c.array.elems[i]
}

// Len returns the number of elements.
func (c *Control) Len() int {
	c.mustKind(KindArray, "Len")
	collect(c, FlagStructure)
	return len(c.array.elems)
}

// Add creates an element holding v and inserts it at index, or appends it
// when no index is given. The new element starts clean; the array is marked
// touched.
func (c *Control) Add(v any, index ...int) *Control {
	c.mustKind(KindArray, "Add")
	at := len(c.array.elems)
	if len(index) > 0 {
		at = index[0]
	}
	if at < 0 || at > len(c.array.elems) {
		panic(errors.Wrapf(ErrNotFound, "insert at %d into array of %d", at, len(c.array.elems)))
	}
	child := c.newElement(v)
	c.replaceElements(slices.Insert(slices.Clone(c.array.elems), at, child))
	return child
}

// Remove drops the element at index.
func (c *Control) Remove(index int) {
	c.mustKind(KindArray, "Remove")
	if index < 0 || index >= len(c.array.elems) {
		panic(errors.Wrapf(ErrNotFound, "remove %d from array of %d", index, len(c.array.elems)))
	}
	c.replaceElements(slices.Delete(slices.Clone(c.array.elems), index, index+1))
}

// Update lets fn rearrange the elements. fn receives a copy of the current
// children and a factory for new ones; the returned slice becomes the new
// element list. Returning the argument unchanged is a no-op. Every returned
// control must be a current element or come from the factory, and appear
// once. Anything else panics with ErrNotFound and leaves the array as it was.
func (c *Control) Update(fn func(children []*Control, factory ElementFactory) []*Control) {
	c.mustKind(KindArray, "Update")
	current := slices.Clone(c.array.elems)
	var created []*Control
	factory := func(v any) *Control {
		child := c.newElement(v)
		created = append(created, child)
		return child
	}
	next := fn(current, factory)
	for _, child := range created {
		if !slices.Contains(next, child) {
			c.release(child)
		}
	}
	for i, child := range next {
		if child == nil || child.parent != c || slices.Contains(next[:i], child) {
			for _, made := range created {
				c.release(made)
			}
			panic(errors.Wrapf(ErrNotFound, "element %d returned by update is not owned by array %d", i, c.id))
		}
	}
	if sameValue(next, current) && slices.Equal(next, c.array.elems) {
		return
	}
	c.replaceElements(next)
}

// Move relocates the element at from so that it ends up at index to.
func (c *Control) Move(from, to int) {
	c.mustKind(KindArray, "Move")
	n := len(c.array.elems)
	if from < 0 || from >= n || to < 0 || to >= n {
		panic(errors.Wrapf(ErrNotFound, "move %d to %d in array of %d", from, to, n))
	}
	if from == to {
		return
	}
	c.Update(func(children []*Control, _ ElementFactory) []*Control {
		moved := children[from]
		children = slices.Delete(children, from, from+1)
		return slices.Insert(children, to, moved)
	})
}

func (c *Control) replaceElements(next []*Control) {
	for _, old := range c.array.elems {
		if !slices.Contains(next, old) {
			c.release(old)
		}
	}
	c.array.elems = next
	c.runChange(FlagValue | FlagStructure | c.updateTouched(true) | c.refreshAggregates())
}

func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case nil:
		return nil
	default:
		log().Debug("non list value assigned to array", "type", fmt.Sprintf("%T", v))
		return nil
	}
}
