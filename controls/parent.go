package controls

const parentMask = FlagValue | FlagValid | FlagDirty | FlagTouched

// adopt wires child into c and hands down c's disabled state. The installed
// listener is the only link from a child to its parent's aggregate state.
func (c *Control) adopt(child *Control, key string) *Control {
	child.parent = c
	child.key = key
	child.parentLink = child.AddChangeListener(c.childChanged, parentMask)
	if c.disabled && !child.disabled {
		child.visitChildren(func(n *Control) bool {
			n.disabled = true
			return false
		}, true, true)
	}
	return child
}

func (c *Control) release(child *Control) {
	if child.parent != c {
		return
	}
	child.RemoveChangeListener(child.parentLink)
	child.parentLink = nil
	child.parent = nil
}

func (c *Control) childChanged(child *Control, flags ChangeFlags) {
	if child.parent != c {
		return
	}
	var changed ChangeFlags
	if flags&FlagValue != 0 {
		changed |= FlagValue
	}
	if flags&FlagValid != 0 {
		valid := child.valid && c.errorMessage() == "" && c.childrenValid()
		if valid != c.valid {
			c.valid = valid
			changed |= FlagValid
		}
	}
	if flags&FlagDirty != 0 {
		changed |= c.updateDirty(child.dirty || c.structuralDirty() || c.anyChildDirty())
	}
	if flags&FlagTouched != 0 && child.touched {
		changed |= c.updateTouched(true)
	}
	c.runChange(changed)
}

// visitChildren calls fn on c (when doSelf) and its children, descending into
// grandchildren only when recurse is set. It stops as soon as fn returns true
// and reports whether that happened.
func (c *Control) visitChildren(fn func(*Control) bool, doSelf, recurse bool) bool {
	if doSelf && fn(c) {
		return true
	}
	for _, child := range c.children() {
		if recurse {
			if child.visitChildren(fn, true, true) {
				return true
			}
			continue
		}
		if fn(child) {
			return true
		}
	}
	return false
}

// postorder appends c's descendants and then c itself to out.
func (c *Control) postorder(out []*Control) []*Control {
	for _, child := range c.children() {
		out = child.postorder(out)
	}
	return append(out, c)
}

func (c *Control) children() []*Control {
	switch c.kind {
	case KindGroup:
		out := make([]*Control, 0, len(c.group.names))
		for _, name := range c.group.names {
			out = append(out, c.group.fields[name])
		}
		return out
	case KindArray:
		return c.array.elems
	default:
		return nil
	}
}

func (c *Control) childrenValid() bool {
	return !c.visitChildren(func(child *Control) bool { return !child.valid }, false, false)
}

func (c *Control) anyChildDirty() bool {
	return c.visitChildren(func(child *Control) bool { return child.dirty }, false, false)
}

func (c *Control) structuralDirty() bool {
	if c.kind == KindArray {
		return len(c.array.elems) != c.array.initialLen
	}
	return false
}

// refreshAggregates recomputes valid and dirty from scratch and returns the
// flags that changed.
func (c *Control) refreshAggregates() ChangeFlags {
	return c.updateValid() | c.updateDirty(c.structuralDirty() || c.anyChildDirty())
}

// Path returns the segments leading from the root to c: field names for
// group children, indexes for array elements.
func (c *Control) Path() []any {
	var path []any
	for n := c; n.parent != nil; n = n.parent {
		switch n.parent.kind {
		case KindGroup:
			path = append(path, n.key)
		case KindArray:
			path = append(path, n.parent.indexOf(n))
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
