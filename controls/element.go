package controls

// ValidityReporter is implemented by element references that can display a
// native validation message.
type ValidityReporter interface {
	SetCustomValidity(msg string)
}

// SetElementRef stores an opaque reference for an external renderer. If el
// is a ValidityReporter it receives the control's error now and whenever it
// changes.
func (c *Control) SetElementRef(el any) {
	c.RemoveChangeListener(c.elementListener)
	c.elementListener = nil
	c.element = el

	r, ok := el.(ValidityReporter)
	if !ok {
		return
	}
	r.SetCustomValidity(c.errorMessage())
	c.elementListener = c.AddChangeListener(func(n *Control, _ ChangeFlags) {
		r.SetCustomValidity(n.errorMessage())
	}, FlagError)
}

// ElementRef returns the reference stored by SetElementRef.
func (c *Control) ElementRef() any {
	return c.element
}

// Meta returns the control's metadata bag. The map is owned by the control
// and may be modified in place.
func (c *Control) Meta() map[string]any {
	if c.meta == nil {
		c.meta = map[string]any{}
	}
	return c.meta
}

// State is a point in time copy of everything a renderer reads.
type State struct {
	Value    any
	Error    string
	Valid    bool
	Dirty    bool
	Touched  bool
	Disabled bool
	Version  uint64
}

// Snapshot reads the whole state at once.
func (c *Control) Snapshot() State {
	collect(c, FlagAll)
	return State{
		Value:    c.rawValue(),
		Error:    c.errorMessage(),
		Valid:    c.valid,
		Dirty:    c.dirty,
		Touched:  c.touched,
		Disabled: c.disabled,
		Version:  c.version,
	}
}

// Typed returns c's value as T, or the zero T when it holds something else.
func Typed[T any](c *Control) T {
	v, _ := c.Value().(T)
	return v
}
