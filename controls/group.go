package controls

import (
	"fmt"
	"slices"
)

type groupState struct {
	names  []string
	fields map[string]*Control
}

func (c *Control) initGroup(cfg *config, initial map[string]any) {
	names := cfg.fieldNames(initial)
	c.group = &groupState{
		names:  names,
		fields: make(map[string]*Control, len(names)),
	}
	for _, name := range names {
		c.group.fields[name] = c.adopt(NewFrom(cfg.fieldDef(name), initial[name]), name)
	}
	c.refreshAggregates()
	if c.childTouched() {
		c.touched = true
	}
}

func (c *Control) childTouched() bool {
	return c.visitChildren(func(child *Control) bool { return child.touched }, false, false)
}

func (c *Control) setGroupValue(v any, markInitial bool) {
	record := asRecord(v)
	c.GroupedChanges(func() {
		for _, name := range c.group.names {
			c.group.fields[name].setValue(record[name], markInitial)
		}
	})
}

func (c *Control) groupValue() map[string]any {
	out := make(map[string]any, len(c.group.names))
	for _, name := range c.group.names {
		out[name] = c.group.fields[name].rawValue()
	}
	return out
}

// ToObject rebuilds the group's record from its children.
func (c *Control) ToObject() map[string]any {
	c.mustKind(KindGroup, "ToObject")
	collect(c, FlagValue)
	return c.groupValue()
}

// Field returns the named child, or nil if the group has no such field.
func (c *Control) Field(name string) *Control {
	c.mustKind(KindGroup, "Field")
	collect(c, FlagStructure)
	return c.group.fields[name]
}

// Fields returns a copy of the group's children by name.
func (c *Control) Fields() map[string]*Control {
	c.mustKind(KindGroup, "Fields")
	collect(c, FlagStructure)
	out := make(map[string]*Control, len(c.group.fields))
	for name, f := range c.group.fields {
		out[name] = f
	}
	return out
}

// FieldNames returns the field names in creation order.
func (c *Control) FieldNames() []string {
	c.mustKind(KindGroup, "FieldNames")
	collect(c, FlagStructure)
	return slices.Clone(c.group.names)
}

// AddFields extends a group after construction. Fields that already exist
// are left untouched. New fields take their value from the current record
// value, which is nil.
func (c *Control) AddFields(fields Fields) {
	c.mustKind(KindGroup, "AddFields")
	added := newConfig([]Option{WithFields(fields)}).fieldNames(nil)
	added = slices.DeleteFunc(added, func(name string) bool {
		_, ok := c.group.fields[name]
		return ok
	})
	if len(added) == 0 {
		return
	}
	for _, name := range added {
		c.group.fields[name] = c.adopt(NewFrom(fields[name], nil), name)
		c.group.names = append(c.group.names, name)
	}
	c.runChange(FlagValue | FlagStructure | c.refreshAggregates())
}

func asRecord(v any) map[string]any {
	switch r := v.(type) {
	case map[string]any:
		return r
	case nil:
		return nil
	default:
		log().Debug("non record value assigned to group", "type", fmt.Sprintf("%T", v))
		return nil
	}
}
