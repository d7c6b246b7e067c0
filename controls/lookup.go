package controls

import "github.com/pkg/errors"

// Lookup walks path from c. String segments select group fields and int
// segments array elements. A segment of any other type is ErrBadSegment; a
// segment that does not fit the control it is applied to is ErrNotFound.
func (c *Control) Lookup(path ...any) (*Control, error) {
	cur := c
	for i, seg := range path {
		collect(cur, FlagStructure)
		switch s := seg.(type) {
		case string:
			if cur.kind != KindGroup {
				return nil, errors.Wrapf(ErrNotFound, "segment %d %q applied to %s", i, s, cur.kind)
			}
			next, ok := cur.group.fields[s]
			if !ok {
				return nil, errors.Wrapf(ErrNotFound, "segment %d: no field %q", i, s)
			}
			cur = next
		case int:
			if cur.kind != KindArray {
				return nil, errors.Wrapf(ErrNotFound, "segment %d [%d] applied to %s", i, s, cur.kind)
			}
			if s < 0 || s >= len(cur.array.elems) {
				return nil, errors.Wrapf(ErrNotFound, "segment %d: index %d out of range %d", i, s, len(cur.array.elems))
			}
			cur = cur.array.elems[s]
		default:
			return nil, errors.Wrapf(ErrBadSegment, "segment %d has type %T", i, seg)
		}
	}
	return cur, nil
}

// LookupControl is Lookup without the reason: nil when the path does not
// resolve.
func (c *Control) LookupControl(path ...any) *Control {
	found, err := c.Lookup(path...)
	if err != nil {
		return nil
	}
	return found
}
