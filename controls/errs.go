package controls

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned by Lookup when a path segment does not resolve.
	ErrNotFound = errors.New("control not found")
	// ErrBadSegment is returned by Lookup for a segment that is neither a
	// field name nor an element index.
	ErrBadSegment = errors.New("invalid path segment")
	// ErrWrongKind is the panic value for a kind specific operation invoked on
	// a control of another kind, e.g. Add on a leaf.
	ErrWrongKind = errors.New("operation not supported by control kind")
	// ErrComputeLoop is the panic value of a computation that keeps
	// invalidating itself.
	ErrComputeLoop = errors.New("computation did not settle")
)

func (c *Control) mustKind(k Kind, op string) {
	if c.kind != k {
		panic(errors.Wrapf(ErrWrongKind, "%s on %s control %d", op, c.kind, c.id))
	}
}
