package controls

import (
	"maps"
	"slices"
)

// EqualsFunc decides whether two values are the same for change detection.
type EqualsFunc func(a, b any) bool

// ValidatorFunc returns an error message for v, or "" when v is acceptable.
type ValidatorFunc func(v any) string

// Definition describes how to build a control: its options, and for groups and
// arrays the shape of its children. A lazy definition is resolved only when a
// control is actually created from it, which is what makes recursive shapes
// possible.
type Definition struct {
	opts []Option
	lazy func() Definition
}

// Def captures options as a reusable definition.
func Def(opts ...Option) Definition {
	return Definition{opts: opts}
}

// Lazy defers building a definition until a control needs it.
func Lazy(fn func() Definition) Definition {
	return Definition{lazy: fn}
}

func (d Definition) options() []Option {
	if d.lazy != nil {
		return d.lazy().options()
	}
	return d.opts
}

// Fields maps group field names to their definitions.
type Fields map[string]Definition

type namedValidator struct {
	key string
	fn  ValidatorFunc
}

type config struct {
	kind       Kind
	kindSet    bool
	fields     Fields
	elems      *Definition
	validators []namedValidator
	equals     EqualsFunc
	meta       map[string]any
	disabled   bool
	touched    bool
}

// Option configures a control at construction.
type Option func(*config)

// WithValidator installs fn under the default error key.
func WithValidator(fn ValidatorFunc) Option {
	return WithValidatorKey(DefaultErrorKey, fn)
}

// WithValidatorKey installs fn under key so that it can set and clear its
// message independently of other validators on the same control.
func WithValidatorKey(key string, fn ValidatorFunc) Option {
	return func(c *config) {
		c.validators = append(c.validators, namedValidator{key: key, fn: fn})
	}
}

// WithFields makes the control a group with the given field definitions.
func WithFields(fields Fields) Option {
	return func(c *config) {
		if c.fields == nil {
			c.fields = Fields{}
		}
		maps.Copy(c.fields, fields)
	}
}

// WithElems makes the control an array whose elements are built from elem.
func WithElems(elem Definition) Option {
	return func(c *config) {
		c.elems = &elem
	}
}

// WithKind forces the control kind instead of inferring it from the initial
// value, e.g. to keep a []any as an opaque leaf value.
func WithKind(k Kind) Option {
	return func(c *config) {
		c.kind = k
		c.kindSet = true
	}
}

// WithEquals overrides the reference equality used for change detection.
func WithEquals(fn EqualsFunc) Option {
	return func(c *config) {
		c.equals = fn
	}
}

// WithMeta seeds the metadata bag.
func WithMeta(meta map[string]any) Option {
	return func(c *config) {
		if c.meta == nil {
			c.meta = map[string]any{}
		}
		maps.Copy(c.meta, meta)
	}
}

// WithDisabled starts the control disabled.
func WithDisabled(disabled bool) Option {
	return func(c *config) {
		c.disabled = disabled
	}
}

// WithTouched starts the control touched.
func WithTouched(touched bool) Option {
	return func(c *config) {
		c.touched = touched
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (cfg *config) kindFor(initial any) Kind {
	switch {
	case cfg.kindSet:
		return cfg.kind
	case cfg.fields != nil:
		return KindGroup
	case cfg.elems != nil:
		return KindArray
	}
	switch initial.(type) {
	case map[string]any:
		return KindGroup
	case []any:
		return KindArray
	}
	return KindLeaf
}

// fieldNames is the union of declared fields and the keys of the initial
// record, sorted so that children are always created in the same order.
func (cfg *config) fieldNames(initial map[string]any) []string {
	names := slices.Collect(maps.Keys(cfg.fields))
	for k := range initial {
		if _, ok := cfg.fields[k]; !ok {
			names = append(names, k)
		}
	}
	slices.Sort(names)
	return names
}

func (cfg *config) fieldDef(name string) Definition {
	if d, ok := cfg.fields[name]; ok {
		return d
	}
	return Def()
}

func (cfg *config) elemDef() Definition {
	if cfg.elems != nil {
		return *cfg.elems
	}
	return Def()
}
