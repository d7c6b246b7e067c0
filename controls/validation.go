package controls

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// DefaultErrorKey is the key used by SetError and WithValidator.
const DefaultErrorKey = "default"

type keyedError struct {
	key string
	msg string
}

// Error returns the control's own message: the first non-empty keyed error in
// the order the keys were first set. Children's errors are not included.
func (c *Control) Error() string {
	collect(c, FlagError)
	return c.errorMessage()
}

func (c *Control) errorMessage() string {
	for _, e := range c.errors {
		if e.msg != "" {
			return e.msg
		}
	}
	return ""
}

// Errors returns every keyed message currently set.
func (c *Control) Errors() map[string]string {
	collect(c, FlagError)
	out := make(map[string]string, len(c.errors))
	for _, e := range c.errors {
		out[e.key] = e.msg
	}
	return out
}

// SetError sets the message under DefaultErrorKey. An empty message clears it.
func (c *Control) SetError(msg string) {
	c.SetErrorKey(DefaultErrorKey, msg)
}

// SetErrorKey sets the message under key. An empty message clears it.
func (c *Control) SetErrorKey(key, msg string) {
	i := slices.IndexFunc(c.errors, func(e keyedError) bool { return e.key == key })
	switch {
	case i < 0 && msg == "":
		return
	case i < 0:
		c.errors = append(c.errors, keyedError{key: key, msg: msg})
	case c.errors[i].msg == msg:
		return
	case msg == "":
		c.errors = slices.Delete(c.errors, i, i+1)
	default:
		c.errors[i].msg = msg
	}
	c.runChange(FlagError | c.updateValid())
}

// SetErrors replaces all keyed messages at once.
func (c *Control) SetErrors(errs map[string]string) {
	var next []keyedError
	for _, key := range slices.Sorted(maps.Keys(errs)) {
		if errs[key] != "" {
			next = append(next, keyedError{key: key, msg: errs[key]})
		}
	}
	if slices.Equal(next, c.errors) {
		return
	}
	c.errors = next
	c.runChange(FlagError | c.updateValid())
}

// ClearErrors removes every message on c and its descendants.
func (c *Control) ClearErrors() {
	c.GroupedChanges(func() {
		c.visitChildren(func(n *Control) bool {
			n.SetErrors(nil)
			return false
		}, true, true)
	})
}

// installValidator keeps key in sync with fn(value). It runs once straight
// away so the control starts with the right validity. A panicking validator
// marks its own key invalid; it never interrupts the notification it runs in.
func (c *Control) installValidator(key string, fn ValidatorFunc) {
	run := func(n *Control, _ ChangeFlags) {
		n.SetErrorKey(key, runValidator(n, key, fn))
	}
	c.AddChangeListener(run, FlagValue|FlagValidate)
	run(c, FlagValidate)
}

func runValidator(n *Control, key string, fn ValidatorFunc) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("validator failed: %v", r)
			log().Error("validator panicked", "path", PathString(n.Path()), "key", key, "panic", r)
		}
	}()
	untracked(func() { msg = fn(n.rawValue()) })
	return msg
}

var validate = validator.New()

// WithTag validates the value against a go-playground/validator tag such as
// "required,email".
func WithTag(tag string) Option {
	return WithValidatorKey("tag", TagValidator(tag))
}

// TagValidator builds a ValidatorFunc from a go-playground/validator tag.
// The message names the first failing rule.
func TagValidator(tag string) ValidatorFunc {
	return func(v any) string {
		err := validate.Var(v, tag)
		if err == nil {
			return ""
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Sprintf("failed on '%s'", verrs[0].Tag())
		}
		return err.Error()
	}
}
