/*
Package controls tracks the state of hierarchical form data.

A Control is a leaf, a group of named fields or an array of elements. Every
control knows its value, its own error, and whether it is valid, dirty,
touched or disabled. Parents aggregate validity, dirtiness and touched from
their children through a listener installed on each child when it is created.

# Building controls

	person := controls.New(map[string]any{"firstName": "", "age": 0},
	    controls.WithFields(controls.Fields{
	        "firstName": controls.Def(controls.WithTag("required")),
	    }),
	)
	person.Field("age").SetValue(6)
	person.Dirty() // true

# Notifications

Mutators compute exactly which ChangeFlags changed and notify listeners whose
mask intersects them. GroupedChanges freezes a control and its descendants
until the outermost group completes, then flushes children before parents, so
a multi field assignment is seen as one change and computations rerun once.

# Dependency tracking

Reads of Value, Error, Valid, Dirty, Touched and Disabled are reported to the
ambient Collector of the current goroutine. Compute uses this to re-run a
function when, and only when, something it read changes:

	c := controls.Compute(func() {
	    fmt.Println(person.Field("firstName").Value())
	})
	defer c.Stop()

# Concurrency

A control graph belongs to one goroutine. The only asynchronous piece is
RegisterAsyncValidator, whose results are handed back through a dispatcher.
*/
package controls
