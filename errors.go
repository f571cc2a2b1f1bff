package promise

import "fmt"

// panic messages
const (
	nilCallbackPanicMsg = "promise: the provided callback is nil"
	nilPromisePanicMsg  = "promise: the provided promise is nil"
)

// PanicError wraps a panic that happened inside a chained callback.
// The panic is caught at the operator boundary and converted into a
// rejection of the derived promise, so it never unwinds across the
// scheduling boundary.
type PanicError struct {
	// V is the value the panic was raised with.
	V any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("promise: callback panicked: %v", e.V)
}
