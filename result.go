// Copyright 2024 Rami Khader(rhkader)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package promise

import "fmt"

// Result is a container for the outcome of a promise.
//
// A Result holds exactly one of three things: a value, an error, or
// nothing at all, which represents cancellation.
// It never holds both a value and an error.
type Result[T any] interface {
	Val() T
	Err() error
	State() State
}

// Val returns a fulfilled Result holding val.
func Val[T any](val T) Result[T] {
	return valResult[T]{val: val}
}

// Err returns a rejected Result holding err.
// If err is nil, it returns a fulfilled Result holding the zero value,
// as errors are just values, and a nil error means success.
func Err[T any](err error) Result[T] {
	if err == nil {
		return valResult[T]{}
	}
	return errResult[T]{err: err}
}

type valResult[T any] struct{ val T }
type errResult[T any] struct{ err error }
type cancelledResult[T any] struct{}

func (r valResult[T]) Val() T           { return r.val }
func (r errResult[T]) Val() (v T)       { return v }
func (r cancelledResult[T]) Val() (v T) { return v }

func (r valResult[T]) Err() error       { return nil }
func (r errResult[T]) Err() error       { return r.err }
func (r cancelledResult[T]) Err() error { return nil }

func (r valResult[T]) State() State       { return Fulfilled }
func (r errResult[T]) State() State       { return Rejected }
func (r cancelledResult[T]) State() State { return Cancelled }

func (r valResult[T]) String() string {
	return fmt.Sprintf("fulfilled: %v", r.val)
}
func (r errResult[T]) String() string {
	return fmt.Sprintf("rejected: %s", r.err.Error())
}
func (r cancelledResult[T]) String() string {
	return "cancelled"
}

// State describes the externally visible state of a promise or a Result.
type State int

const (
	// the order here matter
	Pending State = iota
	Fulfilled
	Rejected
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	default:
		return "<unknown>"
	}
}
