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

import "sync/atomic"

// All returns a Promise that fulfills with the values of all ps, in the
// order they were passed, once the last of them fulfills.
//
// The first rejection or cancellation among ps resolves the returned
// promise with it right away, and requests cancellation of the remaining
// inputs, as nothing can observe their results anymore.
// With no ps, the returned promise is fulfilled with an empty slice.
//
// A cancel request on the returned promise cancels it and forwards the
// request to every input.
func All[T any](on Executor, ps ...*Promise[T]) *Promise[[]T] {
	if len(ps) == 0 {
		return Wrap[[]T](Val([]T{}))
	}
	if on == nil {
		on = Immediate()
	}

	out, res := Pair[[]T]()
	res.OnCancel(func(r Resolver[[]T]) {
		requestCancelAll(ps)
		r.Cancel()
	})

	vals := make([]T, len(ps))
	var pending atomic.Int32
	pending.Store(int32(len(ps)))

	for i, p := range ps {
		if p == nil {
			panic(nilPromisePanicMsg)
		}
		i, p := i, p
		p.OnResult(on, func(r Result[T]) {
			switch r.State() {
			case Rejected:
				if res.Reject(r.Err()) {
					requestCancelAll(ps)
				}
			case Cancelled:
				if res.Cancel() {
					requestCancelAll(ps)
				}
			default:
				// each index is written by exactly one callback, and the
				// atomic counter orders the writes before the Fulfill.
				vals[i] = r.Val()
				if pending.Add(-1) == 0 {
					res.Fulfill(vals)
				}
			}
		})
	}
	return out
}

// Race returns a Promise that mirrors the result of whichever of ps
// resolves first, whatever that result is.
//
// With cancelRest set, the first resolution also requests cancellation of
// the losing inputs. With no ps, the returned promise is cancelled.
//
// A cancel request on the returned promise cancels it and forwards the
// request to every input.
func Race[T any](on Executor, cancelRest bool, ps ...*Promise[T]) *Promise[T] {
	if len(ps) == 0 {
		return Wrap[T](nil)
	}
	if on == nil {
		on = Immediate()
	}

	out, res := Pair[T]()
	res.OnCancel(func(r Resolver[T]) {
		requestCancelAll(ps)
		r.Cancel()
	})

	for _, p := range ps {
		if p == nil {
			panic(nilPromisePanicMsg)
		}
		p := p
		p.OnResult(on, func(r Result[T]) {
			if mirrorResult(res, r) && cancelRest {
				// the winner is terminal already, requesting it is a no-op.
				requestCancelAll(ps)
			}
		})
	}
	return out
}

func requestCancelAll[T any](ps []*Promise[T]) {
	for _, p := range ps {
		p.RequestCancel()
	}
}
