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

// Promise is the read/observe-capability handle over a resolution cell.
// It registers continuations, requests cancellation, and carries the
// bookkeeping that decides when an unobserved promise chain cancels
// itself upward.
//
// A Promise must be created by one of the constructors or chaining
// operators of this package. The zero value is not usable.
type Promise[T any] struct {
	c *cell[T]

	released atomic.Bool
}

// Pair returns a new pending Promise along with its Resolver.
func Pair[T any]() (*Promise[T], Resolver[T]) {
	c := newCell[T]()
	return &Promise[T]{c: c}, Resolver[T]{c: c}
}

// New returns a new Promise, and schedules fn on the on Executor with the
// promise's Resolver.
// If on is nil, the Immediate executor is used, and fn runs inline before
// New returns.
func New[T any](on Executor, fn func(Resolver[T])) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	if on == nil {
		on = Immediate()
	}
	p, r := Pair[T]()
	on.Schedule(func() { fn(r) })
	return p
}

// NewDeferred returns a new delayed Promise whose work hasn't started
// yet. fn is scheduled on the on Executor at the first observation of the
// promise: a continuation, a blocking read, or a chained operator.
//
// Requesting cancellation of a delayed promise is recorded, and the
// request is delivered to the cancel handlers only once the work starts.
func NewDeferred[T any](on Executor, fn func(Resolver[T])) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	if on == nil {
		on = Immediate()
	}
	return &Promise[T]{c: newDelayedCell[T](on, fn)}
}

// Wrap returns an already-resolved Promise holding res.
// A nil res, holding neither a value nor an error, wraps into a
// cancelled Promise.
func Wrap[T any](res Result[T]) *Promise[T] {
	p, r := Pair[T]()
	if res == nil {
		r.Cancel()
		return p
	}
	switch res.State() {
	case Rejected:
		r.Reject(res.Err())
	case Cancelled:
		r.Cancel()
	default:
		r.Fulfill(res.Val())
	}
	return p
}

// OnResult registers fn to observe the final result of the promise,
// scheduled on the on Executor.
//
// fn runs exactly once, regardless of whether the promise resolves
// before or after the registration, and regardless of concurrent
// registrations from other goroutines. Callbacks registered before
// resolution are delivered in registration order.
//
// OnResult doesn't join the cancellation-propagation accounting: merely
// observing a promise never keeps it from auto-cancelling.
func (p *Promise[T]) OnResult(on Executor, fn func(Result[T])) {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	if on == nil {
		on = Immediate()
	}
	p.c.subscribeResult(func(res Result[T]) {
		on.Schedule(func() { fn(res) })
	})
}

// RequestCancel asks the promise's owner to cancel it, firing every
// registered cancel handler, and propagates the loss of interest to the
// promise's parent, if any.
//
// It's fire-and-forget and advisory: it doesn't block, and it doesn't
// guarantee the promise ultimately resolves as cancelled, as the owner
// may still fulfill or reject it.
func (p *Promise[T]) RequestCancel() {
	p.c.requestCancel()
}

// Release stands in for the handle going out of scope: it seals the
// observer accounting, so no further children can join it.
//
// The handle itself holds no share of that accounting; only derived
// children do. If no children remain at the seal, or once the last one
// gives up after it, the promise requests its own cancellation upward,
// and, if still unresolved, it's force-resolved to cancelled so that no
// registered callback is silently lost.
//
// Release is idempotent. Using the promise after releasing it is a
// mistake; late registrations are treated as unobserved.
func (p *Promise[T]) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	p.c.sealObservers()
}

// Peek returns the promise's result, if it's already resolved.
// It never blocks, and a resolution that's still in flight reads as
// pending.
func (p *Promise[T]) Peek() (res Result[T], ok bool) {
	if p.c.publicState() == Pending {
		return nil, false
	}
	return p.c.finalRes(), true
}

// State returns the externally visible state of the promise.
// A cancel request that wasn't resolved yet still reads as Pending.
func (p *Promise[T]) State() State {
	return p.c.publicState()
}

// Res blocks until the promise is resolved, and returns its result.
func (p *Promise[T]) Res() Result[T] {
	done := make(chan Result[T], 1)
	p.c.subscribeResult(func(res Result[T]) {
		done <- res
	})
	return <-done
}

// Wait blocks until the promise is resolved.
func (p *Promise[T]) Wait() {
	p.Res()
}

// WaitChan returns a newly created channel that's closed once the promise
// is resolved.
// If it's called on a resolved promise, the channel is closed before it's
// returned.
func (p *Promise[T]) WaitChan() <-chan struct{} {
	done := make(chan struct{})
	p.c.subscribeResult(func(Result[T]) {
		close(done)
	})
	return done
}
