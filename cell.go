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

import (
	"sync/atomic"

	"github.com/rhkader/promise/internal/cblist"
	"github.com/rhkader/promise/internal/state"
)

// cell is the resolution cell shared by a Promise and its Resolver.
//
// All mutation goes through atomic transitions on the state word, atomic
// pushes/drains on the two callback lists, and atomic updates of the
// observer count. No mutex is ever held, and in particular none is held
// while a callback runs, so callbacks can freely re-enter the package.
type cell[T any] struct {
	state state.Word
	obs   state.Observers

	// res holds the result of the cell.
	// written once, inside the Resolving fence. A direct cancellation
	// leaves it nil, which finalRes reads back as the cancelled result.
	//
	// don't read it unless the state is known to be terminal.
	res Result[T]

	// results holds the pending result observers, drained exactly once
	// when the cell reaches a terminal state.
	results cblist.List[func(Result[T])]

	// cancels holds the pending cancel-request handlers, drained exactly
	// once when a cancel request is delivered, or discarded when the cell
	// resolves with a value or an error.
	cancels cblist.List[func(Resolver[T])]

	// start is the deferred work of a Delayed cell, kicked off on startOn
	// when the cell is promoted by its first observation.
	start   func(Resolver[T])
	startOn Executor

	// ignoreCancel marks a mirror whose cancel requests are no-ops.
	ignoreCancel bool

	// detach reports this cell's loss of interest to its parent cell.
	// it's set before the cell is shared between goroutines, and called
	// at most once, guarded by gaveUp.
	detach func()
	gaveUp atomic.Bool
}

func newCell[T any]() *cell[T] {
	return &cell[T]{obs: state.NewObservers(0)}
}

func newDelayedCell[T any](on Executor, start func(Resolver[T])) *cell[T] {
	c := newCell[T]()
	c.state = state.NewDelayed()
	c.start = start
	c.startOn = on
	return c
}

// finalRes returns the result of a terminal cell.
func (c *cell[T]) finalRes() Result[T] {
	if c.res == nil {
		return cancelledResult[T]{}
	}
	return c.res
}

// publicState collapses the internal phases into the externally visible
// state. The Resolving fence and the Cancelling phase both read as Pending.
func (c *cell[T]) publicState() State {
	s := c.state.Load()
	switch {
	case state.IsCancelled(s):
		return Cancelled
	case state.IsResolved(s):
		return c.finalRes().State()
	default:
		return Pending
	}
}

// subscribeResult registers fn to be called exactly once with the cell's
// final result.
// If the cell already drained its result list, fn is invoked inline,
// which is indistinguishable from the queued case except for timing.
func (c *cell[T]) subscribeResult(fn func(Result[T])) {
	c.promote()
	if !c.results.Push(fn) {
		fn(c.finalRes())
	}
}

// subscribeCancel registers fn to be called once a cancel request is
// delivered to this cell.
// If the request was already delivered, or the cell is cancelled, fn is
// invoked inline. If the cell resolved with a value or an error, fn is
// dropped, as no request can be delivered anymore.
func (c *cell[T]) subscribeCancel(fn func(Resolver[T])) {
	if c.cancels.Push(fn) {
		return
	}
	s := c.state.Load()
	if state.IsCancelling(s) || state.IsCancelled(s) {
		fn(Resolver[T]{c: c})
	}
}

// promote moves a Delayed cell into Empty, kicks off its deferred work,
// and replays a cancel request that arrived while the cell was delayed.
func (c *cell[T]) promote() {
	deferredCancel, promoted := c.state.Promote()
	if !promoted {
		return
	}

	// only the promoting goroutine reaches this point.
	start, on := c.start, c.startOn
	c.start, c.startOn = nil, nil
	if start != nil {
		on.Schedule(func() {
			start(Resolver[T]{c: c})
		})
	}
	if deferredCancel {
		c.requestCancel()
	}
}

// resolveTo resolves the cell to a value or an error, through the
// two-step Resolving fence.
// It returns false if another resolution already won.
func (c *cell[T]) resolveTo(res Result[T]) bool {
	if !c.state.BeginResolve() {
		return false
	}
	c.res = res
	c.state.CompleteResolve()

	// the pending cancel handlers can never be called now, discard them.
	c.cancels.Drain()
	c.drainResults()
	return true
}

// cancel resolves the cell to cancelled, in a single transition, as
// there's no payload to fence.
// It returns false if another resolution already won.
func (c *cell[T]) cancel() bool {
	if !c.state.CancelDirect() {
		return false
	}
	c.fireCancelHandlers()
	c.drainResults()
	return true
}

// requestCancel marks the intent to cancel the cell and delivers the
// request to the registered cancel handlers.
// It never resolves the cell by itself: any of the handlers may, and
// commonly one of them will, resolve it to cancelled.
// It also gives up this cell's interest in its parent, if any.
func (c *cell[T]) requestCancel() {
	if c.ignoreCancel {
		return
	}
	if c.state.RequestCancel() == state.ReqFire {
		c.fireCancelHandlers()
	}
	c.giveUp()
}

// cancelRequested reports whether a cancel request was delivered, is
// recorded for a delayed cell, or the cell is already cancelled.
func (c *cell[T]) cancelRequested() bool {
	s := c.state.Load()
	return state.IsCancelling(s) || state.IsCancelled(s) || state.IsCancelDeferred(s)
}

func (c *cell[T]) fireCancelHandlers() {
	fns := c.cancels.Drain()
	if len(fns) == 0 {
		return
	}
	r := Resolver[T]{c: c}
	var panicV any
	panicked := false
	for _, fn := range fns {
		// protect the iteration, so that a panicking handler doesn't
		// prevent the remaining handlers from running.
		func() {
			defer func() {
				if v := recover(); v != nil && !panicked {
					panicked, panicV = true, v
				}
			}()
			fn(r)
		}()
	}
	if panicked {
		panic(panicV)
	}
}

// drainResults delivers the final result to every registered observer, in
// registration order.
// It's reached exactly once per cell, by whichever goroutine won the
// terminal transition.
func (c *cell[T]) drainResults() {
	fns := c.results.Drain()
	if len(fns) == 0 {
		return
	}
	res := c.finalRes()
	var panicV any
	panicked := false
	for _, fn := range fns {
		// protect the iteration: a failing observer must not prevent the
		// observers registered after it from running. The first panic is
		// re-raised once the drain is complete.
		func() {
			defer func() {
				if v := recover(); v != nil && !panicked {
					panicked, panicV = true, v
				}
			}()
			fn(res)
		}()
	}
	if panicked {
		panic(panicV)
	}
}

// addObserver joins the cancellation-propagation accounting of this cell.
// It returns false if the accounting is sealed, in which case the caller
// must not call observerGone later.
func (c *cell[T]) addObserver() bool {
	return c.obs.Add()
}

// observerGone records that one of the counted children gave up on this
// cell. When the last one does, nobody is interested in the result
// anymore: the cell requests its own cancellation and gives up on its
// parent in turn. If the accounting was already sealed, the cell is also
// torn down, so that no registered callback is silently lost.
func (c *cell[T]) observerGone() {
	none, sealed := c.obs.Remove()
	if !none {
		return
	}
	c.requestCancel()
	// requestCancel climbs by itself, except on an ignoreCancel mirror,
	// whose share must still be returned to its parent.
	c.giveUp()
	if sealed {
		c.teardown()
	}
}

// sealObservers closes the accounting. If nothing is observing the cell
// at that point, it's torn down immediately.
func (c *cell[T]) sealObservers() {
	if !c.obs.Seal() {
		return
	}
	c.requestCancel()
	c.giveUp()
	c.teardown()
}

// teardown force-resolves a still-unresolved cell to cancelled, after its
// cancel handlers had their chance to resolve it. The registered result
// observers still fire, with the cancelled result.
func (c *cell[T]) teardown() {
	c.cancel()
}

// giveUp reports this cell's loss of interest to its parent, at most once.
func (c *cell[T]) giveUp() {
	if !c.gaveUp.CompareAndSwap(false, true) {
		return
	}
	if c.detach != nil {
		c.detach()
	}
}
