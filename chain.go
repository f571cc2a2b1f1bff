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

// ChainOption configures a single chaining operator call.
type ChainOption func(*chainConfig)

// WithToken ties the continuation to tok.
// The token's generation is captured at registration time; if the token
// was invalidated by the time the continuation would run, the user
// callback is skipped and the derived promise resolves as cancelled,
// even if the source promise resolved before the registration.
func WithToken(tok *InvalidationToken) ChainOption {
	return func(cfg *chainConfig) {
		cfg.token = tok
	}
}

// Unobserved keeps the registration out of the cancellation-propagation
// accounting: the derived promise never counts as a child of the source,
// so creating it doesn't keep the source from auto-cancelling, and
// releasing it doesn't push the source towards cancellation.
func Unobserved() ChainOption {
	return func(cfg *chainConfig) {
		cfg.unobserved = true
	}
}

type chainConfig struct {
	token      *InvalidationToken
	unobserved bool

	// internal knob used by the IgnoringCancel mirror.
	ignoreCancel bool
}

// chain is the one shape every chaining operator follows: derive a new
// promise+resolver pair, join the source's observer accounting, and
// register a result observer on the source that runs apply on the
// configured Executor to resolve the derived promise.
func chain[T, U any](
	p *Promise[T],
	on Executor,
	opts []ChainOption,
	apply func(Result[T], Resolver[U]),
) *Promise[U] {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	if on == nil {
		on = Immediate()
	}

	var cfg chainConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	var gen uint64
	if cfg.token != nil {
		gen = cfg.token.generation()
	}

	counted := !cfg.unobserved && p.c.addObserver()

	child := &Promise[U]{c: newCell[U]()}
	child.c.ignoreCancel = cfg.ignoreCancel
	parent := p.c
	child.c.detach = func() {
		if counted {
			parent.observerGone()
		}
	}
	res := Resolver[U]{c: child.c}

	p.c.subscribeResult(func(r Result[T]) {
		on.Schedule(func() {
			if cfg.token != nil && cfg.token.staleSince(gen) {
				res.Cancel()
				return
			}
			apply(r, res)
		})
	})
	return child
}

// guard runs fn, converting a panic into a rejection of the derived
// promise, so that no panic ever unwinds across the scheduling boundary.
func guard[U any](res Resolver[U], fn func()) {
	defer func() {
		if v := recover(); v != nil {
			res.Reject(PanicError{V: v})
		}
	}()
	fn()
}

// mirrorResult resolves res to r, whatever r holds.
func mirrorResult[T any](res Resolver[T], r Result[T]) bool {
	switch r.State() {
	case Rejected:
		return res.Reject(r.Err())
	case Cancelled:
		return res.Cancel()
	default:
		return res.Fulfill(r.Val())
	}
}

// Map returns a Promise for the value of p transformed by fn.
//
// fn runs on the on Executor, and only if p fulfills; an error or a
// cancellation passes through to the derived promise untouched.
// A panicking fn rejects the derived promise with a PanicError.
func Map[T, U any](
	p *Promise[T],
	on Executor,
	fn func(val T) (U, error),
	opts ...ChainOption,
) *Promise[U] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	return chain[T, U](p, on, opts, func(r Result[T], res Resolver[U]) {
		switch r.State() {
		case Rejected:
			res.Reject(r.Err())
		case Cancelled:
			res.Cancel()
		default:
			guard(res, func() {
				val, err := fn(r.Val())
				if err != nil {
					res.Reject(err)
				} else {
					res.Fulfill(val)
				}
			})
		}
	})
}

// FlatMap is Map for callbacks that return a nested Promise.
//
// The derived promise adopts the nested promise's eventual result, and a
// cancel request on the derived promise is forwarded to the nested one.
// A nil nested promise fulfills the derived promise with the zero value.
func FlatMap[T, U any](
	p *Promise[T],
	on Executor,
	fn func(val T) *Promise[U],
	opts ...ChainOption,
) *Promise[U] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	return chain[T, U](p, on, opts, func(r Result[T], res Resolver[U]) {
		switch r.State() {
		case Rejected:
			res.Reject(r.Err())
		case Cancelled:
			res.Cancel()
		default:
			guard(res, func() {
				np := fn(r.Val())
				if np == nil {
					var zero U
					res.Fulfill(zero)
					return
				}
				adopt(np, res)
			})
		}
	})
}

// adopt resolves res to the eventual result of np, forwarding a cancel
// request on the outer promise as loss of interest in np.
func adopt[U any](np *Promise[U], res Resolver[U]) {
	counted := np.c.addObserver()
	res.OnCancel(func(Resolver[U]) {
		np.c.requestCancel()
		if counted {
			np.c.observerGone()
		}
	})
	np.c.subscribeResult(func(r Result[U]) {
		mirrorResult(res, r)
	})
}

// Then waits for p to resolve, and calls fn on the on Executor, only if
// p fulfilled.
//
// It returns a Promise for fn's return: a nil error fulfills it with the
// returned value, a non-nil error rejects it. If p rejects or cancels,
// fn never runs, and the rejection or cancellation passes through.
//
// It panics if fn is nil.
func (p *Promise[T]) Then(
	on Executor,
	fn func(val T) (T, error),
	opts ...ChainOption,
) *Promise[T] {
	return Map(p, on, fn, opts...)
}

// FlatThen is Then for callbacks that return a nested Promise.
// See FlatMap.
func (p *Promise[T]) FlatThen(
	on Executor,
	fn func(val T) *Promise[T],
	opts ...ChainOption,
) *Promise[T] {
	return FlatMap(p, on, fn, opts...)
}

// Catch waits for p to resolve, and calls fn on the on Executor, only if
// p rejected.
//
// It returns a Promise for fn's return, which allows recovering a failed
// chain into a new success. If p fulfills or cancels, fn never runs, and
// the result passes through.
//
// It panics if fn is nil.
func (p *Promise[T]) Catch(
	on Executor,
	fn func(err error) (T, error),
	opts ...ChainOption,
) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	return chain[T, T](p, on, opts, func(r Result[T], res Resolver[T]) {
		if r.State() != Rejected {
			mirrorResult(res, r)
			return
		}
		guard(res, func() {
			val, err := fn(r.Err())
			if err != nil {
				res.Reject(err)
			} else {
				res.Fulfill(val)
			}
		})
	})
}

// Inspect waits for p to resolve, and calls fn on the on Executor with
// the result, whether p fulfilled, rejected, or cancelled.
//
// It returns a Promise that mirrors p's result, resolved after fn
// returns. A panicking fn rejects the derived promise instead.
//
// It panics if fn is nil.
func (p *Promise[T]) Inspect(
	on Executor,
	fn func(res Result[T]),
	opts ...ChainOption,
) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	return chain[T, T](p, on, opts, func(r Result[T], res Resolver[T]) {
		guard(res, func() {
			fn(r)
		})
		mirrorResult(res, r)
	})
}

// WhenCancelled waits for p to resolve, and calls fn on the on Executor,
// only if p resolved as cancelled.
// It returns a Promise that mirrors p's result.
//
// It panics if fn is nil.
func (p *Promise[T]) WhenCancelled(
	on Executor,
	fn func(),
	opts ...ChainOption,
) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	return chain[T, T](p, on, opts, func(r Result[T], res Resolver[T]) {
		if r.State() == Cancelled {
			guard(res, func() {
				fn()
			})
		}
		mirrorResult(res, r)
	})
}

// Tap registers fn as a pure side-channel observer of p, and returns p
// itself rather than a derived promise.
//
// Tap deliberately stays out of the cancellation-propagation accounting:
// observing a promise for diagnostics never marks it as wanted, and so
// never blocks its auto-cancellation.
func (p *Promise[T]) Tap(on Executor, fn func(res Result[T])) *Promise[T] {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	if on == nil {
		on = Immediate()
	}
	p.c.subscribeResult(func(res Result[T]) {
		on.Schedule(func() { fn(res) })
	})
	return p
}

// IgnoringCancel returns a Promise that mirrors p's result, but whose own
// RequestCancel is a no-op.
// It decouples a shared, long-lived computation from the cancellation
// wishes of one particular consumer.
func (p *Promise[T]) IgnoringCancel() *Promise[T] {
	return chain[T, T](p, Immediate(), []ChainOption{ignoringCancel()},
		func(r Result[T], res Resolver[T]) {
			mirrorResult(res, r)
		})
}

func ignoringCancel() ChainOption {
	return func(cfg *chainConfig) {
		cfg.ignoreCancel = true
	}
}

// PropagatingCancellation returns a Promise that mirrors p's result, on
// its own link of the chain: as soon as all children attached to the
// mirror gave up, the loss of interest climbs through it to p, even
// while the returned handle itself is still held.
// It gives a wrapper object around a deduplicated, shared fetch a
// dedicated attachment point whose handle never blocks cancellation.
func (p *Promise[T]) PropagatingCancellation() *Promise[T] {
	return chain[T, T](p, Immediate(), nil,
		func(r Result[T], res Resolver[T]) {
			mirrorResult(res, r)
		})
}
