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

// Resolver is the write-capability handle over a promise's resolution
// cell. It's issued once per promise, and it's the only way to fulfill,
// reject, or cancel it.
//
// A promise resolves exactly once: the first effective Fulfill, Reject,
// or Cancel call wins, and every later call is a no-op.
//
// Resolver values are cheap to copy, and all copies share the same cell.
type Resolver[T any] struct {
	c *cell[T]
}

// Fulfill resolves the promise to val.
// It reports whether this call was the one that resolved the promise.
func (r Resolver[T]) Fulfill(val T) bool {
	return r.c.resolveTo(Val(val))
}

// Reject resolves the promise to err.
// A nil err fulfills the promise with the zero value instead, as a nil
// error means success.
// It reports whether this call was the one that resolved the promise.
func (r Resolver[T]) Reject(err error) bool {
	return r.c.resolveTo(Err[T](err))
}

// Cancel resolves the promise to cancelled, with no value and no error.
// It reports whether this call was the one that resolved the promise.
func (r Resolver[T]) Cancel() bool {
	return r.c.cancel()
}

// OnCancel registers fn to run once a cancel request is delivered to the
// promise. fn receives this same Resolver, and is free to resolve the
// promise, typically by calling Cancel, or to ignore the request and let
// the work fulfill or reject it later: a cancel request is advisory.
//
// If a request was already delivered, fn runs inline before OnCancel
// returns. If the promise already resolved with a value or an error, fn
// is dropped.
func (r Resolver[T]) OnCancel(fn func(Resolver[T])) {
	if fn == nil {
		panic(nilCallbackPanicMsg)
	}
	r.c.subscribeCancel(fn)
}

// CancelRequested reports whether cancellation of the promise was
// requested, or the promise is already cancelled.
// Owners of long-running work can poll it between steps instead of
// registering an OnCancel handler.
func (r Resolver[T]) CancelRequested() bool {
	return r.c.cancelRequested()
}
