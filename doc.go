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

// Package promise provides a lock-free, cancellation-aware promise
// implementation.
//
// A Promise is a single-assignment cell: it's resolved exactly once, by
// its Resolver, and the first effective Fulfill, Reject, or Cancel wins.
// Continuations register without locks, run exactly once each, and those
// registered before resolution run in registration order.
//
// A Promise has three terminal states, plus Pending:
// Fulfilled: the work finished and produced a value.
// Rejected: the work finished with a non-nil error.
// Cancelled: the work was abandoned, with neither a value nor an error.
//
// Cancellation flows both ways:
// Downward, RequestCancel delivers an advisory request to the owner's
// OnCancel handlers; the owner decides whether to actually cancel, so a
// request never corrupts work that's about to fulfill.
// Upward, chaining operators count as children of their source; the
// count tracks children only, never the handle itself. When the last
// counted child gives up, the promise requests its own cancellation, and
// the loss of interest keeps climbing towards the root of the chain.
// Tap and OnResult observe without joining that accounting.
//
// Release stands in for a handle going out of scope: it seals the
// accounting. A released promise with no children left, whether at the
// seal or later, is force-resolved to cancelled if still unresolved, so
// that its registered callbacks still fire instead of being silently
// lost.
//
// IgnoringCancel and PropagatingCancellation adjust how one link of a
// chain takes part in the propagation, and an InvalidationToken revokes
// registered continuations in bulk without touching the promises
// themselves.
//
// Callbacks are dispatched through an Executor, which decides where they
// run: inline (Immediate), on a fresh goroutine (Spawn), strictly one at
// a time (NewSerial), or with a concurrency cap (NewBounded).
//
// General Notes:-
//
// * Once a Promise is resolved, its result value will not change.
//
// * A cancel request is advisory: it fires the OnCancel handlers, but the
// promise may still fulfill or reject.
//
// * A panic in a chained callback rejects the derived promise with a
// PanicError; it never unwinds into the promise machinery.
//
// * No internal lock is held while any callback runs, so callbacks can
// freely call back into the package, including on the same promise.
package promise
