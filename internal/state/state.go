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

package state

import "sync/atomic"

var (
	cas  = atomic.CompareAndSwapUint32
	load = atomic.LoadUint32
)

// Word holds the value that defines and represents the lifecycle phase of
// a resolution cell.
// It's read and written/updated atomically.
//
// The zero value is an Empty word, which is the starting phase of all
// cells except deferred ones.
type Word uint32

// the phase's related values and constants, using 3 bits(the [1st : 3rd] bits)
const (
	// phase values, mutually exclusive.
	phaseEmpty uint32 = iota
	phaseDelayed
	phaseCancelling
	phaseResolving
	phaseResolved
	phaseCancelled

	// phaseBitsSetMask and phaseBitsClrMask are &-ed with the word to get
	// the phase value and clear the phase value, respectively.
	phaseBitsSetMask uint32 = 7
	phaseBitsClrMask        = ^phaseBitsSetMask
)

// the flags' related values and constants, using 1 bit(the 4th bit)
const (
	// flagDeferredCancel records a cancel request that arrived while the
	// phase was Delayed.
	flagDeferredCancel uint32 = 1 << 3
)

// NewDelayed returns a Word whose phase is Delayed instead of Empty.
func NewDelayed() Word {
	return Word(phaseDelayed)
}

// Load returns the current word value.
func (w *Word) Load() uint32 {
	return load((*uint32)(w))
}

func withPhase(word, phase uint32) uint32 {
	return (word & phaseBitsClrMask) | phase
}

// BeginResolve moves the word into the Resolving fence, from any of the
// Empty, Delayed, or Cancelling phases.
// It returns false if another resolution already won, or is in progress.
func (w *Word) BeginResolve() (ok bool) {
	for {
		cur := load((*uint32)(w))
		switch cur & phaseBitsSetMask {
		case phaseEmpty, phaseDelayed, phaseCancelling:
			if cas((*uint32)(w), cur, withPhase(cur, phaseResolving)) {
				return true
			}
			// another goroutine advanced the phase, re-inspect.
		default:
			return false
		}
	}
}

// CompleteResolve moves the word out of the Resolving fence into Resolved.
// It must be called only by the goroutine that won BeginResolve, and after
// the cell's result has been written.
func (w *Word) CompleteResolve() {
	cur := load((*uint32)(w))
	if cur&phaseBitsSetMask != phaseResolving ||
		!cas((*uint32)(w), cur, withPhase(cur, phaseResolved)) {
		// no other goroutine can move the word out of Resolving, so a
		// failure here means the lock-free protocol was violated.
		panic("promise: internal: unexpected phase change while resolving")
	}
}

// CancelDirect moves the word into Cancelled, from any of the Empty,
// Delayed, or Cancelling phases.
// It's a single-step transition, as cancellation carries no payload that
// needs the Resolving fence.
// It returns false if the word is already terminal, or if a resolution is
// in progress.
func (w *Word) CancelDirect() (ok bool) {
	for {
		cur := load((*uint32)(w))
		switch cur & phaseBitsSetMask {
		case phaseEmpty, phaseDelayed, phaseCancelling:
			if cas((*uint32)(w), cur, withPhase(cur, phaseCancelled)) {
				return true
			}
		default:
			return false
		}
	}
}

// RequestOutcome is the result of a RequestCancel call on a Word.
type RequestOutcome int

const (
	// ReqNone means the request changed nothing: the cell is terminal,
	// inside the Resolving fence, or a request was already delivered.
	ReqNone RequestOutcome = iota

	// ReqFire means the word moved to Cancelling, and the caller must now
	// deliver the request to the registered cancel handlers.
	ReqFire

	// ReqDeferred means the word is Delayed, and the request was recorded
	// to be replayed at promotion time.
	ReqDeferred
)

// RequestCancel marks the intent to cancel the cell.
// It never resolves the cell by itself.
func (w *Word) RequestCancel() RequestOutcome {
	for {
		cur := load((*uint32)(w))
		switch cur & phaseBitsSetMask {
		case phaseEmpty:
			if cas((*uint32)(w), cur, withPhase(cur, phaseCancelling)) {
				return ReqFire
			}
		case phaseDelayed:
			if cur&flagDeferredCancel != 0 {
				return ReqNone
			}
			if cas((*uint32)(w), cur, cur|flagDeferredCancel) {
				return ReqDeferred
			}
		default:
			return ReqNone
		}
	}
}

// Promote moves the word out of Delayed into Empty, clearing the
// deferredCancel flag and reporting whether it was set.
// It returns promoted = false if the word is not Delayed.
func (w *Word) Promote() (deferredCancel, promoted bool) {
	for {
		cur := load((*uint32)(w))
		if cur&phaseBitsSetMask != phaseDelayed {
			return false, false
		}
		next := withPhase(cur, phaseEmpty) &^ flagDeferredCancel
		if cas((*uint32)(w), cur, next) {
			return cur&flagDeferredCancel != 0, true
		}
	}
}

func IsEmpty(word uint32) bool {
	return word&phaseBitsSetMask == phaseEmpty
}

func IsDelayed(word uint32) bool {
	return word&phaseBitsSetMask == phaseDelayed
}

func IsCancelling(word uint32) bool {
	return word&phaseBitsSetMask == phaseCancelling
}

func IsResolving(word uint32) bool {
	return word&phaseBitsSetMask == phaseResolving
}

func IsResolved(word uint32) bool {
	return word&phaseBitsSetMask == phaseResolved
}

func IsCancelled(word uint32) bool {
	return word&phaseBitsSetMask == phaseCancelled
}

// IsTerminal returns true if the phase is Resolved or Cancelled.
func IsTerminal(word uint32) bool {
	return word&phaseBitsSetMask >= phaseResolved
}

// IsPending returns true for every non-terminal phase, collapsing the
// internal Resolving fence and the Cancelling phase into pending, as
// unfenced external queries must.
func IsPending(word uint32) bool {
	return !IsTerminal(word)
}

func IsCancelDeferred(word uint32) bool {
	return word&flagDeferredCancel != 0
}
