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

// Observers is the reference count of children that promised to propagate
// cancellation upward to the cell it belongs to, plus one reserved high
// bit used as a sealed flag.
// It's read and written/updated atomically.
//
// Once sealed, no new observers can join the accounting, and the owner is
// expected to tear the cell down when the count is, or reaches, zero.
type Observers uint32

const sealedBit uint32 = 1 << 31

// NewObservers returns an Observers value starting at the given count.
func NewObservers(initial uint32) Observers {
	return Observers(initial)
}

// Add registers one more observer.
// It returns false, without counting, if the accounting is sealed.
func (o *Observers) Add() (counted bool) {
	for {
		cur := atomic.LoadUint32((*uint32)(o))
		if cur&sealedBit != 0 {
			return false
		}
		if atomic.CompareAndSwapUint32((*uint32)(o), cur, cur+1) {
			return true
		}
	}
}

// Remove unregisters one observer.
// It returns none = true if the count reached zero, along with whether the
// accounting was sealed at that point.
func (o *Observers) Remove() (none, sealed bool) {
	cur := atomic.AddUint32((*uint32)(o), ^uint32(0))
	count := cur &^ sealedBit
	if count == ^sealedBit { // the count wrapped below zero
		panic("promise: internal: observer count underflow")
	}
	return count == 0, cur&sealedBit != 0
}

// Seal marks the accounting as complete.
// It returns idle = true if this call was the first seal and the count was
// already zero, meaning nothing is, or will ever be, observing the cell.
func (o *Observers) Seal() (idle bool) {
	for {
		cur := atomic.LoadUint32((*uint32)(o))
		if cur&sealedBit != 0 {
			return false
		}
		if atomic.CompareAndSwapUint32((*uint32)(o), cur, cur|sealedBit) {
			return cur&^sealedBit == 0
		}
	}
}

// Count returns the current observer count, without the sealed flag.
func (o *Observers) Count() uint32 {
	return atomic.LoadUint32((*uint32)(o)) &^ sealedBit
}

// IsSealed returns true if the accounting was sealed.
func (o *Observers) IsSealed() bool {
	return atomic.LoadUint32((*uint32)(o))&sealedBit != 0
}
