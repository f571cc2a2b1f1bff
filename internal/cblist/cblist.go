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

// Package cblist implements the lock-free singly-linked callback list used
// by a resolution cell.
//
// Registrations are pushed LIFO onto an atomic list head, and a single
// Drain call atomically replaces the head with a sealed sentinel, reverses
// the chain, and hands the callbacks back in registration(FIFO) order.
// After the drain, every Push fails, and the caller is expected to invoke
// the rejected callback inline instead.
//
// No mutex is ever held, so a callback running during a drain can safely
// push onto this or any other list without risking deadlock.
package cblist

import "sync/atomic"

type node[F any] struct {
	fn   F
	next *node[F]
}

// List is a lock-free callback list.
// The zero value is an empty, open list, ready for use.
//
// A List must not be copied after first use.
type List[F any] struct {
	head atomic.Pointer[node[F]]

	// sealed is the sentinel node whose address marks the list as drained.
	// Its value is never read.
	sealed node[F]
}

// Push registers fn, keeping the list in LIFO order.
// It returns false, without registering, if the list was already drained.
func (l *List[F]) Push(fn F) bool {
	n := &node[F]{fn: fn}
	for {
		head := l.head.Load()
		if head == &l.sealed {
			return false
		}
		n.next = head
		if l.head.CompareAndSwap(head, n) {
			return true
		}
	}
}

// Drain seals the list and returns the registered callbacks in
// registration order.
// Only the first Drain returns callbacks; any later call returns nil.
func (l *List[F]) Drain() []F {
	for {
		head := l.head.Load()
		if head == &l.sealed {
			return nil
		}
		if !l.head.CompareAndSwap(head, &l.sealed) {
			continue
		}
		if head == nil {
			return nil
		}
		n := 0
		for cur := head; cur != nil; cur = cur.next {
			n++
		}
		// the chain is in LIFO push order, deliver in FIFO order.
		fns := make([]F, n)
		for cur := head; cur != nil; cur = cur.next {
			n--
			fns[n] = cur.fn
		}
		return fns
	}
}

// Drained returns true if the list was drained.
func (l *List[F]) Drained() bool {
	return l.head.Load() == &l.sealed
}
