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

import "sync"

// Executor is the execution context that promise callbacks are dispatched
// onto.
//
// The promise machinery never inspects an Executor beyond these two
// methods: it guarantees that a registered callback is scheduled exactly
// once, and delegates when and where the callback actually runs to the
// Executor.
type Executor interface {
	// Schedule arranges for fn to run, exactly once, at some point.
	// It must not drop fn.
	Schedule(fn func())

	// Synchronous reports whether Schedule runs its unit inline, in the
	// calling goroutine, before returning.
	Synchronous() bool
}

var (
	immediateExec = sync.OnceValue(func() Executor { return immediate{} })
	spawnExec     = sync.OnceValue(func() Executor { return spawn{} })
)

// Immediate returns the process-wide synchronous Executor.
// Callbacks run inline in whichever goroutine delivers the result, which
// may be the registering goroutine if the promise was already resolved.
func Immediate() Executor {
	return immediateExec()
}

// Spawn returns the process-wide Executor that runs every unit on its own
// new goroutine.
func Spawn() Executor {
	return spawnExec()
}

type immediate struct{}

func (immediate) Schedule(fn func()) { fn() }
func (immediate) Synchronous() bool  { return true }

type spawn struct{}

func (spawn) Schedule(fn func()) { go fn() }
func (spawn) Synchronous() bool  { return false }

// NewSerial returns an Executor that runs its units one at a time, in
// scheduling order, on a single draining goroutine.
//
// A unit scheduled from inside a running unit joins the current drain
// pass, so same-queue continuations execute within one pass instead of
// costing one wakeup per hop.
func NewSerial() Executor {
	return &serialQueue{}
}

type serialQueue struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
}

func (s *serialQueue) Schedule(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if s.draining {
		// the running drain pass will pick fn up.
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	go s.drain()
}

func (s *serialQueue) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		// never hold the queue lock while running a unit, as the unit may
		// schedule further units on this same queue.
		fn()
	}
}

func (s *serialQueue) Synchronous() bool { return false }

// NewBounded returns an Executor that runs each unit on its own goroutine,
// while allowing at most size goroutines to run at once.
// If size is 0 or less, the Executor is unbounded, and it behaves exactly
// like Spawn.
func NewBounded(size int) Executor {
	if size <= 0 {
		return Spawn()
	}
	return &bounded{reserve: make(chan struct{}, size)}
}

type bounded struct {
	reserve chan struct{}
}

func (b *bounded) Schedule(fn func()) {
	// reserve the goroutine before spawning it, so that this reservation
	// is accounted for even if fn blocks.
	b.reserve <- struct{}{}
	go func() {
		defer func() { <-b.reserve }()
		fn()
	}()
}

func (b *bounded) Synchronous() bool { return false }
