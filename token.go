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
	"sync"
	"sync/atomic"
)

// InvalidationToken revokes continuations in bulk.
//
// A continuation registered with WithToken captures the token's current
// generation. Invalidate bumps the generation, so every continuation
// registered before the call finds its captured generation stale when it
// would run, skips its user callback, and resolves its derived promise
// as cancelled. Continuations registered after the call run normally.
//
// Tokens form a tree: invalidating a token also invalidates every token
// derived from it through Child.
type InvalidationToken struct {
	gen atomic.Uint64

	mu       sync.Mutex
	children []*InvalidationToken
}

// NewInvalidationToken returns a new valid token with no children.
func NewInvalidationToken() *InvalidationToken {
	return &InvalidationToken{}
}

// Child returns a new token that's invalidated whenever t is, while
// keeping its own Invalidate scoped to its own subtree.
func (t *InvalidationToken) Child() *InvalidationToken {
	child := &InvalidationToken{}
	t.mu.Lock()
	t.children = append(t.children, child)
	t.mu.Unlock()
	return child
}

// Invalidate revokes every continuation registered against t, or against
// any token derived from it, up to this point.
// The token stays usable: continuations registered after Invalidate
// returns are live until the next call.
func (t *InvalidationToken) Invalidate() {
	t.gen.Add(1)

	t.mu.Lock()
	children := make([]*InvalidationToken, len(t.children))
	copy(children, t.children)
	t.mu.Unlock()

	// recurse outside the lock, the tree only ever grows.
	for _, child := range children {
		child.Invalidate()
	}
}

// generation returns the value a registration captures.
func (t *InvalidationToken) generation() uint64 {
	return t.gen.Load()
}

// staleSince reports whether the token was invalidated after gen was
// captured.
func (t *InvalidationToken) staleSince(gen uint64) bool {
	return t.gen.Load() != gen
}
