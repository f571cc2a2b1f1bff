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

import (
	"sync"
	"testing"
)

func TestWord_ResolvePath(t *testing.T) {
	w := new(Word)
	if !IsEmpty(w.Load()) {
		t.Fatal("expected a new word to be empty")
	}
	if !w.BeginResolve() {
		t.Fatal("expected BeginResolve to win on an empty word")
	}
	if !IsResolving(w.Load()) {
		t.Fatal("expected the word to be resolving")
	}
	if w.BeginResolve() {
		t.Fatal("expected a second BeginResolve to lose")
	}
	if w.CancelDirect() {
		t.Fatal("expected CancelDirect to lose against the resolving fence")
	}
	w.CompleteResolve()
	s := w.Load()
	if !IsResolved(s) || !IsTerminal(s) || IsPending(s) {
		t.Fatalf("unexpected terminal word: %v", s)
	}
}

func TestWord_CancelPath(t *testing.T) {
	w := new(Word)
	if !w.CancelDirect() {
		t.Fatal("expected CancelDirect to win on an empty word")
	}
	s := w.Load()
	if !IsCancelled(s) || !IsTerminal(s) {
		t.Fatalf("unexpected word after cancel: %v", s)
	}
	if w.BeginResolve() {
		t.Fatal("expected BeginResolve to lose on a cancelled word")
	}
	if w.CancelDirect() {
		t.Fatal("expected a second CancelDirect to lose")
	}
}

func TestWord_RequestCancel(t *testing.T) {
	tests := []struct {
		name    string
		prep    func(w *Word)
		want    RequestOutcome
		wantDup RequestOutcome // outcome of a repeated request
	}{
		{
			name:    "empty",
			prep:    func(w *Word) {},
			want:    ReqFire,
			wantDup: ReqNone,
		},
		{
			name:    "delayed",
			prep:    func(w *Word) { *w = NewDelayed() },
			want:    ReqDeferred,
			wantDup: ReqNone,
		},
		{
			name: "resolved",
			prep: func(w *Word) {
				w.BeginResolve()
				w.CompleteResolve()
			},
			want:    ReqNone,
			wantDup: ReqNone,
		},
		{
			name:    "cancelled",
			prep:    func(w *Word) { w.CancelDirect() },
			want:    ReqNone,
			wantDup: ReqNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := new(Word)
			tt.prep(w)
			if got := w.RequestCancel(); got != tt.want {
				t.Fatalf("RequestCancel() = %v, want %v", got, tt.want)
			}
			if got := w.RequestCancel(); got != tt.wantDup {
				t.Fatalf("repeated RequestCancel() = %v, want %v", got, tt.wantDup)
			}
		})
	}
}

func TestWord_RequestThenResolve(t *testing.T) {
	w := new(Word)
	if w.RequestCancel() != ReqFire {
		t.Fatal("expected the first request to fire")
	}
	if !IsCancelling(w.Load()) {
		t.Fatal("expected the word to be cancelling")
	}
	// a cancel request is advisory, fulfillment must still win.
	if !w.BeginResolve() {
		t.Fatal("expected BeginResolve to win over a pending cancel request")
	}
	w.CompleteResolve()
	if !IsResolved(w.Load()) {
		t.Fatal("expected the word to be resolved")
	}
}

func TestWord_Promote(t *testing.T) {
	w := NewDelayed()
	if !IsDelayed(w.Load()) {
		t.Fatal("expected a delayed word")
	}

	deferred, promoted := w.Promote()
	if !promoted || deferred {
		t.Fatalf("Promote() = %v, %v, want false, true", deferred, promoted)
	}
	if !IsEmpty(w.Load()) {
		t.Fatal("expected the promoted word to be empty")
	}
	if _, promoted := w.Promote(); promoted {
		t.Fatal("expected a second Promote to report not promoted")
	}
}

func TestWord_PromoteDeferredCancel(t *testing.T) {
	w := NewDelayed()
	if w.RequestCancel() != ReqDeferred {
		t.Fatal("expected the request on a delayed word to be deferred")
	}
	if !IsCancelDeferred(w.Load()) {
		t.Fatal("expected the deferred flag to be set")
	}

	deferred, promoted := w.Promote()
	if !promoted || !deferred {
		t.Fatalf("Promote() = %v, %v, want true, true", deferred, promoted)
	}
	if IsCancelDeferred(w.Load()) {
		t.Fatal("expected Promote to clear the deferred flag")
	}
}

func TestWord_ConcurrentResolve(t *testing.T) {
	const workers = 64

	w := new(Word)
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			won := false
			if i%2 == 0 {
				if w.BeginResolve() {
					w.CompleteResolve()
					won = true
				}
			} else {
				won = w.CancelDirect()
			}
			if won {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if !IsTerminal(w.Load()) {
		t.Fatal("expected a terminal word")
	}
}

func TestObservers(t *testing.T) {
	o := NewObservers(1)
	if o.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", o.Count())
	}
	if !o.Add() {
		t.Fatal("expected Add to succeed before sealing")
	}

	if none, _ := o.Remove(); none {
		t.Fatal("expected one observer to remain")
	}
	if none, sealed := o.Remove(); !none || sealed {
		t.Fatalf("Remove() = %v, %v, want true, false", none, sealed)
	}
}

func TestObservers_Seal(t *testing.T) {
	o := NewObservers(0)
	if idle := o.Seal(); !idle {
		t.Fatal("expected sealing an empty accounting to report idle")
	}
	if o.Add() {
		t.Fatal("expected Add to fail after sealing")
	}
	if idle := o.Seal(); idle {
		t.Fatal("expected a second Seal to report not idle")
	}
}

func TestObservers_SealThenDrain(t *testing.T) {
	o := NewObservers(2)
	if idle := o.Seal(); idle {
		t.Fatal("expected sealing a busy accounting to report not idle")
	}
	if none, _ := o.Remove(); none {
		t.Fatal("expected one observer to remain")
	}
	if none, sealed := o.Remove(); !none || !sealed {
		t.Fatalf("Remove() = %v, %v, want true, true", none, sealed)
	}
}

func BenchmarkWord_Resolve(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		w := new(Word)
		w.BeginResolve()
		w.CompleteResolve()
	}
}
