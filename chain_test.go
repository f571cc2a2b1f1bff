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
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThen(t *testing.T) {
	p, r := Pair[int]()
	doubled := p.Then(Immediate(), func(val int) (int, error) {
		return val * 2, nil
	})

	r.Fulfill(21)
	assert.Equal(t, 42, doubled.Res().Val())
}

func TestThen_ReturnedError(t *testing.T) {
	p, r := Pair[int]()
	failed := p.Then(Immediate(), func(int) (int, error) {
		return 0, errTest
	})

	r.Fulfill(1)
	res := failed.Res()
	assert.Equal(t, Rejected, res.State())
	assert.ErrorIs(t, res.Err(), errTest)
}

func TestThen_SkippedOnRejection(t *testing.T) {
	p, r := Pair[int]()

	thenRan := false
	caught := p.Then(Immediate(), func(val int) (int, error) {
		thenRan = true
		return val, nil
	}).Catch(Immediate(), func(err error) (int, error) {
		assert.ErrorIs(t, err, errTest)
		return 7, nil
	})

	r.Reject(errTest)

	// the rejection skips the Then and reaches the Catch, recovering the
	// chain into a fulfillment.
	res := caught.Res()
	assert.False(t, thenRan)
	assert.Equal(t, Fulfilled, res.State())
	assert.Equal(t, 7, res.Val())
}

func TestCatch_SkippedOnFulfillment(t *testing.T) {
	p, r := Pair[int]()

	catchRan := false
	out := p.Catch(Immediate(), func(error) (int, error) {
		catchRan = true
		return 0, nil
	})

	r.Fulfill(42)
	assert.Equal(t, 42, out.Res().Val())
	assert.False(t, catchRan)
}

func TestMap_TypeChange(t *testing.T) {
	p, r := Pair[int]()
	s := Map(p, Immediate(), func(val int) (string, error) {
		return strconv.Itoa(val), nil
	})

	r.Fulfill(42)
	assert.Equal(t, "42", s.Res().Val())
}

func TestMap_OnResolvedSource(t *testing.T) {
	p := Wrap(Val(42))
	s := Map(p, Immediate(), func(val int) (int, error) {
		return val + 1, nil
	})

	// the source was terminal before the registration, the continuation
	// still runs, inline on the Immediate executor.
	res, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 43, res.Val())
}

func TestFlatMap(t *testing.T) {
	p, r := Pair[int]()
	nested, nr := Pair[string]()

	out := FlatMap(p, Immediate(), func(val int) *Promise[string] {
		assert.Equal(t, 42, val)
		return nested
	})

	r.Fulfill(42)
	assert.Equal(t, Pending, out.State())

	nr.Fulfill("adopted")
	assert.Equal(t, "adopted", out.Res().Val())
}

func TestFlatMap_NilNested(t *testing.T) {
	p, r := Pair[int]()
	out := FlatMap(p, Immediate(), func(int) *Promise[string] {
		return nil
	})

	r.Fulfill(1)
	res := out.Res()
	assert.Equal(t, Fulfilled, res.State())
	assert.Zero(t, res.Val())
}

func TestFlatMap_CancelForwardedToNested(t *testing.T) {
	p, r := Pair[int]()
	nestedRequested := make(chan struct{})
	nested := New(Immediate(), func(r Resolver[int]) {
		r.OnCancel(func(r Resolver[int]) {
			close(nestedRequested)
			r.Cancel()
		})
	})

	out := p.FlatThen(Immediate(), func(int) *Promise[int] {
		return nested
	})
	r.Fulfill(1)

	out.RequestCancel()
	<-nestedRequested
	assert.Equal(t, Cancelled, out.Res().State())
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(r Resolver[int])
		want    State
	}{
		{name: "fulfilled", resolve: func(r Resolver[int]) { r.Fulfill(1) }, want: Fulfilled},
		{name: "rejected", resolve: func(r Resolver[int]) { r.Reject(errTest) }, want: Rejected},
		{name: "cancelled", resolve: func(r Resolver[int]) { r.Cancel() }, want: Cancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r := Pair[int]()

			var seen Result[int]
			out := p.Inspect(Immediate(), func(res Result[int]) {
				seen = res
			})
			tt.resolve(r)

			// the callback sees every outcome, and the derived promise
			// mirrors the source.
			require.NotNil(t, seen)
			assert.Equal(t, tt.want, seen.State())
			assert.Equal(t, tt.want, out.Res().State())
		})
	}
}

func TestWhenCancelled(t *testing.T) {
	p, r := Pair[int]()

	ran := false
	out := p.WhenCancelled(Immediate(), func() {
		ran = true
	})
	r.Cancel()

	assert.True(t, ran)
	assert.Equal(t, Cancelled, out.Res().State())
}

func TestWhenCancelled_SkippedOnValue(t *testing.T) {
	p, r := Pair[int]()

	ran := false
	out := p.WhenCancelled(Immediate(), func() {
		ran = true
	})
	r.Fulfill(42)

	assert.False(t, ran)
	assert.Equal(t, 42, out.Res().Val())
}

func TestTap_ReturnsSource(t *testing.T) {
	p, r := Pair[int]()

	var seen int
	same := p.Tap(Immediate(), func(res Result[int]) {
		seen = res.Val()
	})
	assert.Same(t, p, same)

	r.Fulfill(42)
	assert.Equal(t, 42, seen)
}

func TestCallbackPanic_RejectsWithPanicError(t *testing.T) {
	p, r := Pair[int]()
	out := p.Then(Immediate(), func(int) (int, error) {
		panic("boom")
	})

	r.Fulfill(1)
	res := out.Res()
	require.Equal(t, Rejected, res.State())

	var pe PanicError
	require.ErrorAs(t, res.Err(), &pe)
	assert.Equal(t, "boom", pe.V)
}

func TestCallbackPanic_CaughtByErrorAs(t *testing.T) {
	p, r := Pair[int]()

	out := p.Then(Immediate(), func(int) (int, error) {
		panic("boom")
	}).Catch(Immediate(), func(err error) (int, error) {
		var pe PanicError
		if assert.ErrorAs(t, err, &pe) {
			return 7, nil
		}
		return 0, err
	})

	r.Fulfill(1)
	assert.Equal(t, 7, out.Res().Val())
}

func TestChain_NilCallbackPanics(t *testing.T) {
	p, _ := Pair[int]()

	assert.PanicsWithValue(t, nilCallbackPanicMsg, func() {
		p.Then(nil, nil)
	})
	assert.PanicsWithValue(t, nilCallbackPanicMsg, func() {
		p.Catch(nil, nil)
	})
	assert.PanicsWithValue(t, nilCallbackPanicMsg, func() {
		p.Tap(nil, nil)
	})
}

func TestChain_LongPipeline(t *testing.T) {
	p, r := Pair[int]()

	out := p
	for i := 0; i < 10; i++ {
		out = out.Then(Immediate(), func(val int) (int, error) {
			return val + 1, nil
		})
	}

	r.Fulfill(0)
	assert.Equal(t, 10, out.Res().Val())
}
