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

import "testing"

func BenchmarkPair_Fulfill(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, r := Pair[int]()
		r.Fulfill(i)
	}
}

func BenchmarkFulfill_OneObserver(b *testing.B) {
	fn := func(Result[int]) {}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, r := Pair[int]()
		p.OnResult(Immediate(), fn)
		r.Fulfill(i)
	}
}

func BenchmarkThen_Chain(b *testing.B) {
	fn := func(val int) (int, error) { return val + 1, nil }
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p, r := Pair[int]()
		p.Then(Immediate(), fn).Then(Immediate(), fn)
		r.Fulfill(i)
	}
}

func BenchmarkOnResult_Parallel(b *testing.B) {
	p, r := Pair[int]()
	r.Fulfill(42)
	fn := func(Result[int]) {}
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p.OnResult(Immediate(), fn)
		}
	})
}
