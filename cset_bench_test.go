package cset

import (
	"fmt"
	"strconv"
	"testing"
)

var benchSizes = []int{100, 1000, 10000, 100000}

// BenchmarkSet_Insert benchmarks filling an empty set, growth included
func BenchmarkSet_Insert(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				s := New[int]()
				for i := 0; i < size; i++ {
					s.Insert(i)
				}
			}
		})
	}
}

// BenchmarkSet_InsertPresized benchmarks filling a set that never grows
func BenchmarkSet_InsertPresized(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				s := New[int](WithPresize(size))
				for i := 0; i < size; i++ {
					s.Insert(i)
				}
			}
		})
	}
}

// BenchmarkSet_Contains benchmarks hits and misses on a populated set
func BenchmarkSet_Contains(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			s := New[int]()
			for i := 0; i < size; i++ {
				s.Insert(i * 2)
			}
			i := 0
			b.ResetTimer()
			for b.Loop() {
				s.Contains(i % (size * 2))
				i++
			}
		})
	}
}

// BenchmarkSet_StringKeys benchmarks lookups with xxhash-hashed keys
func BenchmarkSet_StringKeys(b *testing.B) {
	const size = 10000
	keys := make([]string, size)
	s := New[string]()
	for i := range keys {
		keys[i] = "key_" + strconv.Itoa(i)
		s.Insert(keys[i])
	}
	i := 0
	b.ResetTimer()
	for b.Loop() {
		s.Contains(keys[i%size])
		i++
	}
}

// BenchmarkSet_EraseInsertChurn benchmarks erase and chain repair under
// steady size
func BenchmarkSet_EraseInsertChurn(b *testing.B) {
	for _, size := range []int{100, 10000} {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			s := New[int]()
			for i := 0; i < size; i++ {
				s.Insert(i)
			}
			i := 0
			b.ResetTimer()
			for b.Loop() {
				s.Erase(i)
				s.Insert(i + size)
				i++
			}
		})
	}
}

// BenchmarkSet_Range benchmarks a full scan
func BenchmarkSet_Range(b *testing.B) {
	s := New[int]()
	for i := 0; i < 10000; i++ {
		s.Insert(i)
	}
	b.ResetTimer()
	for b.Loop() {
		n := 0
		for range s.All() {
			n++
		}
	}
}

// BenchmarkMap_Contains is the built-in map baseline for BenchmarkSet_Contains
func BenchmarkMap_Contains(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			m := make(map[int]struct{})
			for i := 0; i < size; i++ {
				m[i*2] = struct{}{}
			}
			i := 0
			b.ResetTimer()
			for b.Loop() {
				_ = m[i%(size*2)]
				i++
			}
		})
	}
}
