package hattrie

import (
	"fmt"
	"testing"
)

func benchmarkInsertN(b *testing.B, n int, opts ...Option) {
	keys := generateRandomKeys(newTestRNG(b), n, 8, 24)

	b.ReportAllocs()
	for b.Loop() {
		tr, err := New(Uint64(), opts...)
		if err != nil {
			b.Fatal(err)
		}
		for i, key := range keys {
			tr.Insert(key, uint64(i))
		}
	}
}

func BenchmarkInsert1K(b *testing.B)   { benchmarkInsertN(b, 1_000) }
func BenchmarkInsert10K(b *testing.B)  { benchmarkInsertN(b, 10_000) }
func BenchmarkInsert100K(b *testing.B) { benchmarkInsertN(b, 100_000) }

func BenchmarkInsertHashes(b *testing.B) {
	for _, a := range []HashAlgorithm{HashMurmur3, HashXXHash, HashXXH3} {
		b.Run(a.String(), func(b *testing.B) {
			benchmarkInsertN(b, 50_000, WithHash(a))
		})
	}
}

func BenchmarkInsertThresholds(b *testing.B) {
	for _, tc := range []struct{ n, m int }{{16, 1024}, {32, 4096}, {64, 16384}} {
		b.Run(fmt.Sprintf("N=%d/M=%d", tc.n, tc.m), func(b *testing.B) {
			benchmarkInsertN(b, 50_000, WithPromoteThreshold(tc.n), WithBurstThreshold(tc.m))
		})
	}
}

func benchmarkFindN(b *testing.B, n int) {
	keys := generateRandomKeys(newTestRNG(b), n, 8, 24)
	tr, err := New(Uint64())
	if err != nil {
		b.Fatal(err)
	}
	for i, key := range keys {
		tr.Insert(key, uint64(i))
	}

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		if _, err := tr.At(keys[i%n]); err != nil {
			b.Fatal(err)
		}
		i++
	}
}

func BenchmarkFind1K(b *testing.B)   { benchmarkFindN(b, 1_000) }
func BenchmarkFind100K(b *testing.B) { benchmarkFindN(b, 100_000) }

func BenchmarkIterate(b *testing.B) {
	keys := generateRandomKeys(newTestRNG(b), 100_000, 8, 24)
	tr, err := New(Uint64())
	if err != nil {
		b.Fatal(err)
	}
	for i, key := range keys {
		tr.Insert(key, uint64(i))
	}

	b.ReportAllocs()
	for b.Loop() {
		var sum uint64
		for _, v := range tr.All() {
			sum += v
		}
		if sum == 0 {
			b.Fatal("empty iteration")
		}
	}
}
