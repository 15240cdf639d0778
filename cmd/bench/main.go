// Bench measures HAT-trie insert and lookup throughput and memory use against
// a Go map baseline.
//
// Usage:
//
//	go run ./cmd/bench -keys 5000000 -keylen 8:32 -hash murmur3
//	go run ./cmd/bench -file words.txt -workers 8
//
// Flags:
//
//	-keys      Number of random keys to generate (default: 2,000,000)
//	-keylen    Random key length range min:max (default: 8:32)
//	-file      Newline-separated key corpus, memory-mapped; overrides -keys
//	-workers   Parallel workers for key generation or corpus splitting (default: GOMAXPROCS)
//	-promote   Promote threshold N (default: 32)
//	-burst     Burst threshold M (default: 4096)
//	-buckets   Buckets per hybrid leaf (default: 64)
//	-hash      Bucket hash: murmur3, xxhash or xxh3 (default: murmur3)
//	-seed      Seed for random keys (default: 1)
//	-v         Debug logging, including every promotion and burst
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tamirms/hattrie"
)

type options struct {
	keys       int
	minLen     int
	maxLen     int
	file       string
	workers    int
	promote    int
	burst      int
	buckets    int
	hash       hattrie.HashAlgorithm
	seed       uint64
	cpuprofile string
	memprofile string
	verbose    bool
}

func parseFlags() (options, error) {
	var o options
	var keylen, hashName string
	flag.IntVar(&o.keys, "keys", 2_000_000, "number of random keys")
	flag.StringVar(&keylen, "keylen", "8:32", "random key length range min:max")
	flag.StringVar(&o.file, "file", "", "newline-separated key corpus (overrides -keys)")
	flag.IntVar(&o.workers, "workers", runtime.GOMAXPROCS(0), "parallel workers for key loading")
	flag.IntVar(&o.promote, "promote", 32, "promote threshold N")
	flag.IntVar(&o.burst, "burst", 4096, "burst threshold M")
	flag.IntVar(&o.buckets, "buckets", 64, "buckets per hybrid leaf")
	flag.StringVar(&hashName, "hash", "murmur3", "bucket hash: murmur3, xxhash or xxh3")
	flag.Uint64Var(&o.seed, "seed", 1, "seed for random keys")
	flag.StringVar(&o.cpuprofile, "cpuprofile", "", "write cpu profile to file (insert phase only)")
	flag.StringVar(&o.memprofile, "memprofile", "", "write memory profile to file (after insert)")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	lo, hi, ok := strings.Cut(keylen, ":")
	if !ok {
		hi = lo
	}
	var err error
	if o.minLen, err = strconv.Atoi(lo); err != nil {
		return o, fmt.Errorf("bad -keylen %q: %w", keylen, err)
	}
	if o.maxLen, err = strconv.Atoi(hi); err != nil {
		return o, fmt.Errorf("bad -keylen %q: %w", keylen, err)
	}
	if o.minLen < 0 || o.maxLen < o.minLen || o.maxLen > hattrie.MaxKeyLen {
		return o, fmt.Errorf("bad -keylen %q: need 0 <= min <= max <= %d", keylen, hattrie.MaxKeyLen)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.hash, err = hattrie.ParseHashAlgorithm(hashName); err != nil {
		return o, err
	}
	return o, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	o, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := newLogger(o.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), o, log); err != nil {
		log.Error("benchmark failed", zap.Error(err))
		os.Exit(1)
	}
}

type result struct {
	keys         int
	unique       int
	insert       time.Duration
	lookup       time.Duration
	heapBytes    uint64
	mapInsert    time.Duration
	mapLookup    time.Duration
	mapHeapBytes uint64
	stats        hattrie.Stats
	peakRSS      uint64
}

func run(ctx context.Context, o options, log *zap.Logger) error {
	keys, closeKeys, err := loadKeys(ctx, o, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeKeys() }()

	tr, err := hattrie.New(hattrie.Uint64(),
		hattrie.WithPromoteThreshold(o.promote),
		hattrie.WithBurstThreshold(o.burst),
		hattrie.WithBucketCount(o.buckets),
		hattrie.WithHash(o.hash),
		hattrie.WithLogger(log.Named("trie")),
	)
	if err != nil {
		return fmt.Errorf("create trie: %w", err)
	}

	res := result{keys: len(keys)}
	baseline := heapInUse()

	if o.cpuprofile != "" {
		f, err := os.Create(o.cpuprofile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
	}

	log.Info("inserting", zap.Int("keys", len(keys)), zap.Stringer("hash", o.hash))
	start := time.Now()
	for i, key := range keys {
		if _, inserted := tr.Insert(key, uint64(i)); inserted {
			res.unique++
		}
	}
	res.insert = time.Since(start)
	if o.cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	res.heapBytes = heapInUse() - min(baseline, heapInUse())
	if o.memprofile != "" {
		if err := writeHeapProfile(o.memprofile); err != nil {
			log.Warn("memory profile", zap.Error(err))
		}
	}

	order := rand.New(rand.NewPCG(o.seed, 0)).Perm(len(keys))
	log.Info("looking up", zap.Int("keys", len(keys)))
	start = time.Now()
	for _, i := range order {
		if !tr.Contains(keys[i]) {
			return fmt.Errorf("key %d (%q) missing after insert", i, keys[i])
		}
	}
	res.lookup = time.Since(start)
	if tr.Len() != res.unique {
		return fmt.Errorf("trie holds %d keys, inserted %d", tr.Len(), res.unique)
	}
	if err := tr.Check(); err != nil {
		return fmt.Errorf("trie invariants: %w", err)
	}
	res.stats = tr.Stats()
	log.Info("trie built",
		zap.Int("internal", res.stats.InternalNodes),
		zap.Int("pure", res.stats.PureLeaves),
		zap.Int("hybrid", res.stats.HybridLeaves),
		zap.Int("bursts", res.stats.Bursts),
		zap.Int("max_depth", res.stats.MaxDepth))
	tr = nil

	baseline = heapInUse()
	m := make(map[string]uint64)
	start = time.Now()
	for i, key := range keys {
		if _, ok := m[string(key)]; !ok {
			m[string(key)] = uint64(i)
		}
	}
	res.mapInsert = time.Since(start)
	res.mapHeapBytes = heapInUse() - min(baseline, heapInUse())
	start = time.Now()
	for _, i := range order {
		if _, ok := m[string(keys[i])]; !ok {
			return fmt.Errorf("map baseline lost key %d", i)
		}
	}
	res.mapLookup = time.Since(start)
	runtime.KeepAlive(m)

	res.peakRSS = getMaxRSS()
	printReport(o, res)
	return nil
}

func loadKeys(ctx context.Context, o options, log *zap.Logger) ([][]byte, func() error, error) {
	start := time.Now()
	if o.file != "" {
		c, err := loadCorpus(ctx, o.file, o.workers)
		if err != nil {
			return nil, nil, err
		}
		log.Info("corpus loaded",
			zap.String("file", o.file),
			zap.Int("keys", len(c.keys)),
			zap.Int("skipped", c.skipped),
			zap.Duration("took", time.Since(start)))
		return c.keys, c.Close, nil
	}
	keys, err := generateKeys(ctx, o.keys, o.minLen, o.maxLen, o.workers, o.seed)
	if err != nil {
		return nil, nil, err
	}
	log.Info("keys generated",
		zap.Int("keys", len(keys)),
		zap.Int("workers", o.workers),
		zap.Duration("took", time.Since(start)))
	return keys, func() error { return nil }, nil
}

// heapInUse returns live heap bytes after a full collection.
func heapInUse() uint64 {
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printReport(o options, r result) {
	perKey := func(bytes uint64) float64 {
		if r.unique == 0 {
			return 0
		}
		return float64(bytes) / float64(r.unique)
	}
	rate := func(d time.Duration) float64 {
		return float64(r.keys) / d.Seconds() / 1_000_000
	}

	fmt.Printf("\n")
	fmt.Printf("╔═════════════════════╦════════════════╦════════════════╗\n")
	fmt.Printf("║ N=%-5d M=%-8d  ║ buckets=%-6d ║ hash=%-9s ║\n", o.promote, o.burst, o.buckets, o.hash)
	fmt.Printf("╠═════════════════════╬════════════════╬════════════════╣\n")
	fmt.Printf("║ Metric              ║ HAT-trie       ║ map            ║\n")
	fmt.Printf("╠═════════════════════╬════════════════╬════════════════╣\n")
	fmt.Printf("║ Keys (unique)       ║ %14d ║ %14d ║\n", r.unique, r.unique)
	fmt.Printf("║ Insert throughput   ║ %8.2f M/sec ║ %8.2f M/sec ║\n", rate(r.insert), rate(r.mapInsert))
	fmt.Printf("║ Lookup throughput   ║ %8.2f M/sec ║ %8.2f M/sec ║\n", rate(r.lookup), rate(r.mapLookup))
	fmt.Printf("║ Heap bytes per key  ║ %8.1f B     ║ %8.1f B     ║\n", perKey(r.heapBytes), perKey(r.mapHeapBytes))
	fmt.Printf("║ Packed bytes/key    ║ %8.1f B     ║ -              ║\n", perKey(uint64(r.stats.Bytes)))
	fmt.Printf("║ Internal nodes      ║ %14d ║ -              ║\n", r.stats.InternalNodes)
	fmt.Printf("║ Pure/hybrid leaves  ║ %6d/%-7d ║ -              ║\n", r.stats.PureLeaves, r.stats.HybridLeaves)
	fmt.Printf("║ Promotions/bursts   ║ %6d/%-7d ║ -              ║\n", r.stats.Promotions, r.stats.Bursts)
	fmt.Printf("║ Max depth           ║ %14d ║ -              ║\n", r.stats.MaxDepth)
	fmt.Printf("║ Peak RSS (process)  ║ %8.1f MB    ║ -              ║\n", float64(r.peakRSS)/1_000_000)
	fmt.Printf("╚═════════════════════╩════════════════╩════════════════╝\n")
}
