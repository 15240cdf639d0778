package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	"github.com/tamirms/hattrie"
)

// generateKeys produces n pseudo-random keys with lengths in [minLen, maxLen]
// using one RNG stream per worker, so the result depends only on seed and
// workers.
func generateKeys(ctx context.Context, n, minLen, maxLen, workers int, seed uint64) ([][]byte, error) {
	keys := make([][]byte, n)
	g, ctx := errgroup.WithContext(ctx)
	per := (n + workers - 1) / workers
	for w := range workers {
		lo, hi := w*per, min((w+1)*per, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(seed, uint64(w)))
			var word [8]byte
			for i := lo; i < hi; i++ {
				if i%65536 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				key := make([]byte, minLen+rng.IntN(maxLen-minLen+1))
				for j := 0; j < len(key); j += 8 {
					binary.LittleEndian.PutUint64(word[:], rng.Uint64())
					copy(key[j:], word[:])
				}
				keys[i] = key
			}
			return nil
		})
	}
	return keys, g.Wait()
}

// corpus is a memory-mapped newline-separated key file. Keys alias the
// mapping and are valid until Close.
type corpus struct {
	mm      mmap.MMap
	keys    [][]byte
	skipped int // lines longer than hattrie.MaxKeyLen
}

// loadCorpus maps path read-only and splits it into keys, scanning one
// newline-aligned chunk per worker.
func loadCorpus(ctx context.Context, path string, workers int) (*corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat corpus: %w", err)
	}
	if stat.Size() == 0 {
		return &corpus{}, nil
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap corpus: %w", err)
	}
	data := []byte(mm)
	adviseSequential(data)

	chunks := splitChunks(data, workers)
	parts := make([][][]byte, len(chunks))
	skipped := make([]int, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			for len(chunk) > 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
				line := chunk
				if j := bytes.IndexByte(chunk, '\n'); j >= 0 {
					line, chunk = chunk[:j], chunk[j+1:]
				} else {
					chunk = nil
				}
				line = bytes.TrimSuffix(line, []byte{'\r'})
				if hattrie.ValidateKey(line) != nil {
					skipped[i]++
					continue
				}
				parts[i] = append(parts[i], line)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = mm.Unmap()
		return nil, err
	}

	c := &corpus{mm: mm}
	for i := range parts {
		c.keys = append(c.keys, parts[i]...)
		c.skipped += skipped[i]
	}
	return c, nil
}

// Close unmaps the corpus.
func (c *corpus) Close() error {
	if c.mm == nil {
		return nil
	}
	return c.mm.Unmap()
}

// splitChunks cuts data into at most n pieces, each ending just after a
// newline (or at the end of data).
func splitChunks(data []byte, n int) [][]byte {
	var chunks [][]byte
	target := max(len(data)/n, 1)
	for len(data) > 0 {
		end := min(target, len(data))
		if j := bytes.IndexByte(data[end-1:], '\n'); j >= 0 {
			end += j
		} else {
			end = len(data)
		}
		chunks = append(chunks, data[:end])
		data = data[end:]
	}
	return chunks
}
