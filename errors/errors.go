// Package errors defines all exported error sentinels for the hattrie library.
//
// This is the single source of truth for error values. Both the top-level
// hattrie package and the internal storage packages import from here,
// ensuring errors.Is checks work across package boundaries.
package errors

import "errors"

// Key errors
var (
	ErrKeyTooLong  = errors.New("hattrie: key exceeds maximum length (255 bytes)")
	ErrKeyNotFound = errors.New("hattrie: key not found")
)

// Construction errors
var (
	ErrInvalidThreshold   = errors.New("hattrie: invalid promotion/burst thresholds")
	ErrInvalidBucketCount = errors.New("hattrie: bucket count must be positive")
	ErrUnknownHash        = errors.New("hattrie: unknown hash algorithm")
	ErrInvalidCodec       = errors.New("hattrie: value codec must have a non-negative fixed size")
)

// Invariant errors. These indicate a bug in the library, never a caller mistake.
var (
	ErrCorruptBucket = errors.New("hattrie: packed bucket is corrupted")
	ErrCorruptTrie   = errors.New("hattrie: trie structure is corrupted")
)
