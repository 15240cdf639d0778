package hattrie

import (
	"fmt"

	"go.uber.org/zap"

	hterrors "github.com/tamirms/hattrie/errors"
)

const (
	defaultPromoteThreshold = 32
	defaultBurstThreshold   = 4096
	defaultBucketCount      = 64
)

// Option is a functional option for configuring a Trie.
type Option func(*config)

type config struct {
	promoteThreshold int // N: a pure leaf with this many keys becomes hybrid
	burstThreshold   int // M: a hybrid leaf with more keys than this bursts
	bucketCount      int // buckets per hybrid leaf, fixed for the leaf's lifetime
	hash             HashAlgorithm
	logger           *zap.Logger
}

func defaultConfig() *config {
	return &config{
		promoteThreshold: defaultPromoteThreshold,
		burstThreshold:   defaultBurstThreshold,
		bucketCount:      defaultBucketCount,
		hash:             HashMurmur3,
	}
}

func (c *config) validate() error {
	if c.promoteThreshold < 1 {
		return fmt.Errorf("%w: promote threshold %d must be at least 1",
			hterrors.ErrInvalidThreshold, c.promoteThreshold)
	}
	if c.burstThreshold < c.promoteThreshold {
		return fmt.Errorf("%w: burst threshold %d is below promote threshold %d",
			hterrors.ErrInvalidThreshold, c.burstThreshold, c.promoteThreshold)
	}
	if c.bucketCount < 1 {
		return fmt.Errorf("%w: got %d", hterrors.ErrInvalidBucketCount, c.bucketCount)
	}
	return nil
}

// WithPromoteThreshold sets N, the key count at which a leaf switches from
// linear-scan storage to a hashed bucket array. Default 32.
func WithPromoteThreshold(n int) Option {
	return func(c *config) {
		c.promoteThreshold = n
	}
}

// WithBurstThreshold sets M: a hashed leaf holding more than M keys is
// replaced by an internal node with fresh child leaves. M must be at least N.
// Default 4096.
func WithBurstThreshold(m int) Option {
	return func(c *config) {
		c.burstThreshold = m
	}
}

// WithBucketCount sets the number of buckets in every hashed leaf. Default 64.
func WithBucketCount(n int) Option {
	return func(c *config) {
		c.bucketCount = n
	}
}

// WithHash selects the bucket hash. Default HashMurmur3.
func WithHash(a HashAlgorithm) Option {
	return func(c *config) {
		c.hash = a
	}
}

// WithLogger sets the logger used for structural events (promotions and
// bursts), logged at debug level. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
