package ctrie

import (
	"github.com/sirgallo/logger"

	"github.com/sirgallo/ctrie/internal/pool"
)

// config collects the constructor-time tunables for a Ctrie. Grounded on
// the teacher's MMCMapOpts (a plain options struct passed to Open),
// generalized to functional options since the in-memory core has more
// independent knobs than a single file path.
type config struct {
	log  *logger.Log
	pool *pool.NodePool[branch]
}

// Option configures a Ctrie at construction time.
type Option func(*config)

// WithLogger overrides the package-level logger used for cooperative-retry
// and cleanup diagnostics.
func WithLogger(l *logger.Log) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithNodePool enables sync.Pool-backed recycling of cNode child slices on
// the GCAS retry path, capped at maxSize pooled slices.
func WithNodePool(maxSize int64) Option {
	return func(c *config) {
		c.pool = pool.New[branch](maxSize)
	}
}

func newConfig(opts ...Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
