package mercury

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/chem"
	"github.com/ChrisMcGann/mstk/pkg/core"
)

// DefaultCacheSize is the number of distributions a Calculator keeps.
const DefaultCacheSize = 1024

// Calculator memoizes Mercury results keyed by composition, charge,
// particle and pruning limit. It is safe for concurrent use.
type Calculator struct {
	cache  *lru.Cache[string, core.Spectrum]
	logger *zap.Logger
	size   int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheSize sets the cache capacity.
func WithCacheSize(n int) Option {
	return func(c *Calculator) {
		c.size = n
	}
}

// NewCalculator creates a Calculator.
func NewCalculator(opts ...Option) (*Calculator, error) {
	c := &Calculator{logger: zap.NewNop(), size: DefaultCacheSize}
	for _, opt := range opts {
		opt(c)
	}
	cache, err := lru.New[string, core.Spectrum](c.size)
	if err != nil {
		return nil, fmt.Errorf("failed to create distribution cache: %w", err)
	}
	c.cache = cache
	return c, nil
}

// Distribution returns Mercury(s, charge, particle, limit), serving repeated
// requests from the cache. The returned spectrum is a private copy.
func (c *Calculator) Distribution(s chem.Stoichiometry, charge int, particle Particle, limit float64) (core.Spectrum, error) {
	key := cacheKey(s, charge, particle, limit)
	if spec, ok := c.cache.Get(key); ok {
		c.logger.Debug("distribution cache hit", zap.String("key", key))
		return spec.Clone(), nil
	}

	spec, err := Mercury(s, charge, particle, limit)
	if err != nil {
		return core.Spectrum{}, err
	}
	c.cache.Add(key, spec.Clone())
	c.logger.Debug("distribution computed",
		zap.String("composition", s.String()),
		zap.Int("charge", charge),
		zap.Stringer("particle", particle),
		zap.Int("peaks", spec.Len()))
	return spec, nil
}

// Len returns the number of cached distributions.
func (c *Calculator) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *Calculator) Purge() {
	c.cache.Purge()
}

// cacheKey encodes element ids rather than symbols so that custom elements
// sharing a symbol do not collide.
func cacheKey(s chem.Stoichiometry, charge int, particle Particle, limit float64) string {
	var b strings.Builder
	for _, id := range s.Elements() {
		fmt.Fprintf(&b, "%d:%g,", id, s.Get(id))
	}
	fmt.Fprintf(&b, "|%d|%d|%g", charge, particle, limit)
	return b.String()
}
