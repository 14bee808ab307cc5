package assignment

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adlytics/experiment-service/internal/domain"
	"github.com/adlytics/experiment-service/internal/experiments"
)

const (
	// VisitorCookie holds the opaque visitor id, independent of any
	// authenticated user account.
	VisitorCookie = "ab_vid"

	// variantCookiePrefix namespaces one variant cookie per experiment.
	variantCookiePrefix = "ab_test_"

	// CookieMaxAge is 30 days, the stickiness window for both cookies.
	CookieMaxAge = 30 * 24 * 60 * 60
)

// VariantCookieName returns the cookie name carrying the visitor's variant
// for the given experiment.
func VariantCookieName(testID string) string {
	return variantCookiePrefix + testID
}

// Engine resolves sticky variant assignments. Assignment state lives in
// client-held cookies; the engine itself is stateless apart from its random
// source, so any instance can serve any visitor.
type Engine struct {
	registry *experiments.Registry

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects a seeded random source so assignment is reproducible in
// tests. The engine serializes access; the source need not be safe for
// concurrent use.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// NewEngine creates an assignment engine over the active experiment set.
func NewEngine(registry *experiments.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Registry returns the experiment set the engine assigns for.
func (e *Engine) Registry() *experiments.Registry {
	return e.registry
}

// MintVisitorID creates a fresh opaque visitor id. Collisions would merge
// two visitors' logs, so the id space has to be large; a v4 UUID is.
func (e *Engine) MintVisitorID() string {
	return uuid.NewString()
}

// ResolveVariant returns the variant encoded in a previously issued token,
// or draws a fresh one when the token is absent or malformed. The second
// return reports whether the assignment is fresh and must be persisted by
// the caller. Malformed tokens are silently re-assigned, never an error.
func (e *Engine) ResolveVariant(token string) (domain.Variant, bool) {
	if v, ok := domain.ParseVariant(token); ok {
		return v, false
	}
	return e.flip(), true
}

// flip is an unbiased coin flip between the two arms.
func (e *Engine) flip() domain.Variant {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rng.Intn(2) == 0 {
		return domain.VariantA
	}
	return domain.VariantB
}
