// Package cache provides byte caching for expensive engine outputs.
//
// Three outputs are worth caching: solved page layouts, rendered page
// artifacts (SVG/PNG bytes), and dependency-graph diagrams. Keys are
// derived from content fingerprints, so stale entries can never be
// served for a mutated document: a new revision produces a new
// fingerprint and therefore a new key. TTLs exist only to bound
// storage growth.
//
// Backends: [MemoryCache] (default), [FileCache] (CLI runs),
// [RedisCache] (shared service deployments), [NullCache] (disabled).
package cache

import (
	"context"
	"time"
)

// TTLs for each cacheable output. Keys carry content fingerprints,
// so these bound storage growth rather than freshness.
const (
	// TTLLayout applies to solved page layouts.
	TTLLayout = 6 * time.Hour

	// TTLArtifact applies to rendered page bytes.
	TTLArtifact = 24 * time.Hour

	// TTLDeps applies to rendered dependency diagrams.
	TTLDeps = 24 * time.Hour
)

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The boolean reports whether the key was
	// found; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the engine's cacheable outputs.
type Keyer interface {
	// LayoutKey generates a key for a solved page layout.
	LayoutKey(fingerprint string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for rendered page bytes.
	ArtifactKey(fingerprint string, opts ArtifactKeyOpts) string

	// DepsKey generates a key for a rendered dependency diagram.
	DepsKey(fingerprint string, opts DepsKeyOpts) string
}

// LayoutKeyOpts are the inputs besides document state that affect a
// solved layout.
type LayoutKeyOpts struct {
	Page string `json:"page"` // Page widget path; empty for a whole-document solve
}

// ArtifactKeyOpts are the inputs besides document state that affect
// rendered bytes.
type ArtifactKeyOpts struct {
	Page   string  `json:"page"`
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
}

// DepsKeyOpts are the inputs besides graph structure that affect a
// rendered dependency diagram.
type DepsKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer generates keys of the form "prefix:sha256(...)".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a solved page layout.
func (k *DefaultKeyer) LayoutKey(fingerprint string, opts LayoutKeyOpts) string {
	return hashKey("layout", fingerprint, opts)
}

// ArtifactKey generates a key for rendered page bytes.
func (k *DefaultKeyer) ArtifactKey(fingerprint string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", fingerprint, opts)
}

// DepsKey generates a key for a rendered dependency diagram.
func (k *DefaultKeyer) DepsKey(fingerprint string, opts DepsKeyOpts) string {
	return hashKey("deps", fingerprint, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
