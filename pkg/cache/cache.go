// Package cache stores analysis artifacts and sessions behind a small
// byte-oriented interface.
//
// Three backends are provided:
//
//   - [FileCache]: entries as files under a directory, for the CLI
//   - [RedisCache]: a shared Redis server, for multi-instance API deployments
//   - [NullCache]: stores nothing, for tests or when caching is disabled
//
// Keys are built with a [Keyer] so that every backend sees the same key
// layout. [Prefixed] wraps any backend to give it its own namespace.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte store with optional per-entry expiry.
//
// Get reports a miss with ok == false and a nil error; an error means the
// backend itself failed. A ttl <= 0 stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SVGKeyOpts are the render options that change SVG output.
type SVGKeyOpts struct {
	Detailed bool   `json:"detailed"`
	Target   string `json:"target,omitempty"`
	MaxNodes int    `json:"max_nodes,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SVGKey identifies a rendered graph. graphHash is the hash of the
	// graph export the drawing was made from.
	SVGKey(graphHash string, opts SVGKeyOpts) string

	// SessionKey identifies a stored analysis.
	SessionKey(id string) string
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SVGKey returns "svg:" followed by a hash of the graph and options.
func (DefaultKeyer) SVGKey(graphHash string, opts SVGKeyOpts) string {
	return hashKey("svg", graphHash, opts)
}

// SessionKey returns "session:<id>".
func (DefaultKeyer) SessionKey(id string) string {
	return "session:" + id
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns prefix + ":" + the hash of parts encoded as JSON.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}
