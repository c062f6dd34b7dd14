// Package session keeps analyses alive between API requests.
//
// A [Session] pairs an [pipeline.Analysis] with an expiry. Stores hold one
// independent analysis per session, so concurrent uploads never see each
// other's graphs. Two backends are provided:
//
//   - [MemoryStore]: in-process, for a single server instance
//   - [CacheStore]: serialized into a [cache.Cache], typically Redis, so
//     that several instances can serve the same session
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(analysis, session.DefaultTTL)
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // not found or expired
//	}
package session

import (
	"context"
	"time"

	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

// DefaultTTL is how long an analysis stays available after upload.
const DefaultTTL = time.Hour

// Session is a stored analysis.
type Session struct {
	ID        string
	Analysis  *pipeline.Analysis
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New wraps an analysis in a session that expires after ttl. The session
// ID is the analysis ID.
func New(a *pipeline.Analysis, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        a.ID,
		Analysis:  a,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TTL returns the time left before the session expires.
func (s *Session) TTL() time.Duration {
	return time.Until(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op for backends with
	// native expiry).
	Cleanup(ctx context.Context) error
}
