package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/lockrisk/pkg/cache"
	"github.com/matzehuels/lockrisk/pkg/depgraph"
	pkgio "github.com/matzehuels/lockrisk/pkg/io"
	"github.com/matzehuels/lockrisk/pkg/observability"
	"github.com/matzehuels/lockrisk/pkg/pipeline"
)

// CacheStore persists sessions in a cache backend. Each session is stored
// as one JSON envelope holding the analysis metadata and its graph export,
// with the backend's expiry set to the session TTL.
type CacheStore struct {
	cache cache.Cache
	keyer cache.Keyer
}

// NewCacheStore creates a store over c. If keyer is nil a DefaultKeyer is
// used.
func NewCacheStore(c cache.Cache, keyer cache.Keyer) *CacheStore {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CacheStore{cache: c, keyer: keyer}
}

type envelope struct {
	ID              string          `json:"id"`
	Name            string          `json:"name,omitempty"`
	Version         string          `json:"version,omitempty"`
	LockfileVersion int             `json:"lockfile_version,omitempty"`
	Source          string          `json:"source,omitempty"`
	Stats           pipeline.Stats  `json:"stats"`
	CreatedAt       time.Time       `json:"created_at"`
	ExpiresAt       time.Time       `json:"expires_at"`
	AnalyzedAt      time.Time       `json:"analyzed_at"`
	Graph           json.RawMessage `json:"graph"`
}

func (s *CacheStore) Get(ctx context.Context, id string) (*Session, error) {
	data, ok, err := s.cache.Get(ctx, s.keyer.SessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "session")
		return nil, nil
	}
	observability.Cache().OnCacheHit(ctx, "session")

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if time.Now().After(env.ExpiresAt) {
		_ = s.cache.Delete(ctx, s.keyer.SessionKey(id))
		return nil, nil
	}

	g, err := pkgio.UnmarshalGraph(env.Graph)
	if err != nil {
		return nil, fmt.Errorf("parse session graph: %w", err)
	}
	return &Session{
		ID:        env.ID,
		Analysis:  restore(env, g),
		CreatedAt: env.CreatedAt,
		ExpiresAt: env.ExpiresAt,
	}, nil
}

// restore rebuilds an analysis handle from a stored envelope. The stored
// metrics are trusted as written.
func restore(env envelope, g *depgraph.Graph) *pipeline.Analysis {
	a := pipeline.NewAnalysis(g)
	a.ID = env.ID
	a.Name = env.Name
	a.Version = env.Version
	a.LockfileVersion = env.LockfileVersion
	a.Source = env.Source
	a.Stats = env.Stats
	a.CreatedAt = env.AnalyzedAt
	return a
}

func (s *CacheStore) Set(ctx context.Context, sess *Session) error {
	a := sess.Analysis
	graph, err := pkgio.MarshalGraph(a.Graph())
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	data, err := json.Marshal(envelope{
		ID:              sess.ID,
		Name:            a.Name,
		Version:         a.Version,
		LockfileVersion: a.LockfileVersion,
		Source:          a.Source,
		Stats:           a.Stats,
		CreatedAt:       sess.CreatedAt,
		ExpiresAt:       sess.ExpiresAt,
		AnalyzedAt:      a.CreatedAt,
		Graph:           graph,
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ttl := sess.TTL()
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, s.keyer.SessionKey(sess.ID), data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	observability.Cache().OnCacheSet(ctx, "session", len(data))
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, s.keyer.SessionKey(id))
}

// Cleanup is a no-op: entries expire in the backend.
func (s *CacheStore) Cleanup(context.Context) error { return nil }

var _ Store = (*CacheStore)(nil)
