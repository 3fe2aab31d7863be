package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps scores in process. It backs local runs without a
// database and the tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) InsertScore(ctx context.Context, name, uid string, score int) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{
		ID:        "s_" + uuid.NewString(),
		Name:      NormalizeName(name),
		Score:     score,
		UID:       normalizeUID(uid),
		CreatedAt: s.now().UTC(),
	}
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *MemoryStore) TopScores(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	s.mu.Unlock()

	// Insertion order breaks ties the same way created_at does in Postgres.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
