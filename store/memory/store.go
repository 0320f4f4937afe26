package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/medichat/store"
)

var ErrTokenNotFound = errors.New("no gmail token for owner")

// Store is an in-process store for tests and local development. Search is a
// brute-force cosine similarity scan. The concrete type is exported so tests
// can seed tokens and count rows.
type Store struct {
	options store.Options
	records map[string]store.Record
	tokens  map[string]string
	mtx     sync.RWMutex
}

func (s *Store) Upsert(ctx context.Context, ownerId string, content string, metadata map[string]any, vector []float32, scope string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now().UTC()

	cpy := make([]float32, len(vector))
	copy(cpy, vector)

	// insert-or-replace by (owner, content)
	for id, rec := range s.records {
		if rec.OwnerId == ownerId && rec.Content == content {
			rec.Metadata = metadata
			rec.Embedding = cpy
			rec.Scope = scope
			rec.UpdatedAt = now
			s.records[id] = rec
			return nil
		}
	}

	id := uuid.New().String()

	s.records[id] = store.Record{
		Id:        id,
		OwnerId:   ownerId,
		Content:   content,
		Metadata:  metadata,
		Embedding: cpy,
		Scope:     scope,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return nil
}

func (s *Store) Search(ctx context.Context, ownerId string, vector []float32, limit int) ([]store.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var records []store.Record

	for _, rec := range s.records {
		if rec.OwnerId != ownerId && rec.Scope != store.ScopeGlobal {
			continue
		}
		rec.Score = float32(store.CosineSimilarity(vector, rec.Embedding))
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})

	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (s *Store) List(ctx context.Context, ownerId string, source string) ([]store.Record, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var records []store.Record

	for _, rec := range s.records {
		if rec.OwnerId != ownerId && rec.Scope != store.ScopeGlobal {
			continue
		}
		if rec.Source() != source {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

func (s *Store) GmailToken(ctx context.Context, ownerId string) (string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	token, exists := s.tokens[ownerId]
	if !exists {
		return "", ErrTokenNotFound
	}

	return token, nil
}

func (s *Store) SetGmailToken(ownerId string, token string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.tokens[ownerId] = token
}

func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return len(s.records)
}

func NewStore(opts ...store.Option) *Store {
	options := store.NewOptions(opts...)

	return &Store{
		options: options,
		records: map[string]store.Record{},
		tokens:  map[string]string{},
	}
}
