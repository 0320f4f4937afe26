package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/w-h-a/medichat/backoff"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/conversation"
	"github.com/w-h-a/medichat/store"
)

const (
	SourceConversation = "conversation"
	SourceBloodTest    = "blood_test"
	SourceReference    = "reference_book"
)

// Service embeds content units and upserts them into the shared chunk store.
// Reference material is chunked and shared globally; conversation turns and
// blood-test summaries are private to their owner.
type Service struct {
	options Options
	logger  *slog.Logger
}

// IndexReference splits long-form reference text into semantically coherent
// chunks and stores each one with global scope. Returns the chunk count.
func (s *Service) IndexReference(ctx context.Context, ownerId string, text string) (int, error) {
	chunks, err := s.semanticChunks(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("chunking reference text: %w", err)
	}

	for _, chunk := range chunks {
		meta := map[string]any{
			"source": SourceReference,
		}

		if err := s.upsert(ctx, ownerId, chunk, meta, store.ScopeGlobal); err != nil {
			return 0, err
		}
	}

	return len(chunks), nil
}

// IndexTurn persists one conversation turn as a private chunk. The turn is
// stored as JSON so a session can be rehydrated from the store later.
func (s *Service) IndexTurn(ctx context.Context, ownerId string, turn conversation.Turn) error {
	content, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	meta := map[string]any{
		"source":       SourceConversation,
		"type":         "message",
		"message_type": turn.Role,
		"timestamp":    turn.Timestamp.UTC().Format(time.RFC3339),
	}

	return s.upsert(ctx, ownerId, string(content), meta, store.ScopePrivate)
}

// IndexResults persists a serialized blood-test summary as a private chunk.
func (s *Service) IndexResults(ctx context.Context, ownerId string, records []bloodtest.Record) error {
	summary := bloodtest.Summarize(records)

	meta := map[string]any{
		"source":    SourceBloodTest,
		"type":      "test_results",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	return s.upsert(ctx, ownerId, summary, meta, store.ScopePrivate)
}

func (s *Service) upsert(ctx context.Context, ownerId string, content string, meta map[string]any, scope string) error {
	var vec []float32

	err := backoff.Retry(ctx, func() error {
		var embedErr error
		vec, embedErr = s.options.Embedder.Embed(ctx, content)
		return embedErr
	}, s.options.MaxAttempts, s.options.BaseDelay)
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}

	err = backoff.Retry(ctx, func() error {
		return s.options.Store.Upsert(ctx, ownerId, content, meta, vec, scope)
	}, s.options.MaxAttempts, s.options.BaseDelay)
	if err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}

	return nil
}

func New(opts ...Option) *Service {
	options := NewOptions(opts...)

	if options.Embedder == nil {
		panic("embedder is required")
	}

	if options.Store == nil {
		panic("store is required")
	}

	return &Service{
		options: options,
		logger:  slog.Default().With("component", "indexer"),
	}
}
