package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/conversation"
	"github.com/w-h-a/medichat/store"
	"github.com/w-h-a/medichat/store/memory"
)

// flakyStore fails the first failures upserts, then delegates.
type flakyStore struct {
	*memory.Store
	failures int
}

func (s *flakyStore) Upsert(ctx context.Context, ownerId string, content string, metadata map[string]any, vector []float32, scope string) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	return s.Store.Upsert(ctx, ownerId, content, metadata, vector, scope)
}

func TestIndexTurn(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	svc := New(
		WithEmbedder(&topicEmbedder{}),
		WithStore(s),
	)

	turn := conversation.Turn{
		Role:      conversation.RoleHuman,
		Content:   "what does my hemoglobin mean?",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, svc.IndexTurn(ctx, "u1", turn))

	records, err := s.List(ctx, "u1", SourceConversation)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, store.ScopePrivate, rec.Scope)
	assert.Equal(t, "message", rec.Metadata["type"])
	assert.Equal(t, conversation.RoleHuman, rec.Metadata["message_type"])
	assert.Equal(t, "2024-06-01T12:00:00Z", rec.Metadata["timestamp"])

	var decoded conversation.Turn
	require.NoError(t, json.Unmarshal([]byte(rec.Content), &decoded))
	assert.Equal(t, turn.Content, decoded.Content)
}

func TestIndexResults(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	svc := New(
		WithEmbedder(&topicEmbedder{}),
		WithStore(s),
	)

	hgb := 13.5
	records := []bloodtest.Record{{HGB: &hgb}}

	require.NoError(t, svc.IndexResults(ctx, "u1", records))

	stored, err := s.List(ctx, "u1", SourceBloodTest)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, store.ScopePrivate, stored[0].Scope)
	assert.Equal(t, "test_results", stored[0].Metadata["type"])
	assert.Contains(t, stored[0].Content, `"HGB": 13.5`)
}

func TestIndexReferenceIsGlobal(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	svc := New(
		WithEmbedder(&topicEmbedder{}),
		WithStore(s),
	)

	text := "Hemoglobin carries oxygen. Anemia lowers hemoglobin. Iron helps hemoglobin. " +
		"A platelet forms clots. Low platelet counts cause bleeding."

	count, err := svc.IndexReference(ctx, "library", text)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := s.List(ctx, "someone-else", SourceReference)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, rec := range stored {
		assert.Equal(t, store.ScopeGlobal, rec.Scope)
	}
}

func TestUpsertRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{Store: memory.NewStore(), failures: 2}

	svc := New(
		WithEmbedder(&topicEmbedder{}),
		WithStore(s),
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
	)

	require.NoError(t, svc.IndexResults(ctx, "u1", nil))
	assert.Equal(t, 1, s.Len())
}

func TestUpsertGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{Store: memory.NewStore(), failures: 10}

	svc := New(
		WithEmbedder(&topicEmbedder{}),
		WithStore(s),
		WithMaxAttempts(2),
		WithBaseDelay(time.Millisecond),
	)

	err := svc.IndexResults(ctx, "u1", nil)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}
