package medichat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/conversation"
	"github.com/w-h-a/medichat/indexer"
	"github.com/w-h-a/medichat/store"
	"github.com/w-h-a/medichat/store/memory"
)

type unitEmbedder struct{}

func (e *unitEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type fixedRetriever struct {
	records []store.Record
}

func (r *fixedRetriever) Retrieve(_ context.Context, _ string, _ string) []store.Record {
	return r.records
}

// scriptedGenerator captures every prompt it sees and replies with a fixed
// answer or error.
type scriptedGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)

	if g.err != nil {
		return "", g.err
	}

	return g.reply, nil
}

func newTestChatbot(st *memory.Store, gen *scriptedGenerator, rt *fixedRetriever) *Chatbot {
	idx := indexer.New(
		indexer.WithEmbedder(&unitEmbedder{}),
		indexer.WithStore(st),
	)

	return New("patient-1", rt, gen, idx, st)
}

func TestProcessMessagePersistsBothTurns(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "Your hemoglobin is within the normal range."}

	bot := newTestChatbot(st, gen, &fixedRetriever{})

	answer := bot.ProcessMessage(context.Background(), "How is my hemoglobin?")
	assert.Equal(t, gen.reply, answer)

	bot.Close()

	records, err := st.List(context.Background(), "patient-1", indexer.SourceConversation)
	require.NoError(t, err)
	require.Len(t, records, 2)

	roles := map[string]bool{}
	for _, rec := range records {
		var turn conversation.Turn
		require.NoError(t, json.Unmarshal([]byte(rec.Content), &turn))
		roles[turn.Role] = true
	}

	assert.True(t, roles[conversation.RoleHuman])
	assert.True(t, roles[conversation.RoleAssistant])
}

func TestProcessMessageApologizesWithoutPersistingOnGeneratorFailure(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{err: errors.New("model overloaded")}

	bot := newTestChatbot(st, gen, &fixedRetriever{})

	answer := bot.ProcessMessage(context.Background(), "How is my hemoglobin?")
	assert.Equal(t, chatApology, answer)

	bot.Close()

	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 0, bot.history.Len())
}

func TestProcessMessageApologizesOnEmptyInput(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "unused"}

	bot := newTestChatbot(st, gen, &fixedRetriever{})

	answer := bot.ProcessMessage(context.Background(), "   ")
	assert.Equal(t, chatApology, answer)
	assert.Empty(t, gen.prompts)
}

func TestPromptIncludesContextResultsAndHistory(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "It looks fine."}
	rt := &fixedRetriever{
		records: []store.Record{
			{Content: "Hemoglobin carries oxygen in red blood cells."},
		},
	}

	bot := newTestChatbot(st, gen, rt)

	date, err := bloodtest.ParseDate("2024-03-01")
	require.NoError(t, err)

	hgb := 14.2
	require.NoError(t, bot.SetResults(context.Background(), []bloodtest.Record{
		{ReportDate: date, HGB: &hgb},
	}))

	bot.ProcessMessage(context.Background(), "What does hemoglobin do?")
	bot.ProcessMessage(context.Background(), "And is mine normal?")

	bot.Close()

	require.Len(t, gen.prompts, 2)

	second := gen.prompts[1]
	assert.Contains(t, second, "Hemoglobin carries oxygen in red blood cells.")
	assert.Contains(t, second, "Patient's Blood Test Results:")
	assert.Contains(t, second, "14.2")
	assert.Contains(t, second, "Human: What does hemoglobin do?")
	assert.Contains(t, second, "Assistant: It looks fine.")
	assert.Contains(t, second, "Human: And is mine normal?\nAssistant:")
}

func TestHistoryWindowKeepsTenMostRecentTurns(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "Noted."}

	bot := newTestChatbot(st, gen, &fixedRetriever{})

	for i := 0; i < 7; i++ {
		bot.ProcessMessage(context.Background(), fmt.Sprintf("question %d", i))
	}

	bot.Close()

	assert.Equal(t, 10, bot.history.Len())

	last := gen.prompts[len(gen.prompts)-1]
	assert.NotContains(t, last, "Human: question 0\n")
	assert.Contains(t, last, "Human: question 5\n")
}

func TestNewRehydratesHistoryAndResults(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	later := conversation.Turn{
		Role:      conversation.RoleAssistant,
		Content:   "Your iron is a bit low.",
		Timestamp: time.Date(2024, 3, 1, 10, 0, 1, 0, time.UTC),
	}
	earlier := conversation.Turn{
		Role:      conversation.RoleHuman,
		Content:   "How is my iron?",
		Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	// stored out of order plus one malformed row
	for _, turn := range []conversation.Turn{later, earlier} {
		content, err := json.Marshal(turn)
		require.NoError(t, err)

		require.NoError(t, st.Upsert(ctx, "patient-1", string(content), map[string]any{
			"source": indexer.SourceConversation,
		}, []float32{1, 0}, store.ScopePrivate))
	}

	require.NoError(t, st.Upsert(ctx, "patient-1", "{not json", map[string]any{
		"source": indexer.SourceConversation,
	}, []float32{1, 0}, store.ScopePrivate))

	require.NoError(t, st.Upsert(ctx, "patient-1", `{"IRON": 45.0}`, map[string]any{
		"source": indexer.SourceBloodTest,
	}, []float32{1, 0}, store.ScopePrivate))

	gen := &scriptedGenerator{reply: "ok"}
	bot := newTestChatbot(st, gen, &fixedRetriever{})

	require.Equal(t, 2, bot.history.Len())

	turns := bot.history.Turns()
	assert.Equal(t, "How is my iron?", turns[0].Content)
	assert.Equal(t, "Your iron is a bit low.", turns[1].Content)

	bot.ProcessMessage(ctx, "Anything to watch?")
	bot.Close()

	require.NotEmpty(t, gen.prompts)
	assert.Contains(t, gen.prompts[0], `{"IRON": 45.0}`)
}

func TestHealthAnalysisDoesNotPersist(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "Everything trends normal."}

	bot := newTestChatbot(st, gen, &fixedRetriever{})

	answer := bot.HealthAnalysis(context.Background())
	assert.Equal(t, gen.reply, answer)

	bot.Close()

	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 0, bot.history.Len())
}

func TestHealthAnalysisApologizesOnGeneratorFailure(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{err: errors.New("model overloaded")}

	bot := newTestChatbot(st, gen, &fixedRetriever{})

	answer := bot.HealthAnalysis(context.Background())
	assert.Equal(t, analysisApology, answer)
}

func TestServiceReusesSessionsPerUser(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "ok"}

	idx := indexer.New(
		indexer.WithEmbedder(&unitEmbedder{}),
		indexer.WithStore(st),
	)

	svc := NewService(&fixedRetriever{}, gen, idx, st)
	defer svc.Close()

	svc.Chat(context.Background(), "patient-1", "hello")
	svc.Chat(context.Background(), "patient-1", "hello again")
	svc.Chat(context.Background(), "patient-2", "hi")

	assert.Len(t, svc.bots, 2)
	assert.Equal(t, 4, svc.bots["patient-1"].history.Len())
}

func TestServiceRejectsEmptyUser(t *testing.T) {
	st := memory.NewStore()
	gen := &scriptedGenerator{reply: "ok"}

	idx := indexer.New(
		indexer.WithEmbedder(&unitEmbedder{}),
		indexer.WithStore(st),
	)

	svc := NewService(&fixedRetriever{}, gen, idx, st)
	defer svc.Close()

	assert.Equal(t, chatApology, svc.Chat(context.Background(), "", "hello"))
	assert.Equal(t, analysisApology, svc.Analysis(context.Background(), " "))
}
