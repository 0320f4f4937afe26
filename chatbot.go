package medichat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/conversation"
	"github.com/w-h-a/medichat/generator"
	"github.com/w-h-a/medichat/indexer"
	"github.com/w-h-a/medichat/retriever"
	"github.com/w-h-a/medichat/store"
)

const (
	defaultWindow  = 10
	persistTimeout = 30 * time.Second

	chatApology     = "I'm sorry, but I encountered an error while processing your message. Please try again later."
	analysisApology = "I'm sorry, but I encountered an error while generating the health analysis. Please try again later."
)

// Chatbot is one patient's conversational session. It augments each question
// with retrieved context, the patient's blood-test summary, and the recent
// conversation window, then answers through the generator. Turns are persisted
// asynchronously; the store remains the source of truth across restarts.
type Chatbot struct {
	ownerId   string
	retriever retriever.Retriever
	generator generator.Generator
	indexer   *indexer.Service
	store     store.Store
	history   *conversation.History

	mtx            sync.RWMutex
	resultsSummary string

	wg     sync.WaitGroup
	logger *slog.Logger
}

// ProcessMessage answers one question. Any failure yields a fixed apology and
// leaves nothing persisted; a successful exchange appends both turns to the
// window and persists them in the background.
func (c *Chatbot) ProcessMessage(ctx context.Context, message string) string {
	if len(strings.TrimSpace(message)) == 0 {
		return chatApology
	}

	chunks := c.retriever.Retrieve(ctx, message, c.ownerId)

	prompt := c.buildPrompt(chunks, message)

	answer, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error("failed to generate answer", "error", err)
		return chatApology
	}

	now := time.Now().UTC()

	human := conversation.Turn{Role: conversation.RoleHuman, Content: message, Timestamp: now}
	reply := conversation.Turn{Role: conversation.RoleAssistant, Content: answer, Timestamp: now.Add(time.Millisecond)}

	c.history.Append(human, reply)
	c.persist(human, reply)

	return answer
}

// HealthAnalysis runs the standing analysis instruction over the patient's
// results. The exchange is not recorded as conversation.
func (c *Chatbot) HealthAnalysis(ctx context.Context) string {
	chunks := c.retriever.Retrieve(ctx, analysisInstruction, c.ownerId)

	prompt := c.buildPrompt(chunks, analysisInstruction)

	answer, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error("failed to generate analysis", "error", err)
		return analysisApology
	}

	return answer
}

// SetResults replaces the blood-test summary used in prompts and persists it.
func (c *Chatbot) SetResults(ctx context.Context, records []bloodtest.Record) error {
	if err := c.indexer.IndexResults(ctx, c.ownerId, records); err != nil {
		return err
	}

	c.mtx.Lock()
	c.resultsSummary = bloodtest.Summarize(records)
	c.mtx.Unlock()

	return nil
}

// Close waits for in-flight turn persistence to finish.
func (c *Chatbot) Close() {
	c.wg.Wait()
}

func (c *Chatbot) results() string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	return c.resultsSummary
}

func (c *Chatbot) persist(turns ...conversation.Turn) {
	for _, turn := range turns {
		turn := turn

		c.wg.Add(1)

		go func() {
			defer c.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()

			if err := c.indexer.IndexTurn(ctx, c.ownerId, turn); err != nil {
				c.logger.Warn("failed to persist turn", "role", turn.Role, "error", err)
			}
		}()
	}
}

// rehydrate restores the conversation window and the latest blood-test
// summary from the store. Failures degrade to an empty session.
func (c *Chatbot) rehydrate(ctx context.Context) {
	records, err := c.store.List(ctx, c.ownerId, indexer.SourceConversation)
	if err != nil {
		c.logger.Warn("failed to load conversation history", "error", err)
	} else {
		turns := make([]conversation.Turn, 0, len(records))

		for _, rec := range records {
			var turn conversation.Turn
			if err := json.Unmarshal([]byte(rec.Content), &turn); err != nil {
				c.logger.Warn("skipping malformed turn", "id", rec.Id, "error", err)
				continue
			}
			turns = append(turns, turn)
		}

		sort.SliceStable(turns, func(i, j int) bool {
			return turns[i].Timestamp.Before(turns[j].Timestamp)
		})

		c.history.Append(turns...)
	}

	results, err := c.store.List(ctx, c.ownerId, indexer.SourceBloodTest)
	if err != nil {
		c.logger.Warn("failed to load blood test results", "error", err)
		return
	}

	if len(results) > 0 {
		// List is ordered oldest first
		c.resultsSummary = results[len(results)-1].Content
	}
}

func New(
	ownerId string,
	rt retriever.Retriever,
	gen generator.Generator,
	idx *indexer.Service,
	st store.Store,
) *Chatbot {
	if len(strings.TrimSpace(ownerId)) == 0 {
		panic("owner id is required")
	}

	if rt == nil {
		panic("retriever is required")
	}

	if gen == nil {
		panic("generator is required")
	}

	if idx == nil {
		panic("indexer is required")
	}

	if st == nil {
		panic("store is required")
	}

	c := &Chatbot{
		ownerId:   ownerId,
		retriever: rt,
		generator: gen,
		indexer:   idx,
		store:     st,
		history:   conversation.NewHistory(defaultWindow),
		logger:    slog.Default().With("component", "chatbot", "owner", ownerId),
	}

	c.rehydrate(context.Background())

	return c
}
