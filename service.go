package medichat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/generator"
	"github.com/w-h-a/medichat/indexer"
	"github.com/w-h-a/medichat/retriever"
	"github.com/w-h-a/medichat/store"
)

// Service multiplexes chatbots across users. A user's first request builds
// their session, rehydrated from the store; later requests reuse it.
type Service struct {
	retriever retriever.Retriever
	generator generator.Generator
	indexer   *indexer.Service
	store     store.Store

	mtx  sync.Mutex
	bots map[string]*Chatbot
}

func (s *Service) Chat(ctx context.Context, userId string, message string) string {
	if len(strings.TrimSpace(userId)) == 0 {
		return chatApology
	}

	return s.bot(userId).ProcessMessage(ctx, message)
}

func (s *Service) Analysis(ctx context.Context, userId string) string {
	if len(strings.TrimSpace(userId)) == 0 {
		return analysisApology
	}

	return s.bot(userId).HealthAnalysis(ctx)
}

// StoreResults records a user's blood-test results so later prompts see them.
func (s *Service) StoreResults(ctx context.Context, userId string, records []bloodtest.Record) error {
	if len(strings.TrimSpace(userId)) == 0 {
		return errors.New("user id is required")
	}

	return s.bot(userId).SetResults(ctx, records)
}

// Close waits on every session's in-flight persistence.
func (s *Service) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, bot := range s.bots {
		bot.Close()
	}
}

func (s *Service) bot(userId string) *Chatbot {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if bot, ok := s.bots[userId]; ok {
		return bot
	}

	bot := New(userId, s.retriever, s.generator, s.indexer, s.store)
	s.bots[userId] = bot

	return bot
}

func NewService(
	rt retriever.Retriever,
	gen generator.Generator,
	idx *indexer.Service,
	st store.Store,
) *Service {
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

	return &Service{
		retriever: rt,
		generator: gen,
		indexer:   idx,
		store:     st,
		bots:      map[string]*Chatbot{},
	}
}
