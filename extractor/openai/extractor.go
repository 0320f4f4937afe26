package openai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/medichat/backoff"
	"github.com/w-h-a/medichat/bloodtest"
	"github.com/w-h-a/medichat/extractor"
)

const (
	maxAttempts = 3
	baseDelay   = 500 * time.Millisecond
)

type openAIExtractor struct {
	options extractor.Options
	client  *openai.Client
	logger  *slog.Logger
}

func (e *openAIExtractor) Extract(ctx context.Context, text string) (*bloodtest.Record, error) {
	req := openai.ChatCompletionRequest{
		Model: e.options.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	}

	var rsp openai.ChatCompletionResponse

	// the completion call is the transient part; a malformed response is a
	// data error and is not retried
	err := backoff.Retry(ctx, func() error {
		var callErr error
		rsp, callErr = e.client.CreateChatCompletion(ctx, req)
		return callErr
	}, maxAttempts, baseDelay)
	if err != nil {
		return nil, err
	}

	if len(rsp.Choices) == 0 || len(rsp.Choices[0].Message.Content) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	rec, err := parseRecord(rsp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Warn("dropping document", "error", err)
		return nil, err
	}

	return rec, nil
}

func NewExtractor(opts ...extractor.Option) extractor.Extractor {
	options := extractor.NewOptions(opts...)

	e := &openAIExtractor{
		options: options,
		logger:  slog.Default().With("component", "openai-extractor"),
	}

	client := openai.NewClient(options.ApiKey)

	e.client = client

	return e
}
