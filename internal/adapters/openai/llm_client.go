package openai

import (
	"context"
	"fmt"

	"github.com/mikey/mail-triage/internal/adapters/ner"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatClient is the part of the OpenAI client the extractor uses
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// EntityExtractor is an implementation of core.EntityExtractor using OpenAI
type EntityExtractor struct {
	client        ChatClient
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEntityExtractor creates a new OpenAI entity extractor
func NewEntityExtractor(
	client ChatClient,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *EntityExtractor {
	return &EntityExtractor{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Extract asks the model for the entities in text
func (e *EntityExtractor) Extract(ctx context.Context, text string) ([]core.Entity, error) {
	if text == "" {
		return []core.Entity{}, nil
	}
	text = e.textProcessor.TruncateText(text, e.maxBodySize)

	req := openai.ChatCompletionRequest{
		Model: e.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: ner.SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: ner.BuildPrompt(text),
			},
		},
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		TopP:        e.topP,
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	entities, err := ner.ParseEntities(resp.Choices[0].Message.Content, text)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Extracted entities with OpenAI",
		zap.String("model", e.modelName),
		zap.String("request_id", resp.ID),
		zap.Int("count", len(entities)))
	return entities, nil
}
