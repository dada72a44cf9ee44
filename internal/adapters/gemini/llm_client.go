package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/mail-triage/internal/adapters/ner"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"go.uber.org/zap"
)

// ContentGenerator is the part of a Gemini model the extractor uses
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// EntityExtractor is an implementation of core.EntityExtractor using Google Gemini
type EntityExtractor struct {
	client        *genai.Client
	model         ContentGenerator
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewEntityExtractor creates a new Gemini entity extractor. client may be
// nil when model is not backed by one.
func NewEntityExtractor(
	client *genai.Client,
	model ContentGenerator,
	modelName string,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *EntityExtractor {
	return &EntityExtractor{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Close closes the Gemini client
func (e *EntityExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Extract asks the model for the entities in text
func (e *EntityExtractor) Extract(ctx context.Context, text string) ([]core.Entity, error) {
	if text == "" {
		return []core.Entity{}, nil
	}
	text = e.textProcessor.TruncateText(text, e.maxBodySize)

	resp, err := e.model.GenerateContent(ctx, genai.Text(ner.BuildPrompt(text)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}

	entities, err := ner.ParseEntities(sb.String(), text)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Extracted entities with Gemini",
		zap.String("model", e.modelName),
		zap.Int("count", len(entities)))
	return entities, nil
}
