package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChat struct {
	reply string
	err   error
	got   openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		ID: "req-1",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newExtractor(chat ChatClient, maxBody int) *EntityExtractor {
	logger := zap.NewNop()
	return NewEntityExtractor(chat, "gpt-4o-mini", 256, 0, 1, maxBody, logger, utils.NewTextProcessor(logger, 0, false))
}

func TestExtract(t *testing.T) {
	chat := &fakeChat{reply: `[{"text":"Acme Corp","label":"ORG"}]`}
	e := newExtractor(chat, 0)

	got, err := e.Extract(context.Background(), "Invoice from Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, []core.Entity{{Text: "Acme Corp", Label: "ORG"}}, got)

	assert.Equal(t, "gpt-4o-mini", chat.got.Model)
	require.Len(t, chat.got.Messages, 2)
	assert.Contains(t, chat.got.Messages[1].Content, "Invoice from Acme Corp")
}

func TestExtractTruncatesText(t *testing.T) {
	chat := &fakeChat{reply: `[]`}
	e := newExtractor(chat, 7)

	_, err := e.Extract(context.Background(), "Invoice from Acme Corp")
	require.NoError(t, err)
	assert.Contains(t, chat.got.Messages[1].Content, "Invoice\n")
	assert.NotContains(t, chat.got.Messages[1].Content, "Acme")
}

func TestExtractErrors(t *testing.T) {
	_, err := newExtractor(&fakeChat{err: errors.New("rate limited")}, 0).Extract(context.Background(), "hi there")
	assert.Error(t, err)

	_, err = newExtractor(&fakeChat{reply: "no entities, sorry"}, 0).Extract(context.Background(), "hi there")
	assert.Error(t, err)

	got, err := newExtractor(&fakeChat{err: errors.New("unused")}, 0).Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFactoryRequiresAPIKey(t *testing.T) {
	_, err := NewFactory(config.OpenAIConfig{}, zap.NewNop(), utils.NewTextProcessor(zap.NewNop(), 0, false)).CreateEntityExtractor()
	assert.Error(t, err)

	e, err := NewFactory(config.OpenAIConfig{APIKey: "sk-test", ModelName: "gpt-4o-mini"}, zap.NewNop(),
		utils.NewTextProcessor(zap.NewNop(), 0, false)).CreateEntityExtractor()
	require.NoError(t, err)
	assert.NotNil(t, e)
}
