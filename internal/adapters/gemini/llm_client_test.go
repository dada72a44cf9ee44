package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	parts  []genai.Part
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			f.prompt = string(t)
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: f.parts}}},
	}, nil
}

func newExtractor(model ContentGenerator) *EntityExtractor {
	return NewEntityExtractor(nil, model, "gemini-1.5-flash", 0, zap.NewNop(), utils.NewTextProcessor(zap.NewNop(), 0, false))
}

func TestExtract(t *testing.T) {
	model := &fakeModel{parts: []genai.Part{
		genai.Text(`[{"text":"Friday","label":"DATE"},`),
		genai.Text(`{"text":"Globex","label":"ORG"}]`),
	}}

	got, err := newExtractor(model).Extract(context.Background(), "Globex visit on Friday")
	require.NoError(t, err)
	assert.Equal(t, []core.Entity{{Text: "Globex", Label: "ORG"}, {Text: "Friday", Label: "DATE"}}, got)
	assert.Contains(t, model.prompt, "Globex visit on Friday")
}

func TestExtractErrors(t *testing.T) {
	_, err := newExtractor(&fakeModel{err: errors.New("quota")}).Extract(context.Background(), "text")
	assert.Error(t, err)

	_, err = newExtractor(&fakeModel{}).Extract(context.Background(), "text")
	assert.Error(t, err)

	assert.NoError(t, newExtractor(&fakeModel{}).Close())
}
