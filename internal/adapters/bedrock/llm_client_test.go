package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	body    []byte
	err     error
	payload map[string]interface{}
	modelID string
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.modelID = *params.ModelId
	_ = json.Unmarshal(params.Body, &f.payload)
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func newExtractor(client ModelInvoker, modelID string) *EntityExtractor {
	return NewEntityExtractor(client, modelID, 512, 0, 1, 0, zap.NewNop(), utils.NewTextProcessor(zap.NewNop(), 0, false))
}

func TestExtractByModelFamily(t *testing.T) {
	const text = "Call Ms. Park at Initech"
	want := []core.Entity{{Text: "Ms. Park", Label: "PERSON"}, {Text: "Initech", Label: "ORG"}}
	answer := `[{"text":"Initech","label":"ORG"},{"text":"Ms. Park","label":"PERSON"}]`
	quoted, err := json.Marshal(answer)
	require.NoError(t, err)

	tests := []struct {
		name       string
		modelID    string
		body       string
		payloadKey string
	}{
		{"claude", "anthropic.claude-3-haiku-20240307-v1:0", `{"content":[{"type":"text","text":` + string(quoted) + `}]}`, "messages"},
		{"titan", "amazon.titan-text-express-v1", `{"results":[{"outputText":` + string(quoted) + `}]}`, "inputText"},
		{"generic", "meta.llama3-8b-instruct-v1:0", `{"output":` + string(quoted) + `}`, "prompt"},
		{"raw", "mistral.mistral-7b-instruct-v0:2", answer, "prompt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeInvoker{body: []byte(tt.body)}
			got, err := newExtractor(client, tt.modelID).Extract(context.Background(), text)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, tt.modelID, client.modelID)
			assert.Contains(t, client.payload, tt.payloadKey)
		})
	}
}

func TestExtractErrors(t *testing.T) {
	_, err := newExtractor(&fakeInvoker{err: errors.New("throttled")}, "amazon.titan-text-express-v1").
		Extract(context.Background(), "text")
	assert.Error(t, err)

	_, err = newExtractor(&fakeInvoker{body: []byte(`{"results":[]}`)}, "amazon.titan-text-express-v1").
		Extract(context.Background(), "text")
	assert.Error(t, err)

	_, err = newExtractor(&fakeInvoker{body: []byte(`{"content":[]}`)}, "anthropic.claude-3-haiku-20240307-v1:0").
		Extract(context.Background(), "text")
	assert.Error(t, err)
}
