package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/mail-triage/internal/adapters/ner"
	"github.com/mikey/mail-triage/internal/adapters/store"
	"github.com/mikey/mail-triage/internal/config"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/utils"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(settings map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range settings {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateOverrideStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		settings map[string]interface{}
		check    func(t *testing.T, s core.OverrideStore)
		wantErr  bool
	}{
		{
			name:     "memory",
			settings: map[string]interface{}{"overrides.store.type": "memory"},
			check: func(t *testing.T, s core.OverrideStore) {
				assert.IsType(t, &store.MemoryStore{}, s)
			},
		},
		{
			name: "file",
			settings: map[string]interface{}{
				"overrides.store.type":      "file",
				"overrides.store.file_path": filepath.Join(dir, "session.json"),
			},
			check: func(t *testing.T, s core.OverrideStore) {
				assert.IsType(t, &store.FileStore{}, s)
			},
		},
		{
			name: "sqlite creates its directory",
			settings: map[string]interface{}{
				"overrides.store.type":        "sqlite",
				"overrides.store.sqlite_path": filepath.Join(dir, "nested", "triage.db"),
			},
			check: func(t *testing.T, s core.OverrideStore) {
				require.IsType(t, &store.SQLiteStore{}, s)
				assert.NoError(t, s.(*store.SQLiteStore).Close())
			},
		},
		{
			name:     "unsupported",
			settings: map[string]interface{}{"overrides.store.type": "redis"},
			wantErr:  true,
		},
		{
			name:     "bad retention",
			settings: map[string]interface{}{"overrides.retention": "a while"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewStoreFactory(testConfig(tt.settings), zap.NewNop())
			s, err := f.CreateOverrideStore()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestCreateLedger(t *testing.T) {
	f := NewStoreFactory(testConfig(nil), zap.NewNop())
	l, err := f.CreateLedger()
	require.NoError(t, err)
	require.NoError(t, l.Set("m1", core.PriorityHigh))
	assert.Equal(t, 1, l.Len())
}

func TestCreateEntityExtractor(t *testing.T) {
	tp := utils.NewTextProcessor(zap.NewNop(), 0, false)
	ctx := context.Background()

	e, err := NewNERFactory(testConfig(nil), zap.NewNop(), tp).CreateEntityExtractor(ctx)
	require.NoError(t, err)
	assert.IsType(t, &ner.RuleExtractor{}, e)

	e, err = NewNERFactory(testConfig(map[string]interface{}{"ner.provider": "none"}), zap.NewNop(), tp).CreateEntityExtractor(ctx)
	require.NoError(t, err)
	assert.Nil(t, e)

	e, err = NewNERFactory(testConfig(map[string]interface{}{"ner.provider": "openai"}), zap.NewNop(), tp).CreateEntityExtractor(ctx)
	require.NoError(t, err, "openai without an api key degrades")
	assert.Nil(t, e)

	_, err = NewNERFactory(testConfig(map[string]interface{}{"ner.provider": "spacy"}), zap.NewNop(), tp).CreateEntityExtractor(ctx)
	assert.Error(t, err)
}

func TestAnalysisComponents(t *testing.T) {
	cfg := testConfig(map[string]interface{}{
		"analysis.lemmatizer":          "none",
		"scoring.organization_domains": []string{"company.com"},
	})
	f := NewAnalysisFactory(cfg, zap.NewNop())

	n, err := f.CreateNormalizer()
	require.NoError(t, err)
	_, tokens := n.Normalize("Project meeting tomorrow")
	assert.Equal(t, []string{"project", "meeting", "tomorrow"}, tokens)

	lex, err := f.LoadLexicon()
	require.NoError(t, err)

	c, err := f.CreateCategorizer(lex)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryWork, c.Categorize(tokens))

	orgs, err := f.CreateOrgChecker()
	require.NoError(t, err)
	assert.True(t, orgs.Matches("alice@company.com"))

	s, err := f.CreateScorer(lex, orgs)
	require.NoError(t, err)
	scored := s.Score(core.AnalyzedMessage{Message: core.Message{ID: "1", Sender: "alice@company.com"}})
	assert.Equal(t, 3, scored.SenderScore)

	opts, err := f.TriageOptions()
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, 10*time.Second, opts.EntityTimeout)
}

func TestAnalysisFactoryErrors(t *testing.T) {
	_, err := NewAnalysisFactory(testConfig(map[string]interface{}{"analysis.lemmatizer": "porter"}), zap.NewNop()).CreateNormalizer()
	assert.Error(t, err)

	_, err = NewAnalysisFactory(testConfig(map[string]interface{}{"analysis.stopwords_file": "/does/not/exist"}), zap.NewNop()).CreateNormalizer()
	assert.Error(t, err)

	_, err = NewAnalysisFactory(testConfig(map[string]interface{}{"scoring.lexicon_file": "/does/not/exist.yaml"}), zap.NewNop()).LoadLexicon()
	assert.Error(t, err)
}

func TestCreateTextProcessor(t *testing.T) {
	v := viper.New()
	v.Set("analysis.max_body_size", 5)
	tp := NewTextProcessorFactory(config.NewFromViper(v), zap.NewNop()).CreateTextProcessor()
	assert.Equal(t, "hello", tp.ProcessBody("hello world"))
}
