package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/mail-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupConfig writes a config using a file store inside a temp dir
func setupConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	content := `
analysis:
  lemmatizer: none
overrides:
  store:
    type: file
    file_path: ` + filepath.Join(dir, "session.json") + `
logging:
  level: error
`
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0600))
	return cfg, dir
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"mail-triage", "--config", cfg}, args...))
	return out.String(), err
}

func TestOverrideCommandsPersist(t *testing.T) {
	cfg, _ := setupConfig(t)

	_, err := run(t, cfg, "override", "set", "m1", "High")
	require.NoError(t, err)

	out, err := run(t, cfg, "override", "get", "m1")
	require.NoError(t, err)
	assert.Equal(t, "High", strings.TrimSpace(out))

	out, err = run(t, cfg, "override", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `{"m1":"High"}`, out)

	_, err = run(t, cfg, "override", "remove", "m1")
	require.NoError(t, err)
	_, err = run(t, cfg, "override", "get", "m1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestOverrideSetRejectsUnknownPriority(t *testing.T) {
	cfg, _ := setupConfig(t)

	_, err := run(t, cfg, "override", "set", "m1", "Urgent")
	assert.True(t, core.IsKind(err, core.KindInvalidPriority))

	_, err = run(t, cfg, "override", "set", "m1")
	assert.Error(t, err)
}

func TestDisconnectClearsOverrides(t *testing.T) {
	cfg, dir := setupConfig(t)

	_, err := run(t, cfg, "override", "set", "m1", "Low")
	require.NoError(t, err)
	_, err = run(t, cfg, "disconnect")
	require.NoError(t, err)

	out, err := run(t, cfg, "override", "list")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, out)

	_, err = os.Stat(filepath.Join(dir, "session.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestTriageCommand(t *testing.T) {
	cfg, dir := setupConfig(t)
	input := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"id": "n1", "subject": "Weekly newsletter", "sender": "news@shop.example", "body_or_snippet": "Unsubscribe any time", "date": ""},
		{"id": "w1", "subject": "Urgent: project deadline", "sender": "manager@company.com", "body_or_snippet": "Please send the report", "date": ""},
		42
	]`), 0600))

	_, err := run(t, cfg, "override", "set", "n1", "High")
	require.NoError(t, err)

	out, err := run(t, cfg, "triage", "--input", input)
	require.NoError(t, err)

	var results []core.ScoredMessage
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "w1", results[0].ID)
	assert.Equal(t, core.CategoryWork, results[0].Category)
	assert.Equal(t, "n1", results[1].ID)
	assert.Equal(t, core.CategoryNewsletters, results[1].Category)
	assert.Equal(t, core.PriorityHigh, results[1].Priority)
	assert.True(t, results[1].Overridden)

	output := filepath.Join(dir, "scored.json")
	_, err = run(t, cfg, "triage", "--input", input, "--output", output)
	require.NoError(t, err)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id": "w1"`)
}

func TestTriageCommandRejectsNonArray(t *testing.T) {
	cfg, dir := setupConfig(t)
	input := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"id": "x"}`), 0600))

	_, err := run(t, cfg, "triage", "--input", input)
	assert.Error(t, err)

	_, err = run(t, cfg, "triage", "--input", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
