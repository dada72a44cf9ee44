package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/mail-triage/internal/adapters/ner"
	"github.com/mikey/mail-triage/internal/adapters/store"
	"github.com/mikey/mail-triage/internal/categorizer"
	"github.com/mikey/mail-triage/internal/core"
	"github.com/mikey/mail-triage/internal/ledger"
	"github.com/mikey/mail-triage/internal/nlp"
	"github.com/mikey/mail-triage/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()

	scorer, err := scoring.NewScorer(nil, nil, scoring.DefaultOptions(), logger,
		scoring.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	service := core.NewTriageService(
		nil,
		nlp.NewNormalizer(nlp.EnglishStopwords(), nil, logger),
		ner.NewRuleExtractor(logger),
		categorizer.New(nil, logger),
		scorer,
		ledger.New(24*time.Hour, logger, ledger.WithClock(func() time.Time { return now })),
		store.NewMemoryStore(logger),
		logger,
		core.TriageOptions{Workers: 2},
	)
	return NewServer(service, logger, "127.0.0.1:0")
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func batch() string {
	date := func(d time.Duration) string {
		return now.Add(-d).Format("Mon, 2 Jan 2006 15:04:05 -0700")
	}
	items := []interface{}{
		map[string]string{
			"id": "m1", "subject": "Weekly Newsletter", "sender": "news@shop.example",
			"body_or_snippet": "Unsubscribe at any time", "date": date(72 * time.Hour),
		},
		map[string]string{
			"id": "m2", "subject": "Re: Urgent meeting", "sender": "boss@company.com",
			"body_or_snippet": "Can we talk?", "date": date(10 * time.Minute),
		},
		"not a message",
	}
	data, _ := json.Marshal(items)
	return string(data)
}

func decodeTriage(t *testing.T, rec *httptest.ResponseRecorder) triageResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp triageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTriage(t *testing.T) {
	s := newTestServer(t)

	resp := decodeTriage(t, do(t, s, http.MethodPost, "/v1/triage", batch()))
	require.Len(t, resp.Messages, 2)
	assert.Len(t, resp.Skipped, 1)

	first, second := resp.Messages[0], resp.Messages[1]
	assert.Equal(t, "m2", first.ID)
	assert.Equal(t, core.CategoryWork, first.Category)
	assert.Equal(t, core.PriorityMedium, first.Priority)
	assert.Equal(t, "m1", second.ID)
	assert.Equal(t, core.CategoryNewsletters, second.Category)
	assert.Equal(t, core.PriorityLow, second.Priority)
	assert.False(t, second.Overridden)
}

func TestTriageRejectsNonArray(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/v1/triage", `{"id":"m1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverrideLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/overrides/m1", `{"priority":"High"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/v1/overrides/m1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"m1","priority":"High"}`, rec.Body.String())

	resp := decodeTriage(t, do(t, s, http.MethodPost, "/v1/triage", batch()))
	require.Len(t, resp.Messages, 2)
	overridden := resp.Messages[1]
	assert.Equal(t, "m1", overridden.ID, "overrides do not change the order")
	assert.Equal(t, core.PriorityHigh, overridden.Priority)
	assert.Equal(t, core.PriorityLow, overridden.ComputedPriority)
	assert.True(t, overridden.Overridden)

	rec = do(t, s, http.MethodGet, "/v1/overrides", "")
	assert.JSONEq(t, `{"m1":"High"}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/v1/overrides/m1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/v1/overrides/m1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/v1/overrides/m1", "").Code)
}

func TestSetOverrideRejectsUnknownPriority(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/overrides/m1", `{"priority":"Urgent"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_PRIORITY")

	rec = do(t, s, http.MethodPut, "/v1/overrides/m1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDisconnect(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/v1/overrides/m1", `{"priority":"Low"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodPost, "/v1/disconnect", "").Code)

	rec := do(t, s, http.MethodGet, "/v1/overrides", "")
	assert.JSONEq(t, `{}`, rec.Body.String())
}
