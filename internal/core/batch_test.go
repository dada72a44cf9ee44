package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBatch(t *testing.T) {
	data := []byte(`[
		{"id": "1", "subject": "Hi", "sender": "a@b.c", "body_or_snippet": "snippet", "date": "today"},
		{"id": "2", "body": "full body"},
		{"id": "3", "snippet": "just a snippet"},
		{"id": "4", "body_or_snippet": "wins", "body": "loses"},
		"string",
		{"subject": "missing id"},
		{"id": "  "},
		{"id": 7},
		{"id": "8", "subject": ["not", "a", "string"]}
	]`)

	messages, skipped, err := DecodeBatch(data)
	require.NoError(t, err)

	require.Len(t, messages, 4)
	assert.Equal(t, Message{ID: "1", Subject: "Hi", Sender: "a@b.c", Body: "snippet", Date: "today"}, messages[0])
	assert.Equal(t, "full body", messages[1].Body)
	assert.Equal(t, "just a snippet", messages[2].Body)
	assert.Equal(t, "wins", messages[3].Body)

	require.Len(t, skipped, 5)
	wantIndexes := []int{4, 5, 6, 7, 8}
	for i, skip := range skipped {
		assert.True(t, IsKind(skip, KindInputShape))
		var tErr *TriageError
		require.ErrorAs(t, skip, &tErr)
		assert.Equal(t, wantIndexes[i], tErr.Index)
	}
}

func TestDecodeBatchRejectsNonArray(t *testing.T) {
	for _, doc := range []string{`{"id": "1"}`, `not json`, ``} {
		_, _, err := DecodeBatch([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestDecodeBatchEmpty(t *testing.T) {
	messages, skipped, err := DecodeBatch([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, skipped)
}

func TestMerge(t *testing.T) {
	scored := func(ids ...string) []ScoredMessage {
		out := make([]ScoredMessage, 0, len(ids))
		for _, id := range ids {
			out = append(out, ScoredMessage{AnalyzedMessage: AnalyzedMessage{Message: Message{ID: id}}})
		}
		return out
	}

	existing := scored("a", "b")
	merged := Merge(existing, scored("b", "c", "c", "d"))

	var got []string
	for _, m := range merged {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
	assert.Len(t, existing, 2)
}

func TestParsePriority(t *testing.T) {
	for _, label := range []string{"High", "Medium", "Low"} {
		p, err := ParsePriority(label)
		require.NoError(t, err)
		assert.Equal(t, Priority(label), p)
	}

	for _, label := range []string{"high", "Urgent", ""} {
		_, err := ParsePriority(label)
		assert.True(t, IsKind(err, KindInvalidPriority), label)
	}
}

func TestTriageErrorFormatting(t *testing.T) {
	err := NewParseFailure("m1", "date", "yesterday")
	assert.Equal(t, `PARSE_FAILURE: cannot parse date "yesterday" (message m1)`, err.Error())
	assert.False(t, IsKind(err, KindInputShape))
	assert.False(t, IsKind(assert.AnError, KindParseFailure))

	wrapped := NewResourceUnavailable("golem dictionary", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Contains(t, wrapped.Error(), "RESOURCE_UNAVAILABLE")
}

func TestNeutralScore(t *testing.T) {
	n := NeutralScore(Message{ID: "x"})
	assert.Equal(t, CategoryOther, n.Category)
	assert.Equal(t, PriorityLow, n.Priority)
	assert.Equal(t, PriorityLow, n.ComputedPriority)
	assert.NotNil(t, n.Tokens)
	assert.NotNil(t, n.Entities)
}
