package orgdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDomain(t *testing.T) {
	tests := []struct {
		sender string
		want   string
	}{
		{"boss@company.com", "company.com"},
		{"The Boss <Boss@Company.COM>", "company.com"},
		{`"Doe, Jane" <jane@mail.example.org>`, "mail.example.org"},
		{"broken <someone@odd.example.net", "odd.example.net"},
		{"no address here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.sender, func(t *testing.T) {
			assert.Equal(t, tt.want, Domain(tt.sender))
		})
	}
}

func TestMatches(t *testing.T) {
	c := NewChecker([]string{" Company.com ", ""}, zap.NewNop())

	assert.True(t, c.Matches("boss@company.com"))
	assert.True(t, c.Matches("Team <team@eu.company.com>"))
	assert.False(t, c.Matches("someone@mycompany.com"))
	assert.False(t, c.Matches("someone@company.com.evil.io"))
	assert.False(t, c.Matches("company.com"))
}

func TestMatchesWithoutDomains(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.False(t, c.Matches("boss@company.com"))
}
