// Package orgdomain recognizes senders from the user's own organization.
package orgdomain

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker matches sender addresses against the organization's domains
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new organizational domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalizedDomains = append(normalizedDomains, domain)
		}
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized organization domain checker", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// Matches reports whether the sender's domain is an organization domain or
// a subdomain of one
func (c *Checker) Matches(sender string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := Domain(sender)
	if domain == "" {
		return false
	}

	for _, org := range c.domains {
		if domain == org || strings.HasSuffix(domain, "."+org) {
			if c.logger != nil {
				c.logger.Debug("Sender is from the organization",
					zap.String("domain", domain),
					zap.String("sender", sender))
			}
			return true
		}
	}

	return false
}

// Domain returns the lower-cased domain of a "Name <address>" or bare
// address sender, or "" when there is none
func Domain(sender string) string {
	address := sender
	if parsed, err := mail.ParseAddress(sender); err == nil {
		address = parsed.Address
	}

	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ""
	}
	domain := strings.TrimSpace(address[at+1:])
	domain = strings.TrimRight(domain, ">")
	return strings.Trim(strings.ToLower(domain), ".")
}
