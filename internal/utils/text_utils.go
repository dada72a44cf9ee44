package utils

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var htmlMarker = regexp.MustCompile(`(?i)<\s*(html|body|div|p|br|table|span|a)\b`)

// Elements that end a line of text when rendered
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// Elements whose content is never text
var skippedElements = map[atom.Atom]bool{
	atom.Head: true, atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true,
}

// Article extraction needs a base URL for relative links; message bodies
// have none.
var bodyBaseURL = &url.URL{Scheme: "https", Host: "mail.invalid"}

// TextProcessor prepares message bodies for analysis
type TextProcessor struct {
	logger      *zap.Logger
	maxSize     int
	extractHTML bool
}

// NewTextProcessor creates a new TextProcessor. A maxSize of zero disables
// truncation.
func NewTextProcessor(logger *zap.Logger, maxSize int, extractHTML bool) *TextProcessor {
	return &TextProcessor{
		logger:      logger,
		maxSize:     maxSize,
		extractHTML: extractHTML,
	}
}

// ProcessBody sanitizes the body, reduces HTML to text and truncates the
// result to the configured size
func (tp *TextProcessor) ProcessBody(body string) string {
	text := tp.SanitizeUTF8(body)
	if tp.extractHTML && LooksLikeHTML(text) {
		text = tp.HTMLToText(text)
	}
	return tp.TruncateText(text, tp.maxSize)
}

// LooksLikeHTML reports whether text contains common HTML markup
func LooksLikeHTML(text string) bool {
	return htmlMarker.MatchString(text)
}

// HTMLToText extracts the readable text of an HTML body, one line per
// block element. When extraction fails or finds nothing, the whole
// document is rendered instead.
func (tp *TextProcessor) HTMLToText(body string) string {
	article, err := readability.FromReader(strings.NewReader(body), bodyBaseURL)
	if err != nil {
		tp.logger.Debug("HTML extraction failed, rendering whole document", zap.Error(err))
	} else if text := tp.renderHTML(article.Content); text != "" {
		return text
	}
	return tp.renderHTML(body)
}

// renderHTML renders the text nodes of a document, breaking lines at block
// elements and <br>, and drops blank lines
func (tp *TextProcessor) renderHTML(doc string) string {
	if strings.TrimSpace(doc) == "" {
		return ""
	}
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		tp.logger.Debug("Failed to parse HTML body", zap.Error(err))
		return ""
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				sb.WriteByte('\n')
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.DataAtom] {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Drop a split multi-byte rune at the cut
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				// Skip invalid UTF-8 sequences
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}
