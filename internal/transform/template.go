package transform

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Template is a parsed message template with a closed set of placeholders.
// Unknown placeholders are rejected at parse time so a bad template fails
// the run before anything is fetched.
type Template struct {
	raw string
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_]*)\}`)

// Placeholders accepted in a message template.
const (
	PlaceholderSender = "sender"
	PlaceholderBody   = "body"
)

// ParseTemplate validates a message template. Only the {sender} and {body}
// placeholders are recognized.
func ParseTemplate(raw string) (*Template, error) {
	for _, match := range placeholderPattern.FindAllStringSubmatch(raw, -1) {
		switch match[1] {
		case PlaceholderSender, PlaceholderBody:
		default:
			return nil, errors.Errorf("message template references unknown placeholder %q", match[0])
		}
	}
	return &Template{raw: raw}, nil
}

// Render substitutes the placeholder values into the template.
func (t *Template) Render(sender, body string) string {
	out := strings.ReplaceAll(t.raw, "{"+PlaceholderSender+"}", sender)
	return strings.ReplaceAll(out, "{"+PlaceholderBody+"}", body)
}

// QuoteLines prefixes every line of text with "> " so the mirrored body
// reads as a quotation in the chat message.
func QuoteLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}
