package mailbox

import (
	"bytes"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/emersion/go-message/mail"
	"github.com/pkg/errors"

	// Register charset decoders (windows-1252, iso-8859-*, koi8-r, etc.)
	_ "github.com/emersion/go-message/charset"
)

type bodyParts struct {
	text    string
	html    string
	hasText bool
	hasHTML bool
}

// extractBody renders a raw RFC 5322 message as plain text. A text/plain
// part wins; an HTML-only mail is converted to Markdown. A message without
// any text part is a decode error, to be recorded per message.
func extractBody(raw []byte) (string, error) {
	parts, err := collectParts(raw)
	if err != nil {
		return "", err
	}

	if parts.hasText && strings.TrimSpace(parts.text) != "" {
		return parts.text, nil
	}

	if parts.hasHTML {
		markdown, err := htmltomarkdown.ConvertString(parts.html)
		if err != nil {
			return "", errors.Wrap(err, "converting HTML body")
		}
		return markdown, nil
	}

	if parts.hasText {
		return parts.text, nil
	}
	return "", errors.New("message has no text part")
}

func collectParts(raw []byte) (bodyParts, error) {
	var parts bodyParts

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return parts, errors.Wrap(err, "parsing message")
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return parts, errors.Wrap(err, "reading message part")
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			if !parts.hasText {
				parts.text = string(body)
				parts.hasText = true
			}
		case strings.HasPrefix(contentType, "text/html"):
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			if !parts.hasHTML {
				parts.html = string(body)
				parts.hasHTML = true
			}
		}
	}

	return parts, nil
}
