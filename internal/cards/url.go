package cards

import (
	"context"
	"strings"

	"github.com/klotz/summarizer-service/internal/session"
)

// urlCard is embedded by every card that acts on a page URL.
type urlCard struct {
	base
	url string
}

func (c *urlCard) params() []param {
	return []param{{name: session.FieldURL, target: &c.url, sticky: true}}
}

func (c *urlCard) PreProcess(ctx context.Context, req *Request) error {
	return bind(ctx, req, c.params())
}

func (c *urlCard) Form() []Field {
	return []Field{{Name: session.FieldURL, Label: "URL", Kind: "url", Required: true, Value: c.url}}
}

// validURL returns the trimmed URL when it carries an http or https scheme.
func validURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, nil
	}
	reason := "must start with http:// or https://"
	if trimmed == "" {
		reason = "is required"
	}
	return "", &InvalidInputError{Field: session.FieldURL, Value: raw, Reason: reason}
}
