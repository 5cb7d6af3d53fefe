package cards

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/klotz/summarizer-service/internal/session"
	"github.com/klotz/summarizer-service/internal/tools"
)

type scuttleCard struct {
	urlCard
}

func newScuttle(ctx context.Context, app *App, _ *Request) Card {
	return &scuttleCard{urlCard: urlCard{base: newBase(ctx, app, PageScuttle, "Scuttle")}}
}

// Process runs the bookmarker and redirects to the bookmark service's add
// form prefilled with what it extracted.
func (c *scuttleCard) Process(ctx context.Context, req *Request) (*Result, error) {
	target, err := validURL(c.url)
	if err != nil {
		return nil, err
	}

	result, err := c.app.Tools.Bookmark(ctx, target)
	if result.FullText != "" {
		if setErr := req.Session.Set(ctx, session.FieldContext, result.FullText); setErr != nil {
			return nil, setErr
		}
	}
	if err != nil {
		var malformed *tools.MalformedOutputError
		if errors.As(err, &malformed) {
			c.app.Log.Error().
				Err(err).
				Str("url", target).
				Str("raw", malformed.Raw).
				Int("full_text_bytes", len(malformed.FullText)).
				Msg("bookmarker returned unusable output")
		}
		return nil, err
	}

	tags, err := keywordTags(result.Bookmark.Keywords)
	if err != nil {
		return nil, err
	}
	if err := c.noteUsage(ctx, req, c.stats.ModelName); err != nil {
		return nil, err
	}
	return &Result{Redirect: scuttleURL(c.app.Settings.ScuttleBaseURL, result.Bookmark, tags)}, nil
}

func (c *scuttleCard) Render(context.Context, *Request) (View, error) {
	return c.view(c.Form()), nil
}

// keywordTags accepts a JSON string or a JSON list of strings. Lists are
// joined with ", ".
func keywordTags(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	invalid := &InvalidInputError{Field: "keywords", Value: trimmed, Reason: "must be a string or a list of strings"}
	switch {
	case strings.HasPrefix(trimmed, "["):
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return "", invalid
		}
		return strings.Join(list, ", "), nil
	case strings.HasPrefix(trimmed, `"`):
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return "", invalid
		}
		return single, nil
	default:
		return "", invalid
	}
}

// scuttleURL keeps the add-form parameters in a fixed order.
func scuttleURL(baseURL string, bookmark tools.Bookmark, tags string) string {
	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString("?action=add")
	b.WriteString("&address=" + url.QueryEscape(bookmark.Link))
	b.WriteString("&description=" + url.QueryEscape(bookmark.Description))
	b.WriteString("&title=" + url.QueryEscape(bookmark.Title))
	b.WriteString("&tags=" + url.QueryEscape(tags))
	return b.String()
}
