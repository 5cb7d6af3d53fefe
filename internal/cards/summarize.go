package cards

import (
	"context"

	"github.com/klotz/summarizer-service/internal/session"
)

const defaultPrompt = "Summarize"

type summarizeCard struct {
	urlCard
	prompt  string
	summary string
}

func newSummarize(ctx context.Context, app *App, _ *Request) Card {
	return &summarizeCard{urlCard: urlCard{base: newBase(ctx, app, PageSummarize, "Summarize")}}
}

func (c *summarizeCard) PreProcess(ctx context.Context, req *Request) error {
	params := append(c.params(), param{name: session.FieldPrompt, target: &c.prompt, sticky: true})
	if err := bind(ctx, req, params); err != nil {
		return err
	}
	if c.prompt == "" {
		c.prompt = defaultPrompt
	}
	return nil
}

func (c *summarizeCard) Process(ctx context.Context, req *Request) (*Result, error) {
	target, err := validURL(c.url)
	if err != nil {
		return nil, err
	}

	summary, err := c.app.Tools.Summarize(ctx, target, c.prompt)
	if err != nil {
		c.app.Log.Error().Err(err).Str("page", c.page).Str("url", target).Msg("summarize failed")
		c.summary = ""
		c.notice = "The summarizer failed. Try again later."
		return nil, nil
	}

	c.summary = summary
	err = req.Session.Update(ctx, func(s *session.Session) error {
		s.Summary = summary
		s.Context = summary
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := c.noteUsage(ctx, req, c.stats.ModelName); err != nil {
		return nil, err
	}
	return nil, nil
}

func (c *summarizeCard) Form() []Field {
	return append(c.urlCard.Form(), Field{Name: session.FieldPrompt, Label: "Prompt", Kind: "text", Value: c.prompt})
}

func (c *summarizeCard) Render(context.Context, *Request) (View, error) {
	var outputs []Output
	if c.summary != "" {
		outputs = append(outputs, Output{Name: session.FieldSummary, Label: "Summary", Text: c.summary, Markdown: true})
	}
	return c.view(c.Form(), outputs...), nil
}
