package cards

import (
	"context"

	"github.com/klotz/summarizer-service/internal/session"
)

type askCard struct {
	base
	question string
	document string
	answer   string
}

func newAsk(ctx context.Context, app *App, _ *Request) Card {
	return &askCard{base: newBase(ctx, app, PageAsk, "Ask")}
}

// PreProcess falls back to the last summary when no context is bound.
func (c *askCard) PreProcess(ctx context.Context, req *Request) error {
	err := bind(ctx, req, []param{
		{name: session.FieldQuestion, target: &c.question, sticky: true},
		{name: session.FieldContext, target: &c.document, sticky: true},
	})
	if err != nil {
		return err
	}
	if c.document == "" {
		c.document = req.Session.Values().Summary
	}
	return nil
}

func (c *askCard) Process(ctx context.Context, _ *Request) (*Result, error) {
	if c.question == "" {
		return nil, &InvalidInputError{Field: session.FieldQuestion, Reason: "is required"}
	}
	answer, err := c.app.Tools.Ask(ctx, c.question, c.document)
	if err != nil {
		c.app.Log.Error().Err(err).Str("page", c.page).Msg("ask failed")
		c.answer = ""
		c.notice = "The asker failed. Try again later."
		return nil, nil
	}
	c.answer = answer
	return nil, nil
}

func (c *askCard) Form() []Field {
	return []Field{
		{Name: session.FieldQuestion, Label: "Question", Kind: "text", Required: true, Value: c.question},
		{Name: session.FieldContext, Label: "Context", Kind: "textarea", Value: c.document},
	}
}

func (c *askCard) Render(context.Context, *Request) (View, error) {
	var outputs []Output
	if c.answer != "" {
		outputs = append(outputs, Output{Name: "answer", Label: "Answer", Text: c.answer, Markdown: true})
	}
	return c.view(c.Form(), outputs...), nil
}
