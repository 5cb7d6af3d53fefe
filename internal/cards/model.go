package cards

import "context"

const (
	fieldModelName = "model_name"
	modelDivider   = "----"
)

// modelCard lists the models the serving API offers and loads one on submit.
// The most used models in this session are listed first.
type modelCard struct {
	base
	models    []string
	modelName string
	output    string
}

func newModel(ctx context.Context, app *App, req *Request) Card {
	c := &modelCard{base: newBase(ctx, app, PageModel, "Via API Model")}

	popular := req.Session.SortedModels()
	c.models = append(c.models, popular...)
	if len(popular) > 0 {
		c.models = append(c.models, modelDivider)
	}
	available, err := app.Tools.ListModels(ctx)
	if err != nil {
		app.Log.Warn().Err(err).Msg("list models failed")
		c.notice = "Could not list models."
	}
	c.models = append(c.models, available...)
	return c
}

// PreProcess binds model_name for this request only; it is never stored.
func (c *modelCard) PreProcess(_ context.Context, req *Request) error {
	if value, ok := req.Param(fieldModelName); ok {
		c.modelName = value
	}
	return nil
}

func (c *modelCard) Process(ctx context.Context, req *Request) (*Result, error) {
	if c.modelName == "" || c.modelName == modelDivider {
		return nil, nil
	}
	output, err := c.app.Tools.LoadModel(ctx, c.modelName)
	if err != nil {
		return nil, err
	}
	c.output = output
	if err := c.noteUsage(ctx, req, c.modelName); err != nil {
		return nil, err
	}
	return nil, nil
}

func (c *modelCard) Form() []Field {
	return []Field{{Name: fieldModelName, Label: "Model", Kind: "select", Value: c.modelName, Options: c.models}}
}

func (c *modelCard) Render(context.Context, *Request) (View, error) {
	var outputs []Output
	if c.output != "" {
		outputs = append(outputs, Output{Name: "output", Label: "Output", Text: c.output})
	}
	return c.view(c.Form(), outputs...), nil
}
