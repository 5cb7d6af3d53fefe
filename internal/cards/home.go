package cards

import "context"

// homeCard is the landing page. Rendering it wipes the session.
type homeCard struct {
	base
}

func newHome(ctx context.Context, app *App, _ *Request) Card {
	return &homeCard{base: newBase(ctx, app, PageHome, "Home")}
}

func (c *homeCard) PreProcess(context.Context, *Request) error {
	return nil
}

func (c *homeCard) Process(context.Context, *Request) (*Result, error) {
	return nil, nil
}

func (c *homeCard) Form() []Field {
	return nil
}

func (c *homeCard) Render(ctx context.Context, req *Request) (View, error) {
	if err := req.Session.Clear(ctx); err != nil {
		return View{}, err
	}
	return c.view(c.Form()), nil
}

// notFoundCard is shown for unknown pages.
type notFoundCard struct {
	base
}

func newNotFound(ctx context.Context, app *App, _ *Request) Card {
	return &notFoundCard{base: newBase(ctx, app, PageError, "Not Found")}
}

func (c *notFoundCard) PreProcess(context.Context, *Request) error {
	return nil
}

func (c *notFoundCard) Process(context.Context, *Request) (*Result, error) {
	return nil, nil
}

func (c *notFoundCard) Form() []Field {
	return nil
}

func (c *notFoundCard) Render(context.Context, *Request) (View, error) {
	return c.view(nil), nil
}
