package cards

import (
	"context"
	"errors"
	"fmt"

	"github.com/klotz/summarizer-service/internal/tools"
)

// statusCard shows the output of the status script on every render.
type statusCard struct {
	base
}

func newStatus(ctx context.Context, app *App, _ *Request) Card {
	return &statusCard{base: newBase(ctx, app, PageStatus, "Status")}
}

func (c *statusCard) PreProcess(context.Context, *Request) error {
	return nil
}

func (c *statusCard) Process(context.Context, *Request) (*Result, error) {
	return nil, nil
}

func (c *statusCard) Form() []Field {
	return nil
}

func (c *statusCard) Render(ctx context.Context, _ *Request) (View, error) {
	output, err := c.app.Tools.Status(ctx)
	if err != nil {
		output = statusFailure(err)
	}
	return c.view(nil, Output{Name: "status", Label: "Status", Text: output}), nil
}

func statusFailure(err error) string {
	var execErr *tools.ExecutionError
	if errors.As(err, &execErr) && execErr.Stderr != "" {
		return fmt.Sprintf("status exited %d:\n%s", execErr.ExitCode, execErr.Stderr)
	}
	return err.Error()
}
