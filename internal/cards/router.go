package cards

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/klotz/summarizer-service/internal/tools"
)

const (
	PageHome      = "home"
	PageScuttle   = "scuttle"
	PageSummarize = "summarize"
	PageAsk       = "ask"
	PageModel     = "via-api-model"
	PageStatus    = "status"
	PageError     = "error"
)

type constructor func(ctx context.Context, app *App, req *Request) Card

var registry = map[string]constructor{
	PageHome:      newHome,
	PageScuttle:   newScuttle,
	PageSummarize: newSummarize,
	PageAsk:       newAsk,
	PageModel:     newModel,
	PageStatus:    newStatus,
}

// Pages lists the routable page names in sorted order.
func Pages() []string {
	pages := make([]string, 0, len(registry))
	for page := range registry {
		pages = append(pages, page)
	}
	sort.Strings(pages)
	return pages
}

// Response is either a redirect or a rendered view with a status code.
type Response struct {
	Status   int
	Redirect string
	View     View
}

type Router struct {
	app *App
}

func NewRouter(app *App) *Router {
	return &Router{app: app}
}

// Route runs one card through construct, pre-process, process and render.
// Unknown pages render the error card with 404.
func (r *Router) Route(ctx context.Context, page string, req *Request) (Response, error) {
	build, ok := registry[page]
	status := http.StatusOK
	if !ok {
		build = newNotFound
		status = http.StatusNotFound
	}
	card := build(ctx, r.app, req)

	if err := card.PreProcess(ctx, req); err != nil {
		return r.failed(ctx, card, req, err)
	}
	if ok && req.Submitted() {
		result, err := card.Process(ctx, req)
		if err != nil {
			return r.failed(ctx, card, req, err)
		}
		if result != nil {
			if result.Redirect != "" {
				return Response{Status: http.StatusFound, Redirect: result.Redirect}, nil
			}
			if result.Status != 0 {
				status = result.Status
			}
		}
	}

	view, err := card.Render(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: status, View: view}, nil
}

// failed re-renders the card with the error shown. Render failures are
// returned to the caller.
func (r *Router) failed(ctx context.Context, card Card, req *Request, cause error) (Response, error) {
	r.app.Log.Warn().Err(cause).Str("page", card.Page()).Msg("card request failed")
	view, err := card.Render(ctx, req)
	if err != nil {
		return Response{}, errors.Join(cause, err)
	}
	view.Error = cause.Error()
	return Response{Status: StatusFor(cause), View: view}, nil
}

// StatusFor maps an error to the HTTP status shown to the user.
func StatusFor(err error) int {
	var invalid *InvalidInputError
	var execErr *tools.ExecutionError
	var malformed *tools.MalformedOutputError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &execErr), errors.As(err, &malformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
