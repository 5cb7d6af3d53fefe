package cards

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/klotz/summarizer-service/internal/metrics"
	"github.com/klotz/summarizer-service/internal/session"
	"github.com/klotz/summarizer-service/internal/tools"
)

// Tools is the subset of the external tool client the cards drive.
type Tools interface {
	Summarize(ctx context.Context, url string, prompt string) (string, error)
	Ask(ctx context.Context, question string, document string) (string, error)
	Bookmark(ctx context.Context, url string) (tools.BookmarkResult, error)
	ListModels(ctx context.Context) ([]string, error)
	LoadModel(ctx context.Context, name string) (string, error)
	ActiveModelName(ctx context.Context) string
	FreeGPUMemory(ctx context.Context) string
	Status(ctx context.Context) (string, error)
}

type Settings struct {
	Via            string
	ModelType      string
	ModelLink      string
	ScuttleBaseURL string
}

// App is constructed once at startup and shared by every card.
type App struct {
	Tools    Tools
	Settings Settings
	Log      zerolog.Logger
}

// Request is what a card may read from one HTTP request.
type Request struct {
	Method  string
	Params  url.Values
	Session *session.Handle
}

// Submitted reports whether the request is a form submission.
func (r *Request) Submitted() bool {
	return r.Method == http.MethodPost
}

func (r *Request) Param(name string) (string, bool) {
	values, ok := r.Params[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Result is returned by Process when it wants something other than the
// default render.
type Result struct {
	Redirect string
	Status   int
}

type Card interface {
	Page() string
	Template() string
	PreProcess(ctx context.Context, req *Request) error
	Process(ctx context.Context, req *Request) (*Result, error)
	Render(ctx context.Context, req *Request) (View, error)
	Form() []Field
	Stats() Stats
}

type Field struct {
	Name     string
	Label    string
	Kind     string
	Required bool
	Value    string
	Options  []string
}

type Output struct {
	Name     string
	Label    string
	Text     string
	Markdown bool
}

type Stats struct {
	FreeMemory string
	Via        string
	ModelType  string
	ModelName  string
	ModelLink  string
}

// View is the data handed to the page template.
type View struct {
	Page     string
	Title    string
	Template string
	Form     []Field
	Outputs  []Output
	Stats    Stats
	Notice   string
	Error    string
}

// gatherStats probes GPU memory and the active model name in parallel. Both
// probes degrade to defaults and never fail.
func gatherStats(ctx context.Context, app *App) Stats {
	stats := Stats{
		Via:       app.Settings.Via,
		ModelType: app.Settings.ModelType,
		ModelLink: app.Settings.ModelLink,
	}
	var g errgroup.Group
	g.Go(func() error {
		stats.FreeMemory = app.Tools.FreeGPUMemory(ctx)
		return nil
	})
	g.Go(func() error {
		stats.ModelName = app.Tools.ActiveModelName(ctx)
		return nil
	})
	_ = g.Wait()
	return stats
}

type base struct {
	app      *App
	page     string
	title    string
	template string
	stats    Stats
	notice   string
}

func newBase(ctx context.Context, app *App, page string, title string) base {
	return base{
		app:      app,
		page:     page,
		title:    title,
		template: page + ".html",
		stats:    gatherStats(ctx, app),
	}
}

func (b *base) Page() string {
	return b.page
}

func (b *base) Template() string {
	return b.template
}

func (b *base) Stats() Stats {
	return b.stats
}

func (b *base) view(form []Field, outputs ...Output) View {
	return View{
		Page:     b.page,
		Title:    b.title,
		Template: b.template,
		Form:     form,
		Outputs:  outputs,
		Stats:    b.stats,
		Notice:   b.notice,
	}
}

// noteUsage records one successful action against model.
func (b *base) noteUsage(ctx context.Context, req *Request, model string) error {
	if model == "" {
		return nil
	}
	if err := req.Session.NoteUsage(ctx, model); err != nil {
		return err
	}
	metrics.RecordModelUsage(model)
	return nil
}

type param struct {
	name   string
	target *string
	sticky bool
}

// bind copies declared request parameters onto the card and into the
// session, then fills empty sticky parameters from the session. A parameter
// submitted empty still overwrites the stored value. Undeclared request
// parameters are never bound.
func bind(ctx context.Context, req *Request, params []param) error {
	for _, p := range params {
		value, ok := req.Param(p.name)
		if !ok {
			continue
		}
		*p.target = value
		if err := req.Session.Set(ctx, p.name, value); err != nil {
			return err
		}
	}
	stored := req.Session.Values()
	for _, p := range params {
		if p.sticky && *p.target == "" {
			*p.target = stored.Get(p.name)
		}
	}
	return nil
}
