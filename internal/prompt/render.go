package prompt

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"text/template"
	"time"
)

// Renderer resolves templates and executes them against report data.
type Renderer struct {
	dir    string
	funcs  template.FuncMap
	logger *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFuncs registers extra template functions. They override the defaults
// on name clashes.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		maps.Copy(r.funcs, funcs)
	}
}

// WithLogger sets the logger used to report unusable override files.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer returns a Renderer that prefers <dir>/<name>.md over the
// built-in template of the same name. An empty dir uses built-ins only.
func NewRenderer(dir string, opts ...Option) *Renderer {
	r := &Renderer{
		dir: dir,
		funcs: template.FuncMap{
			"repeat":  strings.Repeat,
			"join":    strings.Join,
			"weekday": weekday,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the user override directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render loads the named template and executes it with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, err := r.Load(name)
	if err != nil {
		return "", err
	}
	return r.Execute(tmpl, data)
}

// Execute runs tmpl with data.
func (r *Renderer) Execute(tmpl *Template, data any) (string, error) {
	t, err := template.New(tmpl.Name).Funcs(r.funcs).Option("missingkey=error").Parse(tmpl.Content)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", tmpl.Name, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", tmpl.Name, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// weekday names the day of a YYYY-MM-DD date, or returns it unchanged.
func weekday(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Weekday().String()
}
