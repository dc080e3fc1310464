// Package prompt loads and renders the report templates served as MCP prompts.
package prompt

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template is a prompt template with its frontmatter metadata.
type Template struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Arguments   []Argument `yaml:"arguments,omitempty"`

	// Content is the template body after the frontmatter.
	Content string `yaml:"-"`

	// Source is "built-in" or "user".
	Source string `yaml:"-"`
}

// Argument describes one prompt argument.
type Argument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required,omitempty"`
}

// TemplateInfo summarizes a template for listing.
type TemplateInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Overridden  bool   `json:"overridden"` // a user template replaces the built-in
	Ignored     bool   `json:"ignored"`    // a user file exists but does not parse
}

// Load finds a template by name.
// Resolution order: user override directory → built-in
//
// A user file that cannot be read or parsed is logged and skipped, so the
// built-in keeps serving.
func (r *Renderer) Load(name string) (*Template, error) {
	tmpl, err := loadFromPath(r.dir, name)
	switch {
	case err == nil:
		tmpl.Source = "user"
		return tmpl, nil
	case !missingOverride(err):
		r.logger.Warn("ignoring broken prompt override",
			slog.String("path", filepath.Join(r.dir, name+".md")),
			slog.Any("error", err))
	}

	if tmpl, err := loadBuiltin(name); err == nil {
		tmpl.Source = "built-in"
		return tmpl, nil
	}

	return nil, fmt.Errorf("template %q not found", name)
}

// List returns the built-in templates, marking the ones a user file overrides.
// User templates with no built-in counterpart are not listed; they have no
// data to render against.
func (r *Renderer) List() []TemplateInfo {
	infos := listBuiltins()
	for i := range infos {
		_, err := loadFromPath(r.dir, infos[i].Name)
		infos[i].Overridden = err == nil
		infos[i].Ignored = err != nil && !missingOverride(err)
	}
	slices.SortFunc(infos, func(a, b TemplateInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos
}

var errNoDir = errors.New("no template directory")

// missingOverride reports whether err means there is simply no user file.
func missingOverride(err error) bool {
	return errors.Is(err, errNoDir) || errors.Is(err, os.ErrNotExist)
}

// loadFromPath loads <dir>/<name>.md.
func loadFromPath(dir, name string) (*Template, error) {
	if dir == "" {
		return nil, errNoDir
	}

	path := filepath.Join(dir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}

	tmpl, err := parseTemplate(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	if tmpl.Name == "" {
		tmpl.Name = name
	}
	return tmpl, nil
}

// parseTemplate parses a template from raw content with YAML frontmatter.
func parseTemplate(raw string) (*Template, error) {
	frontmatter, content := splitFrontmatter(raw)

	var tmpl Template
	if frontmatter != "" {
		if err := yaml.Unmarshal([]byte(frontmatter), &tmpl); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	tmpl.Content = strings.TrimSpace(content)
	return &tmpl, nil
}

// splitFrontmatter separates YAML frontmatter from content.
// Frontmatter is delimited by --- at the start and end.
func splitFrontmatter(raw string) (frontmatter, content string) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "---") {
		return "", raw
	}

	rest := raw[3:]
	before, after, ok := strings.Cut(rest, "\n---")
	if !ok {
		return "", raw
	}

	return strings.TrimSpace(before), strings.TrimSpace(after)
}
