// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package template holds the registry of publisher layouts. Built-in
// definitions are compiled into the binary; custom templates are YAML
// files in a storage directory, one file per template with the filename
// stem as the id. The registry is the single source of truth for style
// parameters: the renderer consumes whatever template it is handed.
package template

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/camera-ready/pkg/types"
)

//go:embed templates.yaml
var builtinYAML []byte

// Registry resolves template ids to full template definitions. Built-ins
// keep their file order; custom templates list after them sorted by id.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	builtins []types.Template
	custom   map[string]types.Template
	dir      string
}

// New parses the embedded built-in definitions. It fails only if the
// compiled-in YAML is malformed, which is a build defect.
func New() (*Registry, error) {
	var builtins []types.Template
	if err := yaml.Unmarshal(builtinYAML, &builtins); err != nil {
		return nil, fmt.Errorf("parsing built-in templates: %w", err)
	}
	for i := range builtins {
		normalize(&builtins[i])
	}
	return &Registry{
		builtins: builtins,
		custom:   make(map[string]types.Template),
	}, nil
}

// Load reads custom template files (*.yaml, *.yml) from dir and registers
// them with Custom=true. A missing directory is not an error. Files that
// do not parse produce a warning on stderr but do not abort, so one bad
// upload cannot take the registry down. The directory is remembered for
// SaveCustom and Remove.
func (r *Registry) Load(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dir = dir
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading template directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read template %s: %v\n", name, err)
			continue
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		tpl, err := parseCustom(id, data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping template %s: %v\n", name, err)
			continue
		}
		r.custom[id] = tpl
	}
	return nil
}

// Get returns the template with the given id. Built-ins shadow custom
// templates of the same id.
func (r *Registry) Get(id string) (types.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.builtins {
		if t.ID == id {
			return t, nil
		}
	}
	if t, ok := r.custom[id]; ok {
		return t, nil
	}
	return types.Template{}, fmt.Errorf("unknown template %q (available: %s)", id, strings.Join(r.idsLocked(), ", "))
}

// List returns all templates: built-ins in definition order, then custom
// templates sorted by id.
func (r *Registry) List() []types.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Template, 0, len(r.builtins)+len(r.custom))
	out = append(out, r.builtins...)

	ids := make([]string, 0, len(r.custom))
	for id := range r.custom {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, r.custom[id])
	}
	return out
}

// SaveCustom validates and registers a custom template definition, and
// persists it to the storage directory when one was loaded. The id of a
// built-in template cannot be taken.
func (r *Registry) SaveCustom(id string, data []byte) (types.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		return types.Template{}, fmt.Errorf("template id must not be empty")
	}
	for _, t := range r.builtins {
		if t.ID == id {
			return types.Template{}, fmt.Errorf("template id %q is built in and cannot be replaced", id)
		}
	}

	tpl, err := parseCustom(id, data)
	if err != nil {
		return types.Template{}, fmt.Errorf("template %s: %w", id, err)
	}

	if r.dir != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return types.Template{}, fmt.Errorf("creating template directory: %w", err)
		}
		path := filepath.Join(r.dir, id+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return types.Template{}, fmt.Errorf("saving template %s: %w", id, err)
		}
	}

	r.custom[id] = tpl
	return tpl, nil
}

// Remove deletes a custom template and its file. Built-ins cannot be
// removed.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.builtins {
		if t.ID == id {
			return fmt.Errorf("template %q is built in and cannot be removed", id)
		}
	}
	if _, ok := r.custom[id]; !ok {
		return fmt.Errorf("unknown template %q", id)
	}
	delete(r.custom, id)

	if r.dir != "" {
		path := filepath.Join(r.dir, id+".yaml")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing template file: %w", err)
		}
	}
	return nil
}

// IDs returns every registered template id, built-ins first.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.builtins)+len(r.custom))
	for _, t := range r.builtins {
		ids = append(ids, t.ID)
	}
	customIDs := make([]string, 0, len(r.custom))
	for id := range r.custom {
		customIDs = append(customIDs, id)
	}
	sort.Strings(customIDs)
	return append(ids, customIDs...)
}

// parseCustom unmarshals one custom template, forcing the id and the
// Custom flag and filling defaults for omitted metadata.
func parseCustom(id string, data []byte) (types.Template, error) {
	var tpl types.Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return types.Template{}, fmt.Errorf("parsing: %w", err)
	}
	tpl.ID = id
	tpl.Custom = true
	normalize(&tpl)

	if tpl.Styles.FontFamily == "" {
		return types.Template{}, fmt.Errorf("styles.font_family is required")
	}
	if tpl.Styles.Body.SizePt <= 0 {
		return types.Template{}, fmt.Errorf("styles.body.size_pt must be positive")
	}
	return tpl, nil
}

// normalize fills defaults so downstream code never sees a template with
// missing geometry.
func normalize(t *types.Template) {
	if t.Name == "" {
		t.Name = titleCase(strings.ReplaceAll(t.ID, "_", " "))
	}
	if t.PageSize == "" {
		t.PageSize = types.PageA4
	}
	if t.Margins == (types.Margins{}) {
		t.Margins = types.Uniform(2.5)
	}
	if t.Styles.Columns < 1 {
		t.Styles.Columns = 1
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
