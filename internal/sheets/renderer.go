package sheets

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"strings"
	"sync"

	sheeterr "github.com/KirkDiggler/pokemon-pf1-sheet/internal/errors"
)

// Templates holds the host's own sheet templates
//
//go:embed templates/*.html
var Templates embed.FS

// Renderer turns a data bag into markup using the template at path
type Renderer interface {
	Render(ctx context.Context, path string, data Data) (string, error)
}

// HTMLRenderer renders html/template files looked up, in order, in its
// sources. Parsed templates are cached by path.
type HTMLRenderer struct {
	sources []fs.FS

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewHTMLRenderer creates a renderer over sources. The host templates are
// always searched last.
func NewHTMLRenderer(sources ...fs.FS) *HTMLRenderer {
	return &HTMLRenderer{
		sources: append(append([]fs.FS(nil), sources...), Templates),
		cache:   make(map[string]*template.Template),
	}
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"add": func(a, b int) int {
		return a + b
	},
}

// Render implements Renderer
func (r *HTMLRenderer) Render(_ context.Context, path string, data Data) (string, error) {
	tmpl, err := r.lookup(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", sheeterr.Wrapf(err, "failed to render %s", path)
	}
	return buf.String(), nil
}

func (r *HTMLRenderer) lookup(path string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[path]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	for _, source := range r.sources {
		raw, err := fs.ReadFile(source, path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, sheeterr.Wrapf(err, "failed to read template %s", path)
		}

		tmpl, err := template.New(path).Funcs(templateFuncs).Option("missingkey=zero").Parse(string(raw))
		if err != nil {
			return nil, sheeterr.Wrapf(err, "failed to parse template %s", path)
		}

		r.mu.Lock()
		r.cache[path] = tmpl
		r.mu.Unlock()
		return tmpl, nil
	}

	return nil, sheeterr.NotFoundf("template %s not found", path).WithMeta("template", path)
}
