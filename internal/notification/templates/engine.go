package templates

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	texttmpl "text/template"
)

// Config controls where templates are loaded from. With Dir empty the embedded
// files are used; Reload reparses disk templates on every render.
type Config struct {
	Dir    string
	Reload bool
}

// Rendered holds the per-channel content produced by a scenario template.
type Rendered struct {
	Subject   string
	EmailHTML string
	EmailText string
	SMSText   string
}

// Handle is a typed handle for a template scenario, binding its ID to the data type it expects.
type Handle[T any] struct {
	id string
}

// Expect creates a typed handle for a template ID such as "otp.code".
func Expect[T any](id string) Handle[T] { return Handle[T]{id: id} }

func (h Handle[T]) ID() string { return h.id }

// Renderer renders a scenario by ID.
type Renderer interface {
	RenderAny(ctx context.Context, id string, data any) (Rendered, error)
}

// Engine compiles and caches scenario templates.
type Engine struct {
	cfg   Config
	log   *slog.Logger
	fs    fs.FS
	mu    sync.RWMutex
	cache map[string]*compiled
}

type compiled struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:   cfg,
		log:   log,
		fs:    EmbeddedFS,
		cache: make(map[string]*compiled),
	}
}

// Render is the typed entry point; the handle fixes the data type at compile time.
func Render[T any](ctx context.Context, e *Engine, h Handle[T], data T) (Rendered, error) {
	return e.RenderAny(ctx, h.ID(), data)
}

// RenderAny renders every block the scenario defines. Missing blocks leave the
// corresponding field empty.
func (e *Engine) RenderAny(_ context.Context, id string, data any) (Rendered, error) {
	c, err := e.getCompiled(id)
	if err != nil {
		return Rendered{}, err
	}

	var out Rendered
	textBlocks := []struct {
		name string
		dst  *string
	}{
		{"subject", &out.Subject},
		{"email_text", &out.EmailText},
		{"sms_text", &out.SMSText},
	}
	for _, b := range textBlocks {
		if c.text.Lookup(b.name) == nil {
			continue
		}
		var buf bytes.Buffer
		if err := c.text.ExecuteTemplate(&buf, b.name, data); err != nil {
			return Rendered{}, fmt.Errorf("render %s (%s): %w", b.name, id, err)
		}
		*b.dst = buf.String()
	}

	if c.html.Lookup("email_html") != nil {
		var buf bytes.Buffer
		if err := c.html.ExecuteTemplate(&buf, "email_html", data); err != nil {
			return Rendered{}, fmt.Errorf("render email_html (%s): %w", id, err)
		}
		out.EmailHTML = buf.String()
	}

	return out, nil
}

func (e *Engine) getCompiled(id string) (*compiled, error) {
	if e.cfg.Dir != "" && e.cfg.Reload {
		return e.parse(id)
	}

	e.mu.RLock()
	cached, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	c, err := e.parse(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[id] = c
	e.mu.Unlock()
	e.log.Debug("template compiled", "id", id)
	return c, nil
}

func (e *Engine) parse(id string) (*compiled, error) {
	var (
		b   []byte
		err error
	)
	if e.cfg.Dir != "" {
		b, err = os.ReadFile(filepath.Join(e.cfg.Dir, id+".tmpl"))
	} else {
		b, err = fs.ReadFile(e.fs, "files/"+id+".tmpl")
	}
	if err != nil {
		return nil, fmt.Errorf("read template %q: %w", id, err)
	}

	tText, err := texttmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse text blocks (%s): %w", id, err)
	}
	tHTML, err := htmltmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse html block (%s): %w", id, err)
	}
	return &compiled{text: tText, html: tHTML}, nil
}
