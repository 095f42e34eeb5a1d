package resolve

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardanlabs/cffi-gen/parser"
)

type Options struct {
	// Variadic is the alias name standing for "...". Defaults to DefaultVariadic.
	Variadic string

	// Predefined aliases are registered before any header typedef.
	Predefined map[string]parser.Type

	// SkipUnsupported drops signatures with unsupported types instead of
	// failing the run.
	SkipUnsupported bool

	Logger *slog.Logger
}

// Binding is a signature with its mapped parameter and return expressions.
type Binding struct {
	Signature
	Order      int
	ParamExprs []Expr
	ReturnExpr Expr
}

type Header struct {
	Name      string
	Callbacks []Binding
	Functions []Binding
}

// Run holds the state of a single generation run. Create a new one for
// every run.
type Run struct {
	Catalog  *Catalog
	Required *RequiredSet
	Mapper   *Mapper
	Headers  []Header

	collector *Collector
	opts      Options
	log       *slog.Logger
}

func NewRun(opts Options) *Run {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	catalog := NewCatalog(opts.Variadic)
	for name, t := range opts.Predefined {
		catalog.Register(name, t)
	}

	set := NewRequiredSet()
	collector := NewCollector(catalog, set)

	return &Run{
		Catalog:   catalog,
		Required:  set,
		Mapper:    NewMapper(catalog, collector),
		collector: collector,
		opts:      opts,
		log:       log,
	}
}

func (r *Run) SkipUnsupported() bool {
	return r.opts.SkipUnsupported
}

func (r *Run) Logger() *slog.Logger {
	return r.log
}

// Resolve registers every typedef of every file, then maps the callbacks
// and functions of each file in order.
func (r *Run) Resolve(files []parser.File) error {
	for _, f := range files {
		for _, d := range f.Decls {
			if d.Typedef && d.Name != "" {
				r.Catalog.Register(d.Name, d.Type)
			}
		}
	}

	for _, f := range files {
		g := Gather(f)
		h := Header{Name: g.Header}

		order := 0
		for _, sig := range g.Callbacks {
			b, ok, err := r.bind(sig, order)
			if err != nil {
				return fmt.Errorf("%s: callback %s: %w", f.Name, sig.Name, err)
			}
			if ok {
				h.Callbacks = append(h.Callbacks, b)
				order++
			}
		}

		for _, sig := range g.Functions {
			b, ok, err := r.bind(sig, order)
			if err != nil {
				return fmt.Errorf("%s: function %s: %w", f.Name, sig.Name, err)
			}
			if ok {
				h.Functions = append(h.Functions, b)
				order++
			}
		}

		r.log.Debug("resolved header", "header", f.Name, "callbacks", len(h.Callbacks), "functions", len(h.Functions))
		r.Headers = append(r.Headers, h)
	}

	return nil
}

// bind maps one signature. It checks every type first so that a skipped
// signature leaves no trace in the RequiredSet.
func (r *Run) bind(sig Signature, order int) (Binding, bool, error) {
	types := append(append([]parser.Type(nil), sig.Params...), sig.Return)
	for _, t := range types {
		if _, err := r.Mapper.Expr(t); err != nil {
			var unsupported *UnsupportedTypeError
			if r.opts.SkipUnsupported && errors.As(err, &unsupported) {
				unsupported.Signature = sig.Name
				r.log.Warn("skipping declaration", "name", sig.Name, "error", err)
				return Binding{}, false, nil
			}
			return Binding{}, false, err
		}
	}

	b := Binding{
		Signature:  sig,
		Order:      order,
		ParamExprs: make([]Expr, 0, len(sig.Params)),
	}

	for _, p := range sig.Params {
		e, err := r.Mapper.Map(p, sig.Name)
		if err != nil {
			return Binding{}, false, err
		}
		b.ParamExprs = append(b.ParamExprs, e)
	}

	e, err := r.Mapper.Map(sig.Return, sig.Name)
	if err != nil {
		return Binding{}, false, err
	}
	b.ReturnExpr = e

	return b, true, nil
}
