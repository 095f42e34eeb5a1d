package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/cffi-gen/generator"
	"github.com/ardanlabs/cffi-gen/parser"
	"github.com/ardanlabs/cffi-gen/resolve"
)

type Options struct {
	Headers         []string
	Module          string
	Library         string
	Format          string
	Preprocessor    string
	Typedefs        []string
	SkipUnsupported bool
	Logger          *slog.Logger
}

// Build parses the headers, resolves them in a fresh run and returns the
// structured bindings.
func Build(ctx context.Context, opts Options) (*generator.Library, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	predefined, err := parseTypedefs(opts.Typedefs)
	if err != nil {
		return nil, err
	}

	p := parser.New(parser.Variadic)
	files := make([]parser.File, 0, len(opts.Headers))

	for _, path := range opts.Headers {
		var f parser.File
		if opts.Preprocessor != "" {
			src, err := parser.Preprocess(ctx, opts.Preprocessor, path)
			if err != nil {
				return nil, err
			}
			f, err = p.Parse(ctx, path, src)
			if err != nil {
				return nil, err
			}
		} else {
			f, err = p.ParseFile(ctx, path)
			if err != nil {
				return nil, err
			}
		}

		log.Info("parsed header", "header", path, "declarations", len(f.Decls))
		files = append(files, f)
	}

	run := resolve.NewRun(resolve.Options{
		Variadic:        parser.Variadic,
		Predefined:      predefined,
		SkipUnsupported: opts.SkipUnsupported,
		Logger:          log,
	})
	if err := run.Resolve(files); err != nil {
		return nil, fmt.Errorf("resolving types: %w", err)
	}

	lib, err := generator.Emit(run)
	if err != nil {
		return nil, fmt.Errorf("emitting bindings: %w", err)
	}

	log.Info("resolved bindings", "enums", len(lib.Enums), "containers", len(lib.Containers), "headers", len(lib.Headers))
	return lib, nil
}

// Generate builds the bindings and renders them into files.
func Generate(ctx context.Context, opts Options) (map[string]string, error) {
	lib, err := Build(ctx, opts)
	if err != nil {
		return nil, err
	}

	gen := generator.New(generator.Config{
		Module:  opts.Module,
		Library: libraryName(opts),
		Format:  opts.Format,
	}, lib)

	files, err := gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating code: %w", err)
	}
	return files, nil
}

func libraryName(opts Options) string {
	if opts.Library != "" || len(opts.Headers) == 0 {
		return opts.Library
	}
	base := filepath.Base(opts.Headers[0])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseTypedefs reads NAME=C TYPE definitions such as "va_list=void *".
func parseTypedefs(defs []string) (map[string]parser.Type, error) {
	out := make(map[string]parser.Type, len(defs))
	for _, def := range defs {
		name, spelling, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid typedef %q: want NAME=TYPE", def)
		}

		spelling = strings.TrimSpace(spelling)
		stars := len(spelling) - len(strings.TrimRight(spelling, "* "))
		base := strings.TrimRight(spelling, "* ")
		if base == "" {
			return nil, fmt.Errorf("invalid typedef %q: missing type", def)
		}

		var t parser.Type = parser.Prim(base)
		for i, n := 0, strings.Count(spelling[len(spelling)-stars:], "*"); i < n; i++ {
			t = &parser.Pointer{To: t}
		}
		out[name] = t
	}
	return out, nil
}
