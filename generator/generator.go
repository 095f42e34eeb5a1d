package generator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/golang-cz/textcase"

	"github.com/ardanlabs/cffi-gen/resolve"
)

const (
	FormatRuby = "rb"
	FormatJSON = "json"
)

type Config struct {
	// Module is the Ruby module the bindings live in. Defaults to the
	// library name in PascalCase.
	Module string

	// Library is the name passed to ffi_lib (e.g. "mylib" for libmylib.so).
	Library string

	Format string
}

type Generator struct {
	cfg Config
	lib *Library
}

func New(cfg Config, lib *Library) *Generator {
	if cfg.Module == "" {
		cfg.Module = textcase.PascalCase(cfg.Library)
	}
	if cfg.Format == "" {
		cfg.Format = FormatRuby
	}
	return &Generator{
		cfg: cfg,
		lib: lib,
	}
}

// Generate returns the generated files keyed by file name.
func (g *Generator) Generate() (map[string]string, error) {
	switch g.cfg.Format {
	case FormatJSON:
		return g.generateJSON()
	case FormatRuby:
		return g.generateRuby()
	}
	return nil, fmt.Errorf("unknown output format %q", g.cfg.Format)
}

func (g *Generator) generateJSON() (map[string]string, error) {
	data, err := json.MarshalIndent(g.lib, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding library: %w", err)
	}
	return map[string]string{
		g.cfg.Library + ".json": string(data) + "\n",
	}, nil
}

func (g *Generator) generateRuby() (map[string]string, error) {
	files := make(map[string]string)

	typesName := g.cfg.Library + "_types"
	typesCode, err := g.render(typesTmpl, g.lib)
	if err != nil {
		return nil, fmt.Errorf("generating types: %w", err)
	}
	if err := addFile(files, typesName+".rb", typesCode); err != nil {
		return nil, err
	}

	requires := []string{typesName}
	for _, h := range g.lib.Headers {
		name := h.Base() + "_functions"

		code, err := g.render(functionsTmpl, h)
		if err != nil {
			return nil, fmt.Errorf("generating functions for %s: %w", h.Name, err)
		}
		if err := addFile(files, name+".rb", code); err != nil {
			return nil, fmt.Errorf("generating functions for %s: %w", h.Name, err)
		}
		requires = append(requires, name)
	}

	loaderCode, err := g.render(loaderTmpl, requires)
	if err != nil {
		return nil, fmt.Errorf("generating loader: %w", err)
	}
	if err := addFile(files, g.cfg.Library+".rb", loaderCode); err != nil {
		return nil, fmt.Errorf("generating loader: %w", err)
	}

	return files, nil
}

// addFile refuses to overwrite an already generated file.
func addFile(files map[string]string, name, content string) error {
	if _, ok := files[name]; ok {
		return fmt.Errorf("output file %s generated twice", name)
	}
	files[name] = content
	return nil
}

func (g *Generator) render(text string, data any) (string, error) {
	funcs := template.FuncMap{
		"module":  func() string { return g.cfg.Module },
		"library": func() string { return g.cfg.Library },
		"join":    strings.Join,
		"params":  params,
		"layout":  layout,
	}

	t, err := template.New("").Funcs(funcs).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func params(exprs []resolve.Expr) string {
	tokens := make([]string, len(exprs))
	for i, e := range exprs {
		tokens[i] = e.Token
	}
	return "[" + strings.Join(tokens, ", ") + "]"
}

func layout(fields []resolve.Field) string {
	pairs := make([]string, len(fields))
	for i, f := range fields {
		pairs[i] = ":" + f.Name + ", " + f.Type.Token
	}
	return strings.Join(pairs, ",\n           ")
}

const loaderTmpl = `# Generated by cffi-gen. DO NOT EDIT.

require 'ffi'

module {{module}}
  extend FFI::Library
  ffi_lib '{{library}}'
end
{{range .}}
require_relative '{{.}}'
{{- end}}
`

const typesTmpl = `# Generated by cffi-gen. DO NOT EDIT.

module {{module}}
{{- range .Enums}}

  # Used by: {{join .ReferencedBy ", "}}
  enum :{{.Name}}, [
{{- range .Members}}
    :{{.Name}},{{if .Value}} {{.Value}},{{end}}
{{- end}}
  ]
{{- end}}
{{- range .Containers}}

  # Used by: {{join .ReferencedBy ", "}}
  class {{.Class}} < FFI::{{if .Union}}Union{{else}}Struct{{end}}
{{- if .Fields}}
    layout {{layout .Fields}}
{{- end}}
  end
{{- end}}
end
`

const functionsTmpl = `# Generated by cffi-gen from {{.Name}}. DO NOT EDIT.

module {{module}}
{{- range .Callbacks}}
  callback :{{.Name}}, {{params .Params}}, {{.Return.Token}}
{{- end}}
{{- range .Functions}}
  attach_function :{{.Name}}, {{params .Params}}, {{.Return.Token}}
{{- end}}
end
`
