package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/ardanlabs/cffi-gen/generator"
	"github.com/ardanlabs/cffi-gen/internal/logger"
	"github.com/ardanlabs/cffi-gen/parser"
)

// Execute runs the cffi-gen CLI with the given version string.
func Execute(version string) {
	if err := newCommand(version, os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(version string, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:                   "cffi-gen",
		Usage:                  "Generate Ruby FFI bindings from C headers",
		Version:                version,
		ArgsUsage:              "[header.h...]",
		UseShortOptionHandling: true,
		Writer:                 stdout,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "header",
				Aliases: []string{"H"},
				Usage:   "Path to C header file",
				Sources: cli.EnvVars("FFICONV_HEADER"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for generated files",
				Value:   ".",
				Sources: cli.EnvVars("FFICONV_OUTPUT"),
			},
			&cli.StringFlag{
				Name:    "module",
				Aliases: []string{"m"},
				Usage:   "Ruby module name (defaults to the library name in PascalCase)",
				Sources: cli.EnvVars("FFICONV_MODULE"),
			},
			&cli.StringFlag{
				Name:    "lib",
				Aliases: []string{"l"},
				Usage:   "Library name (e.g., 'mylib' for libmylib.so)",
				Sources: cli.EnvVars("FFICONV_LIB"),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: rb or json",
				Value:   generator.FormatRuby,
				Sources: cli.EnvVars("FFICONV_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Print the result of a jq expression over the bindings instead of writing files",
				Sources: cli.EnvVars("FFICONV_QUERY"),
			},
			&cli.BoolFlag{
				Name:    "skip-unsupported",
				Usage:   "Skip declarations with unsupported types instead of failing",
				Sources: cli.EnvVars("FFICONV_SKIP_UNSUPPORTED"),
			},
			&cli.StringSliceFlag{
				Name:    "typedef",
				Aliases: []string{"t"},
				Usage:   "Predefine a type alias as NAME=C TYPE (e.g. 'va_list=void *')",
				Sources: cli.EnvVars("FFICONV_TYPEDEF"),
			},
			&cli.StringFlag{
				Name:    "cpp",
				Usage:   "Run headers through this preprocessor command first (e.g. '" + parser.DefaultPreprocessor + "')",
				Sources: cli.EnvVars("FFICONV_CPP"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("FFICONV_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format: auto, text or json",
				Value:   "auto",
				Sources: cli.EnvVars("FFICONV_LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return generateAction(ctx, cmd, stdout)
		},
	}
}

func generateAction(ctx context.Context, cmd *cli.Command, stdout io.Writer) error {
	headers := append(cmd.StringSlice("header"), cmd.Args().Slice()...)
	if len(headers) == 0 {
		return fmt.Errorf("usage: cffi-gen [flags] <header.h>...")
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cmd.String("log-level")
	logCfg.Format = cmd.String("log-format")
	log, err := logger.Init(logCfg)
	if err != nil {
		return err
	}

	opts := Options{
		Headers:         headers,
		Module:          cmd.String("module"),
		Library:         cmd.String("lib"),
		Format:          cmd.String("format"),
		Preprocessor:    cmd.String("cpp"),
		Typedefs:        cmd.StringSlice("typedef"),
		SkipUnsupported: cmd.Bool("skip-unsupported"),
		Logger:          log,
	}

	if expr := cmd.String("query"); expr != "" {
		lib, err := Build(ctx, opts)
		if err != nil {
			return err
		}
		return printQuery(stdout, lib, expr)
	}

	files, err := Generate(ctx, opts)
	if err != nil {
		return err
	}

	outputDir := cmd.String("output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Info("generated file", "path", path)
	}

	return nil
}

func printQuery(w io.Writer, lib *generator.Library, expr string) error {
	results, err := generator.Query(lib, expr)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	for _, v := range results {
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("writing query result: %w", err)
		}
	}
	return nil
}
