package parser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultPreprocessor expands macros and drops line markers.
const DefaultPreprocessor = "cc -E -P"

// Preprocess runs command with the header path appended and returns its
// standard output. A failing preprocessor is reported as *ParseError.
func Preprocess(ctx context.Context, command, path string) ([]byte, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("empty preprocessor command")
	}
	args = append(args, path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ParseError{
			File:    path,
			Content: stderr.String(),
			Err:     fmt.Errorf("running %s: %w", args[0], err),
		}
	}

	return stdout.Bytes(), nil
}
