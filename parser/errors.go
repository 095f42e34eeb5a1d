package parser

import "fmt"

// ParseError is a header the C parser rejected. Content holds the exact text
// that was parsed, after any preprocessing.
type ParseError struct {
	File    string
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
