package resolve

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/cffi-gen/parser"
)

// UnknownAliasError reports a typedef name with no registered definition.
type UnknownAliasError struct {
	Name string
}

func (e *UnknownAliasError) Error() string {
	return fmt.Sprintf("unknown type alias %q", e.Name)
}

// UnsupportedTypeError reports a type the mapper has no target for.
type UnsupportedTypeError struct {
	Type      parser.Type
	Signature string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Signature == "" {
		return fmt.Sprintf("unsupported type %s", e.Type)
	}
	return fmt.Sprintf("%s: unsupported type %s", e.Signature, e.Type)
}

// CyclicTypeError reports an alias chain or by-value container graph that
// loops back on itself.
type CyclicTypeError struct {
	Path []string
}

func (e *CyclicTypeError) Error() string {
	return "type cycle: " + strings.Join(e.Path, " -> ")
}
