// Package resolve maps C types to binding type expressions and computes the
// set of named types every signature depends on.
package resolve

import (
	"github.com/ardanlabs/cffi-gen/parser"
)

// DefaultVariadic is the alias name the parser uses for "...".
const DefaultVariadic = parser.Variadic

// Catalog is the alias table of one generation run.
type Catalog struct {
	aliases  map[string]parser.Type
	names    map[*parser.Named]string
	variadic string
}

func NewCatalog(variadic string) *Catalog {
	if variadic == "" {
		variadic = DefaultVariadic
	}
	c := &Catalog{
		aliases:  make(map[string]parser.Type),
		names:    make(map[*parser.Named]string),
		variadic: variadic,
	}
	c.aliases[variadic] = &parser.Primitive{Words: []string{"..."}}
	return c
}

// Variadic returns the alias name that marks a variadic parameter.
func (c *Catalog) Variadic() string {
	return c.variadic
}

// Register binds name to t. An anonymous struct, union or enum takes the
// first name registered for it; later typedefs of the same node are plain
// aliases.
func (c *Catalog) Register(name string, t parser.Type) {
	c.aliases[name] = t

	n, ok := t.(*parser.Named)
	if !ok || n.Name != "" {
		return
	}
	if _, named := c.names[n]; !named {
		c.names[n] = name
	}
}

func (c *Catalog) Resolve(name string) (parser.Type, error) {
	t, ok := c.aliases[name]
	if !ok {
		return nil, &UnknownAliasError{Name: name}
	}
	return t, nil
}

// Underlying follows an alias chain until it reaches a non-alias type.
func (c *Catalog) Underlying(name string) (parser.Type, error) {
	seen := map[string]bool{name: true}
	path := []string{name}

	for {
		t, err := c.Resolve(name)
		if err != nil {
			return nil, err
		}

		a, ok := t.(*parser.Alias)
		if !ok {
			return t, nil
		}

		path = append(path, a.Name)
		if seen[a.Name] {
			return nil, &CyclicTypeError{Path: path}
		}
		seen[a.Name] = true
		name = a.Name
	}
}

// NameOf returns the tag of n or, for an anonymous node, the typedef name
// it was first registered under. It returns "" for a node nothing named.
func (c *Catalog) NameOf(n *parser.Named) string {
	if n.Name != "" {
		return n.Name
	}
	return c.names[n]
}
