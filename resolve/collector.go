package resolve

import (
	"github.com/ardanlabs/cffi-gen/parser"
)

// RequiredSet maps each named type a run needs to the signatures that
// needed it. Types keep the order in which they were first required.
type RequiredSet struct {
	order []*parser.Named
	refs  map[*parser.Named][]string
}

func NewRequiredSet() *RequiredSet {
	return &RequiredSet{refs: make(map[*parser.Named][]string)}
}

func (s *RequiredSet) add(n *parser.Named, signature string) {
	if _, ok := s.refs[n]; !ok {
		s.order = append(s.order, n)
		s.refs[n] = nil
	}
	if signature != "" {
		s.refs[n] = append(s.refs[n], signature)
	}
}

func (s *RequiredSet) Has(n *parser.Named) bool {
	_, ok := s.refs[n]
	return ok
}

func (s *RequiredSet) Len() int {
	return len(s.order)
}

// Types returns the required types in insertion order.
func (s *RequiredSet) Types() []*parser.Named {
	return append([]*parser.Named(nil), s.order...)
}

// Signatures returns the distinct signatures that required n, in the order
// they first did.
func (s *RequiredSet) Signatures(n *parser.Named) []string {
	refs := s.refs[n]
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

type frame struct {
	named    *parser.Named
	indirect bool
}

// Collector grows a RequiredSet from the types reachable from signatures.
type Collector struct {
	catalog   *Catalog
	set       *RequiredSet
	stack     []frame
	expanding map[*parser.Named]int
}

func NewCollector(catalog *Catalog, set *RequiredSet) *Collector {
	return &Collector{
		catalog:   catalog,
		set:       set,
		expanding: make(map[*parser.Named]int),
	}
}

func (c *Collector) Require(t parser.Type, signature string) error {
	return c.require(t, signature, false)
}

func (c *Collector) require(t parser.Type, signature string, indirect bool) error {
	switch t := t.(type) {
	case *parser.Pointer:
		return c.require(t.To, signature, true)

	case *parser.Alias:
		u, err := c.catalog.Underlying(t.Name)
		if err != nil {
			return err
		}
		return c.require(u, signature, indirect)

	case *parser.Named:
		if !t.IsContainer() {
			if c.catalog.NameOf(t) != "" {
				c.set.add(t, signature)
			}
			return nil
		}
		return c.requireContainer(t, signature, indirect)

	case *parser.Primitive, *parser.Function, *parser.Array:
		return nil
	}

	return &UnsupportedTypeError{Type: t, Signature: signature}
}

func (c *Collector) requireContainer(n *parser.Named, signature string, indirect bool) error {
	if idx, ok := c.expanding[n]; ok {
		if indirect || c.pointerSince(idx) {
			return nil
		}
		return &CyclicTypeError{Path: c.path(n)}
	}

	c.expanding[n] = len(c.stack)
	c.stack = append(c.stack, frame{named: n, indirect: indirect})

	err := c.requireNested(n, signature)

	c.stack = c.stack[:len(c.stack)-1]
	delete(c.expanding, n)

	if err != nil {
		return err
	}

	// Anonymous containers nobody named are flattened into their parent.
	if c.catalog.NameOf(n) != "" {
		c.set.add(n, signature)
	}
	return nil
}

func (c *Collector) requireNested(n *parser.Named, signature string) error {
	for _, m := range n.Members {
		switch mt := m.Type.(type) {
		case *parser.Alias:
			if err := c.require(mt, signature, false); err != nil {
				return err
			}

		case *parser.Named:
			if mt.IsContainer() && c.catalog.NameOf(mt) == "" {
				if err := c.requireNested(mt, signature); err != nil {
					return err
				}
				continue
			}
			if err := c.require(mt, signature, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) pointerSince(idx int) bool {
	for _, f := range c.stack[idx+1:] {
		if f.indirect {
			return true
		}
	}
	return false
}

func (c *Collector) path(n *parser.Named) []string {
	idx := c.expanding[n]
	path := make([]string, 0, len(c.stack)-idx+1)
	for _, f := range c.stack[idx:] {
		path = append(path, c.display(f.named))
	}
	return append(path, c.display(n))
}

func (c *Collector) display(n *parser.Named) string {
	if name := c.catalog.NameOf(n); name != "" {
		return n.Kind.String() + " " + name
	}
	return n.String()
}
