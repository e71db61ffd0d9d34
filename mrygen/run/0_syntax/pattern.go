package syntax

// Pattern is a binding pattern in parameter or let position.
type Pattern interface {
	patternNode()
}

// IdentPattern binds a single name: ref mut x @ sub.
type IdentPattern struct {
	Name    string
	ByRef   bool
	Mutable bool
	Sub     Pattern
}

// WildcardPattern is _.
type WildcardPattern struct{}

// RestPattern is .. inside tuple-like patterns.
type RestPattern struct{}

// StructPattern destructures a record: Cat { name, age: a, .. }.
type StructPattern struct {
	Path   *PathType
	Fields []*FieldPattern
	Rest   bool
}

// FieldPattern is one field of a StructPattern; a nil Pattern means shorthand (name binds name).
type FieldPattern struct {
	Name    string
	ByRef   bool
	Mutable bool
	Pattern Pattern
}

// TupleStructPattern destructures a tuple record or variant: Some(x).
type TupleStructPattern struct {
	Path  *PathType
	Elems []Pattern
}

// TuplePattern destructures a tuple: (a, b).
type TuplePattern struct {
	Elems []Pattern
}

// RefPattern matches through a reference: &x or &mut x.
type RefPattern struct {
	Mutable bool
	Elem    Pattern
}

func (*IdentPattern) patternNode()       {}
func (*WildcardPattern) patternNode()    {}
func (*RestPattern) patternNode()        {}
func (*StructPattern) patternNode()      {}
func (*TupleStructPattern) patternNode() {}
func (*TuplePattern) patternNode()       {}
func (*RefPattern) patternNode()         {}

// Bind returns a plain identifier pattern.
func Bind(name string) *IdentPattern {
	return &IdentPattern{Name: name}
}

// BoundNames lists every identifier a pattern binds, in order.
func BoundNames(pat Pattern) []string {
	var names []string

	var visit func(Pattern)

	visit = func(p Pattern) {
		switch typed := p.(type) {
		case *IdentPattern:
			names = append(names, typed.Name)
			if typed.Sub != nil {
				visit(typed.Sub)
			}
		case *StructPattern:
			for _, field := range typed.Fields {
				if field.Pattern == nil {
					names = append(names, field.Name)
					continue
				}

				visit(field.Pattern)
			}
		case *TupleStructPattern:
			for _, elem := range typed.Elems {
				visit(elem)
			}
		case *TuplePattern:
			for _, elem := range typed.Elems {
				visit(elem)
			}
		case *RefPattern:
			visit(typed.Elem)
		}
	}

	visit(pat)

	return names
}
