// Package syntax provides the explicit syntax tree the mry rewriter works on, plus the canonical printer.
//
// The tree models the declaration language mry instruments: records, method blocks, interfaces, references with
// validity scopes, structural parameter patterns, generics and associated types. Method bodies and other
// expression-level code the rewriter never inspects are kept as raw text.
package syntax

import (
	"fmt"
)

// Span locates a node in its source file.
type Span struct {
	File   string
	Line   int
	Column int
	Offset int
}

// IsZero reports whether the span carries no position.
func (s Span) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// String renders the span as file:line:column, omitting unknown parts.
func (s Span) String() string {
	switch {
	case s.IsZero() && s.File == "":
		return "<unknown>"
	case s.IsZero():
		return s.File
	case s.File == "":
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
	}
}

// SpanError ties an error to the member that caused it.
type SpanError struct {
	Span   Span
	Member string
	Err    error
}

// Error implements error.
func (e *SpanError) Error() string {
	if e.Member == "" {
		return e.Err.Error()
	}

	return e.Member + ": " + e.Err.Error()
}

// Unwrap returns the wrapped error so errors.Is sees the sentinel.
func (e *SpanError) Unwrap() error {
	return e.Err
}

// Errorf builds a SpanError whose message wraps sentinel.
func Errorf(span Span, member string, sentinel error, format string, args ...any) *SpanError {
	return &SpanError{
		Span:   span,
		Member: member,
		Err:    fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...),
	}
}

// VisKind is the visibility level of a declaration.
type VisKind int

// VisKind values.
const (
	VisInherited VisKind = iota
	VisPublic
	VisRestricted
)

// Visibility is a declaration's visibility. Restriction holds the text inside pub(...) for VisRestricted,
// e.g. "crate", "super" or "in crate::animals".
type Visibility struct {
	Kind        VisKind
	Restriction string
}

// Public is the unrestricted visibility.
func Public() Visibility {
	return Visibility{Kind: VisPublic}
}

// Attribute is an outer attribute; Text is everything between "#[" and "]". A doc comment is kept as an
// attribute with Doc set and Text holding what follows the "///".
type Attribute struct {
	Text string
	Doc  bool
}

// GenericKind tells the three kinds of generic parameter apart.
type GenericKind int

// GenericKind values.
const (
	TypeParam GenericKind = iota
	LifetimeParam
	ConstParam
)

// GenericParam is one entry of a generic parameter list. Lifetime names keep their leading quote.
type GenericParam struct {
	Attrs        []Attribute
	Kind         GenericKind
	Name         string
	Bounds       []Bound
	Default      Type   // type parameters
	ConstType    Type   // const parameters
	ConstDefault string // const parameters, raw expression text
}

// Generics is a generic parameter list plus the predicates of an optional where clause.
type Generics struct {
	Params []*GenericParam
	Where  []*WherePredicate
}

// IsEmpty reports whether there are no parameters and no where clause.
func (g Generics) IsEmpty() bool {
	return len(g.Params) == 0 && len(g.Where) == 0
}

// Names returns the parameter names in declaration order.
func (g Generics) Names() []string {
	names := make([]string, 0, len(g.Params))
	for _, param := range g.Params {
		names = append(names, param.Name)
	}

	return names
}

// Args returns the parameters as generic arguments, as used to name the declaring type: <'a, T, N>.
func (g Generics) Args() []Type {
	args := make([]Type, 0, len(g.Params))

	for _, param := range g.Params {
		switch param.Kind {
		case LifetimeParam:
			args = append(args, &LifetimeType{Name: param.Name})
		case ConstParam:
			args = append(args, &ConstArg{Text: param.Name})
		default:
			args = append(args, Ident(param.Name))
		}
	}

	return args
}

// WherePredicate is one entry of a where clause: Type: Bounds, or Lifetime: Bounds when Lifetime is set
// ('a: 'b). For lists the lifetimes of a higher-ranked predicate, for<'a> &'a T: Trait.
type WherePredicate struct {
	For      []string
	Lifetime string
	Type     Type
	Bounds   []Bound
}

// Bound is a single trait or lifetime bound. Maybe marks a relaxed bound such as ?Sized; For lists the
// lifetimes of a higher-ranked bound, for<'a> Fn(&'a str).
type Bound struct {
	Lifetime string
	Maybe    bool
	For      []string
	Path     *PathType
}
