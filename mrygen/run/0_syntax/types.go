package syntax

// Type is any type expression.
type Type interface {
	typeNode()
}

// PathType is a possibly qualified path such as Option<Self::Item> or <Cat as Iterator>::Item.
type PathType struct {
	QSelf    *QSelf
	Global   bool // leading ::
	Segments []*PathSegment
}

// QSelf is the <Type as Trait> qualifier of a path. Trait is nil for the bare <Type>::X form.
type QSelf struct {
	Type  Type
	Trait *PathType
}

// PathSegment is one name of a path with its generic arguments. FnArgs is set for parenthesized
// arguments (Fn(A, B) -> C), in which case Output may be set and Args is unused.
type PathSegment struct {
	Name   string
	Args   []Type
	FnArgs []Type
	Fn     bool
	Output Type
}

// RefType is a borrowed reference, &'a mut T.
type RefType struct {
	Lifetime string
	Mutable  bool
	Elem     Type
}

// TupleType is a tuple; the empty tuple is the unit type.
type TupleType struct {
	Elems []Type
}

// SliceType is [T].
type SliceType struct {
	Elem Type
}

// ArrayType is [T; Len] with Len kept as raw text.
type ArrayType struct {
	Elem Type
	Len  string
}

// ImplType is an anonymous impl Trait type.
type ImplType struct {
	Bounds []Bound
}

// DynType is a trait object, dyn Trait.
type DynType struct {
	Bounds []Bound
}

// NeverType is !.
type NeverType struct{}

// LifetimeType appears only as a generic argument: Cat<'a>.
type LifetimeType struct {
	Name string
}

// ConstArg is a const generic argument kept as raw text.
type ConstArg struct {
	Text string
}

// AssocBinding is an associated type binding inside generic arguments: Iterator<Item = T>.
type AssocBinding struct {
	Name string
	Type Type
}

func (*PathType) typeNode()     {}
func (*RefType) typeNode()      {}
func (*TupleType) typeNode()    {}
func (*SliceType) typeNode()    {}
func (*ArrayType) typeNode()    {}
func (*ImplType) typeNode()     {}
func (*DynType) typeNode()      {}
func (*NeverType) typeNode()    {}
func (*LifetimeType) typeNode() {}
func (*ConstArg) typeNode()     {}
func (*AssocBinding) typeNode() {}

// Ident returns a single-segment path type.
func Ident(name string) *PathType {
	return &PathType{Segments: []*PathSegment{{Name: name}}}
}

// Path returns a path type built from plain segment names.
func Path(names ...string) *PathType {
	segments := make([]*PathSegment, 0, len(names))
	for _, name := range names {
		segments = append(segments, &PathSegment{Name: name})
	}

	return &PathType{Segments: segments}
}

// Generic returns a single-segment path type with generic arguments, e.g. Option<T>.
func Generic(name string, args ...Type) *PathType {
	return &PathType{Segments: []*PathSegment{{Name: name, Args: args}}}
}

// Unit returns the unit type ().
func Unit() *TupleType {
	return &TupleType{}
}

// Tuple returns a tuple of the given element types.
func Tuple(elems ...Type) *TupleType {
	return &TupleType{Elems: elems}
}

// IsUnit reports whether typ is the unit type.
func IsUnit(typ Type) bool {
	tuple, ok := typ.(*TupleType)
	return ok && len(tuple.Elems) == 0
}

// WithSegment returns a copy of path with one more plain segment appended.
func (p *PathType) WithSegment(name string) *PathType {
	segments := make([]*PathSegment, 0, len(p.Segments)+1)
	segments = append(segments, p.Segments...)
	segments = append(segments, &PathSegment{Name: name})

	return &PathType{QSelf: p.QSelf, Global: p.Global, Segments: segments}
}

// SingleName returns the name of a single-segment path with no generic arguments.
func (p *PathType) SingleName() (string, bool) {
	if p.QSelf != nil || p.Global || len(p.Segments) != 1 {
		return "", false
	}

	seg := p.Segments[0]
	if len(seg.Args) > 0 || seg.Fn {
		return "", false
	}

	return seg.Name, true
}
