package syntax

// File is a parsed source file: an ordered list of top-level items.
type File struct {
	Name  string
	Items []Item
}

// Item is a top-level declaration: *Struct, *Impl, *Trait or *RawItem.
type Item interface {
	itemNode()
}

// Member is a declaration inside an impl or trait block: *Method, *AssocType, *ConstItem or *RawItem.
type Member interface {
	memberNode()
}

// StructKind distinguishes the three record shapes.
type StructKind int

// StructKind values.
const (
	NamedStruct StructKind = iota
	TupleStruct
	UnitStruct
)

// Struct is a data record declaration.
type Struct struct {
	Attrs    []Attribute
	Vis      Visibility
	Name     string
	Generics Generics
	Kind     StructKind
	Fields   []*Field
	Span     Span
}

// Field is one record field; Name is empty for tuple records.
type Field struct {
	Attrs []Attribute
	Vis   Visibility
	Name  string
	Type  Type
}

// Impl is a method block, inherent when Trait is nil.
type Impl struct {
	Attrs    []Attribute
	Unsafe   bool
	Generics Generics
	Trait    *PathType
	SelfType Type
	Items    []Member
	Span     Span
}

// Trait is an interface declaration.
type Trait struct {
	Attrs       []Attribute
	Vis         Visibility
	Unsafe      bool
	Name        string
	Generics    Generics
	Supertraits []Bound
	Items       []Member
	Span        Span
}

// Method is a function inside an impl or trait. Body is nil for a bodiless interface method.
type Method struct {
	Attrs []Attribute
	Vis   Visibility
	Sig   *Signature
	Body  *Block
}

// Signature is a method signature. A nil Output means the unit type.
type Signature struct {
	Name     string
	Const    bool
	Async    bool
	Unsafe   bool
	Generics Generics
	Inputs   []FnArg
	Output   Type
	Span     Span
}

// FnArg is one entry of a signature's input list: *Receiver or *Param.
type FnArg interface {
	fnArgNode()
}

// ReceiverKind classifies how a method takes self. ReceiverNone marks a static method.
type ReceiverKind int

// ReceiverKind values.
const (
	ReceiverNone ReceiverKind = iota
	ReceiverRef
	ReceiverMutRef
	ReceiverValue
	ReceiverTyped
)

// String names the receiver kind.
func (k ReceiverKind) String() string {
	switch k {
	case ReceiverNone:
		return "static"
	case ReceiverRef:
		return "&self"
	case ReceiverMutRef:
		return "&mut self"
	case ReceiverValue:
		return "self"
	case ReceiverTyped:
		return "typed self"
	default:
		return "unknown"
	}
}

// Receiver is the self parameter. Mutable is the mut binding of by-value and typed receivers; Type is only set
// for ReceiverTyped.
type Receiver struct {
	Attrs    []Attribute
	Kind     ReceiverKind
	Lifetime string
	Mutable  bool
	Type     Type
	Span     Span
}

// Param is a non-receiver parameter.
type Param struct {
	Attrs   []Attribute
	Pattern Pattern
	Type    Type
	Span    Span
}

func (*Receiver) fnArgNode() {}
func (*Param) fnArgNode()    {}

// AssocType is an associated type: declared (bounds, optional default) in a trait, bound (Default) in an impl.
type AssocType struct {
	Attrs    []Attribute
	Name     string
	Generics Generics
	Bounds   []Bound
	Default  Type
	Span     Span
}

// ConstItem is an associated constant; Value is raw expression text.
type ConstItem struct {
	Attrs []Attribute
	Vis   Visibility
	Name  string
	Type  Type
	Value string
	Span  Span
}

// RawItem is a declaration kept verbatim, such as a use item, a free function or a macro invocation.
type RawItem struct {
	Text string
	Span Span
}

func (*Struct) itemNode()  {}
func (*Impl) itemNode()    {}
func (*Trait) itemNode()   {}
func (*RawItem) itemNode() {}

func (*Method) memberNode()    {}
func (*AssocType) memberNode() {}
func (*ConstItem) memberNode() {}
func (*RawItem) memberNode()   {}

// Receiver returns the first receiver in the inputs and its index, or nil and -1.
func (s *Signature) Receiver() (*Receiver, int) {
	for i, input := range s.Inputs {
		if recv, ok := input.(*Receiver); ok {
			return recv, i
		}
	}

	return nil, -1
}

// Params returns the non-receiver inputs in order.
func (s *Signature) Params() []*Param {
	params := make([]*Param, 0, len(s.Inputs))

	for _, input := range s.Inputs {
		if param, ok := input.(*Param); ok {
			params = append(params, param)
		}
	}

	return params
}

// ReturnType returns Output, or the unit type when it is absent.
func (s *Signature) ReturnType() Type {
	if s.Output == nil {
		return Unit()
	}

	return s.Output
}

// Clone returns a copy with fresh slices, so inputs and generics can be replaced without touching s.
func (s *Signature) Clone() *Signature {
	clone := *s
	clone.Inputs = append([]FnArg(nil), s.Inputs...)
	clone.Generics.Params = append([]*GenericParam(nil), s.Generics.Params...)

	return &clone
}

// Name returns the display name of a declaration used in diagnostics and summaries.
func Name(item Item) string {
	switch typed := item.(type) {
	case *Struct:
		return typed.Name
	case *Trait:
		return typed.Name
	case *Impl:
		if typed.Trait != nil {
			return "<" + TypeString(typed.SelfType) + " as " + TypeString(typed.Trait) + ">"
		}

		return TypeString(typed.SelfType)
	default:
		return ""
	}
}
