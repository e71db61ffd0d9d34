package parse

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
)

// converter turns grammar nodes into syntax nodes. Raw text (bodies, attributes, pass-through
// items) is sliced from src by token offsets so comments and layout inside it survive.
type converter struct {
	src  string
	file string
}

func (c *converter) convertFile(node *fileNode) *syntax.File {
	out := &syntax.File{Name: c.file, Items: make([]syntax.Item, 0, len(node.Items))}

	for _, item := range node.Items {
		out.Items = append(out.Items, c.item(item))
	}

	return out
}

func (c *converter) item(node *itemNode) syntax.Item {
	span := c.span(node.Pos)

	switch {
	case node.Struct != nil:
		return c.structDecl(node, span)
	case node.Impl != nil:
		return c.implDecl(node, span)
	case node.Trait != nil:
		return c.traitDecl(node, span)
	default:
		return &syntax.RawItem{Text: c.text(node.Tokens), Span: span}
	}
}

func (c *converter) structDecl(node *itemNode, span syntax.Span) *syntax.Struct {
	decl := node.Struct
	out := &syntax.Struct{
		Attrs:    c.attrs(node.Attrs),
		Vis:      c.vis(node.Vis),
		Name:     decl.Name,
		Generics: c.generics(decl.Generics, decl.Where),
		Span:     span,
	}

	switch {
	case decl.Tuple != nil:
		out.Kind = syntax.TupleStruct
		out.Generics.Where = c.where(decl.TupleWhere)

		for _, field := range decl.Tuple.Fields {
			out.Fields = append(out.Fields, &syntax.Field{
				Attrs: c.attrs(field.Attrs),
				Vis:   c.vis(field.Vis),
				Type:  c.typ(field.Type),
			})
		}
	case decl.Named != nil:
		out.Kind = syntax.NamedStruct

		for _, field := range decl.Named.Fields {
			out.Fields = append(out.Fields, &syntax.Field{
				Attrs: c.attrs(field.Attrs),
				Vis:   c.vis(field.Vis),
				Name:  field.Name,
				Type:  c.typ(field.Type),
			})
		}
	default:
		out.Kind = syntax.UnitStruct
	}

	return out
}

func (c *converter) implDecl(node *itemNode, span syntax.Span) *syntax.Impl {
	decl := node.Impl
	out := &syntax.Impl{
		Attrs:    c.attrs(node.Attrs),
		Unsafe:   decl.Unsafe,
		Generics: c.generics(decl.Generics, decl.Where),
		SelfType: c.typ(decl.First),
		Span:     span,
	}

	if decl.For != nil {
		out.Trait, _ = out.SelfType.(*syntax.PathType)
		out.SelfType = c.typ(decl.For)
	}

	for _, member := range decl.Members {
		out.Items = append(out.Items, c.member(member))
	}

	return out
}

func (c *converter) traitDecl(node *itemNode, span syntax.Span) *syntax.Trait {
	decl := node.Trait
	out := &syntax.Trait{
		Attrs:    c.attrs(node.Attrs),
		Vis:      c.vis(node.Vis),
		Unsafe:   decl.Unsafe,
		Name:     decl.Name,
		Generics: c.generics(decl.Generics, decl.Where),
		Span:     span,
	}

	if decl.Supertraits != nil {
		out.Supertraits = c.bounds(decl.Supertraits)
	}

	for _, member := range decl.Members {
		out.Items = append(out.Items, c.member(member))
	}

	return out
}

func (c *converter) member(node *memberNode) syntax.Member {
	span := c.span(node.Pos)

	switch {
	case node.Fn != nil:
		return &syntax.Method{
			Attrs: c.attrs(node.Attrs),
			Vis:   c.vis(node.Vis),
			Sig:   c.signature(node.Fn),
			Body:  c.body(node.Fn.Body),
		}
	case node.Type != nil:
		return &syntax.AssocType{
			Attrs:    c.attrs(node.Attrs),
			Name:     node.Type.Name,
			Generics: c.generics(node.Type.Generics, node.Type.Where),
			Bounds:   c.optionalBounds(node.Type.Bounds),
			Default:  c.optionalType(node.Type.Default),
			Span:     span,
		}
	case node.Const != nil:
		return &syntax.ConstItem{
			Attrs: c.attrs(node.Attrs),
			Vis:   c.vis(node.Vis),
			Name:  node.Const.Name,
			Type:  c.typ(node.Const.Type),
			Value: c.constValue(node.Const),
			Span:  span,
		}
	default:
		return &syntax.RawItem{Text: c.text(node.Tokens), Span: span}
	}
}

func (c *converter) signature(node *fnNode) *syntax.Signature {
	sig := &syntax.Signature{
		Name:     node.Name,
		Const:    node.Const,
		Async:    node.Async,
		Unsafe:   node.Unsafe,
		Generics: c.generics(node.Generics, node.Where),
		Output:   c.optionalType(node.Output),
		Span:     c.span(node.Pos),
	}

	for _, input := range node.Inputs {
		sig.Inputs = append(sig.Inputs, c.fnInput(input))
	}

	return sig
}

func (c *converter) fnInput(node *fnInputNode) syntax.FnArg {
	span := c.span(node.Pos)
	attrs := c.attrs(node.Attrs)

	if node.Param != nil {
		return &syntax.Param{
			Attrs:   attrs,
			Pattern: c.pattern(node.Param.Pattern),
			Type:    c.typ(node.Param.Type),
			Span:    span,
		}
	}

	recv := node.Receiver
	out := &syntax.Receiver{Attrs: attrs, Lifetime: recv.Lifetime, Span: span}

	switch {
	case recv.Ref && recv.RefMut:
		out.Kind = syntax.ReceiverMutRef
	case recv.Ref:
		out.Kind = syntax.ReceiverRef
	case recv.Type != nil:
		out.Kind = syntax.ReceiverTyped
		out.Mutable = recv.Mut
		out.Type = c.typ(recv.Type)
	default:
		out.Kind = syntax.ReceiverValue
		out.Mutable = recv.Mut
	}

	return out
}

// body keeps the statements between the braces as one dedented raw statement.
func (c *converter) body(node *braceGroup) *syntax.Block {
	if node == nil {
		return nil
	}

	open, closing, ok := c.braces(node.Tokens)
	if !ok {
		return &syntax.Block{}
	}

	text := dedent(c.src[open.Pos.Offset+1 : closing.Pos.Offset])
	if text == "" {
		return &syntax.Block{}
	}

	return &syntax.Block{Stmts: []syntax.Stmt{&syntax.RawStmt{Text: text}}}
}

func (c *converter) attrs(nodes []*attrNode) []syntax.Attribute {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]syntax.Attribute, 0, len(nodes))

	for _, node := range nodes {
		if node.Doc != nil {
			out = append(out, syntax.Attribute{Text: strings.TrimPrefix(*node.Doc, "///"), Doc: true})
			continue
		}

		text := c.text(node.Tokens)
		start := strings.Index(text, "[")
		out = append(out, syntax.Attribute{Text: strings.TrimSpace(text[start+1 : len(text)-1])})
	}

	return out
}

func (c *converter) vis(node *visNode) syntax.Visibility {
	switch {
	case node == nil:
		return syntax.Visibility{}
	case node.Restriction == nil:
		return syntax.Public()
	case node.Restriction.In != nil:
		return syntax.Visibility{
			Kind:        syntax.VisRestricted,
			Restriction: "in " + syntax.PathString(c.exprPath(node.Restriction.In)),
		}
	default:
		return syntax.Visibility{Kind: syntax.VisRestricted, Restriction: node.Restriction.Keyword}
	}
}

func (c *converter) generics(node *genericParamsNode, where *whereNode) syntax.Generics {
	out := syntax.Generics{Where: c.where(where)}
	if node == nil {
		return out
	}

	for _, param := range node.Params {
		out.Params = append(out.Params, c.genericParam(param))
	}

	return out
}

func (c *converter) genericParam(node *genericParamNode) *syntax.GenericParam {
	out := &syntax.GenericParam{Attrs: c.attrs(node.Attrs)}

	switch {
	case node.Lifetime != nil:
		out.Kind = syntax.LifetimeParam
		out.Name = node.Lifetime.Name

		for _, bound := range node.Lifetime.Bounds {
			out.Bounds = append(out.Bounds, syntax.Bound{Lifetime: bound})
		}
	case node.Const != nil:
		out.Kind = syntax.ConstParam
		out.Name = node.Const.Name
		out.ConstType = c.typ(node.Const.Type)

		if node.Const.Default != nil {
			out.ConstDefault = c.constArg(node.Const.Default).Text
		}
	default:
		out.Kind = syntax.TypeParam
		out.Name = node.Type.Name
		out.Bounds = c.optionalBounds(node.Type.Bounds)
		out.Default = c.optionalType(node.Type.Default)
	}

	return out
}

func (c *converter) where(node *whereNode) []*syntax.WherePredicate {
	if node == nil {
		return nil
	}

	out := make([]*syntax.WherePredicate, 0, len(node.Predicates))

	for _, pred := range node.Predicates {
		if pred.Lifetime != nil {
			converted := &syntax.WherePredicate{Lifetime: pred.Lifetime.Name}
			for _, bound := range pred.Lifetime.Bounds {
				converted.Bounds = append(converted.Bounds, syntax.Bound{Lifetime: bound})
			}

			out = append(out, converted)

			continue
		}

		out = append(out, &syntax.WherePredicate{
			For:    forLifetimes(pred.For),
			Type:   c.typ(pred.Type),
			Bounds: c.optionalBounds(pred.Bounds),
		})
	}

	return out
}

func (c *converter) optionalBounds(node *boundsNode) []syntax.Bound {
	if node == nil {
		return nil
	}

	return c.bounds(node)
}

func (c *converter) bounds(node *boundsNode) []syntax.Bound {
	out := make([]syntax.Bound, 0, len(node.Bounds))

	for _, bound := range node.Bounds {
		if bound.Lifetime != "" {
			out = append(out, syntax.Bound{Lifetime: bound.Lifetime})
			continue
		}

		out = append(out, syntax.Bound{Maybe: bound.Maybe, For: forLifetimes(bound.For), Path: c.path(bound.Path)})
	}

	return out
}

func (c *converter) optionalType(node *typeNode) syntax.Type {
	if node == nil {
		return nil
	}

	return c.typ(node)
}

//nolint:cyclop // one case per type form
func (c *converter) typ(node *typeNode) syntax.Type {
	switch {
	case node.Ref != nil:
		return &syntax.RefType{
			Lifetime: node.Ref.Lifetime,
			Mutable:  node.Ref.Mutable,
			Elem:     c.typ(node.Ref.Elem),
		}
	case node.Tuple != nil:
		elems := c.types(node.Tuple.Elems)
		if len(elems) == 1 && !node.Tuple.Trailing {
			return elems[0]
		}

		return &syntax.TupleType{Elems: elems}
	case node.Slice != nil:
		if node.Slice.Len != nil {
			return &syntax.ArrayType{Elem: c.typ(node.Slice.Elem), Len: c.text(node.Slice.Len.Tokens)}
		}

		return &syntax.SliceType{Elem: c.typ(node.Slice.Elem)}
	case node.Never:
		return &syntax.NeverType{}
	case node.Impl != nil:
		return &syntax.ImplType{Bounds: c.bounds(node.Impl)}
	case node.Dyn != nil:
		return &syntax.DynType{Bounds: c.bounds(node.Dyn)}
	case node.FnPtr != nil:
		return c.fnPointer(node.FnPtr)
	default:
		return c.path(node.Path)
	}
}

func (c *converter) types(nodes []*typeNode) []syntax.Type {
	if len(nodes) == 0 {
		return nil
	}

	out := make([]syntax.Type, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, c.typ(node))
	}

	return out
}

// fnPointer models fn(A) -> B as a single parenthesized segment named after its qualifiers.
func (c *converter) fnPointer(node *fnPtrNode) *syntax.PathType {
	name := "fn"

	if node.Extern != nil {
		name = "extern " + *node.Extern + " fn"
	}

	if node.Unsafe {
		name = "unsafe " + name
	}

	return &syntax.PathType{Segments: []*syntax.PathSegment{{
		Name:   name,
		Fn:     true,
		FnArgs: c.types(node.Inputs),
		Output: c.optionalType(node.Output),
	}}}
}

func (c *converter) path(node *pathNode) *syntax.PathType {
	out := &syntax.PathType{Global: node.Global}

	if node.QSelf != nil {
		out.QSelf = &syntax.QSelf{Type: c.typ(node.QSelf.Type)}
		if node.QSelf.Trait != nil {
			out.QSelf.Trait = c.path(node.QSelf.Trait)
		}
	}

	for _, seg := range node.Segments {
		converted := &syntax.PathSegment{Name: seg.Name}

		switch {
		case seg.Args != nil:
			converted.Args = c.genericArgs(seg.Args)
		case seg.FnArgs != nil:
			converted.Fn = true
			converted.FnArgs = c.types(seg.FnArgs.Inputs)
			converted.Output = c.optionalType(seg.FnArgs.Output)
		}

		out.Segments = append(out.Segments, converted)
	}

	return out
}

func (c *converter) exprPath(node *exprPathNode) *syntax.PathType {
	out := &syntax.PathType{Global: node.Global}

	for _, seg := range node.Segments {
		converted := &syntax.PathSegment{Name: seg.Name}
		if seg.Args != nil {
			converted.Args = c.genericArgs(seg.Args)
		}

		out.Segments = append(out.Segments, converted)
	}

	return out
}

func (c *converter) genericArgs(node *genericArgsNode) []syntax.Type {
	out := make([]syntax.Type, 0, len(node.Args))

	for _, arg := range node.Args {
		switch {
		case arg.Lifetime != "":
			out = append(out, &syntax.LifetimeType{Name: arg.Lifetime})
		case arg.Binding != nil:
			out = append(out, &syntax.AssocBinding{Name: arg.Binding.Name, Type: c.typ(arg.Binding.Type)})
		case arg.Const != nil:
			out = append(out, c.constArg(arg.Const))
		default:
			out = append(out, c.typ(arg.Type))
		}
	}

	return out
}

func (c *converter) constArg(node *constArgNode) *syntax.ConstArg {
	return &syntax.ConstArg{Text: c.text(node.Tokens)}
}

func (c *converter) constValue(node *constItemNode) string {
	if len(node.Value) == 0 {
		return ""
	}

	text := c.text(node.Tokens)
	eq := strings.Index(text, "=")

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text[eq+1:]), ";"))
}

//nolint:cyclop // one case per pattern form
func (c *converter) pattern(node *patternNode) syntax.Pattern {
	switch {
	case node.Ref != nil:
		return &syntax.RefPattern{Mutable: node.Ref.Mutable, Elem: c.pattern(node.Ref.Elem)}
	case node.Tuple != nil:
		elems := c.patterns(node.Tuple.Elems)
		if len(elems) == 1 && !node.Tuple.Trailing {
			return elems[0]
		}

		return &syntax.TuplePattern{Elems: elems}
	case node.Binding != nil:
		out := &syntax.IdentPattern{
			Name:    node.Binding.Name,
			ByRef:   node.Binding.ByRef,
			Mutable: node.Binding.Mutable || node.Binding.RefMut,
		}
		if node.Binding.Sub != nil {
			out.Sub = c.pattern(node.Binding.Sub)
		}

		return out
	case node.Wildcard:
		return &syntax.WildcardPattern{}
	case node.Rest:
		return &syntax.RestPattern{}
	default:
		return c.pathPattern(node.Path)
	}
}

func (c *converter) pathPattern(node *pathPatternNode) syntax.Pattern {
	path := c.exprPath(node.Path)

	switch {
	case node.Fields != nil:
		out := &syntax.StructPattern{Path: path}

		for _, field := range node.Fields.Fields {
			if field.Rest {
				out.Rest = true
				continue
			}

			converted := &syntax.FieldPattern{Name: field.Name, ByRef: field.ByRef, Mutable: field.Mutable}
			if field.Pattern != nil {
				converted.Pattern = c.pattern(field.Pattern)
			}

			out.Fields = append(out.Fields, converted)
		}

		return out
	case node.Elems != nil:
		return &syntax.TupleStructPattern{Path: path, Elems: c.patterns(node.Elems.Elems)}
	}

	name, single := path.SingleName()
	if !single {
		return &syntax.TupleStructPattern{Path: path}
	}

	out := &syntax.IdentPattern{Name: name}
	if node.Sub != nil {
		out.Sub = c.pattern(node.Sub)
	}

	return out
}

func (c *converter) patterns(nodes []*patternNode) []syntax.Pattern {
	out := make([]syntax.Pattern, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, c.pattern(node))
	}

	return out
}

func (c *converter) span(pos lexer.Position) syntax.Span {
	return syntax.Span{File: c.file, Line: pos.Line, Column: pos.Column, Offset: pos.Offset}
}

// text returns the source covered by tokens, ignoring elided whitespace and comments at either end.
func (c *converter) text(tokens []lexer.Token) string {
	first, last := -1, -1

	for i, tok := range tokens {
		if elided(tok) {
			continue
		}

		if first < 0 {
			first = i
		}

		last = i
	}

	if first < 0 {
		return ""
	}

	start := tokens[first].Pos.Offset
	end := tokens[last].Pos.Offset + len(tokens[last].Value)

	return c.src[start:end]
}

func (c *converter) braces(tokens []lexer.Token) (lexer.Token, lexer.Token, bool) {
	open, closing := -1, -1

	for i, tok := range tokens {
		if tok.Value == "{" && open < 0 {
			open = i
		}

		if tok.Value == "}" {
			closing = i
		}
	}

	if open < 0 || closing < 0 {
		return lexer.Token{}, lexer.Token{}, false
	}

	return tokens[open], tokens[closing], true
}

// forLifetimes lists the lifetimes of a for<...> binder.
func forLifetimes(node *genericParamsNode) []string {
	if node == nil {
		return nil
	}

	var out []string

	for _, param := range node.Params {
		if param.Lifetime != nil {
			out = append(out, param.Lifetime.Name)
		}
	}

	return out
}

func elided(tok lexer.Token) bool {
	return tok.Type == whitespaceType || tok.Type == commentType
}

// dedent trims blank leading and trailing lines and removes the indentation shared by the remaining lines. A
// first line sitting on the same line as the opening brace does not take part in the shared indentation.
func dedent(text string) string {
	trimmed := strings.TrimRight(text, " \t\r\n")
	sameLine := !strings.HasPrefix(strings.TrimLeft(trimmed, " \t"), "\n") &&
		!strings.HasPrefix(strings.TrimLeft(trimmed, " \t"), "\r\n")
	lines := strings.Split(trimmed, "\n")

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	if len(lines) == 0 {
		return ""
	}

	rest := lines
	if sameLine {
		lines[0] = strings.TrimSpace(lines[0])
		rest = lines[1:]
	}

	common := sharedIndent(rest)

	for i, line := range rest {
		if strings.TrimSpace(line) == "" {
			rest[i] = ""
			continue
		}

		rest[i] = strings.TrimRight(line[common:], " \t\r")
	}

	return strings.Join(lines, "\n")
}

func sharedIndent(lines []string) int {
	common := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || indent < common {
			common = indent
		}
	}

	if common < 0 {
		return 0
	}

	return common
}

// unexported variables.
var (
	whitespaceType = declLexer.Symbols()["Whitespace"]
	commentType    = declLexer.Symbols()["Comment"]
)
