package syntax

import (
	"strconv"
	"strings"
)

const indentUnit = "    "

// Printer renders syntax nodes in the canonical layout: four-space indentation, one blank line between items
// and between members, attributes on their own lines.
type Printer struct {
	buf    strings.Builder
	indent int
}

// PrintFile renders a whole file, items separated by a blank line, with a trailing newline.
func PrintFile(file *File) string {
	return PrintItems(file.Items)
}

// PrintItems renders top-level items the way PrintFile does.
func PrintItems(items []Item) string {
	var printer Printer

	for i, item := range items {
		if i > 0 {
			printer.buf.WriteString("\n")
		}

		printer.item(item)
		printer.buf.WriteString("\n")
	}

	return printer.buf.String()
}

// PrintItem renders a single item without a trailing newline.
func PrintItem(item Item) string {
	var printer Printer

	printer.item(item)

	return printer.buf.String()
}

// PrintMember renders a single impl or trait member without a trailing newline.
func PrintMember(member Member) string {
	var printer Printer

	printer.member(member)

	return printer.buf.String()
}

// TypeString renders a type in type position.
func TypeString(typ Type) string {
	var printer Printer

	printer.typ(typ, false)

	return printer.buf.String()
}

// PathString renders a path in type position.
func PathString(path *PathType) string {
	return TypeString(path)
}

// ExprString renders an expression at indentation level zero.
func ExprString(expr Expr) string {
	var printer Printer

	printer.expr(expr)

	return printer.buf.String()
}

// PatternString renders a pattern.
func PatternString(pat Pattern) string {
	var printer Printer

	printer.pattern(pat)

	return printer.buf.String()
}

// SignatureString renders a signature without visibility and body.
func SignatureString(sig *Signature) string {
	var printer Printer

	printer.signature(sig)

	return printer.buf.String()
}

// VisibilityString renders a visibility with its trailing space, or nothing when inherited.
func VisibilityString(vis Visibility) string {
	switch vis.Kind {
	case VisPublic:
		return "pub "
	case VisRestricted:
		return "pub(" + vis.Restriction + ") "
	default:
		return ""
	}
}

// Functions - Private

func (p *Printer) write(parts ...string) {
	for _, part := range parts {
		p.buf.WriteString(part)
	}
}

func (p *Printer) newline() {
	p.buf.WriteString("\n")
	p.buf.WriteString(strings.Repeat(indentUnit, p.indent))
}

func (p *Printer) attrs(attrs []Attribute) {
	for _, attr := range attrs {
		if attr.Doc {
			p.write("///", attr.Text)
		} else {
			p.write("#[", attr.Text, "]")
		}

		p.newline()
	}
}

func (p *Printer) inlineAttrs(attrs []Attribute) {
	for _, attr := range attrs {
		if attr.Doc {
			continue
		}

		p.write("#[", attr.Text, "] ")
	}
}

func (p *Printer) item(item Item) {
	switch typed := item.(type) {
	case *Struct:
		p.structDecl(typed)
	case *Impl:
		p.implDecl(typed)
	case *Trait:
		p.traitDecl(typed)
	case *RawItem:
		p.raw(typed.Text)
	}
}

func (p *Printer) member(member Member) {
	switch typed := member.(type) {
	case *Method:
		p.method(typed)
	case *AssocType:
		p.assocType(typed)
	case *ConstItem:
		p.constItem(typed)
	case *RawItem:
		p.raw(typed.Text)
	}
}

// raw writes verbatim text, re-indenting every line after the first to the current level.
func (p *Printer) raw(text string) {
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			if line == "" {
				p.buf.WriteString("\n")
				continue
			}

			p.newline()
		}

		p.write(line)
	}
}

func (p *Printer) structDecl(decl *Struct) {
	p.attrs(decl.Attrs)
	p.write(VisibilityString(decl.Vis), "struct ", decl.Name)
	p.genericParams(decl.Generics.Params)

	switch decl.Kind {
	case UnitStruct:
		p.where(decl.Generics.Where)
		p.write(";")
	case TupleStruct:
		p.write("(")

		for i, field := range decl.Fields {
			if i > 0 {
				p.write(", ")
			}

			p.inlineAttrs(field.Attrs)
			p.write(VisibilityString(field.Vis))
			p.typ(field.Type, false)
		}

		p.write(")")
		p.where(decl.Generics.Where)
		p.write(";")
	default:
		p.where(decl.Generics.Where)

		if len(decl.Fields) == 0 {
			p.write(" {}")
			return
		}

		p.write(" {")
		p.indent++

		for _, field := range decl.Fields {
			p.newline()
			p.attrs(field.Attrs)
			p.write(VisibilityString(field.Vis), field.Name, ": ")
			p.typ(field.Type, false)
			p.write(",")
		}

		p.indent--
		p.newline()
		p.write("}")
	}
}

func (p *Printer) implDecl(decl *Impl) {
	p.attrs(decl.Attrs)

	if decl.Unsafe {
		p.write("unsafe ")
	}

	p.write("impl")
	p.genericParams(decl.Generics.Params)
	p.write(" ")

	if decl.Trait != nil {
		p.typ(decl.Trait, false)
		p.write(" for ")
	}

	p.typ(decl.SelfType, false)
	p.where(decl.Generics.Where)
	p.members(decl.Items)
}

func (p *Printer) traitDecl(decl *Trait) {
	p.attrs(decl.Attrs)
	p.write(VisibilityString(decl.Vis))

	if decl.Unsafe {
		p.write("unsafe ")
	}

	p.write("trait ", decl.Name)
	p.genericParams(decl.Generics.Params)

	if len(decl.Supertraits) > 0 {
		p.write(": ")
		p.bounds(decl.Supertraits)
	}

	p.where(decl.Generics.Where)
	p.members(decl.Items)
}

func (p *Printer) members(members []Member) {
	if len(members) == 0 {
		p.write(" {}")
		return
	}

	p.write(" {")
	p.indent++

	for i, member := range members {
		if i > 0 {
			p.buf.WriteString("\n")
		}

		p.newline()
		p.member(member)
	}

	p.indent--
	p.newline()
	p.write("}")
}

func (p *Printer) method(method *Method) {
	p.attrs(method.Attrs)
	p.write(VisibilityString(method.Vis))
	p.signature(method.Sig)

	if method.Body == nil {
		p.write(";")
		return
	}

	p.write(" ")
	p.block(method.Body)
}

func (p *Printer) signature(sig *Signature) {
	if sig.Const {
		p.write("const ")
	}

	if sig.Async {
		p.write("async ")
	}

	if sig.Unsafe {
		p.write("unsafe ")
	}

	p.write("fn ", sig.Name)
	p.genericParams(sig.Generics.Params)
	p.write("(")

	for i, input := range sig.Inputs {
		if i > 0 {
			p.write(", ")
		}

		switch arg := input.(type) {
		case *Receiver:
			p.receiver(arg)
		case *Param:
			p.inlineAttrs(arg.Attrs)
			p.pattern(arg.Pattern)
			p.write(": ")
			p.typ(arg.Type, false)
		}
	}

	p.write(")")

	if sig.Output != nil {
		p.write(" -> ")
		p.typ(sig.Output, false)
	}

	p.where(sig.Generics.Where)
}

func (p *Printer) receiver(recv *Receiver) {
	p.inlineAttrs(recv.Attrs)

	switch recv.Kind {
	case ReceiverRef, ReceiverMutRef:
		p.write("&")

		if recv.Lifetime != "" {
			p.write(recv.Lifetime, " ")
		}

		if recv.Kind == ReceiverMutRef {
			p.write("mut ")
		}

		p.write("self")
	case ReceiverTyped:
		if recv.Mutable {
			p.write("mut ")
		}

		p.write("self: ")
		p.typ(recv.Type, false)
	default:
		if recv.Mutable {
			p.write("mut ")
		}

		p.write("self")
	}
}

func (p *Printer) assocType(assoc *AssocType) {
	p.attrs(assoc.Attrs)
	p.write("type ", assoc.Name)
	p.genericParams(assoc.Generics.Params)

	if len(assoc.Bounds) > 0 {
		p.write(": ")
		p.bounds(assoc.Bounds)
	}

	p.where(assoc.Generics.Where)

	if assoc.Default != nil {
		p.write(" = ")
		p.typ(assoc.Default, false)
	}

	p.write(";")
}

func (p *Printer) constItem(item *ConstItem) {
	p.attrs(item.Attrs)
	p.write(VisibilityString(item.Vis), "const ", item.Name, ": ")
	p.typ(item.Type, false)

	if item.Value != "" {
		p.write(" = ", item.Value)
	}

	p.write(";")
}

func (p *Printer) where(preds []*WherePredicate) {
	if len(preds) == 0 {
		return
	}

	p.write(" where ")

	for i, pred := range preds {
		if i > 0 {
			p.write(", ")
		}

		if pred.Lifetime != "" {
			p.write(pred.Lifetime, ":")
		} else {
			if len(pred.For) > 0 {
				p.write("for<", strings.Join(pred.For, ", "), "> ")
			}

			p.typ(pred.Type, false)
			p.write(":")
		}

		if len(pred.Bounds) > 0 {
			p.write(" ")
			p.bounds(pred.Bounds)
		}
	}
}

func (p *Printer) genericParams(params []*GenericParam) {
	if len(params) == 0 {
		return
	}

	p.write("<")

	for i, param := range params {
		if i > 0 {
			p.write(", ")
		}

		p.inlineAttrs(param.Attrs)

		if param.Kind == ConstParam {
			p.write("const ", param.Name, ": ")
			p.typ(param.ConstType, false)

			if param.ConstDefault != "" {
				p.write(" = ", param.ConstDefault)
			}

			continue
		}

		p.write(param.Name)

		if len(param.Bounds) > 0 {
			p.write(": ")
			p.bounds(param.Bounds)
		}

		if param.Default != nil {
			p.write(" = ")
			p.typ(param.Default, false)
		}
	}

	p.write(">")
}

func (p *Printer) bounds(bounds []Bound) {
	for i, bound := range bounds {
		if i > 0 {
			p.write(" + ")
		}

		if bound.Lifetime != "" {
			p.write(bound.Lifetime)
			continue
		}

		if len(bound.For) > 0 {
			p.write("for<", strings.Join(bound.For, ", "), "> ")
		}

		if bound.Maybe {
			p.write("?")
		}

		p.typ(bound.Path, false)
	}
}

// typ writes a type; turbofish selects expression-position generic arguments (Cat::<T>).
//
//nolint:cyclop // one case per type node
func (p *Printer) typ(typ Type, turbofish bool) {
	switch node := typ.(type) {
	case *PathType:
		p.path(node, turbofish)
	case *RefType:
		p.write("&")

		if node.Lifetime != "" {
			p.write(node.Lifetime, " ")
		}

		if node.Mutable {
			p.write("mut ")
		}

		p.typ(node.Elem, false)
	case *TupleType:
		p.write("(")
		p.typeList(node.Elems)

		if len(node.Elems) == 1 {
			p.write(",")
		}

		p.write(")")
	case *SliceType:
		p.write("[")
		p.typ(node.Elem, false)
		p.write("]")
	case *ArrayType:
		p.write("[")
		p.typ(node.Elem, false)
		p.write("; ", node.Len, "]")
	case *ImplType:
		p.write("impl ")
		p.bounds(node.Bounds)
	case *DynType:
		p.write("dyn ")
		p.bounds(node.Bounds)
	case *NeverType:
		p.write("!")
	case *LifetimeType:
		p.write(node.Name)
	case *ConstArg:
		p.write(node.Text)
	case *AssocBinding:
		p.write(node.Name, " = ")
		p.typ(node.Type, false)
	}
}

func (p *Printer) typeList(types []Type) {
	for i, typ := range types {
		if i > 0 {
			p.write(", ")
		}

		p.typ(typ, false)
	}
}

func (p *Printer) path(path *PathType, turbofish bool) {
	if path.QSelf != nil {
		p.write("<")
		p.typ(path.QSelf.Type, false)

		if path.QSelf.Trait != nil {
			p.write(" as ")
			p.typ(path.QSelf.Trait, false)
		}

		p.write(">")

		for _, seg := range path.Segments {
			p.write("::")
			p.segment(seg, turbofish)
		}

		return
	}

	if path.Global {
		p.write("::")
	}

	for i, seg := range path.Segments {
		if i > 0 {
			p.write("::")
		}

		p.segment(seg, turbofish)
	}
}

func (p *Printer) segment(seg *PathSegment, turbofish bool) {
	p.write(seg.Name)

	if seg.Fn {
		p.write("(")
		p.typeList(seg.FnArgs)
		p.write(")")

		if seg.Output != nil {
			p.write(" -> ")
			p.typ(seg.Output, false)
		}

		return
	}

	if len(seg.Args) == 0 {
		return
	}

	if turbofish {
		p.write("::")
	}

	p.write("<")
	p.typeList(seg.Args)
	p.write(">")
}

//nolint:cyclop // one case per pattern node
func (p *Printer) pattern(pat Pattern) {
	switch node := pat.(type) {
	case *IdentPattern:
		if node.ByRef {
			p.write("ref ")
		}

		if node.Mutable {
			p.write("mut ")
		}

		p.write(node.Name)

		if node.Sub != nil {
			p.write(" @ ")
			p.pattern(node.Sub)
		}
	case *WildcardPattern:
		p.write("_")
	case *RestPattern:
		p.write("..")
	case *StructPattern:
		p.typ(node.Path, false)
		p.structPatternFields(node)
	case *TupleStructPattern:
		p.typ(node.Path, false)
		p.write("(")
		p.patternList(node.Elems)
		p.write(")")
	case *TuplePattern:
		p.write("(")
		p.patternList(node.Elems)

		if len(node.Elems) == 1 {
			p.write(",")
		}

		p.write(")")
	case *RefPattern:
		p.write("&")

		if node.Mutable {
			p.write("mut ")
		}

		p.pattern(node.Elem)
	}
}

func (p *Printer) structPatternFields(node *StructPattern) {
	if len(node.Fields) == 0 && !node.Rest {
		p.write(" {}")
		return
	}

	p.write(" { ")

	for i, field := range node.Fields {
		if i > 0 {
			p.write(", ")
		}

		if field.Pattern != nil {
			p.write(field.Name, ": ")
			p.pattern(field.Pattern)

			continue
		}

		if field.ByRef {
			p.write("ref ")
		}

		if field.Mutable {
			p.write("mut ")
		}

		p.write(field.Name)
	}

	if node.Rest {
		if len(node.Fields) > 0 {
			p.write(", ")
		}

		p.write("..")
	}

	p.write(" }")
}

func (p *Printer) patternList(pats []Pattern) {
	for i, pat := range pats {
		if i > 0 {
			p.write(", ")
		}

		p.pattern(pat)
	}
}

//nolint:cyclop,funlen // one case per expression node
func (p *Printer) expr(expr Expr) {
	switch node := expr.(type) {
	case *PathExpr:
		p.typ(node.Path, true)
	case *CallExpr:
		p.expr(node.Func)
		p.write("(")
		p.exprList(node.Args)
		p.write(")")
	case *MethodCallExpr:
		p.expr(node.Receiver)
		p.write(".", node.Method, "(")
		p.exprList(node.Args)
		p.write(")")
	case *FieldExpr:
		p.expr(node.Base)
		p.write(".", node.Field)
	case *RefExpr:
		p.write("&")

		if node.Mutable {
			p.write("mut ")
		}

		p.expr(node.Expr)
	case *DerefExpr:
		p.write("*")
		p.expr(node.Expr)
	case *ParenExpr:
		p.write("(")
		p.expr(node.Expr)
		p.write(")")
	case *TupleExpr:
		p.write("(")
		p.exprList(node.Elems)

		if len(node.Elems) == 1 {
			p.write(",")
		}

		p.write(")")
	case *StructExpr:
		p.structExpr(node)
	case *MacroExpr:
		p.write(node.Name, "!(")
		p.exprList(node.Args)
		p.write(")")
	case *StringLit:
		p.write(strconv.Quote(node.Value))
	case *RawExpr:
		p.raw(node.Text)
	}
}

func (p *Printer) exprList(exprs []Expr) {
	for i, expr := range exprs {
		if i > 0 {
			p.write(", ")
		}

		p.expr(expr)
	}
}

func (p *Printer) structExpr(node *StructExpr) {
	p.typ(node.Path, true)

	if len(node.Fields) == 0 {
		p.write(" {}")
		return
	}

	p.write(" {")
	p.indent++

	for _, field := range node.Fields {
		p.newline()
		p.attrs(field.Attrs)
		p.write(field.Name)

		if field.Value != nil {
			p.write(": ")
			p.expr(field.Value)
		}

		p.write(",")
	}

	p.indent--
	p.newline()
	p.write("}")
}

func (p *Printer) block(block *Block) {
	if len(block.Stmts) == 0 {
		p.write("{}")
		return
	}

	p.write("{")
	p.indent++

	for _, stmt := range block.Stmts {
		p.newline()
		p.stmt(stmt)
	}

	p.indent--
	p.newline()
	p.write("}")
}

func (p *Printer) stmt(stmt Stmt) {
	switch node := stmt.(type) {
	case *RawStmt:
		p.raw(node.Text)
	case *LetStmt:
		p.write("let ")
		p.pattern(node.Pattern)

		if node.Type != nil {
			p.write(": ")
			p.typ(node.Type, false)
		}

		if node.Value != nil {
			p.write(" = ")
			p.expr(node.Value)
		}

		p.write(";")
	case *ExprStmt:
		p.expr(node.Expr)

		if node.Semi {
			p.write(";")
		}
	case *IfLetStmt:
		p.attrs(node.Attrs)
		p.write("if let ")
		p.pattern(node.Pattern)
		p.write(" = ")
		p.expr(node.Value)
		p.write(" ")
		p.block(node.Then)
	case *IfStmt:
		p.write("if ")
		p.expr(node.Cond)
		p.write(" ")
		p.block(node.Then)
	case *ReturnStmt:
		p.write("return")

		if node.Value != nil {
			p.write(" ")
			p.expr(node.Value)
		}

		p.write(";")
	case *AssignStmt:
		p.expr(node.Target)
		p.write(" = ")
		p.expr(node.Value)
		p.write(";")
	}
}
