package parse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// declLexer tokenizes the declaration language. Multi-character operators are limited to the ones the grammar
// needs; everything else is a single punctuation token, so closing generic brackets (>>) always split.
var declLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "DocComment", Pattern: `///[^\n]*`},
	{Name: "Comment", Pattern: `//[^\n]*|/\*[\s\S]*?\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `b?r#*"[\s\S]*?"#*|b?"(\\.|[^"\\])*"`},
	{Name: "Char", Pattern: `b?'(\\.|\\u\{[0-9a-fA-F]+\}|[^'\\])'`},
	{Name: "Lifetime", Pattern: `'[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9][0-9_]*(\.[0-9][0-9_]*)?([eE][+-]?[0-9]+)?[a-zA-Z0-9_]*`},
	{Name: "Ident", Pattern: `r#[a-zA-Z_][a-zA-Z0-9_]*|[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Operator", Pattern: `::|->|=>|\.\.\.|\.\.=|\.\.`},
	{Name: "Punct", Pattern: `[-+*/%^!&|=<>@.,;:#$?~(){}\[\]]`},
})

var fileParser = participle.MustBuild[fileNode](
	participle.Lexer(declLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(lookahead),
)

// lookahead bounds how far a failed alternative may have read before the parser stops backtracking into the
// next one. It covers the longest prefix the grammar needs to tell alternatives apart (&'a mut self).
const lookahead = 8

type fileNode struct {
	Items []*itemNode `parser:"@@*"`
}

type itemNode struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Inner  *innerAttrNode `parser:"  @@"`
	Attrs  []*attrNode    `parser:"| @@*"`
	Vis    *visNode       `parser:"  @@?"`
	Struct *structNode    `parser:"  ( @@"`
	Impl   *implNode      `parser:"  | @@"`
	Trait  *traitNode     `parser:"  | @@"`
	Other  *rawItemNode   `parser:"  | @@ )"`
}

type innerAttrNode struct {
	Group *bracketGroup `parser:"'#' '!' @@"`
}

type attrNode struct {
	Tokens []lexer.Token

	Doc   *string       `parser:"  @DocComment"`
	Group *bracketGroup `parser:"| '#' @@"`
}

type visNode struct {
	Pub         bool             `parser:"@'pub'"`
	Restriction *restrictionNode `parser:"( '(' @@ ')' )?"`
}

type restrictionNode struct {
	Keyword string        `parser:"  @('crate' | 'self' | 'super')"`
	In      *exprPathNode `parser:"| 'in' @@"`
}

// Token trees: balanced groups of arbitrary tokens, used for everything kept as raw text.

type treeNode struct {
	Paren   *parenGroup   `parser:"  @@"`
	Bracket *bracketGroup `parser:"| @@"`
	Brace   *braceGroup   `parser:"| @@"`
	Token   string        `parser:"| @~('(' | ')' | '[' | ']' | '{' | '}')"`
}

type parenGroup struct {
	Trees []*treeNode `parser:"'(' @@* ')'"`
}

type bracketGroup struct {
	Tokens []lexer.Token

	Trees []*treeNode `parser:"'[' @@* ']'"`
}

type braceGroup struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Trees []*treeNode `parser:"'{' @@* '}'"`
}

// headTree is a token tree that stops before a brace or a semicolon.
type headTree struct {
	Paren   *parenGroup   `parser:"  @@"`
	Bracket *bracketGroup `parser:"| @@"`
	Token   string        `parser:"| @~('(' | ')' | '[' | ']' | '{' | '}' | ';')"`
}

// valueTree is a token tree that stops before a semicolon.
type valueTree struct {
	Paren   *parenGroup   `parser:"  @@"`
	Bracket *bracketGroup `parser:"| @@"`
	Brace   *braceGroup   `parser:"| @@"`
	Token   string        `parser:"| @~('(' | ')' | '[' | ']' | '{' | '}' | ';')"`
}

// rawItemNode never starts like a declaration the rewriter handles, so a malformed struct, impl or trait is
// reported instead of passing through.
type rawItemNode struct {
	Head []*headTree `parser:"(?! 'struct' | 'impl' | 'trait' | 'unsafe' ( 'impl' | 'trait' ) ) @@*"`
	Semi bool        `parser:"( @';'"`
	Body *braceGroup `parser:"| @@ ';'? )"`
}

type whereNode struct {
	Predicates []*wherePredicateNode `parser:"'where' ( @@ ( ',' @@ )* ','? )?"`
}

type wherePredicateNode struct {
	Lifetime *lifetimeParamNode `parser:"  @@"`
	For      *genericParamsNode `parser:"| ( 'for' @@ )?"`
	Type     *typeNode          `parser:"  @@ ':'"`
	Bounds   *boundsNode        `parser:"  @@?"`
}

// Declarations.

type structNode struct {
	Name       string             `parser:"'struct' @Ident"`
	Generics   *genericParamsNode `parser:"@@?"`
	Tuple      *tupleFieldsNode   `parser:"( @@"`
	TupleWhere *whereNode         `parser:"  @@? ';'"`
	Where      *whereNode         `parser:"| @@?"`
	Named      *namedFieldsNode   `parser:"  ( @@"`
	Unit       bool               `parser:"  | @';' ) )"`
}

type namedFieldsNode struct {
	Fields []*namedFieldNode `parser:"'{' ( @@ ( ',' @@ )* ','? )? '}'"`
}

type namedFieldNode struct {
	Attrs []*attrNode `parser:"@@*"`
	Vis   *visNode    `parser:"@@?"`
	Name  string      `parser:"@Ident ':'"`
	Type  *typeNode   `parser:"@@"`
}

type tupleFieldsNode struct {
	Fields []*tupleFieldNode `parser:"'(' ( @@ ( ',' @@ )* ','? )? ')'"`
}

type tupleFieldNode struct {
	Attrs []*attrNode `parser:"@@*"`
	Vis   *visNode    `parser:"@@?"`
	Type  *typeNode   `parser:"@@"`
}

type implNode struct {
	Pos lexer.Position

	Unsafe   bool               `parser:"@'unsafe'? 'impl'"`
	Generics *genericParamsNode `parser:"@@?"`
	First    *typeNode          `parser:"@@"`
	For      *typeNode          `parser:"( 'for' @@ )?"`
	Where    *whereNode         `parser:"@@?"`
	Members  []*memberNode      `parser:"'{' @@* '}'"`
}

type traitNode struct {
	Pos lexer.Position

	Unsafe      bool               `parser:"@'unsafe'? 'trait'"`
	Name        string             `parser:"@Ident"`
	Generics    *genericParamsNode `parser:"@@?"`
	Supertraits *boundsNode        `parser:"( ':' @@ )?"`
	Where       *whereNode         `parser:"@@?"`
	Members     []*memberNode      `parser:"'{' @@* '}'"`
}

type memberNode struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Attrs []*attrNode      `parser:"@@*"`
	Vis   *visNode         `parser:"@@?"`
	Fn    *fnNode          `parser:"( @@"`
	Type  *assocTypeNode   `parser:"| @@"`
	Const *constItemNode   `parser:"| @@"`
	Macro *memberMacroNode `parser:"| @@ )"`
}

type fnNode struct {
	Pos lexer.Position

	Const    bool               `parser:"@'const'?"`
	Async    bool               `parser:"@'async'?"`
	Unsafe   bool               `parser:"@'unsafe'?"`
	Name     string             `parser:"'fn' @Ident"`
	Generics *genericParamsNode `parser:"@@?"`
	Inputs   []*fnInputNode     `parser:"'(' ( @@ ( ',' @@ )* ','? )? ')'"`
	Output   *typeNode          `parser:"( '->' @@ )?"`
	Where    *whereNode         `parser:"@@?"`
	Semi     bool               `parser:"( @';'"`
	Body     *braceGroup        `parser:"| @@ )"`
}

type fnInputNode struct {
	Pos lexer.Position

	Attrs    []*attrNode   `parser:"@@*"`
	Receiver *receiverNode `parser:"( @@"`
	Param    *paramNode    `parser:"| @@ )"`
}

type receiverNode struct {
	Ref      bool      `parser:"( @'&'"`
	Lifetime string    `parser:"  @Lifetime?"`
	RefMut   bool      `parser:"  @'mut'? 'self'"`
	Mut      bool      `parser:"| @'mut'? 'self'"`
	Type     *typeNode `parser:"  ( ':' @@ )? )"`
}

type paramNode struct {
	Pattern *patternNode `parser:"@@ ':'"`
	Type    *typeNode    `parser:"@@"`
}

type assocTypeNode struct {
	Pos lexer.Position

	Name     string             `parser:"'type' @Ident"`
	Generics *genericParamsNode `parser:"@@?"`
	Bounds   *boundsNode        `parser:"( ':' @@ )?"`
	Where    *whereNode         `parser:"@@?"`
	Default  *typeNode          `parser:"( '=' @@ )? ';'"`
}

type constItemNode struct {
	Pos    lexer.Position
	Tokens []lexer.Token

	Name  string       `parser:"'const' @Ident ':'"`
	Type  *typeNode    `parser:"@@"`
	Value []*valueTree `parser:"( '=' @@+ )? ';'"`
}

type memberMacroNode struct {
	Path  *exprPathNode `parser:"@@ '!'"`
	Paren *parenGroup   `parser:"( @@ ';'?"`
	Brace *braceGroup   `parser:"| @@ ';'?"`
	Brack *bracketGroup `parser:"| @@ ';'? )"`
}

// Generics.

type genericParamsNode struct {
	Params []*genericParamNode `parser:"'<' ( @@ ( ',' @@ )* ','? )? '>'"`
}

type genericParamNode struct {
	Attrs    []*attrNode        `parser:"@@*"`
	Lifetime *lifetimeParamNode `parser:"( @@"`
	Const    *constParamNode    `parser:"| @@"`
	Type     *typeParamNode     `parser:"| @@ )"`
}

type lifetimeParamNode struct {
	Name   string   `parser:"@Lifetime"`
	Bounds []string `parser:"( ':' @Lifetime ( '+' @Lifetime )* )?"`
}

type constParamNode struct {
	Name    string        `parser:"'const' @Ident ':'"`
	Type    *typeNode     `parser:"@@"`
	Default *constArgNode `parser:"( '=' @@ )?"`
}

type typeParamNode struct {
	Name    string      `parser:"@Ident"`
	Bounds  *boundsNode `parser:"( ':' @@? )?"`
	Default *typeNode   `parser:"( '=' @@ )?"`
}

type genericArgsNode struct {
	Args []*genericArgNode `parser:"'<' ( @@ ( ',' @@ )* ','? )? '>'"`
}

type genericArgNode struct {
	Lifetime string        `parser:"  @Lifetime"`
	Binding  *bindingNode  `parser:"| @@"`
	Const    *constArgNode `parser:"| @@"`
	Type     *typeNode     `parser:"| @@"`
}

type bindingNode struct {
	Name string    `parser:"@Ident '='"`
	Type *typeNode `parser:"@@"`
}

type constArgNode struct {
	Tokens []lexer.Token

	Literal *string     `parser:"  @('-'? Number | String | Char | 'true' | 'false')"`
	Block   *braceGroup `parser:"| @@"`
}

type boundsNode struct {
	Bounds []*boundNode `parser:"@@ ( '+' @@ )*"`
}

type boundNode struct {
	Lifetime string             `parser:"  @Lifetime"`
	For      *genericParamsNode `parser:"| ( 'for' @@ )?"`
	Maybe    bool               `parser:"  @'?'?"`
	Path     *pathNode          `parser:"  @@"`
}

// Types.

type typeNode struct {
	Ref   *refTypeNode   `parser:"  @@"`
	Tuple *tupleTypeNode `parser:"| @@"`
	Slice *sliceTypeNode `parser:"| @@"`
	Never bool           `parser:"| @'!'"`
	Impl  *boundsNode    `parser:"| 'impl' @@"`
	Dyn   *boundsNode    `parser:"| 'dyn' @@"`
	FnPtr *fnPtrNode     `parser:"| @@"`
	Path  *pathNode      `parser:"| @@"`
}

type refTypeNode struct {
	Lifetime string    `parser:"'&' @Lifetime?"`
	Mutable  bool      `parser:"@'mut'?"`
	Elem     *typeNode `parser:"@@"`
}

type tupleTypeNode struct {
	Elems    []*typeNode `parser:"'(' ( @@ ( ',' @@ )*"`
	Trailing bool        `parser:"@','? )? ')'"`
}

type sliceTypeNode struct {
	Elem *typeNode    `parser:"'[' @@"`
	Len  *arrayLenNode `parser:"( ';' @@ )? ']'"`
}

type arrayLenNode struct {
	Tokens []lexer.Token

	Trees []*treeNode `parser:"@@+"`
}

type fnPtrNode struct {
	Unsafe bool        `parser:"@'unsafe'?"`
	Extern *string     `parser:"( 'extern' @String? )?"`
	Inputs []*typeNode `parser:"'fn' '(' ( @@ ( ',' @@ )* ','? )? ')'"`
	Output *typeNode   `parser:"( '->' @@ )?"`
}

type pathNode struct {
	QSelf    *qselfNode     `parser:"( @@ '::'"`
	Global   bool           `parser:"| @'::' )?"`
	Segments []*segmentNode `parser:"@@ ( '::' @@ )*"`
}

type qselfNode struct {
	Type  *typeNode `parser:"'<' @@"`
	Trait *pathNode `parser:"( 'as' @@ )? '>'"`
}

type segmentNode struct {
	Name   string           `parser:"@Ident"`
	Args   *genericArgsNode `parser:"( '::'? @@"`
	FnArgs *fnSugarNode     `parser:"| @@ )?"`
}

type fnSugarNode struct {
	Inputs []*typeNode `parser:"'(' ( @@ ( ',' @@ )* ','? )? ')'"`
	Output *typeNode   `parser:"( '->' @@ )?"`
}

// exprPathNode is a path in pattern or visibility position: no parenthesized sugar, optional turbofish.
type exprPathNode struct {
	Global   bool               `parser:"@'::'?"`
	Segments []*exprSegmentNode `parser:"@@ ( '::' @@ )*"`
}

type exprSegmentNode struct {
	Name string           `parser:"@Ident"`
	Args *genericArgsNode `parser:"( '::' @@ )?"`
}

// Patterns.

type patternNode struct {
	Ref      *refPatternNode     `parser:"  @@"`
	Tuple    *tuplePatternNode   `parser:"| @@"`
	Binding  *bindingPatternNode `parser:"| @@"`
	Wildcard bool                `parser:"| @'_'"`
	Rest     bool                `parser:"| @'..'"`
	Path     *pathPatternNode    `parser:"| @@"`
}

type refPatternNode struct {
	Mutable bool         `parser:"'&' @'mut'?"`
	Elem    *patternNode `parser:"@@"`
}

type tuplePatternNode struct {
	Elems    []*patternNode `parser:"'(' ( @@ ( ',' @@ )*"`
	Trailing bool           `parser:"@','? )? ')'"`
}

type bindingPatternNode struct {
	ByRef   bool         `parser:"( @'ref'"`
	RefMut  bool         `parser:"  @'mut'?"`
	Mutable bool         `parser:"| @'mut' )"`
	Name    string       `parser:"@Ident"`
	Sub     *patternNode `parser:"( '@' @@ )?"`
}

type pathPatternNode struct {
	Path   *exprPathNode        `parser:"@@"`
	Fields *structPatternFields `parser:"( @@"`
	Elems  *tuplePatternNode    `parser:"| @@"`
	Sub    *patternNode         `parser:"| '@' @@ )?"`
}

type structPatternFields struct {
	Fields []*fieldPatternNode `parser:"'{' ( @@ ( ',' @@ )* ','? )? '}'"`
}

type fieldPatternNode struct {
	Rest    bool         `parser:"  @'..'"`
	ByRef   bool         `parser:"| @'ref'?"`
	Mutable bool         `parser:"  @'mut'?"`
	Name    string       `parser:"  @Ident"`
	Pattern *patternNode `parser:"  ( ':' @@ )?"`
}
