// Package rewrite turns one method into its instrumented form plus the locator used to configure its mocks.
package rewrite

import (
	"slices"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	analyze "github.com/yyYank/mry/mrygen/run/3_analyze"
)

// Exported variables.
var (
	ErrMalformedSignature = analyze.ErrMalformedSignature
)

// Runtime names the items of the support library generated code refers to.
type Runtime struct {
	// Crate is the library path prefix: mry.
	Crate string
	// Identity is the per-instance identity type under Crate: Mry.
	Identity string
	// Field is the name of the hidden identity field on records and stand-ins.
	Field string
	// LocatorPrefix prefixes every locator method name.
	LocatorPrefix string
	// PlainPrefix prefixes the plain companion record of an augmented record.
	PlainPrefix string
	// StandInPrefix prefixes the stand-in type generated for an interface.
	StandInPrefix string
	// GuardCfg, when set, gates the guard and the hidden field behind #[cfg(GuardCfg)].
	GuardCfg string
	// AsyncMarker is the attribute put on stand-in impls of interfaces with async methods.
	AsyncMarker string
}

// DefaultRuntime returns the names of the mry support library.
func DefaultRuntime() Runtime {
	return Runtime{
		Crate:         "mry",
		Identity:      "Mry",
		Field:         "mry",
		LocatorPrefix: "mock_",
		PlainPrefix:   "Mry",
		StandInPrefix: "Mock",
		AsyncMarker:   "async_trait::async_trait",
	}
}

// Path returns Crate::names.
func (r Runtime) Path(names ...string) *syntax.PathType {
	return syntax.Path(append([]string{r.Crate}, names...)...)
}

// IdentityType is Crate::Identity.
func (r Runtime) IdentityType() *syntax.PathType {
	return r.Path(r.Identity)
}

// GuardAttrs returns the cfg attribute gating generated test-only code, or nil when no gate is configured.
func (r Runtime) GuardAttrs() []syntax.Attribute {
	if r.GuardCfg == "" {
		return nil
	}

	return []syntax.Attribute{{Text: "cfg(" + r.GuardCfg + ")"}}
}

// Injection holds the three points where generated code meets the runtime.
type Injection struct {
	// Registry is the locator's handle on the mock registry.
	Registry syntax.Expr
	// Recorder is the value record_call_and_find_mock_output is called on.
	Recorder syntax.Expr
	// Init runs at the top of the locator, before the handle is taken.
	Init []syntax.Stmt
}

// Injection returns the injection points for a method with the given receiver kind. Instance methods go through
// the identity field; static methods share the process-wide registry.
func (r Runtime) Injection(kind syntax.ReceiverKind) Injection {
	if kind == syntax.ReceiverNone {
		static := syntax.MethodCall(&syntax.PathExpr{Path: r.Path("STATIC_MOCKS")}, "write")

		return Injection{
			Registry: syntax.Call(syntax.ValuePath("Box", "new"), static),
			Recorder: static,
		}
	}

	field := syntax.FieldAccess(syntax.Var("self"), r.Field)
	generate := syntax.Call(&syntax.PathExpr{Path: r.IdentityType().WithSegment("generate")})

	return Injection{
		Registry: syntax.MethodCall(field, "mocks_write"),
		Recorder: field,
		Init: []syntax.Stmt{&syntax.IfStmt{
			Cond: syntax.MethodCall(field, "is_none"),
			Then: syntax.NewBlock(&syntax.AssignStmt{Target: field, Value: generate}),
		}},
	}
}

// Target describes where a method lives.
type Target struct {
	// Key is the path the identity token is taken from: Cat, <Cat as Iterator> or MockCat.
	Key *syntax.PathType
	// Name is the qualified-name prefix: Cat, <Cat as Iterator> or Cat for a stand-in of interface Cat.
	Name string
	// Fallback is used when the method has no body.
	Fallback *syntax.Block
	// Generics are added to every locator's own generics, after the method's.
	Generics []*syntax.GenericParam
	// Where predicates are added to every locator's where clause, after the method's.
	Where []*syntax.WherePredicate
	// LocatorVis overrides the locator visibility; nil mirrors the method's.
	LocatorVis *syntax.Visibility
}

// QualifiedName is the textual name a method is recorded under.
func (t Target) QualifiedName(method string) string {
	return t.Name + "::" + method
}

// Result is the rewritten method and its locator.
type Result struct {
	Instrumented *syntax.Method
	Locator      *syntax.Method
}

// Method rewrites method for target. It fails with ErrMalformedSignature when the signature cannot be recorded.
func Method(method *syntax.Method, target Target, runtime Runtime) (*Result, error) {
	sig := method.Sig

	if sig.Const {
		return nil, syntax.Errorf(sig.Span, sig.Name, ErrMalformedSignature,
			"const methods cannot record calls")
	}

	analysis, err := analyze.Analyze(sig)
	if err != nil {
		return nil, err
	}

	inject := runtime.Injection(analysis.Receiver)
	key := &syntax.PathExpr{Path: target.Key.WithSegment(sig.Name)}

	return &Result{
		Instrumented: instrumented(method, target, runtime, analysis, inject, key),
		Locator:      locator(method, target, runtime, analysis, inject, key),
	}, nil
}

// TypeID is std::any::Any::type_id(&key).
func TypeID(key syntax.Expr) syntax.Expr {
	return syntax.Call(syntax.ValuePath("std", "any", "Any", "type_id"), &syntax.RefExpr{Expr: key})
}

// Functions - Private

func instrumented(
	method *syntax.Method,
	target Target,
	runtime Runtime,
	analysis *analyze.Analysis,
	inject Injection,
	key syntax.Expr,
) *syntax.Method {
	sig := method.Sig.Clone()
	sig.Inputs = analysis.Inputs
	sig.Output = analysis.Return

	captured := make([]syntax.Expr, 0, analysis.Arity)
	for _, capture := range analysis.Captures {
		captured = append(captured, capture.CaptureExpr)
	}

	lookup := syntax.MethodCall(inject.Recorder, "record_call_and_find_mock_output",
		TypeID(key),
		&syntax.StringLit{Value: target.QualifiedName(sig.Name)},
		&syntax.TupleExpr{Elems: captured},
	)

	guard := &syntax.IfLetStmt{
		Attrs:   runtime.GuardAttrs(),
		Pattern: &syntax.TupleStructPattern{Path: syntax.Ident("Some"), Elems: []syntax.Pattern{syntax.Bind("out")}},
		Value:   lookup,
		Then:    syntax.NewBlock(&syntax.ReturnStmt{Value: syntax.Var("out")}),
	}

	body := method.Body
	if body == nil {
		body = target.Fallback
	}

	stmts := []syntax.Stmt{guard}
	stmts = append(stmts, analysis.Rebinds()...)

	if body != nil {
		stmts = append(stmts, body.Stmts...)
	}

	return &syntax.Method{
		Attrs: method.Attrs,
		Vis:   method.Vis,
		Sig:   sig,
		Body:  syntax.NewBlock(stmts...),
	}
}

func locator(
	method *syntax.Method,
	target Target,
	runtime Runtime,
	analysis *analyze.Analysis,
	inject Injection,
	key syntax.Expr,
) *syntax.Method {
	name := method.Sig.Name
	scope := &syntax.LifetimeType{Name: "'mry"}

	inputs := make([]syntax.FnArg, 0, analysis.Arity+1)
	if !analysis.Static() {
		inputs = append(inputs, &syntax.Receiver{Kind: syntax.ReceiverMutRef, Lifetime: scope.Name})
	}

	matchers := make([]syntax.Expr, 0, analysis.Arity)

	for _, capture := range analysis.Captures {
		matcher := &syntax.ImplType{Bounds: []syntax.Bound{{
			Path: syntax.Generic("Into", &syntax.PathType{Segments: []*syntax.PathSegment{
				{Name: runtime.Crate},
				{Name: "Matcher", Args: []syntax.Type{capture.CaptureType}},
			}}),
		}}}
		inputs = append(inputs, &syntax.Param{Pattern: syntax.Bind(capture.Name), Type: matcher})
		matchers = append(matchers, syntax.MethodCall(syntax.Var(capture.Name), "into"))
	}

	ret := analysis.Return
	output := &syntax.PathType{Segments: []*syntax.PathSegment{
		{Name: runtime.Crate},
		{Name: "MockLocator", Args: []syntax.Type{
			scope,
			analysis.Args,
			ret,
			&syntax.PathType{Segments: []*syntax.PathSegment{
				{Name: runtime.Crate},
				{Name: analysis.Behavior, Args: []syntax.Type{analysis.Args, ret}},
			}},
		}},
	}}

	literal := &syntax.StructExpr{
		Path: runtime.Path("MockLocator"),
		Fields: []*syntax.FieldValue{
			{Name: "mocks", Value: inject.Registry},
			{Name: "key", Value: TypeID(key)},
			{Name: "name", Value: &syntax.StringLit{Value: target.QualifiedName(name)}},
			{Name: "matcher", Value: syntax.Call(syntax.Var("Some"),
				syntax.MethodCall(&syntax.TupleExpr{Elems: matchers}, "into"))},
			{Name: "_phantom", Value: syntax.Call(syntax.ValuePath("Default", "default"))},
		},
	}

	stmts := slices.Clone(inject.Init)
	stmts = append(stmts, &syntax.ExprStmt{Expr: literal})

	vis := method.Vis
	if target.LocatorVis != nil {
		vis = *target.LocatorVis
	}

	return &syntax.Method{
		Attrs: method.Attrs,
		Vis:   vis,
		Sig: &syntax.Signature{
			Name:     runtime.LocatorPrefix + name,
			Generics: locatorGenerics(method.Sig.Generics, target),
			Inputs:   inputs,
			Output:   output,
			Span:     method.Sig.Span,
		},
		Body: syntax.NewBlock(stmts...),
	}
}

// locatorGenerics is <'mry, method generics..., target generics...> with lifetimes first, under the method's
// where clause followed by the target's.
func locatorGenerics(own syntax.Generics, target Target) syntax.Generics {
	all := []*syntax.GenericParam{{Kind: syntax.LifetimeParam, Name: "'mry"}}
	all = append(all, own.Params...)
	all = append(all, target.Generics...)

	slices.SortStableFunc(all, func(a, b *syntax.GenericParam) int {
		return lifetimeRank(a) - lifetimeRank(b)
	})

	where := append(slices.Clone(own.Where), target.Where...)

	return syntax.Generics{Params: all, Where: where}
}

func lifetimeRank(param *syntax.GenericParam) int {
	if param.Kind == syntax.LifetimeParam {
		return 0
	}

	return 1
}
