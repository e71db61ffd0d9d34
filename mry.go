// Package mry adds mock points to declaration-language source.
//
// Transform rewrites a whole source file: records gain a hidden mock identity, method blocks gain a guard at the
// top of every method plus a block of locators that configure mocked behavior, and interfaces gain a stand-in
// type implementing them. Everything else passes through unchanged.
//
//	out, reports, err := mry.Transform("cat.rs", src, mry.DefaultRuntime())
//
// The names the generated code refers to (runtime crate, identity type, locator prefix, ...) come from Runtime.
package mry

import (
	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	parse "github.com/yyYank/mry/mrygen/run/2_parse"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
	generate "github.com/yyYank/mry/mrygen/run/5_generate"
)

// Runtime names the runtime items generated code refers to.
type Runtime = rewrite.Runtime

// Report describes what was generated for one declaration.
type Report = generate.Report

// SpanError ties a failure to the member and position that caused it.
type SpanError = syntax.SpanError

// Exported variables.
var (
	// ErrMalformedSignature marks a method whose signature cannot record calls.
	ErrMalformedSignature = rewrite.ErrMalformedSignature
	// ErrUnsupportedMember marks an interface member other than a method or a non-generic associated type.
	ErrUnsupportedMember = generate.ErrUnsupportedMember
)

// DefaultRuntime returns the names used by the mry runtime crate.
func DefaultRuntime() Runtime {
	return rewrite.DefaultRuntime()
}

// Transform rewrites every declaration of src and returns the printed result with one report per input
// declaration. filename only labels positions in errors. Any failure aborts the whole file.
func Transform(filename, src string, rt Runtime) (string, []Report, error) {
	file, err := parse.File(filename, src)
	if err != nil {
		return "", nil, err
	}

	out, reports, err := generate.File(file, rt)
	if err != nil {
		return "", nil, err
	}

	return syntax.PrintFile(out), reports, nil
}

// TransformDeclaration rewrites src holding exactly one declaration.
func TransformDeclaration(src string, rt Runtime) (string, error) {
	item, err := parse.Item(src)
	if err != nil {
		return "", err
	}

	items, _, err := generate.Declaration(item, rt)
	if err != nil {
		return "", err
	}

	return syntax.PrintFile(&syntax.File{Items: items}), nil
}
