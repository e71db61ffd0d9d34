package parse_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // gomega DSL

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	parse "github.com/yyYank/mry/mrygen/run/2_parse"
)

func TestItem_NamedStruct(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	item, err := parse.Item(`#[derive(Clone, Debug)]
pub struct Cat<'a, T: Clone> {
    pub name: &'a str,
    toys: Vec<T>,
}`)
	g.Expect(err).NotTo(HaveOccurred())

	decl, ok := item.(*syntax.Struct)
	g.Expect(ok).To(BeTrue())
	g.Expect(decl.Name).To(Equal("Cat"))
	g.Expect(decl.Vis).To(Equal(syntax.Public()))
	g.Expect(decl.Attrs).To(Equal([]syntax.Attribute{{Text: "derive(Clone, Debug)"}}))
	g.Expect(decl.Generics.Names()).To(Equal([]string{"'a", "T"}))
	g.Expect(decl.Fields).To(HaveLen(2))
	g.Expect(syntax.TypeString(decl.Fields[0].Type)).To(Equal("&'a str"))
	g.Expect(decl.Fields[1].Name).To(Equal("toys"))
	g.Expect(syntax.TypeString(decl.Fields[1].Type)).To(Equal("Vec<T>"))
}

func TestItem_TupleAndUnitStructs(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	item, err := parse.Item("pub(crate) struct Meters(pub f64, u8);")
	g.Expect(err).NotTo(HaveOccurred())

	decl := item.(*syntax.Struct) //nolint:forcetypeassert // parse result shape asserted by print below
	g.Expect(decl.Kind).To(Equal(syntax.TupleStruct))
	g.Expect(decl.Vis).To(Equal(syntax.Visibility{Kind: syntax.VisRestricted, Restriction: "crate"}))
	g.Expect(syntax.PrintItem(decl)).To(Equal("pub(crate) struct Meters(pub f64, u8);"))

	item, err = parse.Item("struct Marker;")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(item.(*syntax.Struct).Kind).To(Equal(syntax.UnitStruct)) //nolint:forcetypeassert // see above
}

func TestItem_ImplMethods(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	item, err := parse.Item(`impl<'a, A: Clone> Animal<A> for Cat<'a, A> {
    type Item = String;

    /// Says something.
    pub async fn meow<'b>(&'a mut self, A { name, .. }: A, count: &'b usize) -> Option<Self::Item> {
        let out = name.repeat(*count);
        // keep this
        Some(out)
    }

    fn identify(count: usize) {}

    my_macro!(x);
}`)
	g.Expect(err).NotTo(HaveOccurred())

	impl, ok := item.(*syntax.Impl)
	g.Expect(ok).To(BeTrue())
	g.Expect(syntax.TypeString(impl.Trait)).To(Equal("Animal<A>"))
	g.Expect(syntax.TypeString(impl.SelfType)).To(Equal("Cat<'a, A>"))
	g.Expect(impl.Items).To(HaveLen(4))

	assoc, ok := impl.Items[0].(*syntax.AssocType)
	g.Expect(ok).To(BeTrue())
	g.Expect(assoc.Name).To(Equal("Item"))
	g.Expect(syntax.TypeString(assoc.Default)).To(Equal("String"))

	meow, ok := impl.Items[1].(*syntax.Method)
	g.Expect(ok).To(BeTrue())
	g.Expect(meow.Attrs).To(Equal([]syntax.Attribute{{Text: " Says something.", Doc: true}}))
	g.Expect(meow.Sig.Async).To(BeTrue())

	recv, index := meow.Sig.Receiver()
	g.Expect(index).To(Equal(0))
	g.Expect(recv.Kind).To(Equal(syntax.ReceiverMutRef))
	g.Expect(recv.Lifetime).To(Equal("'a"))

	params := meow.Sig.Params()
	g.Expect(params).To(HaveLen(2))
	g.Expect(syntax.PatternString(params[0].Pattern)).To(Equal("A { name, .. }"))
	g.Expect(syntax.TypeString(params[1].Type)).To(Equal("&'b usize"))
	g.Expect(syntax.TypeString(meow.Sig.Output)).To(Equal("Option<Self::Item>"))
	g.Expect(meow.Body.Stmts).To(Equal([]syntax.Stmt{&syntax.RawStmt{
		Text: "let out = name.repeat(*count);\n// keep this\nSome(out)",
	}}))

	identify, ok := impl.Items[2].(*syntax.Method)
	g.Expect(ok).To(BeTrue())
	g.Expect(identify.Sig.Output).To(BeNil())
	g.Expect(identify.Body.Stmts).To(BeEmpty())

	macro, ok := impl.Items[3].(*syntax.RawItem)
	g.Expect(ok).To(BeTrue())
	g.Expect(macro.Text).To(Equal("my_macro!(x);"))
}

func TestItem_Receivers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		source   string
		kind     syntax.ReceiverKind
		mutable  bool
		rendered string
	}{
		{name: "ref", source: "&self", kind: syntax.ReceiverRef, rendered: "&self"},
		{name: "mut ref", source: "&mut self", kind: syntax.ReceiverMutRef, rendered: "&mut self"},
		{name: "value", source: "self", kind: syntax.ReceiverValue, rendered: "self"},
		{name: "mut value", source: "mut self", kind: syntax.ReceiverValue, mutable: true, rendered: "mut self"},
		{name: "typed", source: "self: Box<Self>", kind: syntax.ReceiverTyped, rendered: "self: Box<Self>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewWithT(t)

			item, err := parse.Item("impl Cat { fn f(" + tt.source + ", x: u8) {} }")
			g.Expect(err).NotTo(HaveOccurred())

			method := item.(*syntax.Impl).Items[0].(*syntax.Method) //nolint:forcetypeassert // known shape
			recv, index := method.Sig.Receiver()
			g.Expect(index).To(Equal(0))
			g.Expect(recv.Kind).To(Equal(tt.kind))
			g.Expect(recv.Mutable).To(Equal(tt.mutable))
			g.Expect(syntax.SignatureString(method.Sig)).To(Equal("fn f(" + tt.rendered + ", x: u8)"))
		})
	}
}

func TestItem_Patterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
	}{
		{name: "ident", pattern: "count"},
		{name: "mut ident", pattern: "mut count"},
		{name: "wildcard", pattern: "_"},
		{name: "struct", pattern: "A { name, age: years }"},
		{name: "tuple struct", pattern: "Wrapper(inner, _)"},
		{name: "tuple", pattern: "(a, b)"},
		{name: "reference", pattern: "&(a, b)"},
		{name: "binding with sub-pattern", pattern: "whole @ Wrapper(inner)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewWithT(t)

			item, err := parse.Item("impl Cat { fn f(" + tt.pattern + ": T) {} }")
			g.Expect(err).NotTo(HaveOccurred())

			method := item.(*syntax.Impl).Items[0].(*syntax.Method) //nolint:forcetypeassert // known shape
			g.Expect(syntax.PatternString(method.Sig.Params()[0].Pattern)).To(Equal(tt.pattern))
		})
	}
}

func TestItem_WherePredicates(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	item, err := parse.Item(`impl<'a, 'b, T, F> Cat<'a, T>
where
    'b: 'a,
    T: Into<Self::Item> + Clone,
    for<'x> F: Fn(&'x T) -> bool,
    Self::Item:,
{
    fn get(&self) -> usize where T: 'a { 0 }
}`)
	g.Expect(err).NotTo(HaveOccurred())

	impl, ok := item.(*syntax.Impl)
	g.Expect(ok).To(BeTrue())
	g.Expect(impl.Generics.Where).To(HaveLen(4))
	g.Expect(impl.Generics.Where[0].Lifetime).To(Equal("'b"))
	g.Expect(impl.Generics.Where[2].For).To(Equal([]string{"'x"}))
	g.Expect(impl.Generics.Where[3].Bounds).To(BeEmpty())

	g.Expect(syntax.PrintItem(impl)).To(HavePrefix("impl<'a, 'b, T, F> Cat<'a, T> where 'b: 'a, " +
		"T: Into<Self::Item> + Clone, for<'x> F: Fn(&'x T) -> bool, Self::Item: {\n"))

	method, ok := impl.Items[0].(*syntax.Method)
	g.Expect(ok).To(BeTrue())
	g.Expect(syntax.SignatureString(method.Sig)).To(Equal("fn get(&self) -> usize where T: 'a"))
}

func TestItem_TraitMembers(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	item, err := parse.Item(`pub trait Iterator: Send + 'static where Self: Sized {
    type Item: Clone;
    const LIMIT: usize = 3;
    fn next(&mut self) -> Option<Self::Item>;
    fn count(&self) -> usize { 0 }
}`)
	g.Expect(err).NotTo(HaveOccurred())

	trait, ok := item.(*syntax.Trait)
	g.Expect(ok).To(BeTrue())
	g.Expect(trait.Generics.Where).To(HaveLen(1))
	g.Expect(syntax.TypeString(trait.Generics.Where[0].Type)).To(Equal("Self"))
	g.Expect(syntax.PathString(trait.Generics.Where[0].Bounds[0].Path)).To(Equal("Sized"))
	g.Expect(trait.Supertraits).To(HaveLen(2))
	g.Expect(trait.Items).To(HaveLen(4))

	constItem, ok := trait.Items[1].(*syntax.ConstItem)
	g.Expect(ok).To(BeTrue())
	g.Expect(constItem.Value).To(Equal("3"))

	next := trait.Items[2].(*syntax.Method) //nolint:forcetypeassert // known shape
	g.Expect(next.Body).To(BeNil())

	count := trait.Items[3].(*syntax.Method) //nolint:forcetypeassert // known shape
	g.Expect(count.Body.Stmts).To(Equal([]syntax.Stmt{&syntax.RawStmt{Text: "0"}}))
}

func TestFile_PassesThroughOtherItems(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	src := `use std::collections::{HashMap, HashSet};

pub fn helper(x: [u8; 3]) -> u8 {
    x[0]
}

enum Kind { A, B }

struct Cat {
    name: String,
}
`

	file, err := parse.File("cat.rs", src)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(file.Items).To(HaveLen(4))
	g.Expect(file.Items[0].(*syntax.RawItem).Text).To(Equal("use std::collections::{HashMap, HashSet};")) //nolint:forcetypeassert,lll // known shape
	g.Expect(file.Items[1].(*syntax.RawItem).Text).To(Equal("pub fn helper(x: [u8; 3]) -> u8 {\n    x[0]\n}")) //nolint:forcetypeassert,lll // known shape
	g.Expect(file.Items[2].(*syntax.RawItem).Text).To(Equal("enum Kind { A, B }")) //nolint:forcetypeassert // known shape
	g.Expect(file.Items[3]).To(BeAssignableToTypeOf(&syntax.Struct{}))
	g.Expect(file.Items[3].(*syntax.Struct).Span.Line).To(Equal(9)) //nolint:forcetypeassert // known shape
	g.Expect(file.Items[3].(*syntax.Struct).Span.File).To(Equal("cat.rs")) //nolint:forcetypeassert // known shape
}

func TestFile_CanonicalInputRoundTrips(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	src := `impl<T: Clone> Store<T> {
    pub fn get(&self, key: &str) -> Option<T> {
        self.items.get(key).cloned()
    }

    fn put(&mut self, key: String, value: T) {
        self.items.insert(key, value);
    }
}
`

	file, err := parse.File("store.rs", src)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(syntax.PrintFile(file)).To(Equal(src))
}

func TestFile_ReportsPosition(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	_, err := parse.File("bad.rs", "impl Cat {\n    fn (x: u8) {}\n}\n")
	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("bad.rs:2"))
}

func TestItem_RejectsMultipleItems(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	_, err := parse.Item("struct A; struct B;")
	g.Expect(errors.Is(err, parse.ErrNotSingleItem)).To(BeTrue())
}

func TestSourceFiles(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	dir := t.TempDir()
	for _, name := range []string{"b.rs", "a.rs", "generated_a.rs", "notes.txt"} {
		g.Expect(os.WriteFile(filepath.Join(dir, name), []byte("struct A;\n"), 0o600)).To(Succeed())
	}

	g.Expect(os.Mkdir(filepath.Join(dir, "sub.rs"), 0o755)).To(Succeed())

	files, err := parse.SourceFiles(os.ReadDir, dir, "generated_")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(files).To(Equal([]string{filepath.Join(dir, "a.rs"), filepath.Join(dir, "b.rs")}))

	_, err = parse.SourceFiles(os.ReadDir, t.TempDir(), "")
	g.Expect(errors.Is(err, parse.ErrNoSourceFiles)).To(BeTrue())
}
