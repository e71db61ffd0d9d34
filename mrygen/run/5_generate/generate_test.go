package generate_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // gomega DSL

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	parse "github.com/yyYank/mry/mrygen/run/2_parse"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
	generate "github.com/yyYank/mry/mrygen/run/5_generate"
)

func generateSource(t *testing.T, src string, rt rewrite.Runtime) (string, []generate.Report, error) {
	t.Helper()

	file, err := parse.File("cat.rs", src)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	out, reports, err := generate.File(file, rt)
	if err != nil {
		return "", nil, err
	}

	return syntax.PrintFile(out), reports, nil
}

func mustGenerate(t *testing.T, src string) string {
	t.Helper()

	out, _, err := generateSource(t, src, rewrite.DefaultRuntime())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return out
}

func TestFile_PassThroughIsIdempotent(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	src := "use std::fmt;\n\nfn helper() -> u8 {\n    1\n}\n\nconst LIMIT: usize = 3;\n"

	out, reports, err := generateSource(t, src, rewrite.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(Equal(src))
	g.Expect(reports).To(HaveLen(3))

	for _, report := range reports {
		g.Expect(report.Kind).To(Equal(generate.KindPassThrough))
		g.Expect(report.Items).To(Equal(1))
	}
}

func TestMethodBlock_WithoutMethodsIsUnchanged(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	src := "impl Cat {\n    const LIVES: u8 = 9;\n}\n"

	g.Expect(mustGenerate(t, src)).To(Equal(src))
}

func TestRecord_Named(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, "struct Cat {\n    name: String,\n}\n")

	g.Expect(out).To(Equal(`struct Cat {
    name: String,
    mry: mry::Mry,
}

struct MryCat {
    name: String,
}

impl From<MryCat> for Cat {
    fn from(MryCat { name }: MryCat) -> Self {
        Self {
            name,
            mry: Default::default(),
        }
    }
}
`))
}

func TestRecord_GenericWithAttributesAndVisibility(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, "#[derive(Clone)]\npub struct Cat<'a, T: Clone = u8> where T: Default {\n"+
		"    /// The name.\n    pub name: &'a str,\n    age: T,\n}\n")

	g.Expect(out).To(Equal(`#[derive(Clone)]
pub struct Cat<'a, T: Clone = u8> where T: Default {
    /// The name.
    pub name: &'a str,
    age: T,
    mry: mry::Mry,
}

#[derive(Clone)]
pub struct MryCat<'a, T: Clone = u8> where T: Default {
    /// The name.
    pub name: &'a str,
    age: T,
}

impl<'a, T: Clone> From<MryCat<'a, T>> for Cat<'a, T> where T: Default {
    fn from(MryCat { name, age }: MryCat<'a, T>) -> Self {
        Self {
            name,
            age,
            mry: Default::default(),
        }
    }
}
`))
}

func TestRecord_Tuple(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, "pub struct Cat(pub String, u8);\n")

	g.Expect(out).To(Equal(`pub struct Cat(pub String, u8, mry::Mry);

pub struct MryCat(pub String, u8);

impl From<MryCat> for Cat {
    fn from(MryCat(arg0, arg1): MryCat) -> Self {
        Self {
            0: arg0,
            1: arg1,
            2: Default::default(),
        }
    }
}
`))
}

func TestRecord_Unit(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, "struct Cat;\n")

	g.Expect(out).To(Equal(`struct Cat {
    mry: mry::Mry,
}

struct MryCat;

impl From<MryCat> for Cat {
    fn from(_: MryCat) -> Self {
        Self {
            mry: Default::default(),
        }
    }
}
`))
}

func TestRecord_GuardCfg(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	rt := rewrite.DefaultRuntime()
	rt.GuardCfg = "test"

	out, _, err := generateSource(t, "struct Cat {\n    name: String,\n}\n", rt)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(HavePrefix("struct Cat {\n    name: String,\n    #[cfg(test)]\n    mry: mry::Mry,\n}\n"))
	g.Expect(out).To(ContainSubstring("            name,\n            #[cfg(test)]\n            mry: Default::default(),\n"))
}

func TestMethodBlock_StaticMethod(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out, reports, err := generateSource(t, `impl Cat {
    pub fn identify(count: usize) -> String {
        format!("cat {}", count)
    }
}
`, rewrite.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reports).To(Equal([]generate.Report{{
		Kind:     generate.KindMethodBlock,
		Name:     "Cat",
		Span:     syntax.Span{File: "cat.rs", Line: 1, Column: 1},
		Locators: 1,
		Items:    2,
	}}))

	g.Expect(out).To(Equal(`impl Cat {
    pub fn identify(count: usize) -> String {
        if let Some(out) = mry::STATIC_MOCKS.write().record_call_and_find_mock_output(std::any::Any::type_id(&Cat::identify), "Cat::identify", (count.clone(),)) {
            return out;
        }
        format!("cat {}", count)
    }
}

impl Cat {
    pub fn mock_identify<'mry>(arg0: impl Into<mry::Matcher<usize>>) -> mry::MockLocator<'mry, (usize,), String, mry::Behavior1<(usize,), String>> {
        mry::MockLocator {
            mocks: Box::new(mry::STATIC_MOCKS.write()),
            key: std::any::Any::type_id(&Cat::identify),
            name: "Cat::identify",
            matcher: Some((arg0.into(),).into()),
            _phantom: Default::default(),
        }
    }
}
`))
}

func TestMethodBlock_InterfaceImplementationQualifiesAssociatedTypes(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `impl Iterator for Cat {
    type Item = u8;

    fn next(&mut self) -> Option<Self::Item> {
        None
    }
}
`)

	g.Expect(out).To(Equal(`impl Iterator for Cat {
    type Item = u8;

    fn next(&mut self) -> Option<<Self as Iterator>::Item> {
        if let Some(out) = self.mry.record_call_and_find_mock_output(std::any::Any::type_id(&<Cat as Iterator>::next), "<Cat as Iterator>::next", ()) {
            return out;
        }
        None
    }
}

impl Cat {
    fn mock_next<'mry>(&'mry mut self) -> mry::MockLocator<'mry, (), Option<<Self as Iterator>::Item>, mry::Behavior0<(), Option<<Self as Iterator>::Item>>> {
        if self.mry.is_none() {
            self.mry = mry::Mry::generate();
        }
        mry::MockLocator {
            mocks: self.mry.mocks_write(),
            key: std::any::Any::type_id(&<Cat as Iterator>::next),
            name: "<Cat as Iterator>::next",
            matcher: Some(().into()),
            _phantom: Default::default(),
        }
    }
}
`))
}

func TestMethodBlock_GenericsNotInSelfTypeMoveToLocators(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `impl<'a, T: Clone, U> Store<U> for Cat<'a, T> where U: Default {
    fn put(&self, u: U) {}
}
`)

	g.Expect(out).To(ContainSubstring("impl<'a, T: Clone, U> Store<U> for Cat<'a, T> where U: Default {\n"))
	g.Expect(out).To(ContainSubstring(`type_id(&<Cat<'a, T> as Store<U>>::put), "<Cat<'a, T> as Store<U>>::put", (u.clone(),)`))
	g.Expect(out).To(ContainSubstring("\nimpl<'a, T: Clone> Cat<'a, T> {\n"))
	g.Expect(out).To(ContainSubstring("    fn mock_put<'mry, U>(&'mry mut self, arg0: impl Into<mry::Matcher<U>>)"))
	g.Expect(out).To(ContainSubstring("mry::Behavior1<(U,), ()>> where U: Default {\n"))
}

func TestMethodBlock_BlockWhereMovesWithGenerics(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `impl<T, A> Store<A> for Wrap<T> where T: Clone {
    fn get(&self) -> usize {
        0
    }
}
`)

	g.Expect(out).To(Equal(`impl<T, A> Store<A> for Wrap<T> where T: Clone {
    fn get(&self) -> usize {
        if let Some(out) = self.mry.record_call_and_find_mock_output(std::any::Any::type_id(&<Wrap<T> as Store<A>>::get), "<Wrap<T> as Store<A>>::get", ()) {
            return out;
        }
        0
    }
}

impl<T> Wrap<T> {
    fn mock_get<'mry, A>(&'mry mut self) -> mry::MockLocator<'mry, (), usize, mry::Behavior0<(), usize>> where T: Clone {
        if self.mry.is_none() {
            self.mry = mry::Mry::generate();
        }
        mry::MockLocator {
            mocks: self.mry.mocks_write(),
            key: std::any::Any::type_id(&<Wrap<T> as Store<A>>::get),
            name: "<Wrap<T> as Store<A>>::get",
            matcher: Some(().into()),
            _phantom: Default::default(),
        }
    }
}
`))
}

func TestMethodBlock_MethodWhereQualifiedOnLocator(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `impl Iterator for Cat {
    type Item = u8;

    fn push<T>(&self, t: T) -> usize where T: Into<Self::Item> {
        0
    }
}
`)

	g.Expect(out).To(ContainSubstring(
		"    fn push<T>(&self, t: T) -> usize where T: Into<<Self as Iterator>::Item> {\n"))
	g.Expect(out).To(ContainSubstring("\nimpl Cat {\n    fn mock_push<'mry, T>(&'mry mut self, arg0: impl Into<mry::Matcher<T>>) " +
		"-> mry::MockLocator<'mry, (T,), usize, mry::Behavior1<(T,), usize>> where T: Into<<Self as Iterator>::Item> {\n"))
	g.Expect(out).NotTo(ContainSubstring("Into<Self::Item>"))
}

func TestMethodBlock_AttributesCarriedToLocators(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `impl Cat {
    #[cfg(feature = "x")]
    pub fn meow(&self, x: XOnly) -> u8 {
        0
    }
}
`)

	g.Expect(out).To(ContainSubstring("impl Cat {\n    #[cfg(feature = \"x\")]\n    pub fn meow(&self, x: XOnly) -> u8 {\n"))
	g.Expect(out).To(ContainSubstring("\nimpl Cat {\n    #[cfg(feature = \"x\")]\n" +
		"    pub fn mock_meow<'mry>(&'mry mut self, arg0: impl Into<mry::Matcher<XOnly>>)"))
}

func TestMethodBlock_InherentGenericKeyUsesTurbofish(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `impl<T> Cat<T> where T: Clone {
    pub(crate) fn get(&self) -> T {
        self.value.clone()
    }
}
`)

	g.Expect(out).To(ContainSubstring(`type_id(&Cat::<T>::get), "Cat<T>::get", ()`))
	g.Expect(out).To(ContainSubstring("\nimpl<T> Cat<T> where T: Clone {\n    pub(crate) fn mock_get<'mry>("))
}

func TestMethodBlock_PassThroughMembersKeepOrder(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	var src strings.Builder

	src.WriteString("impl Cat {\n")

	const count = 20
	for i := range count {
		if i%5 == 0 {
			fmt.Fprintf(&src, "    const C%d: u8 = %d;\n", i, i)
			continue
		}

		fmt.Fprintf(&src, "    fn m%d(&self) {}\n", i)
	}

	src.WriteString("}\n")

	out, reports, err := generateSource(t, src.String(), rewrite.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reports[0].Locators).To(Equal(count - count/5))

	last := -1

	for i := range count {
		needle := fmt.Sprintf("fn m%d(&self) -> ()", i)
		if i%5 == 0 {
			needle = fmt.Sprintf("const C%d: u8", i)
		}

		pos := strings.Index(out, needle)
		g.Expect(pos).To(BeNumerically(">", last), needle)
		last = pos
	}

	g.Expect(strings.Index(out, "fn mock_m1<")).To(BeNumerically("<", strings.Index(out, "fn mock_m19<")))
}

func TestMethodBlock_FailureAbortsDeclaration(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out, reports, err := generateSource(t, `impl Cat {
    fn fine(&self) {}

    fn first(self) {}

    fn second(self: Box<Self>) {}
}
`, rewrite.DefaultRuntime())
	g.Expect(out).To(BeEmpty())
	g.Expect(reports).To(BeNil())
	g.Expect(errors.Is(err, rewrite.ErrMalformedSignature)).To(BeTrue())

	var spanErr *syntax.SpanError
	g.Expect(errors.As(err, &spanErr)).To(BeTrue())
	g.Expect(spanErr.Member).To(Equal("first"))
	g.Expect(spanErr.Span.Line).To(Equal(4))
}

func TestInterface_AssociatedType(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out, reports, err := generateSource(t, `pub trait Iter {
    type Item;

    fn next(&mut self) -> Option<Self::Item>;
}
`, rewrite.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reports[0].Kind).To(Equal(generate.KindInterface))
	g.Expect(reports[0].Locators).To(Equal(1))
	g.Expect(reports[0].Items).To(Equal(4))

	g.Expect(out).To(Equal(`pub trait Iter {
    type Item;

    fn next(&mut self) -> Option<Self::Item>;
}

#[derive(Default, Clone)]
pub struct MockIter<Item> {
    pub mry: mry::Mry,
    pub _phantom: std::marker::PhantomData<fn() -> Item>,
}

impl<Item> Iter for MockIter<Item> {
    type Item = Item;

    fn next(&mut self) -> Option<<Self as Iter>::Item> {
        if let Some(out) = self.mry.record_call_and_find_mock_output(std::any::Any::type_id(&MockIter::<Item>::next), "Iter::next", ()) {
            return out;
        }
        panic!("mock not found for Iter")
    }
}

impl<Item> MockIter<Item> {
    pub fn mock_next<'mry>(&'mry mut self) -> mry::MockLocator<'mry, (), Option<<Self as Iter>::Item>, mry::Behavior0<(), Option<<Self as Iter>::Item>>> {
        if self.mry.is_none() {
            self.mry = mry::Mry::generate();
        }
        mry::MockLocator {
            mocks: self.mry.mocks_write(),
            key: std::any::Any::type_id(&MockIter::<Item>::next),
            name: "Iter::next",
            matcher: Some(().into()),
            _phantom: Default::default(),
        }
    }
}
`))
}

func TestInterface_WhereClauseAndMethodAttributes(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `trait Iter where Self::Item: Clone {
    type Item;

    #[must_use]
    fn next(&mut self) -> Option<Self::Item>;
}
`)

	g.Expect(out).To(HavePrefix("trait Iter where Self::Item: Clone {\n"))
	g.Expect(out).To(ContainSubstring("\nimpl<Item> Iter for MockIter<Item> where <Self as Iter>::Item: Clone {\n"))
	g.Expect(out).To(ContainSubstring("\nimpl<Item> MockIter<Item> where <Self as Iter>::Item: Clone {\n" +
		"    #[must_use]\n    pub fn mock_next<'mry>(&'mry mut self)"))
}

func TestInterface_PlainWithDefaultMethod(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `trait Cat {
    fn meow(&self, count: usize) -> String;

    fn lives(&self) -> u8 {
        9
    }
}
`)

	g.Expect(out).To(ContainSubstring("#[derive(Default, Clone)]\nstruct MockCat {\n    pub mry: mry::Mry,\n}\n"))
	g.Expect(out).To(ContainSubstring("\nimpl Cat for MockCat {\n"))
	g.Expect(out).To(ContainSubstring(
		`type_id(&MockCat::meow), "Cat::meow", (count.clone(),)) {
            return out;
        }
        panic!("mock not found for Cat")`))
	g.Expect(out).To(ContainSubstring(
		`type_id(&MockCat::lives), "Cat::lives", ()) {
            return out;
        }
        9
    }`))
	g.Expect(out).To(ContainSubstring("    pub fn mock_meow<'mry>(&'mry mut self, arg0: impl Into<mry::Matcher<usize>>)"))
	g.Expect(out).To(ContainSubstring("    pub fn mock_lives<'mry>(&'mry mut self)"))
}

func TestInterface_GenericAsyncUnsafe(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, `pub(crate) unsafe trait Store<'a, T: Clone> {
    type Key: Eq;
    type Limit = u8;

    async fn get(&self, key: &Self::Key) -> Option<T>;
}
`)

	g.Expect(out).To(ContainSubstring(`#[derive(Default, Clone)]
pub(crate) struct MockStore<'a, T, Key> {
    pub mry: mry::Mry,
    pub _phantom: std::marker::PhantomData<fn() -> (&'a (), T, Key)>,
}`))
	g.Expect(out).To(ContainSubstring(`#[async_trait::async_trait]
unsafe impl<'a, T: Clone, Key: Eq> Store<'a, T> for MockStore<'a, T, Key> {
    type Key = Key;

    type Limit = u8;

    async fn get(&self, key: &<Self as Store<'a, T>>::Key) -> Option<T> {`))
	g.Expect(out).To(ContainSubstring(`"Store::get", ((*key).clone(),)`))
	g.Expect(out).To(ContainSubstring("\nimpl<'a, T: Clone, Key: Eq> MockStore<'a, T, Key> {\n"))
	g.Expect(out).To(ContainSubstring("arg0: impl Into<mry::Matcher<<Self as Store<'a, T>>::Key>>"))
}

func TestInterface_AssociatedTypeNameClash(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out := mustGenerate(t, "trait Conv<Item> {\n    type Item;\n\n    fn conv(&self, item: Item) -> Self::Item;\n}\n")

	g.Expect(out).To(ContainSubstring("struct MockConv<Item, Item_> {"))
	g.Expect(out).To(ContainSubstring("impl<Item, Item_> Conv<Item> for MockConv<Item, Item_> {\n    type Item = Item_;\n"))
}

func TestInterface_NoAsyncMarkerWhenDisabled(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	rt := rewrite.DefaultRuntime()
	rt.AsyncMarker = ""

	out, _, err := generateSource(t, "trait Cat {\n    async fn meow(&self);\n}\n", rt)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).NotTo(ContainSubstring("async_trait"))
	g.Expect(out).To(ContainSubstring("\nimpl Cat for MockCat {\n    async fn meow(&self) -> () {\n"))
}

func TestInterface_UnsupportedMembers(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		src    string
		member string
		msg    string
	}{
		{
			name:   "constant",
			src:    "trait Cat {\n    const LIVES: u8;\n}\n",
			member: "LIVES",
			msg:    "associated constant in interface Cat",
		},
		{
			name:   "generic associated type",
			src:    "trait Cat {\n    type Toy<'a>;\n}\n",
			member: "Toy",
			msg:    "generic associated type in interface Cat",
		},
		{
			name:   "macro",
			src:    "trait Cat {\n    purr!();\n}\n",
			member: "Cat",
			msg:    `"purr!();" in interface Cat`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := NewWithT(t)

			_, _, err := generateSource(t, tc.src, rewrite.DefaultRuntime())
			g.Expect(errors.Is(err, generate.ErrUnsupportedMember)).To(BeTrue())
			g.Expect(err.Error()).To(Equal(tc.member + ": unsupported member: " + tc.msg))

			var spanErr *syntax.SpanError
			g.Expect(errors.As(err, &spanErr)).To(BeTrue())
			g.Expect(spanErr.Span.Line).To(Equal(2))
		})
	}
}

func TestInterface_MalformedMethod(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	_, _, err := generateSource(t, "trait Cat {\n    fn into_dog(self) -> Dog;\n}\n", rewrite.DefaultRuntime())
	g.Expect(errors.Is(err, rewrite.ErrMalformedSignature)).To(BeTrue())
}

func TestKindString(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	g.Expect(generate.KindRecord.String()).To(Equal("record"))
	g.Expect(generate.KindMethodBlock.String()).To(Equal("method block"))
	g.Expect(generate.KindInterface.String()).To(Equal("interface"))
	g.Expect(generate.KindPassThrough.String()).To(Equal("pass-through"))
}
