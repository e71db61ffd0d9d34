package mry_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // gomega DSL
	"pgregory.net/rapid"

	"github.com/yyYank/mry"
)

func TestTransform_StaticMethod(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out, reports, err := mry.Transform("cat.rs", `impl Cat {
    fn identify(count: usize) -> String {
        format!("cat {}", count)
    }
}
`, mry.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(reports).To(HaveLen(1))
	g.Expect(reports[0].Locators).To(Equal(1))

	g.Expect(out).To(ContainSubstring(
		`if let Some(out) = mry::STATIC_MOCKS.write().record_call_and_find_mock_output(` +
			`std::any::Any::type_id(&Cat::identify), "Cat::identify", (count.clone(),)) {`))
	g.Expect(out).To(ContainSubstring("fn mock_identify<'mry>(arg0: impl Into<mry::Matcher<usize>>)"))
	g.Expect(out).NotTo(ContainSubstring("self"))
}

func TestTransform_InterfaceWithAssociatedType(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out, _, err := mry.Transform("iter.rs", `trait Iter {
    type Item;

    fn next(&mut self) -> Option<Self::Item>;
}
`, mry.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(out).To(HavePrefix("trait Iter {\n    type Item;\n\n    fn next(&mut self) -> Option<Self::Item>;\n}\n"))
	g.Expect(out).To(ContainSubstring("fn next(&mut self) -> Option<<Self as Iter>::Item> {"))
	g.Expect(out).To(ContainSubstring(
		"-> mry::MockLocator<'mry, (), Option<<Self as Iter>::Item>, mry::Behavior0<(), Option<<Self as Iter>::Item>>>"))
	g.Expect(out).To(ContainSubstring(`panic!("mock not found for Iter")`))
}

func TestTransform_RecordAugmentation(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	out, err := mry.TransformDeclaration("struct Cat {\n    name: String,\n}", mry.DefaultRuntime())
	g.Expect(err).NotTo(HaveOccurred())
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

func TestTransform_CustomRuntime(t *testing.T) {
	t.Parallel()

	g := NewWithT(t)

	rt := mry.DefaultRuntime()
	rt.Crate = "fake"
	rt.LocatorPrefix = "stub_"

	out, err := mry.TransformDeclaration("impl Cat {\n    fn meow(&self) {}\n}", rt)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(ContainSubstring("fn stub_meow<'mry>(&'mry mut self) -> fake::MockLocator<"))
	g.Expect(out).To(ContainSubstring("self.mry = fake::Mry::generate();"))
}

func TestTransform_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "by-value receiver",
			src:  "impl Cat {\n    fn eat(self) {}\n}\n",
			want: mry.ErrMalformedSignature,
		},
		{
			name: "associated constant in interface",
			src:  "trait Cat {\n    const LIVES: u8;\n}\n",
			want: mry.ErrUnsupportedMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewWithT(t)

			out, reports, err := mry.Transform("cat.rs", tt.src, mry.DefaultRuntime())
			g.Expect(err).To(MatchError(tt.want))
			g.Expect(out).To(BeEmpty())
			g.Expect(reports).To(BeNil())

			var spanErr *mry.SpanError
			g.Expect(errors.As(err, &spanErr)).To(BeTrue())
			g.Expect(spanErr.Span.File).To(Equal("cat.rs"))
			g.Expect(spanErr.Span.Line).To(Equal(2))
		})
	}
}

func TestTransform_RecordConversionListsEveryField(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 12).Draw(rt, "fields")

		names := make([]string, count)
		decls := make([]string, count)

		for i := range count {
			names[i] = fmt.Sprintf("f%d", i)
			decls[i] = fmt.Sprintf("    %s: u%d,\n", names[i], 8<<(i%4))
		}

		out, err := mry.TransformDeclaration("struct Rec {\n"+strings.Join(decls, "")+"}", mry.DefaultRuntime())
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}

		pattern := "fn from(MryRec { " + strings.Join(names, ", ") + " }: MryRec) -> Self {"
		if !strings.Contains(out, pattern) {
			rt.Fatalf("expected %q in:\n%s", pattern, out)
		}

		plain := "struct MryRec {\n" + strings.Join(decls, "") + "}"
		if !strings.Contains(out, plain) {
			rt.Fatalf("expected plain record %q in:\n%s", plain, out)
		}
	})
}
