package generate

import (
	"fmt"
	"strconv"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
)

// Record augments a data record. It returns the record with a trailing hidden identity field, a plain companion
// record with the original fields, and the conversion from the plain record into the augmented one. A unit
// record becomes a named record holding only the identity.
func Record(decl *syntax.Struct, rt rewrite.Runtime) []syntax.Item {
	plainName := rt.PlainPrefix + decl.Name

	plain := *decl
	plain.Name = plainName
	plain.Span = syntax.Span{}

	hidden := &syntax.Field{Attrs: rt.GuardAttrs(), Type: rt.IdentityType()}
	if decl.Kind != syntax.TupleStruct {
		hidden.Name = rt.Field
	}

	augmented := *decl
	augmented.Fields = append(append([]*syntax.Field(nil), decl.Fields...), hidden)

	if decl.Kind == syntax.UnitStruct {
		augmented.Kind = syntax.NamedStruct
	}

	return []syntax.Item{&augmented, &plain, conversion(decl, plainName, rt)}
}

// Functions - Private

// conversion builds impl<G> From<MryName<G>> for Name<G>.
func conversion(decl *syntax.Struct, plainName string, rt rewrite.Runtime) *syntax.Impl {
	args := decl.Generics.Args()
	selfType := syntax.Generic(decl.Name, args...)
	plainType := syntax.Generic(plainName, args...)

	var (
		pattern syntax.Pattern
		fields  []*syntax.FieldValue
	)

	switch decl.Kind {
	case syntax.NamedStruct:
		destructured := &syntax.StructPattern{Path: syntax.Ident(plainName)}

		for _, field := range decl.Fields {
			destructured.Fields = append(destructured.Fields, &syntax.FieldPattern{Name: field.Name})
			fields = append(fields, &syntax.FieldValue{Name: field.Name})
		}

		pattern = destructured
	case syntax.TupleStruct:
		destructured := &syntax.TupleStructPattern{Path: syntax.Ident(plainName)}

		for i := range decl.Fields {
			name := fmt.Sprintf("arg%d", i)
			destructured.Elems = append(destructured.Elems, syntax.Bind(name))
			fields = append(fields, &syntax.FieldValue{Name: strconv.Itoa(i), Value: syntax.Var(name)})
		}

		pattern = destructured
	default:
		pattern = &syntax.WildcardPattern{}
	}

	fields = append(fields, &syntax.FieldValue{
		Attrs: rt.GuardAttrs(),
		Name:  hiddenFieldName(decl, rt),
		Value: syntax.Call(syntax.ValuePath("Default", "default")),
	})

	from := &syntax.Method{
		Sig: &syntax.Signature{
			Name:   "from",
			Inputs: []syntax.FnArg{&syntax.Param{Pattern: pattern, Type: plainType}},
			Output: syntax.Ident("Self"),
		},
		Body: syntax.Tail(&syntax.StructExpr{Path: syntax.Ident("Self"), Fields: fields}),
	}

	return &syntax.Impl{
		Generics: syntax.Generics{Params: implParams(decl.Generics.Params), Where: decl.Generics.Where},
		Trait:    syntax.Generic("From", plainType),
		SelfType: selfType,
		Items:    []syntax.Member{from},
	}
}

// hiddenFieldName names the hidden field in a record literal: the configured name, or the next position for
// tuple records.
func hiddenFieldName(decl *syntax.Struct, rt rewrite.Runtime) string {
	if decl.Kind == syntax.TupleStruct {
		return strconv.Itoa(len(decl.Fields))
	}

	return rt.Field
}
