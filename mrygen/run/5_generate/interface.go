package generate

import (
	"strings"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
)

// Interface keeps decl unchanged and adds a stand-in type implementing it: the stand-in record carrying the
// identity, the implementation whose methods are instrumented (panicking when no mock matches and the method has
// no default), and the locator block. Associated types become type parameters of the stand-in. Members other than
// methods and non-generic associated types fail with ErrUnsupportedMember.
func Interface(decl *syntax.Trait, rt rewrite.Runtime) ([]syntax.Item, int, error) {
	err := checkInterfaceMembers(decl)
	if err != nil {
		return nil, 0, err
	}

	standIn := rt.StandInPrefix + decl.Name
	params, bindings := standInParams(decl)
	args := (syntax.Generics{Params: params}).Args()
	standInType := syntax.Generic(standIn, args...)
	iface := syntax.Generic(decl.Name, decl.Generics.Args()...)

	target := rewrite.Target{
		Key:  standInType,
		Name: decl.Name,
		Fallback: syntax.Tail(&syntax.MacroExpr{
			Name: "panic",
			Args: []syntax.Expr{&syntax.StringLit{Value: "mock not found for " + decl.Name}},
		}),
	}

	// Interface methods carry no visibility; stand-in locators are always public.
	public := syntax.Public()
	target.LocatorVis = &public

	assoc := rewrite.AssocNames(decl.Items)
	prepare := func(method *syntax.Method) *syntax.Method {
		return withSig(method, rewrite.QualifyAssociatedTypes(method.Sig, iface, assoc))
	}

	results, err := rewriteMethods(decl.Items, prepare, target, rt)
	if err != nil {
		return nil, 0, err
	}

	members := make([]syntax.Member, 0, len(decl.Items))
	locators := make([]syntax.Member, 0, len(decl.Items))
	async := false

	for i, member := range decl.Items {
		switch typed := member.(type) {
		case *syntax.AssocType:
			members = append(members, &syntax.AssocType{Name: typed.Name, Default: bindings[typed.Name]})
		case *syntax.Method:
			async = async || typed.Sig.Async
			members = append(members, results[i].Instrumented)
			locators = append(locators, results[i].Locator)
		}
	}

	var implAttrs []syntax.Attribute
	if async && rt.AsyncMarker != "" {
		implAttrs = []syntax.Attribute{{Text: rt.AsyncMarker}}
	}

	generics := syntax.Generics{
		Params: implParams(params),
		Where:  rewrite.QualifyWhere(decl.Generics.Where, iface, assoc),
	}

	return []syntax.Item{
		decl,
		standInRecord(decl, standIn, params, rt),
		&syntax.Impl{
			Attrs:    implAttrs,
			Unsafe:   decl.Unsafe,
			Generics: generics,
			Trait:    iface,
			SelfType: standInType,
			Items:    members,
		},
		&syntax.Impl{
			Generics: generics,
			SelfType: standInType,
			Items:    locators,
		},
	}, len(locators), nil
}

// Functions - Private

func checkInterfaceMembers(decl *syntax.Trait) error {
	for _, member := range decl.Items {
		switch typed := member.(type) {
		case *syntax.Method:
		case *syntax.AssocType:
			if len(typed.Generics.Params) > 0 || len(typed.Generics.Where) > 0 {
				return syntax.Errorf(typed.Span, typed.Name, ErrUnsupportedMember,
					"generic associated type in interface %s", decl.Name)
			}
		case *syntax.ConstItem:
			return syntax.Errorf(typed.Span, typed.Name, ErrUnsupportedMember,
				"associated constant in interface %s", decl.Name)
		case *syntax.RawItem:
			return syntax.Errorf(typed.Span, decl.Name, ErrUnsupportedMember,
				"%q in interface %s", firstLine(typed.Text), decl.Name)
		}
	}

	return nil
}

// standInParams returns the interface's own parameters followed by one parameter per associated type without a
// default, and the type each associated type is bound to in the stand-in implementation.
func standInParams(decl *syntax.Trait) ([]*syntax.GenericParam, map[string]syntax.Type) {
	params := append([]*syntax.GenericParam(nil), decl.Generics.Params...)
	bindings := map[string]syntax.Type{}

	taken := map[string]bool{}
	for _, param := range params {
		taken[param.Name] = true
	}

	for _, member := range decl.Items {
		assoc, ok := member.(*syntax.AssocType)
		if !ok {
			continue
		}

		if assoc.Default != nil {
			bindings[assoc.Name] = assoc.Default
			continue
		}

		name := assoc.Name
		for taken[name] {
			name += "_"
		}

		taken[name] = true
		bindings[assoc.Name] = syntax.Ident(name)
		params = append(params, &syntax.GenericParam{Kind: syntax.TypeParam, Name: name, Bounds: assoc.Bounds})
	}

	return params, bindings
}

// standInRecord is the stand-in type: the identity field plus a phantom marker when there are type or lifetime
// parameters.
func standInRecord(decl *syntax.Trait, name string, params []*syntax.GenericParam, rt rewrite.Runtime) *syntax.Struct {
	fields := []*syntax.Field{{Vis: syntax.Public(), Name: rt.Field, Type: rt.IdentityType()}}

	declared := make([]*syntax.GenericParam, 0, len(params))
	phantom := make([]syntax.Type, 0, len(params))

	for _, param := range params {
		declared = append(declared, &syntax.GenericParam{Kind: param.Kind, Name: param.Name, ConstType: param.ConstType})

		switch param.Kind {
		case syntax.LifetimeParam:
			phantom = append(phantom, &syntax.RefType{Lifetime: param.Name, Elem: syntax.Unit()})
		case syntax.TypeParam:
			phantom = append(phantom, syntax.Ident(param.Name))
		}
	}

	if len(phantom) > 0 {
		var output syntax.Type = syntax.Tuple(phantom...)
		if len(phantom) == 1 {
			output = phantom[0]
		}

		marker := &syntax.PathType{Segments: []*syntax.PathSegment{{Name: "fn", Fn: true, Output: output}}}
		fields = append(fields, &syntax.Field{
			Vis:  syntax.Public(),
			Name: "_phantom",
			Type: &syntax.PathType{Segments: []*syntax.PathSegment{
				{Name: "std"}, {Name: "marker"}, {Name: "PhantomData", Args: []syntax.Type{marker}},
			}},
		})
	}

	return &syntax.Struct{
		Attrs:    []syntax.Attribute{{Text: "derive(Default, Clone)"}},
		Vis:      decl.Vis,
		Name:     name,
		Generics: syntax.Generics{Params: declared},
		Kind:     syntax.NamedStruct,
		Fields:   fields,
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
