package generate

import (
	"regexp"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
)

// MethodBlock instruments every method of an inherent or interface method block. It returns the block with the
// instrumented methods in place, followed by an inherent block holding one locator per method, and the number of
// locators. Block parameters the self type does not mention move onto the locators together with the block's
// where clause. A block without methods is returned unchanged.
func MethodBlock(decl *syntax.Impl, rt rewrite.Runtime) ([]syntax.Item, int, error) {
	target := blockTarget(decl)

	assoc := []string(nil)
	if decl.Trait != nil {
		assoc = rewrite.AssocNames(decl.Items)
	}

	var (
		companion syntax.Generics
		dropped   []*syntax.GenericParam
	)

	where := rewrite.QualifyWhere(decl.Generics.Where, decl.Trait, assoc)

	companion.Params, dropped = splitGenerics(decl.Generics.Params, decl.SelfType)
	if len(dropped) == 0 {
		companion.Where = where
	} else {
		target.Where = where
	}

	target.Generics = dropped

	prepare := func(method *syntax.Method) *syntax.Method {
		if decl.Trait == nil {
			return method
		}

		return withSig(method, rewrite.QualifyAssociatedTypes(method.Sig, decl.Trait, assoc))
	}

	results, err := rewriteMethods(decl.Items, prepare, target, rt)
	if err != nil {
		return nil, 0, err
	}

	members := make([]syntax.Member, len(decl.Items))
	locators := make([]syntax.Member, 0, len(decl.Items))

	for i, member := range decl.Items {
		if results[i] == nil {
			members[i] = member
			continue
		}

		members[i] = results[i].Instrumented
		locators = append(locators, results[i].Locator)
	}

	if len(locators) == 0 {
		return []syntax.Item{decl}, 0, nil
	}

	instrumented := *decl
	instrumented.Items = members

	return []syntax.Item{
		&instrumented,
		&syntax.Impl{
			Attrs:    rt.GuardAttrs(),
			Generics: companion,
			SelfType: decl.SelfType,
			Items:    locators,
		},
	}, len(locators), nil
}

// Functions - Private

// blockTarget keys methods by the self type, qualified as <Type as Interface> for interface implementations.
func blockTarget(decl *syntax.Impl) rewrite.Target {
	var key *syntax.PathType

	switch {
	case decl.Trait != nil:
		key = &syntax.PathType{QSelf: &syntax.QSelf{Type: decl.SelfType, Trait: decl.Trait}}
	default:
		path, ok := decl.SelfType.(*syntax.PathType)
		if !ok || path.QSelf != nil {
			path = &syntax.PathType{QSelf: &syntax.QSelf{Type: decl.SelfType}}
		}

		key = path
	}

	return rewrite.Target{Key: key, Name: syntax.TypeString(key)}
}

// splitGenerics keeps the block parameters the self type mentions. The others cannot appear on an inherent block
// for the self type and move to the locators.
func splitGenerics(params []*syntax.GenericParam, selfType syntax.Type) ([]*syntax.GenericParam, []*syntax.GenericParam) {
	used := typeNames(selfType)

	var kept, dropped []*syntax.GenericParam

	for _, param := range params {
		if used[param.Name] {
			kept = append(kept, param)
		} else {
			dropped = append(dropped, param)
		}
	}

	return kept, dropped
}

// typeNames collects every path segment name, lifetime and identifier in a const argument of typ.
func typeNames(typ syntax.Type) map[string]bool {
	names := map[string]bool{}

	syntax.MapType(typ, func(node syntax.Type) syntax.Type {
		switch typed := node.(type) {
		case *syntax.PathType:
			for _, seg := range typed.Segments {
				names[seg.Name] = true
			}
		case *syntax.RefType:
			if typed.Lifetime != "" {
				names[typed.Lifetime] = true
			}
		case *syntax.LifetimeType:
			names[typed.Name] = true
		case *syntax.ConstArg:
			for _, ident := range identPattern.FindAllString(typed.Text, -1) {
				names[ident] = true
			}
		}

		return node
	})

	return names
}

// unexported variables.
var (
	identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)
