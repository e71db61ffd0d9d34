package rewrite

import (
	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
)

// QualifyAssociatedTypes rewrites every Self::Assoc::rest path in sig, for Assoc among assoc, into
// <Self as iface>::Assoc::rest, so the signature still names the right type outside the interface
// implementation. Parameters, the return type, generic bounds and the where clause are all covered; bodies are
// not touched. sig is returned unchanged when nothing matches.
func QualifyAssociatedTypes(sig *syntax.Signature, iface *syntax.PathType, assoc []string) *syntax.Signature {
	if len(assoc) == 0 {
		return sig
	}

	return sig.MapTypes(qualifier(iface, assoc))
}

// QualifyWhere applies the QualifyAssociatedTypes rewrite to where predicates.
func QualifyWhere(preds []*syntax.WherePredicate, iface *syntax.PathType, assoc []string) []*syntax.WherePredicate {
	if len(assoc) == 0 {
		return preds
	}

	out, _ := syntax.MapWhere(preds, qualifier(iface, assoc))

	return out
}

// AssocNames lists the associated types declared among members.
func AssocNames(members []syntax.Member) []string {
	var names []string

	for _, member := range members {
		if assoc, ok := member.(*syntax.AssocType); ok {
			names = append(names, assoc.Name)
		}
	}

	return names
}

func selfAssoc(path *syntax.PathType, declared map[string]bool) bool {
	if path.QSelf != nil || path.Global || len(path.Segments) < 2 {
		return false
	}

	first := path.Segments[0]

	return first.Name == "Self" && len(first.Args) == 0 && !first.Fn && declared[path.Segments[1].Name]
}

func qualifier(iface *syntax.PathType, assoc []string) func(syntax.Type) syntax.Type {
	declared := make(map[string]bool, len(assoc))
	for _, name := range assoc {
		declared[name] = true
	}

	return func(typ syntax.Type) syntax.Type {
		path, ok := typ.(*syntax.PathType)
		if !ok || !selfAssoc(path, declared) {
			return typ
		}

		return &syntax.PathType{
			QSelf:    &syntax.QSelf{Type: syntax.Ident("Self"), Trait: iface},
			Segments: path.Segments[1:],
		}
	}
}
