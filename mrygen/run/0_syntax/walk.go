package syntax

// MapType rebuilds typ bottom-up, calling fn on every type node after its children were mapped.
// Nodes whose children did not change are reused, so an identity fn returns typ itself.
//
//nolint:cyclop,funlen // one case per type node
func MapType(typ Type, fn func(Type) Type) Type {
	if typ == nil {
		return nil
	}

	switch node := typ.(type) {
	case *PathType:
		return fn(mapPath(node, fn))
	case *RefType:
		elem := MapType(node.Elem, fn)
		if elem != node.Elem {
			node = &RefType{Lifetime: node.Lifetime, Mutable: node.Mutable, Elem: elem}
		}

		return fn(node)
	case *TupleType:
		elems, changed := mapTypes(node.Elems, fn)
		if changed {
			node = &TupleType{Elems: elems}
		}

		return fn(node)
	case *SliceType:
		elem := MapType(node.Elem, fn)
		if elem != node.Elem {
			node = &SliceType{Elem: elem}
		}

		return fn(node)
	case *ArrayType:
		elem := MapType(node.Elem, fn)
		if elem != node.Elem {
			node = &ArrayType{Elem: elem, Len: node.Len}
		}

		return fn(node)
	case *ImplType:
		bounds, changed := MapBounds(node.Bounds, fn)
		if changed {
			node = &ImplType{Bounds: bounds}
		}

		return fn(node)
	case *DynType:
		bounds, changed := MapBounds(node.Bounds, fn)
		if changed {
			node = &DynType{Bounds: bounds}
		}

		return fn(node)
	case *AssocBinding:
		inner := MapType(node.Type, fn)
		if inner != node.Type {
			node = &AssocBinding{Name: node.Name, Type: inner}
		}

		return fn(node)
	default:
		return fn(typ)
	}
}

// MapBounds maps the trait paths of bounds and reports whether any changed.
func MapBounds(bounds []Bound, fn func(Type) Type) ([]Bound, bool) {
	changed := false
	out := make([]Bound, len(bounds))

	for i, bound := range bounds {
		out[i] = bound
		if bound.Path == nil {
			continue
		}

		mapped := mapPath(bound.Path, fn)
		if mapped != bound.Path {
			out[i].Path = mapped
			changed = true
		}
	}

	if !changed {
		return bounds, false
	}

	return out, true
}

// MapTypes applies MapType to every type the signature mentions: parameter types, typed receivers,
// the return type, generic bounds and defaults, and where predicates. It returns sig itself when nothing changed.
func (s *Signature) MapTypes(fn func(Type) Type) *Signature {
	clone := s.Clone()
	changed := false

	for i, input := range s.Inputs {
		switch arg := input.(type) {
		case *Param:
			mapped := MapType(arg.Type, fn)
			if mapped != arg.Type {
				copied := *arg
				copied.Type = mapped
				clone.Inputs[i] = &copied
				changed = true
			}
		case *Receiver:
			if arg.Type == nil {
				continue
			}

			mapped := MapType(arg.Type, fn)
			if mapped != arg.Type {
				copied := *arg
				copied.Type = mapped
				clone.Inputs[i] = &copied
				changed = true
			}
		}
	}

	if s.Output != nil {
		clone.Output = MapType(s.Output, fn)
		changed = changed || clone.Output != s.Output
	}

	params, paramsChanged := MapGenerics(s.Generics.Params, fn)
	clone.Generics.Params = params

	where, whereChanged := MapWhere(s.Generics.Where, fn)
	clone.Generics.Where = where

	if !changed && !paramsChanged && !whereChanged {
		return s
	}

	return clone
}

// MapGenerics maps bounds, defaults and const types of generic parameters.
func MapGenerics(params []*GenericParam, fn func(Type) Type) ([]*GenericParam, bool) {
	changed := false
	out := make([]*GenericParam, len(params))

	for i, param := range params {
		bounds, boundsChanged := MapBounds(param.Bounds, fn)
		def := MapType(param.Default, fn)
		constType := MapType(param.ConstType, fn)

		if !boundsChanged && def == param.Default && constType == param.ConstType {
			out[i] = param
			continue
		}

		copied := *param
		copied.Bounds = bounds
		copied.Default = def
		copied.ConstType = constType
		out[i] = &copied
		changed = true
	}

	if !changed {
		return params, false
	}

	return out, true
}

// MapWhere maps the bounded type and the bounds of every where predicate.
func MapWhere(preds []*WherePredicate, fn func(Type) Type) ([]*WherePredicate, bool) {
	changed := false
	out := make([]*WherePredicate, len(preds))

	for i, pred := range preds {
		typ := MapType(pred.Type, fn)
		bounds, boundsChanged := MapBounds(pred.Bounds, fn)

		if !boundsChanged && typ == pred.Type {
			out[i] = pred
			continue
		}

		copied := *pred
		copied.Type = typ
		copied.Bounds = bounds
		out[i] = &copied
		changed = true
	}

	if !changed {
		return preds, false
	}

	return out, true
}

func mapPath(path *PathType, fn func(Type) Type) *PathType {
	changed := false

	var qself *QSelf

	if path.QSelf != nil {
		self := MapType(path.QSelf.Type, fn)

		var trait *PathType
		if path.QSelf.Trait != nil {
			trait = mapPath(path.QSelf.Trait, fn)
		}

		qself = path.QSelf
		if self != path.QSelf.Type || trait != path.QSelf.Trait {
			qself = &QSelf{Type: self, Trait: trait}
			changed = true
		}
	}

	segments := make([]*PathSegment, len(path.Segments))

	for i, seg := range path.Segments {
		args, argsChanged := mapTypes(seg.Args, fn)
		fnArgs, fnArgsChanged := mapTypes(seg.FnArgs, fn)
		output := MapType(seg.Output, fn)

		if !argsChanged && !fnArgsChanged && output == seg.Output {
			segments[i] = seg
			continue
		}

		segments[i] = &PathSegment{Name: seg.Name, Args: args, FnArgs: fnArgs, Fn: seg.Fn, Output: output}
		changed = true
	}

	if !changed {
		return path
	}

	return &PathType{QSelf: qself, Global: path.Global, Segments: segments}
}

func mapTypes(types []Type, fn func(Type) Type) ([]Type, bool) {
	changed := false
	out := make([]Type, len(types))

	for i, typ := range types {
		out[i] = MapType(typ, fn)
		if out[i] != typ {
			changed = true
		}
	}

	if !changed {
		return types, false
	}

	return out, true
}
