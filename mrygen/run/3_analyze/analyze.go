// Package analyze classifies a method signature for instrumentation: receiver shape, flattened parameter list,
// owning capture of every argument and the arity-tagged tuple type used to record calls.
package analyze

import (
	"errors"
	"fmt"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
)

// Exported variables.
var (
	ErrMalformedSignature = errors.New("malformed signature")
)

// CaptureKind tells how an argument is turned into an owned value.
type CaptureKind int

// CaptureKind values.
const (
	// CaptureOwned clones a by-value argument: x.clone().
	CaptureOwned CaptureKind = iota
	// CaptureText converts a borrowed text slice to owned text: x.to_string().
	CaptureText
	// CaptureDeref copies the referent of any other borrow: (*x).clone().
	CaptureDeref
)

// String names the capture kind.
func (k CaptureKind) String() string {
	switch k {
	case CaptureText:
		return "text"
	case CaptureDeref:
		return "deref"
	default:
		return "owned"
	}
}

// Capture is the owning view of one non-receiver parameter.
type Capture struct {
	// Name is the positional capture name, arg<i>, used for the locator's matcher argument.
	Name string
	// Ident is the identifier the parameter is bound to in the rewritten signature.
	Ident       string
	Declared    syntax.Type
	CaptureType syntax.Type
	CaptureExpr syntax.Expr
	Kind        CaptureKind
	// Rebind restores a flattened structural pattern from Ident; nil for identifier patterns.
	Rebind *syntax.LetStmt
}

// Analysis is the result of Analyze.
type Analysis struct {
	// Receiver is ReceiverNone for static methods, otherwise ReceiverRef or ReceiverMutRef.
	Receiver     syntax.ReceiverKind
	ReceiverNode *syntax.Receiver
	// Inputs is the signature's input list with every structural pattern flattened to its capture identifier.
	Inputs   []syntax.FnArg
	Captures []*Capture
	Return   syntax.Type
	Arity    int
	Args     *syntax.TupleType
	// Behavior is the arity tag, Behavior<N>.
	Behavior string
}

// Static reports whether the method has no receiver.
func (a *Analysis) Static() bool {
	return a.Receiver == syntax.ReceiverNone
}

// Rebinds returns the let statements restoring flattened patterns, in parameter order.
func (a *Analysis) Rebinds() []syntax.Stmt {
	var stmts []syntax.Stmt

	for _, capture := range a.Captures {
		if capture.Rebind != nil {
			stmts = append(stmts, capture.Rebind)
		}
	}

	return stmts
}

// Analyze classifies sig. It fails with ErrMalformedSignature when a receiver is not the first input, appears
// twice, or is taken by value. An explicitly typed receiver is accepted only as self: &Self or self: &mut Self.
func Analyze(sig *syntax.Signature) (*Analysis, error) {
	out := &Analysis{Return: sig.ReturnType()}

	for i, input := range sig.Inputs {
		recv, ok := input.(*syntax.Receiver)
		if !ok {
			continue
		}

		err := checkReceiver(sig, recv, i, out.ReceiverNode)
		if err != nil {
			return nil, err
		}

		out.Receiver = receiverKind(recv)
		out.ReceiverNode = recv
	}

	taken := boundNames(sig)
	out.Inputs = make([]syntax.FnArg, 0, len(sig.Inputs))

	for _, input := range sig.Inputs {
		param, ok := input.(*syntax.Param)
		if !ok {
			out.Inputs = append(out.Inputs, input)
			continue
		}

		capture, normalized := captureParam(param, len(out.Captures), taken)
		out.Captures = append(out.Captures, capture)
		out.Inputs = append(out.Inputs, normalized)
	}

	out.Arity = len(out.Captures)
	out.Args = ArgsTuple(out.Captures)
	out.Behavior = BehaviorTag(out.Arity)

	return out, nil
}

// ArgsTuple is the owning tuple type of the captures, in declaration order.
func ArgsTuple(captures []*Capture) *syntax.TupleType {
	elems := make([]syntax.Type, 0, len(captures))
	for _, capture := range captures {
		elems = append(elems, capture.CaptureType)
	}

	return syntax.Tuple(elems...)
}

// BehaviorTag names the arity-specific behavior shape.
func BehaviorTag(arity int) string {
	return fmt.Sprintf("Behavior%d", arity)
}

// CaptureOf derives the capture type and expression for a parameter bound to ident with the declared type.
func CaptureOf(ident string, declared syntax.Type) (syntax.Type, syntax.Expr, CaptureKind) {
	ref, ok := declared.(*syntax.RefType)
	if !ok {
		return declared, syntax.MethodCall(syntax.Var(ident), "clone"), CaptureOwned
	}

	if IsText(ref.Elem) {
		return syntax.Ident("String"), syntax.MethodCall(syntax.Var(ident), "to_string"), CaptureText
	}

	deref := &syntax.ParenExpr{Expr: &syntax.DerefExpr{Expr: syntax.Var(ident)}}

	return ref.Elem, syntax.MethodCall(deref, "clone"), CaptureDeref
}

// IsText reports whether typ is the text slice type str.
func IsText(typ syntax.Type) bool {
	path, ok := typ.(*syntax.PathType)
	if !ok {
		return false
	}

	name, single := path.SingleName()

	return single && name == "str"
}

// Functions - Private

func checkReceiver(sig *syntax.Signature, recv *syntax.Receiver, index int, seen *syntax.Receiver) error {
	switch {
	case seen != nil:
		return syntax.Errorf(recv.Span, sig.Name, ErrMalformedSignature, "more than one receiver")
	case index != 0:
		return syntax.Errorf(recv.Span, sig.Name, ErrMalformedSignature,
			"receiver must be the first input, found at position %d", index)
	case recv.Kind == syntax.ReceiverValue:
		return syntax.Errorf(recv.Span, sig.Name, ErrMalformedSignature,
			"receiver taken by value; only &self and &mut self can be instrumented")
	case recv.Kind == syntax.ReceiverTyped && receiverKind(recv) == syntax.ReceiverTyped:
		return syntax.Errorf(recv.Span, sig.Name, ErrMalformedSignature,
			"typed receiver %s; only &self and &mut self can be instrumented", syntax.TypeString(recv.Type))
	default:
		return nil
	}
}

// receiverKind reads self: &Self and self: &mut Self as the shorthand receivers they spell out.
func receiverKind(recv *syntax.Receiver) syntax.ReceiverKind {
	if recv.Kind != syntax.ReceiverTyped {
		return recv.Kind
	}

	ref, ok := recv.Type.(*syntax.RefType)
	if !ok {
		return recv.Kind
	}

	path, ok := ref.Elem.(*syntax.PathType)
	if !ok || path.QSelf != nil || path.Global || len(path.Segments) != 1 ||
		path.Segments[0].Name != "Self" || len(path.Segments[0].Args) > 0 || path.Segments[0].Fn {
		return recv.Kind
	}

	if ref.Mutable {
		return syntax.ReceiverMutRef
	}

	return syntax.ReceiverRef
}

func captureParam(param *syntax.Param, index int, taken map[string]bool) (*Capture, *syntax.Param) {
	capture := &Capture{Name: fmt.Sprintf("arg%d", index), Declared: param.Type}
	normalized := param

	if ident, ok := param.Pattern.(*syntax.IdentPattern); ok {
		capture.Ident = ident.Name
	} else {
		capture.Ident = freshName(capture.Name, taken)
		capture.Rebind = &syntax.LetStmt{Pattern: param.Pattern, Value: syntax.Var(capture.Ident)}

		copied := *param
		copied.Pattern = syntax.Bind(capture.Ident)
		normalized = &copied
	}

	capture.CaptureType, capture.CaptureExpr, capture.Kind = CaptureOf(capture.Ident, param.Type)

	return capture, normalized
}

// freshName suffixes base with underscores until it collides with nothing already bound, then claims it.
func freshName(base string, taken map[string]bool) string {
	name := base
	for taken[name] {
		name += "_"
	}

	taken[name] = true

	return name
}

func boundNames(sig *syntax.Signature) map[string]bool {
	taken := map[string]bool{"self": true}

	for _, param := range sig.Params() {
		for _, name := range syntax.BoundNames(param.Pattern) {
			taken[name] = true
		}
	}

	return taken
}
