// Package generate augments type declarations: records get a hidden identity, method blocks get instrumented
// methods plus a locator block, and interfaces get a stand-in implementation.
package generate

import (
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
)

// Exported variables.
var (
	ErrUnsupportedMember = errors.New("unsupported member")
)

// Kind classifies a top-level declaration.
type Kind int

// Kind values.
const (
	KindPassThrough Kind = iota
	KindRecord
	KindMethodBlock
	KindInterface
)

// String names the kind.
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindMethodBlock:
		return "method block"
	case KindInterface:
		return "interface"
	default:
		return "pass-through"
	}
}

// Report describes what was generated for one declaration.
type Report struct {
	Kind     Kind
	Name     string
	Span     syntax.Span
	Locators int
	Items    int
}

// Declaration rewrites one declaration according to its kind. Items that are not records, method blocks or
// interfaces are returned unchanged.
func Declaration(item syntax.Item, rt rewrite.Runtime) ([]syntax.Item, Report, error) {
	report := Report{Name: syntax.Name(item)}

	var (
		items []syntax.Item
		err   error
	)

	switch decl := item.(type) {
	case *syntax.Struct:
		report.Kind, report.Span = KindRecord, decl.Span
		items = Record(decl, rt)
	case *syntax.Impl:
		report.Kind, report.Span = KindMethodBlock, decl.Span
		items, report.Locators, err = MethodBlock(decl, rt)
	case *syntax.Trait:
		report.Kind, report.Span = KindInterface, decl.Span
		items, report.Locators, err = Interface(decl, rt)
	case *syntax.RawItem:
		report.Span = decl.Span
		items = []syntax.Item{item}
	default:
		items = []syntax.Item{item}
	}

	if err != nil {
		return nil, report, err
	}

	report.Items = len(items)

	return items, report, nil
}

// File rewrites every declaration of file in order. Any failure aborts the whole file.
func File(file *syntax.File, rt rewrite.Runtime) (*syntax.File, []Report, error) {
	out := &syntax.File{Name: file.Name}
	reports := make([]Report, 0, len(file.Items))

	for _, item := range file.Items {
		items, report, err := Declaration(item, rt)
		if err != nil {
			return nil, nil, err
		}

		out.Items = append(out.Items, items...)
		reports = append(reports, report)
	}

	return out, reports, nil
}

// Functions - Private

// rewriteMethods rewrites every method of members concurrently, after passing it through prepare. Results are
// indexed like members; entries for other members are nil. The error of the earliest failing member is returned.
func rewriteMethods(
	members []syntax.Member,
	prepare func(*syntax.Method) *syntax.Method,
	target rewrite.Target,
	rt rewrite.Runtime,
) ([]*rewrite.Result, error) {
	results := make([]*rewrite.Result, len(members))
	errs := make([]error, len(members))

	group := &errgroup.Group{}
	group.SetLimit(runtime.NumCPU())

	for i, member := range members {
		method, ok := member.(*syntax.Method)
		if !ok {
			continue
		}

		group.Go(func() error {
			results[i], errs[i] = rewrite.Method(prepare(method), target, rt)

			return errs[i]
		})
	}

	if group.Wait() != nil {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	return results, nil
}

// withSig returns a shallow copy of method carrying sig.
func withSig(method *syntax.Method, sig *syntax.Signature) *syntax.Method {
	if sig == method.Sig {
		return method
	}

	copied := *method
	copied.Sig = sig

	return &copied
}

// implParams strips defaults, which only declarations may carry.
func implParams(params []*syntax.GenericParam) []*syntax.GenericParam {
	out := make([]*syntax.GenericParam, 0, len(params))

	for _, param := range params {
		if param.Default == nil && param.ConstDefault == "" {
			out = append(out, param)
			continue
		}

		copied := *param
		copied.Default = nil
		copied.ConstDefault = ""
		out = append(out, &copied)
	}

	return out
}
