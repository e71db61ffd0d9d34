package run

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	syntax "github.com/yyYank/mry/mrygen/run/0_syntax"
	rewrite "github.com/yyYank/mry/mrygen/run/4_rewrite"
	generate "github.com/yyYank/mry/mrygen/run/5_generate"
)

// Reporter prints user-facing errors and warnings.
type Reporter struct {
	out      io.Writer
	verbose  bool
	label    *color.Color
	warn     *color.Color
	location *color.Color
	hint     *color.Color
}

// NewReporter creates a reporter writing to out. Verbose reporters also print the chain of causes.
func NewReporter(out io.Writer, verbose, noColor bool) *Reporter {
	reporter := &Reporter{
		out:      out,
		verbose:  verbose,
		label:    color.New(color.FgRed, color.Bold),
		warn:     color.New(color.FgYellow, color.Bold),
		location: color.New(color.Bold),
		hint:     color.New(color.FgCyan),
	}

	if noColor {
		for _, c := range []*color.Color{reporter.label, reporter.warn, reporter.location, reporter.hint} {
			c.DisableColor()
		}
	}

	return reporter
}

// ReportError prints err as "<location>: error: <message>", followed by a hint for known failure kinds.
func (r *Reporter) ReportError(err error) {
	location, message := describe(err)

	if location != "" {
		_, _ = r.location.Fprint(r.out, location+": ")
	}

	_, _ = r.label.Fprint(r.out, "error: ")
	_, _ = fmt.Fprintln(r.out, message)

	if hint := hintFor(err); hint != "" {
		_, _ = r.hint.Fprintf(r.out, "  hint: %s\n", hint)
	}

	if !r.verbose {
		return
	}

	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		_, _ = fmt.Fprintf(r.out, "  caused by: %s\n", cause)
	}
}

// ReportWarning prints a warning line.
func (r *Reporter) ReportWarning(message string) {
	_, _ = r.warn.Fprint(r.out, "warning: ")
	_, _ = fmt.Fprintln(r.out, message)
}

// Functions - Private

// describe finds the most precise position in err's chain and the message that belongs to it.
func describe(err error) (string, string) {
	var spanErr *syntax.SpanError
	if errors.As(err, &spanErr) {
		return spanErr.Span.String(), spanErr.Error()
	}

	var parseErr participle.Error
	if errors.As(err, &parseErr) {
		return parseErr.Position().String(), parseErr.Message()
	}

	return "", err.Error()
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, rewrite.ErrMalformedSignature):
		return "instrumented methods take &self or &mut self (or no receiver) and cannot be const"
	case errors.Is(err, generate.ErrUnsupportedMember):
		return "interfaces may only hold methods and non-generic associated types"
	default:
		return ""
	}
}
