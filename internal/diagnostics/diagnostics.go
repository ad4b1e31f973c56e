// Package diagnostics defines the shared diagnostic value carried by the
// ownership analyzer, the race detector, and the geometry verifier, plus a
// terminal renderer for it. None of those analyzers are fatal on their own;
// they accumulate diagnostics into a Reporter and the pipeline decides
// whether to gate codegen on the result.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/width"
)

// Severity classifies how serious a diagnostic is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Location is a source position, one-based.
type Location struct {
	File string
	Line uint32
	Col  uint32
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Related points at a secondary location relevant to a diagnostic, e.g. the
// line where a linear binding was originally moved.
type Related struct {
	Location Location
	Message  string
}

// Snippet carries a single source line plus a highlighted column range, used
// to print a caret underline beneath the offending span.
type Snippet struct {
	SourceLine    string
	LineNumber    uint32
	HighlightFrom uint32
	HighlightTo   uint32
}

// Category names which analyzer produced a diagnostic, for grouping.
type Category string

const (
	CategoryOwnership Category = "ownership"
	CategoryCapability Category = "capability"
	CategoryRace       Category = "race"
	CategoryGeometry   Category = "geometry"
)

// Diagnostic is the shared, analyzer-agnostic violation record. Each analyzer
// constructs these directly rather than keeping a parallel violation type of
// its own, so the reporter and the terminal renderer need only know this one
// shape.
type Diagnostic struct {
	Location  Location
	Category  Category
	Severity  Severity
	Message   string
	Details   string
	Related   []Related
	Suggested string
	Snippet   *Snippet
}

// WithDetails, WithRelated, WithSuggested, and WithSnippet follow the
// teacher's builder-method convention for optional fields rather than a
// constructor with a dozen parameters.
func (d Diagnostic) WithDetails(details string) Diagnostic {
	d.Details = details
	return d
}

func (d Diagnostic) WithRelated(r Related) Diagnostic {
	d.Related = append(d.Related, r)
	return d
}

func (d Diagnostic) WithSuggested(s string) Diagnostic {
	d.Suggested = s
	return d
}

func (d Diagnostic) WithSnippet(s Snippet) Diagnostic {
	sc := s
	d.Snippet = &sc
	return d
}

// Render formats the diagnostic for terminal output. Severity is colorized
// via fatih/color; colors are skipped automatically when stdout isn't a TTY
// (color.NoColor handles that detection).
func (d Diagnostic) Render() string {
	var b strings.Builder

	sevColor := color.New(color.FgRed, color.Bold)
	switch d.Severity {
	case SeverityWarning:
		sevColor = color.New(color.FgYellow, color.Bold)
	case SeverityInfo:
		sevColor = color.New(color.FgCyan)
	}

	fmt.Fprintf(&b, "%s: %s: %s\n", d.Location, sevColor.Sprint(d.Severity), d.Message)

	if d.Details != "" {
		fmt.Fprintf(&b, "  note: %s\n", d.Details)
	}

	if d.Snippet != nil {
		fmt.Fprintf(&b, "%s", renderSnippet(*d.Snippet))
	}

	for _, r := range d.Related {
		fmt.Fprintf(&b, "  related: %s: %s\n", r.Location, r.Message)
	}

	if d.Suggested != "" {
		fmt.Fprintf(&b, "  suggestion: %s\n", d.Suggested)
	}

	return b.String()
}

// renderSnippet prints the source line with a caret underline beneath the
// highlighted span. Column widths are measured with x/text/width so that
// full-width characters (as can appear in string literals) don't throw off
// the caret alignment the way a naive byte or rune count would.
func renderSnippet(s Snippet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %d | %s\n", s.LineNumber, s.SourceLine)
	b.WriteString("    | ")

	col := uint32(0)
	for _, r := range s.SourceLine {
		w := runeWidth(r)
		if col >= s.HighlightFrom && col < s.HighlightTo {
			for i := 0; i < w; i++ {
				b.WriteByte('^')
			}
		} else {
			for i := 0; i < w; i++ {
				b.WriteByte(' ')
			}
		}
		col += uint32(w)
	}
	b.WriteByte('\n')
	return b.String()
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// Reporter accumulates diagnostics across analyzer passes and partitions them
// by severity, the way the ownership/capability/race/geometry analyzers each
// feed into one shared view for the pipeline.
type Reporter struct {
	diagnostics []Diagnostic
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Report appends a diagnostic.
func (r *Reporter) Report(d Diagnostic) {
	r.diagnostics = append(r.diagnostics, d)
}

// All returns every diagnostic in report order.
func (r *Reporter) All() []Diagnostic {
	return r.diagnostics
}

// BySeverity returns only diagnostics at the given severity, preserving
// report order.
func (r *Reporter) BySeverity(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any SeverityError diagnostic was reported. The
// pipeline gates codegen on this, not on the total diagnostic count, since
// warnings and info diagnostics are allowed to reach the user without
// blocking compilation.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len is the total diagnostic count across all severities.
func (r *Reporter) Len() int {
	return len(r.diagnostics)
}
