package geometry

import (
	"fmt"
	"strings"

	"github.com/aura-lang/aurac/internal/diagnostics"

	"github.com/aura-lang/aurac/internal/ast"
)

const (
	minRadius  = 0
	maxRadius  = 64
	minPadding = 0
	maxPadding = 128
)

// palette is the fixed 6-entry color table §6.4 reserves for contrast
// checking; luminance is relative luminance scaled to 0..1000 so the
// comparison stays in exact integer arithmetic (the +50 offset in the
// contrast rule is 0.05 on that scale).
var palette = map[string]int64{
	"black": 0,
	"white": 1000,
	"red":   212,
	"green": 715,
	"blue":  72,
	"gold":  815,
}

// checkAesthetics validates radius/padding bounds and, when both foreground
// and background are named palette colors, the integer contrast ratio
// 10*(Lmax+50) >= 45*(Lmin+50) §4.5 fixes.
func checkAesthetics(node *ast.UICallExpr, reporter *diagnostics.Reporter) {
	if v, ok := propInt(node, "radius"); ok && (v < minRadius || v > maxRadius) {
		reporter.Report(diagnostics.Diagnostic{
			Location: toLocation(node.Span),
			Category: diagnostics.CategoryGeometry,
			Severity: diagnostics.SeverityError,
			Message:  fmt.Sprintf("%s radius=%d out of range [%d,%d]", node.Kind, v, minRadius, maxRadius),
		})
	}
	if v, ok := propInt(node, "padding"); ok && (v < minPadding || v > maxPadding) {
		reporter.Report(diagnostics.Diagnostic{
			Location: toLocation(node.Span),
			Category: diagnostics.CategoryGeometry,
			Severity: diagnostics.SeverityError,
			Message:  fmt.Sprintf("%s padding=%d out of range [%d,%d]", node.Kind, v, minPadding, maxPadding),
		})
	}

	if fg, fgOK := paletteColor(node, "fg"); fgOK {
		if bg, bgOK := paletteColor(node, "bg"); bgOK {
			lmax, lmin := fg, bg
			if lmin > lmax {
				lmax, lmin = lmin, lmax
			}
			if 10*(lmax+50) < 45*(lmin+50) {
				reporter.Report(diagnostics.Diagnostic{
					Location:  toLocation(node.Span),
					Category:  diagnostics.CategoryGeometry,
					Severity:  diagnostics.SeverityError,
					Message:   fmt.Sprintf("%s fg/bg contrast too low", node.Kind),
					Suggested: "choose a palette fg/bg pair with greater luminance separation",
				})
			}
		}
	}

	for i := range node.Children {
		checkAesthetics(&node.Children[i], reporter)
	}
}

func paletteColor(node *ast.UICallExpr, name string) (int64, bool) {
	pv, ok := node.Props[name]
	if !ok {
		return 0, false
	}
	l, ok := palette[strings.ToLower(pv.Literal)]
	return l, ok
}
