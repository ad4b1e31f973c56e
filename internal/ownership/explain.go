package ownership

import (
	"fmt"

	"github.com/aura-lang/aurac/internal/diagnostics"
)

// SuggestedFix generates the human-facing "suggestion" text for an ownership
// Violation. The distilled violation taxonomy carries only a short message;
// this fills in the actionable remediation the original's diagnostics
// factory attaches per violation kind.
func SuggestedFix(v Violation) string {
	switch v.Kind {
	case UseAfterMove, BorrowAfterMove:
		movedAt := "earlier"
		if v.HasMovedAt {
			movedAt = fmt.Sprintf("at line %d", v.MovedAtLine)
		}
		return fmt.Sprintf("'%s' was moved %s; use it before the move, or clone it first if the type supports cloning", v.BindingName, movedAt)
	case DoubleMove:
		return fmt.Sprintf("'%s' can only be moved once; hold a new binding instead of moving the same value twice", v.BindingName)
	case MoveAfterBorrow:
		return fmt.Sprintf("drop the borrow of '%s' (let its last use complete) before moving it", v.BindingName)
	case UseNotMoved:
		return fmt.Sprintf("consume '%s' before the enclosing scope ends, e.g. pass it to a function that takes ownership, or return it", v.BindingName)
	case InvalidOperation:
		return fmt.Sprintf("the current state of '%s' does not permit this operation", v.BindingName)
	default:
		return ""
	}
}

// SuggestedCapabilityFix mirrors SuggestedFix for capability violations.
// CapViolation does not record the leaked capability's CapabilityKind, so a
// CapResourceLeak suggestion always names tensor.free; the socket.close and
// region.dealloc entries of the table are not used.
func SuggestedCapabilityFix(v CapViolation) string {
	release := map[CapabilityKind]string{
		CapSocket:     "socket.close(" + v.VarName + ")",
		CapTensor:     "tensor.free(" + v.VarName + ")",
		CapRegion:     "region.dealloc(" + v.VarName + ")",
		CapConcurrent: "mark it shareable, or confine its use to a single thread",
	}
	switch v.Kind {
	case CapUseAfterConsumption:
		return fmt.Sprintf("use '%s' before it's consumed, or define a new capability instead", v.VarName)
	case CapInvalidTransition:
		return fmt.Sprintf("'%s' cannot go from %s to %s; check the operation order", v.VarName, v.From, v.To)
	case CapConcurrentUseWithoutSync:
		return fmt.Sprintf("'%s' is accessed from more than one thread; %s", v.VarName, release[CapConcurrent])
	case CapResourceLeak:
		kind := release[CapTensor]
		return fmt.Sprintf("consume '%s' before scope end, e.g. %s", v.VarName, kind)
	case CapImproperSharing:
		return fmt.Sprintf("share '%s' explicitly with the shareable flag before accessing it from another thread", v.VarName)
	default:
		return ""
	}
}

// ToDiagnostic converts an ownership Violation into the shared diagnostics
// type, attaching the suggested fix and, when available, the original move
// site as a related location.
func ToDiagnostic(file string, v Violation) diagnostics.Diagnostic {
	d := diagnostics.Diagnostic{
		Location: diagnostics.Location{File: file, Line: v.AtLine, Col: v.AtCol},
		Category: diagnostics.CategoryOwnership,
		Severity: diagnostics.SeverityError,
		Message:  v.Message,
	}
	if v.HasMovedAt {
		d = d.WithRelated(diagnostics.Related{
			Location: diagnostics.Location{File: file, Line: v.MovedAtLine, Col: v.MovedAtCol},
			Message:  fmt.Sprintf("'%s' was moved here", v.BindingName),
		})
	}
	if fix := SuggestedFix(v); fix != "" {
		d = d.WithSuggested(fix)
	}
	return d
}

// ToCapabilityDiagnostic is ToDiagnostic's counterpart for capability
// violations.
func ToCapabilityDiagnostic(file string, v CapViolation) diagnostics.Diagnostic {
	d := diagnostics.Diagnostic{
		Location: diagnostics.Location{File: file, Line: v.SecondLine, Col: v.SecondCol},
		Category: diagnostics.CategoryCapability,
		Severity: diagnostics.SeverityError,
		Message:  v.Error(),
	}
	if v.Kind == CapUseAfterConsumption {
		d = d.WithRelated(diagnostics.Related{
			Location: diagnostics.Location{File: file, Line: v.ConsumedLine, Col: v.ConsumedCol},
			Message:  fmt.Sprintf("'%s' was consumed here", v.VarName),
		})
	}
	if fix := SuggestedCapabilityFix(v); fix != "" {
		d = d.WithSuggested(fix)
	}
	return d
}
