package race

import "github.com/aura-lang/aurac/internal/diagnostics"

// ToDiagnostic converts a race Violation into the shared diagnostic type,
// attaching a suggestion specific to the violation kind.
func ToDiagnostic(file string, v Violation) diagnostics.Diagnostic {
	d := diagnostics.Diagnostic{
		Category: diagnostics.CategoryRace,
		Severity: diagnostics.SeverityError,
		Message:  v.Error(),
	}

	switch v.Kind {
	case DataRace:
		d.Location = diagnostics.Location{File: file, Line: v.Access2Line, Col: v.Access2Col}
		d.Suggested = "protect '" + v.VarName + "' with a lock, or confine its access to a single thread"
	case Deadlock:
		d.Suggested = "acquire locks in a consistent global order across all threads"
	case UseAfterFree:
		d.Location = diagnostics.Location{File: file, Line: v.UsedLine, Col: v.UsedCol}
		d.Suggested = "move the use of '" + v.VarName + "' before its release, or avoid releasing it until done"
	case LockLeak:
		d.Location = diagnostics.Location{File: file, Line: v.AcquiredLine, Col: v.AcquiredCol}
		d.Suggested = "release '" + v.LockName + "' on every path out of this scope, including early returns"
	}
	return d
}
