package ownership

// MergeBranches implements the analyzer's parallel-to-lowering control-flow
// rule: branch duplicates the current snapshot down each arm; merge adopts
// a binding's state when every taken arm agrees. When the arms disagree and
// some arm consumed or returned the binding, merge conservatively promotes
// it to Consumed and records the disagreement as a Violation on ctx at the
// merge point, so a linear resource can never look "still owned" on a path
// where some arm already consumed it. Any other disagreement keeps the first
// snapshot's state and records nothing.
//
// snapshots must be non-empty; the merged state map becomes the context's
// restored view at the join point via Context.Restore.
func MergeBranches(ctx *Context, line, col uint32, snapshots ...map[string]State) map[string]State {
	merged := map[string]State{}
	names := map[string]bool{}
	for _, snap := range snapshots {
		for name := range snap {
			names[name] = true
		}
	}

	for name := range names {
		first, firstOK := snapshots[0][name]
		agree := firstOK
		for _, snap := range snapshots[1:] {
			s, ok := snap[name]
			if !ok || s != first {
				agree = false
				break
			}
		}
		if agree {
			merged[name] = first
			continue
		}

		anyConsumed := false
		for _, snap := range snapshots {
			if s, ok := snap[name]; ok && (s == Consumed || s == Returned) {
				anyConsumed = true
				break
			}
		}
		if anyConsumed {
			merged[name] = Consumed
			ctx.RecordViolation(Violation{
				BindingName: name,
				Kind:        UseNotMoved,
				AtLine:      line,
				AtCol:       col,
				Message:     "binding '" + name + "' has inconsistent ownership state across branches; conservatively treated as consumed",
			})
		} else {
			merged[name] = first
		}
	}
	return merged
}

// CheckLoopCarried enforces that a linear binding mentioned in a loop body
// either returns to Consumed by the end of each iteration or is never
// mentioned at all; a linear binding left dangling mid-cycle (Owned or
// borrowed) after one pass through the body would leak on every iteration
// but the one that exits.
func CheckLoopCarried(pre, post map[string]State, linear map[string]bool) []Violation {
	var out []Violation
	for name, wasLinear := range linear {
		if !wasLinear {
			continue
		}
		preState, inPre := pre[name]
		postState, inPost := post[name]
		if !inPre && !inPost {
			continue
		}
		if inPre && !inPost {
			continue
		}
		if postState != Consumed && postState != preState {
			out = append(out, Violation{
				BindingName: name,
				Kind:        UseNotMoved,
				Message:     "linear binding '" + name + "' must be consumed or left untouched by each loop iteration",
			})
		}
	}
	return out
}
