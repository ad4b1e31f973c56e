package ownership

// Context tracks ownership state for every binding visible to a cell,
// across a stack of nested scopes (one per block level).
type Context struct {
	scopes       []map[string]*Binding
	borrowScopes []map[string]bool
	violations   []Violation
	currentLine  uint32
	currentCol   uint32
}

// NewContext returns a Context with a single root scope, as at cell entry.
func NewContext() *Context {
	return &Context{
		scopes:       []map[string]*Binding{{}},
		borrowScopes: []map[string]bool{{}},
	}
}

// PushScope enters a nested block.
func (c *Context) PushScope() {
	c.scopes = append(c.scopes, map[string]*Binding{})
	c.borrowScopes = append(c.borrowScopes, map[string]bool{})
}

// PopScope exits the current block, reporting UseNotMoved for any linear
// binding that scope didn't consume or return, then discarding the scope's
// bindings and borrows.
func (c *Context) PopScope() []Violation {
	if len(c.scopes) <= 1 {
		return nil
	}
	var leaked []Violation
	top := c.scopes[len(c.scopes)-1]
	for _, b := range top {
		if b.IsLinear && b.State != Consumed && b.State != Returned {
			leaked = append(leaked, Violation{
				BindingName: b.Name,
				Kind:        UseNotMoved,
				AtLine:      c.currentLine,
				AtCol:       c.currentCol,
				Message:     "linear resource '" + b.Name + "' of type '" + b.TypeName + "' must be consumed before scope end",
			})
		}
	}
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.borrowScopes = c.borrowScopes[:len(c.borrowScopes)-1]
	c.violations = append(c.violations, leaked...)
	return leaked
}

// SetLocation updates the position attached to subsequently recorded events.
func (c *Context) SetLocation(line, col uint32) {
	c.currentLine, c.currentCol = line, col
}

// Define registers a new binding in the innermost scope.
func (c *Context) Define(name, typeName string, isLinear bool) {
	c.scopes[len(c.scopes)-1][name] = NewBinding(name, typeName, isLinear, c.currentLine, c.currentCol)
}

func (c *Context) find(name string) *Binding {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b
		}
	}
	return nil
}

// BindingExists reports whether name is visible in any enclosing scope.
func (c *Context) BindingExists(name string) bool {
	return c.find(name) != nil
}

// Snapshot captures the ownership state of every visible binding, keyed by
// name, for control-flow branch/merge analysis.
func (c *Context) Snapshot() map[string]State {
	out := map[string]State{}
	for i := range c.scopes {
		for name, b := range c.scopes[i] {
			out[name] = b.State
		}
	}
	return out
}

// RecordUse checks that a binding may still be read without consuming it.
func (c *Context) RecordUse(name string) *Violation {
	b := c.find(name)
	if b == nil {
		v := notFound(name, c.currentLine, c.currentCol)
		c.violations = append(c.violations, v)
		return &v
	}
	if !b.State.AllowsUse() {
		v := Violation{
			BindingName: name,
			Kind:        UseAfterMove,
			AtLine:      c.currentLine,
			AtCol:       c.currentCol,
			MovedAtLine: b.MovedAtLine,
			MovedAtCol:  b.MovedAtCol,
			HasMovedAt:  b.HasMovedAt,
			Message:     "cannot use binding '" + name + "' after it was moved",
		}
		c.violations = append(c.violations, v)
		return &v
	}
	return nil
}

// RecordMove transfers ownership of a binding, forbidding a second move or a
// move while the binding is currently borrowed.
func (c *Context) RecordMove(name string) *Violation {
	if borrows := c.borrowScopes[len(c.borrowScopes)-1]; borrows[name] {
		v := Violation{
			BindingName: name,
			Kind:        MoveAfterBorrow,
			AtLine:      c.currentLine,
			AtCol:       c.currentCol,
			Message:     "cannot move binding '" + name + "' while it's borrowed",
		}
		c.violations = append(c.violations, v)
		return &v
	}

	b := c.find(name)
	if b == nil {
		v := notFound(name, c.currentLine, c.currentCol)
		c.violations = append(c.violations, v)
		return &v
	}
	if b.State == Consumed {
		v := Violation{
			BindingName: name,
			Kind:        DoubleMove,
			AtLine:      c.currentLine,
			AtCol:       c.currentCol,
			MovedAtLine: b.MovedAtLine,
			MovedAtCol:  b.MovedAtCol,
			HasMovedAt:  b.HasMovedAt,
			Message:     "cannot move binding '" + name + "' again: already consumed",
		}
		c.violations = append(c.violations, v)
		return &v
	}
	b.markMoved(c.currentLine, c.currentCol)
	return nil
}

// RecordBorrowImmut records an immutable borrow.
func (c *Context) RecordBorrowImmut(name string) *Violation {
	b := c.find(name)
	if b == nil {
		v := notFound(name, c.currentLine, c.currentCol)
		c.violations = append(c.violations, v)
		return &v
	}
	if !b.State.AllowsBorrow() {
		v := Violation{
			BindingName: name,
			Kind:        BorrowAfterMove,
			AtLine:      c.currentLine,
			AtCol:       c.currentCol,
			MovedAtLine: b.MovedAtLine,
			MovedAtCol:  b.MovedAtCol,
			HasMovedAt:  b.HasMovedAt,
			Message:     "cannot borrow '" + name + "': it was moved",
		}
		c.violations = append(c.violations, v)
		return &v
	}
	b.markBorrowedImmut()
	c.borrowScopes[len(c.borrowScopes)-1][name] = true
	return nil
}

// RecordBorrowMut records a mutable borrow.
func (c *Context) RecordBorrowMut(name string) *Violation {
	b := c.find(name)
	if b == nil {
		v := notFound(name, c.currentLine, c.currentCol)
		c.violations = append(c.violations, v)
		return &v
	}
	if !b.State.AllowsBorrow() {
		v := Violation{
			BindingName: name,
			Kind:        BorrowAfterMove,
			AtLine:      c.currentLine,
			AtCol:       c.currentCol,
			MovedAtLine: b.MovedAtLine,
			MovedAtCol:  b.MovedAtCol,
			HasMovedAt:  b.HasMovedAt,
			Message:     "cannot mutably borrow '" + name + "': it was moved",
		}
		c.violations = append(c.violations, v)
		return &v
	}
	b.markBorrowedMut()
	c.borrowScopes[len(c.borrowScopes)-1][name] = true
	return nil
}

// RecordReturn transfers a binding's ownership to the caller.
func (c *Context) RecordReturn(name string) *Violation {
	b := c.find(name)
	if b == nil {
		v := notFound(name, c.currentLine, c.currentCol)
		c.violations = append(c.violations, v)
		return &v
	}
	b.State = Returned
	return nil
}

// CheckLinearResourcesConsumed reports UseNotMoved for every linear binding
// in the innermost scope not already Consumed or Returned, without popping
// the scope. Used at cell exit once the final block has no further code.
func (c *Context) CheckLinearResourcesConsumed() []Violation {
	var out []Violation
	top := c.scopes[len(c.scopes)-1]
	for _, b := range top {
		if b.IsLinear && b.State != Consumed && b.State != Returned {
			out = append(out, Violation{
				BindingName: b.Name,
				Kind:        UseNotMoved,
				AtLine:      c.currentLine,
				AtCol:       c.currentCol,
				Message:     "linear resource '" + b.Name + "' of type '" + b.TypeName + "' must be consumed before function ends",
			})
		}
	}
	return out
}

// Violations returns every violation recorded so far, across all scopes.
func (c *Context) Violations() []Violation {
	return c.violations
}

// RecordViolation appends a violation constructed elsewhere (e.g. by the
// control-flow merge pass).
func (c *Context) RecordViolation(v Violation) {
	c.violations = append(c.violations, v)
}

// Restore replaces the innermost scope's states from a previously captured
// Snapshot, used by control-flow merge to adopt the agreed-upon post-merge
// state for each binding.
func (c *Context) Restore(snap map[string]State) {
	for i := range c.scopes {
		for name, b := range c.scopes[i] {
			if s, ok := snap[name]; ok {
				b.State = s
			}
		}
	}
}
