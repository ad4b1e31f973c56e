// Package ownership implements the static ownership and linear-capability
// analyzer: a control-flow-sensitive pass over a cell's AST that tracks each
// binding's ownership state and flags use-after-move, double-move, and
// linear-resource leaks before the cell ever reaches the lowerer.
//
// State machine (legal edges):
//
//	From \ To        Owned  Consumed  BorrowedImmut  BorrowedMut  Returned
//	Owned             -      move     immut-borrow   mut-borrow    return
//	BorrowedImmut  (end)      x        immut-borrow       x          x
//	BorrowedMut    (end)      x            x          mut-borrow     x
//	Consumed          x       x            x              x          x
//	Returned          x       x            x              x          x
package ownership

import "fmt"

// State is a binding's ownership state.
type State int

const (
	Owned State = iota
	Consumed
	BorrowedImmut
	BorrowedMut
	Returned
)

func (s State) String() string {
	switch s {
	case Owned:
		return "owned"
	case Consumed:
		return "consumed"
	case BorrowedImmut:
		return "borrowed (immut)"
	case BorrowedMut:
		return "borrowed (mut)"
	case Returned:
		return "returned"
	default:
		return "unknown"
	}
}

// AllowsUse reports whether a binding in this state may still be read.
func (s State) AllowsUse() bool {
	return s != Consumed && s != Returned
}

// AllowsMove reports whether a binding in this state may be moved.
func (s State) AllowsMove() bool {
	return s == Owned
}

// AllowsBorrow reports whether a binding in this state may be borrowed
// (immutably or mutably).
func (s State) AllowsBorrow() bool {
	return s == Owned || s == BorrowedImmut || s == BorrowedMut
}

// ViolationKind classifies an ownership violation.
type ViolationKind int

const (
	UseAfterMove ViolationKind = iota
	DoubleMove
	BorrowAfterMove
	MoveAfterBorrow
	UseNotMoved
	InvalidOperation
)

func (k ViolationKind) String() string {
	switch k {
	case UseAfterMove:
		return "use-after-move"
	case DoubleMove:
		return "double-move"
	case BorrowAfterMove:
		return "borrow-after-move"
	case MoveAfterBorrow:
		return "move-after-borrow"
	case UseNotMoved:
		return "use-not-moved"
	case InvalidOperation:
		return "invalid-operation"
	default:
		return "unknown"
	}
}

// Violation is a single ownership-rule breach.
type Violation struct {
	BindingName string
	Kind        ViolationKind
	AtLine      uint32
	AtCol       uint32
	MovedAtLine uint32
	MovedAtCol  uint32
	HasMovedAt  bool
	Message     string
}

func (v Violation) Error() string {
	return v.Message
}

// Binding tracks one variable's ownership state across a cell body.
type Binding struct {
	Name          string
	TypeName      string
	IsLinear      bool
	DefinedAtLine uint32
	DefinedAtCol  uint32
	State         State
	MovedAtLine   uint32
	MovedAtCol    uint32
	HasMovedAt    bool
}

// NewBinding starts a binding in the Owned state.
func NewBinding(name, typeName string, isLinear bool, line, col uint32) *Binding {
	return &Binding{
		Name:          name,
		TypeName:      typeName,
		IsLinear:      isLinear,
		DefinedAtLine: line,
		DefinedAtCol:  col,
		State:         Owned,
	}
}

func (b *Binding) markMoved(line, col uint32) {
	b.State = Consumed
	b.MovedAtLine, b.MovedAtCol, b.HasMovedAt = line, col, true
}

func (b *Binding) markBorrowedImmut() {
	if b.State == Owned {
		b.State = BorrowedImmut
	}
}

func (b *Binding) markBorrowedMut() {
	if b.State == Owned || b.State == BorrowedMut {
		b.State = BorrowedMut
	}
}

// clone returns an independent copy of b. The scope maps hold *Binding
// pointers that are updated in place; nothing in this package calls clone,
// since Context.Snapshot records states by name instead.
func (b *Binding) clone() *Binding {
	cp := *b
	return &cp
}

func notFound(name string, line, col uint32) Violation {
	return Violation{
		BindingName: name,
		Kind:        UseAfterMove,
		AtLine:      line,
		AtCol:       col,
		Message:     fmt.Sprintf("binding '%s' not found in scope", name),
	}
}
