package ownership

import "testing"

func TestContextSimpleUse(t *testing.T) {
	ctx := NewContext()
	ctx.SetLocation(1, 0)
	ctx.Define("x", "Model", true)

	ctx.SetLocation(2, 0)
	if v := ctx.RecordUse("x"); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}
}

func TestContextUseAfterMove(t *testing.T) {
	ctx := NewContext()
	ctx.SetLocation(1, 0)
	ctx.Define("x", "Model", true)

	ctx.SetLocation(2, 0)
	if v := ctx.RecordMove("x"); v != nil {
		t.Fatalf("unexpected violation on first move: %v", v)
	}

	ctx.SetLocation(3, 0)
	v := ctx.RecordUse("x")
	if v == nil {
		t.Fatal("expected a use-after-move violation")
	}
	if v.Kind != UseAfterMove {
		t.Fatalf("expected UseAfterMove, got %v", v.Kind)
	}
}

func TestContextDoubleMove(t *testing.T) {
	ctx := NewContext()
	ctx.SetLocation(1, 0)
	ctx.Define("x", "Model", true)
	ctx.SetLocation(2, 0)
	if v := ctx.RecordMove("x"); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}
	ctx.SetLocation(3, 0)
	v := ctx.RecordMove("x")
	if v == nil || v.Kind != DoubleMove {
		t.Fatalf("expected DoubleMove, got %v", v)
	}
}

func TestContextMoveAfterBorrow(t *testing.T) {
	ctx := NewContext()
	ctx.SetLocation(1, 0)
	ctx.Define("x", "Model", true)
	ctx.SetLocation(2, 0)
	if v := ctx.RecordBorrowImmut("x"); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}
	ctx.SetLocation(3, 0)
	v := ctx.RecordMove("x")
	if v == nil || v.Kind != MoveAfterBorrow {
		t.Fatalf("expected MoveAfterBorrow, got %v", v)
	}
}

func TestContextLinearResourceNotConsumed(t *testing.T) {
	ctx := NewContext()
	ctx.SetLocation(1, 0)
	ctx.Define("x", "Model", true)

	unconsumed := ctx.CheckLinearResourcesConsumed()
	if len(unconsumed) == 0 || unconsumed[0].Kind != UseNotMoved {
		t.Fatalf("expected a UseNotMoved violation, got %v", unconsumed)
	}
}

func TestContextScopedBindings(t *testing.T) {
	ctx := NewContext()
	ctx.SetLocation(1, 0)
	ctx.Define("x", "u32", false)

	ctx.PushScope()
	ctx.SetLocation(2, 0)
	ctx.Define("y", "Model", true)
	if v := ctx.RecordUse("x"); v != nil {
		t.Fatalf("outer binding should be visible: %v", v)
	}
	if v := ctx.RecordUse("y"); v != nil {
		t.Fatalf("inner binding should be usable: %v", v)
	}

	ctx.PopScope()
	if ctx.BindingExists("y") {
		t.Fatal("y should no longer be in scope")
	}
	if !ctx.BindingExists("x") {
		t.Fatal("x should still be in scope")
	}
}

func TestMergeBranchesPromotesAsymmetricConsumptionToConsumed(t *testing.T) {
	ctx := NewContext()
	merged := MergeBranches(ctx, 10, 0,
		map[string]State{"t": Owned},
		map[string]State{"t": Consumed},
	)
	if merged["t"] != Consumed {
		t.Fatalf("expected conservative promotion to Consumed, got %v", merged["t"])
	}
	if len(ctx.Violations()) != 1 {
		t.Fatalf("expected one asymmetry diagnostic, got %d", len(ctx.Violations()))
	}
}

func TestMergeBranchesAdoptsAgreeingState(t *testing.T) {
	ctx := NewContext()
	merged := MergeBranches(ctx, 10, 0,
		map[string]State{"t": Consumed},
		map[string]State{"t": Consumed},
	)
	if merged["t"] != Consumed {
		t.Fatalf("expected Consumed, got %v", merged["t"])
	}
	if len(ctx.Violations()) != 0 {
		t.Fatalf("agreeing branches should not report a violation, got %d", len(ctx.Violations()))
	}
}

func TestCapabilityFreshToInUse(t *testing.T) {
	b := newCapabilityBinding("sock", CapSocket, 1, 0)
	if v := b.transition(CapInUse, 2, 0); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}
	if b.State != CapInUse {
		t.Fatalf("expected InUse, got %v", b.State)
	}
}

func TestCapabilityConsumedIsAbsorbing(t *testing.T) {
	b := newCapabilityBinding("sock", CapSocket, 1, 0)
	if v := b.transition(CapConsumed, 2, 0); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}
	if v := b.transition(CapInUse, 3, 0); v == nil {
		t.Fatal("expected an invalid-transition violation out of Consumed")
	}
}

func TestCapabilityContextConcurrentUseWithoutSync(t *testing.T) {
	ctx := NewCapabilityContext()
	ctx.SetLocation(1, 0)
	if v := ctx.Define("sock", CapSocket); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}
	if v := ctx.Use("sock"); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}

	ctx.SetThread(1)
	if v := ctx.Use("sock"); v != nil {
		t.Fatalf("unexpected violation: %v", v)
	}

	violations := ctx.ValidateAll()
	found := false
	for _, v := range violations {
		if v.Kind == CapConcurrentUseWithoutSync {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a ConcurrentUseWithoutSync violation")
	}
}

func TestCapabilityContextSharedAllowsConcurrentUse(t *testing.T) {
	ctx := NewCapabilityContext()
	ctx.SetLocation(1, 0)
	ctx.Define("sock", CapSocket)
	ctx.Share("sock")

	ctx.Use("sock")
	ctx.SetThread(1)
	ctx.Use("sock")

	for _, v := range ctx.ValidateAll() {
		if v.Kind == CapConcurrentUseWithoutSync {
			t.Fatal("shared capability should not report concurrent-use violation")
		}
	}
}

func TestLinearClassification(t *testing.T) {
	cases := map[string]bool{
		"bool":                false,
		"u32":                 false,
		"string":              false,
		"Style":               true,
		"Model":               true,
		"Tensor":               true,
		"TensorBuffer64":      true,
		"ModelHandleV2":       true,
		"ClientSocket":        true,
		"SomeRandomType":      false,
	}
	for ty, want := range cases {
		if got := Linear(ty); got != want {
			t.Errorf("Linear(%q) = %v, want %v", ty, got, want)
		}
	}
}
