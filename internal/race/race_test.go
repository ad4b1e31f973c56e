package race

import "testing"

func TestDetectSimpleDataRace(t *testing.T) {
	d := NewDetector()
	d.RecordAccess(MemoryAccess{VarName: "x", Access: Write, ThreadID: 0, Line: 5})
	d.RecordAccess(MemoryAccess{VarName: "x", Access: Read, ThreadID: 1, Line: 10})

	d.DetectAll()

	if !d.HasViolations() {
		t.Fatal("expected a violation")
	}
	found := false
	for _, v := range d.Violations() {
		if v.Kind == DataRace {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a DataRace violation")
	}
}

func TestProtectedVariableNoRace(t *testing.T) {
	d := NewDetector()
	d.AddProtection("x", "lock1")
	d.RecordAccess(MemoryAccess{VarName: "x", Access: Write, ThreadID: 0, Line: 5})
	d.RecordAccess(MemoryAccess{VarName: "x", Access: Read, ThreadID: 1, Line: 10})

	d.DetectAll()

	for _, v := range d.Violations() {
		if v.Kind == DataRace {
			t.Fatal("protected variable should not race")
		}
	}
}

func TestUseAfterFree(t *testing.T) {
	d := NewDetector()
	d.RecordFree("ptr", 0, 5, 0)
	d.RecordAccess(MemoryAccess{VarName: "ptr", Access: Read, ThreadID: 0, Line: 10})

	d.DetectAll()

	found := false
	for _, v := range d.Violations() {
		if v.Kind == UseAfterFree {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a UseAfterFree violation")
	}
}

func TestLockLeak(t *testing.T) {
	d := NewDetector()
	d.RecordLock("lock1", true, 0, 5, 0)

	d.DetectAll()

	found := false
	for _, v := range d.Violations() {
		if v.Kind == LockLeak {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a LockLeak violation")
	}
}

func TestDeadlockCycleDetected(t *testing.T) {
	d := NewDetector()
	// thread 0 acquires A then B; thread 1 acquires B then A: a cycle.
	d.RecordLock("A", true, 0, 1, 0)
	d.RecordLock("B", true, 0, 2, 0)
	d.RecordLock("B", true, 1, 3, 0)
	d.RecordLock("A", true, 1, 4, 0)

	d.DetectDeadlocks()

	found := false
	for _, v := range d.Violations() {
		if v.Kind == Deadlock {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a Deadlock violation from the A<->B cycle")
	}
}

func TestSynchronizationInfoProtection(t *testing.T) {
	s := newSynchronizationInfo()
	s.AddProtection("x", "lock1")

	if !s.IsProtected("x") {
		t.Fatal("x should be protected")
	}
	if s.IsProtected("y") {
		t.Fatal("y should not be protected")
	}
	if len(s.ProtectingLocks("x")) == 0 {
		t.Fatal("expected protecting locks for x")
	}
}
