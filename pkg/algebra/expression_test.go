package algebra

import "testing"

func TestTransposeSwapsEndpoints(t *testing.T) {
	e := New("a", "b", "r", 2)
	e.Transpose()

	if e.Source() != "b" || e.Destination() != "a" {
		t.Fatalf("transpose did not swap endpoints: src=%s dst=%s", e.Source(), e.Destination())
	}
	if e.TransposeCount() != 1 {
		t.Fatalf("expected transpose count 1, got %d", e.TransposeCount())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	e := New("a", "b", "r", 1)
	clone := e.Clone()
	clone.Transpose()

	if e.Source() != "a" {
		t.Fatalf("mutating clone affected original: src=%s", e.Source())
	}
	if clone.Source() != "b" {
		t.Fatalf("clone transpose did not apply: src=%s", clone.Source())
	}
}

func TestIsSelfLoop(t *testing.T) {
	loop := New("a", "a", "", 1)
	if !loop.IsSelfLoop() {
		t.Fatal("expected self-loop")
	}

	notLoop := New("a", "b", "", 1)
	if notLoop.IsSelfLoop() {
		t.Fatal("expected non-self-loop")
	}
}

func TestStringDoesNotMutate(t *testing.T) {
	e := New("a", "b", "r", 3)
	before := e.TransposeCount()
	_ = e.String()
	if e.TransposeCount() != before {
		t.Fatal("String() must not mutate the expression")
	}
}

func TestOperandCountFloor(t *testing.T) {
	e := New("a", "b", "", 0)
	if e.OperandCount() != 1 {
		t.Fatalf("expected operand count floor of 1, got %d", e.OperandCount())
	}
}
