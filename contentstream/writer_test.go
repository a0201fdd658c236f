package contentstream

import (
	"testing"

	"github.com/tsawler/linksheet/core"
)

func TestWriterOutput(t *testing.T) {
	w := NewWriter()
	w.Save().
		BeginText().
		SetFont("F1", 11).
		MoveText(36, 516.5).
		ShowText([]byte("a(b)")).
		EndText().
		SetLineWidth(0.5).
		Line(36, 514, 100, 514).
		Restore()

	want := "q\nBT\n/F1 11 Tf\n36 516.5 Td\n(a\\(b\\)) Tj\nET\n0.5 w\n36 514 m\n100 514 l\nS\nQ\n"
	if got := string(w.Bytes()); got != want {
		t.Errorf("unexpected content:\n%s\nwant:\n%s", got, want)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Concat(1, 0, 0, 1, 10, 20).
		SetGray(0, false).
		SetGray(0.25, true).
		Do("X1").
		Op("TJ", core.Array{core.String("A"), core.Int(-120), core.String("B")})

	ops, err := NewParser(w.Bytes()).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []struct {
		op       string
		operands int
	}{
		{"cm", 6}, {"g", 1}, {"G", 1}, {"Do", 1}, {"TJ", 1},
	}
	if len(ops) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(ops))
	}
	for i, op := range ops {
		if op.Operator != want[i].op || len(op.Operands) != want[i].operands {
			t.Errorf("op %d: got %s with %d operands", i, op.Operator, len(op.Operands))
		}
	}
	if name := ops[3].Operands[0].(core.Name); name != "X1" {
		t.Errorf("Do operand = %q, want X1", name)
	}
}

func TestWriterRaw(t *testing.T) {
	w := NewWriter().Raw([]byte("q")).Raw(nil).Raw([]byte("Q\n"))
	if got := string(w.Bytes()); got != "q\nQ\n" {
		t.Errorf("got %q", got)
	}
	if w.Len() != 4 {
		t.Errorf("Len() = %d, want 4", w.Len())
	}
}
