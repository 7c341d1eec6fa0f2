package tui

import (
	"testing"

	"calcpad/internal/engine"
)

func TestKeypadLayout(t *testing.T) {
	want := [][]string{
		{"AC", "±", "%", "÷"},
		{"7", "8", "9", "×"},
		{"4", "5", "6", "−"},
		{"1", "2", "3", "+"},
		{"0", ".", "="},
	}
	var c engine.Calculator
	for r, row := range want {
		if len(keypadRows[r]) != len(row) {
			t.Fatalf("row %d has %d keys, want %d", r, len(keypadRows[r]), len(row))
		}
		span := 0
		for col, label := range row {
			k := resolveKey(&c, r, col)
			if k.Label != label {
				t.Fatalf("key (%d,%d) = %q, want %q", r, col, k.Label, label)
			}
			span += k.Span
		}
		if span != keypadColumns {
			t.Fatalf("row %d spans %d columns, want %d", r, span, keypadColumns)
		}
	}
}

func TestClearKeyFollowsEngine(t *testing.T) {
	var c engine.Calculator
	if k := resolveKey(&c, 0, 0); k.Action != engine.AllClear {
		t.Fatalf("expected AC on a fresh engine, got %q", k.Label)
	}
	c.Perform(engine.DigitAction(3))
	if k := resolveKey(&c, 0, 0); k.Action != engine.Clear || k.Label != "C" {
		t.Fatalf("expected C after a digit, got %q", k.Label)
	}
}

func TestCursorMovement(t *testing.T) {
	tests := []struct {
		name       string
		from       cursor
		dRow, dCol int
		want       cursor
	}{
		{name: "down into wide zero", from: cursor{3, 1}, dRow: 1, want: cursor{4, 0}},
		{name: "down onto point", from: cursor{3, 2}, dRow: 1, want: cursor{4, 1}},
		{name: "up from point", from: cursor{4, 1}, dRow: -1, want: cursor{3, 2}},
		{name: "up from equals", from: cursor{4, 2}, dRow: -1, want: cursor{3, 3}},
		{name: "clamp top", from: cursor{0, 2}, dRow: -1, want: cursor{0, 2}},
		{name: "clamp right", from: cursor{1, 3}, dCol: 1, want: cursor{1, 3}},
		{name: "clamp left", from: cursor{2, 0}, dCol: -1, want: cursor{2, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.move(tc.dRow, tc.dCol); got != tc.want {
				t.Fatalf("move(%d,%d) from %+v = %+v, want %+v", tc.dRow, tc.dCol, tc.from, got, tc.want)
			}
		})
	}
}
