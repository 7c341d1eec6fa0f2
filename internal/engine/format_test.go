package engine

import (
	"testing"

	"github.com/govalues/decimal"
)

func mustParse(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0"},
		{in: "7", want: "7"},
		{in: "999", want: "999"},
		{in: "1000", want: "1,000"},
		{in: "1234567.891", want: "1,234,567.891"},
		{in: "-1234.5", want: "-1,234.5"},
		{in: "-0.25", want: "-0.25"},
		{in: "1.50", want: "1.50"},
		{in: "1000000000000000000", want: "1,000,000,000,000,000,000"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := FormatNumber(mustParse(t, tc.in)); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAppendDigitText(t *testing.T) {
	tests := []struct {
		text string
		d    Digit
		want string
	}{
		{text: "0", d: 5, want: "5"},
		{text: "-0", d: 5, want: "-5"},
		{text: "0.", d: 0, want: "0.0"},
		{text: "-0.", d: 3, want: "-0.3"},
		{text: "12", d: 3, want: "123"},
		{text: "6.", d: 2, want: "6.2"},
	}

	for _, tc := range tests {
		if got := appendDigitText(tc.text, tc.d); got != tc.want {
			t.Errorf("appendDigitText(%q, %d) = %q, want %q", tc.text, tc.d, got, tc.want)
		}
	}
}

func TestSignificantDigits(t *testing.T) {
	tests := map[string]int{
		"0":      0,
		"-0.":    0,
		"12":     2,
		"-12.5":  3,
		"0.0012": 4,
	}
	for text, want := range tests {
		if got := significantDigits(text); got != want {
			t.Errorf("significantDigits(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestEvaluationString(t *testing.T) {
	ev := Evaluation{
		Left:      mustParse(t, "1.50"),
		Operation: Multiply,
		Right:     mustParse(t, "2"),
		Result:    mustParse(t, "3.00"),
	}
	if got := ev.String(); got != "1.5 × 2 = 3" {
		t.Fatalf("expected %q, got %q", "1.5 × 2 = 3", got)
	}

	ev.Err = ErrDivisionByZero
	if got := ev.ResultText(); got != ErrorText {
		t.Fatalf("expected %q, got %q", ErrorText, got)
	}
}

func TestOperationApply(t *testing.T) {
	tests := []struct {
		op          Operation
		left, right string
		want        string
	}{
		{op: Add, left: "0.1", right: "0.2", want: "0.3"},
		{op: Subtract, left: "5", right: "7.5", want: "-2.5"},
		{op: Multiply, left: "1.25", right: "4", want: "5"},
		{op: Divide, left: "1", right: "8", want: "0.125"},
	}

	for _, tc := range tests {
		t.Run(tc.op.Name(), func(t *testing.T) {
			got, err := tc.op.Apply(mustParse(t, tc.left), mustParse(t, tc.right))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got.String())
			}
		})
	}
}

func TestHistoryBufferEvictsOldest(t *testing.T) {
	var h history
	for i := 1; i <= HistoryLimit+2; i++ {
		h.push(Evaluation{Left: decimal.MustNew(int64(i), 0), Operation: Add})
	}
	entries := h.entries()
	if len(entries) != HistoryLimit {
		t.Fatalf("expected %d entries, got %d", HistoryLimit, len(entries))
	}
	if got := entries[0].Left.String(); got != "3" {
		t.Fatalf("expected oldest left operand %q, got %q", "3", got)
	}
	if got := entries[len(entries)-1].Left.String(); got != "7" {
		t.Fatalf("expected newest left operand %q, got %q", "7", got)
	}
}
