package engine

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
)

// press maps keypad labels to actions so scenarios read like key presses.
func press(t *testing.T, c *Calculator, keys string) {
	t.Helper()
	for _, k := range strings.Fields(keys) {
		c.Perform(mustAction(t, k))
	}
}

func mustAction(t *testing.T, k string) Action {
	t.Helper()
	switch k {
	case "+":
		return OperationAction(Add)
	case "-":
		return OperationAction(Subtract)
	case "*":
		return OperationAction(Multiply)
	case "/":
		return OperationAction(Divide)
	case "±":
		return ToggleSign
	case "%":
		return Percent
	case ".":
		return DecimalPoint
	case "=":
		return Equals
	case "AC":
		return AllClear
	case "C":
		return Clear
	}
	if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		return DigitAction(Digit(k[0] - '0'))
	}
	t.Fatalf("unknown key %q", k)
	return Action{}
}

func TestFreshCalculatorDisplaysZero(t *testing.T) {
	var c Calculator
	if got := c.DisplayText(); got != "0" {
		t.Fatalf("expected %q, got %q", "0", got)
	}
	if !c.ShowAllClear() {
		t.Fatal("expected fresh calculator to show AC")
	}
	if len(c.History()) != 0 {
		t.Fatalf("expected empty history, got %v", c.History())
	}
}

func TestDisplayScenarios(t *testing.T) {
	tests := []struct {
		name string
		keys string
		want string
	}{
		{name: "addition", keys: "5 + 2 =", want: "7"},
		{name: "subtraction", keys: "5 - 2 =", want: "3"},
		{name: "multiplication", keys: "5 * 2 =", want: "10"},
		{name: "division", keys: "6 / 2 =", want: "3"},
		{name: "decimal pending", keys: "6 .", want: "6."},
		{name: "decimal digits", keys: "6 . 2 5", want: "6.25"},
		{name: "typed trailing zero kept", keys: "1 . 0", want: "1.0"},
		{name: "second decimal ignored", keys: "1 . 5 . 2", want: "1.52"},
		{name: "leading zeros collapse", keys: "0 0 0 7", want: "7"},
		{name: "comma grouping", keys: "1 2 3 4 5 6 7", want: "1,234,567"},
		{name: "negative grouping", keys: "1 2 3 4 ±", want: "-1,234"},
		{name: "toggle sign", keys: "6 ±", want: "-6"},
		{name: "toggle sign twice", keys: "6 ± ±", want: "6"},
		{name: "negate result", keys: "6 + 1 = ±", want: "-7"},
		{name: "sign before digits", keys: "±", want: "-0"},
		{name: "sign before digits then digit", keys: "± 5", want: "-5"},
		{name: "sign before decimal", keys: "± . 5", want: "-0.5"},
		{name: "percent", keys: "6 % * 1 0 0 =", want: "6"},
		{name: "percent of total", keys: "6 + 6 = % * 1 0 0 =", want: "12"},
		{name: "percent shows fraction", keys: "5 %", want: "0.05"},
		{name: "eager chaining", keys: "6 * 6 *", want: "36"},
		{name: "chain then equals", keys: "6 * 6 * 6 =", want: "216"},
		{name: "left operand shown", keys: "9 +", want: "9"},
		{name: "operation without operand", keys: "*", want: "0"},
		{name: "equals without expression", keys: "4 =", want: "4"},
		{name: "repeated equals", keys: "5 + 2 = =", want: "7"},
		{name: "result reused as operand", keys: "5 + 2 = * 3 =", want: "21"},
		{name: "operator without new operand is ignored", keys: "8 * - 3 =", want: "24"},
		{name: "operator right after operator", keys: "6 + * 2 =", want: "8"},
		{name: "operator evaluates against result", keys: "5 + 2 = + * 3 =", want: "42"},
		{name: "result operand shown after chain", keys: "5 + 2 = + *", want: "14"},
		{name: "exact decimals", keys: ". 1 + . 2 =", want: "0.3"},
		{name: "division result", keys: "1 / 4 =", want: "0.25"},
		{name: "large product", keys: "9 9 9 9 9 * 9 9 9 9 9 =", want: "9,999,800,001"},
		{name: "decimal after result starts new entry", keys: "5 + 2 = . 5", want: "0.5"},
		{name: "decimal on pending operand", keys: "6 * .", want: "0."},
		{name: "decimal ignored on fractional operand", keys: "1 . 5 + . 5 =", want: "6.5"},
		{name: "decimal ignored on fractional result", keys: "1 . 5 + 2 = . 4", want: "4"},
		{name: "decimal ignored while pending", keys: "6 + . .", want: "0."},
		{name: "sign on pending operand", keys: "6 + ±", want: "-6"},
		{name: "sign override applies to next operand", keys: "6 + ± 3 =", want: "3"},
		{name: "sign negates result under pending operation", keys: "5 + 2 = + ± 3 =", want: "10"},
		{name: "negated result feeds chain", keys: "5 + 2 = + ± *", want: "0"},
		{name: "percent keeps pending operand shown", keys: "5 + 2 = + %", want: "7"},
		{name: "percent of result feeds chain", keys: "5 + 2 = + % *", want: "7.07"},
		{name: "sign keeps pending point", keys: "6 . ±", want: "-6."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c Calculator
			press(t, &c, tc.keys)
			if got := c.DisplayText(); got != tc.want {
				t.Fatalf("keys %q: expected %q, got %q", tc.keys, tc.want, got)
			}
			if err := c.Validate(); err != nil {
				t.Fatalf("keys %q: invariant violated: %v", tc.keys, err)
			}
		})
	}
}

func TestClearKeepsPendingExpression(t *testing.T) {
	var c Calculator
	press(t, &c, "6 + 6 C")
	if got := c.DisplayText(); got != "0" {
		t.Fatalf("expected %q after clear, got %q", "0", got)
	}
	if !c.ShowAllClear() {
		t.Fatal("expected AC label right after clear")
	}

	press(t, &c, "4 =")
	if got := c.DisplayText(); got != "10" {
		t.Fatalf("expected %q, got %q", "10", got)
	}
}

func TestClearWipesHistory(t *testing.T) {
	var c Calculator
	press(t, &c, "1 + 1 = 5 C")
	if n := len(c.History()); n != 0 {
		t.Fatalf("expected clear to wipe history, got %d entries", n)
	}
}

func TestAllClearResetsEverything(t *testing.T) {
	var c Calculator
	press(t, &c, "6 + 6 C AC")
	if got := c.DisplayText(); got != "0" {
		t.Fatalf("expected %q, got %q", "0", got)
	}

	press(t, &c, "1 =")
	if got := c.DisplayText(); got != "1" {
		t.Fatalf("expected pending expression to be gone, got %q", got)
	}
	if len(c.History()) != 0 {
		t.Fatalf("expected empty history, got %v", c.History())
	}
}

func TestShowAllClear(t *testing.T) {
	var c Calculator
	if !c.ShowAllClear() {
		t.Fatal("expected AC on fresh state")
	}
	press(t, &c, "1")
	if c.ShowAllClear() {
		t.Fatal("expected C once a digit is entered")
	}
	press(t, &c, "C")
	if !c.ShowAllClear() {
		t.Fatal("expected AC right after clear")
	}
	press(t, &c, "2")
	if c.ShowAllClear() {
		t.Fatal("expected C after typing again")
	}
	press(t, &c, "AC")
	if !c.ShowAllClear() {
		t.Fatal("expected AC after all clear")
	}
}

func TestIsHighlighted(t *testing.T) {
	var c Calculator
	press(t, &c, "6 *")
	if !c.IsHighlighted(Multiply) {
		t.Fatal("expected multiply to be highlighted")
	}
	for _, op := range []Operation{Add, Subtract, Divide} {
		if c.IsHighlighted(op) {
			t.Fatalf("did not expect %s to be highlighted", op)
		}
	}

	press(t, &c, "2")
	if c.IsHighlighted(Multiply) {
		t.Fatal("expected highlight to drop once an operand digit is typed")
	}
}

func TestOperatorRepressKeepsPendingExpression(t *testing.T) {
	var c Calculator
	press(t, &c, "8 * -")
	if !c.IsHighlighted(Multiply) || c.IsHighlighted(Subtract) {
		t.Fatal("expected multiply to stay the pending operation")
	}
	if n := c.EvaluationCount(); n != 0 {
		t.Fatalf("expected no evaluation, got %d", n)
	}
	if got := c.DisplayText(); got != "8" {
		t.Fatalf("expected %q, got %q", "8", got)
	}
}

func TestOperatorAfterEqualsRecordsChainedEvaluation(t *testing.T) {
	var c Calculator
	press(t, &c, "5 + 2 = + *")
	want := []string{"5 + 2 = 7", "7 + 7 = 14"}
	if got := c.History(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if !c.IsHighlighted(Multiply) {
		t.Fatal("expected multiply pending")
	}
}

func TestOperationWithoutOperandIsNotHighlighted(t *testing.T) {
	var c Calculator
	press(t, &c, "*")
	if c.IsHighlighted(Multiply) {
		t.Fatal("did not expect highlight without an operand")
	}
	if got := c.DisplayText(); got != "0" {
		t.Fatalf("expected %q, got %q", "0", got)
	}
}

func TestHistoryFormat(t *testing.T) {
	var c Calculator
	press(t, &c, "1 + 1 = 2 + 2 =")
	want := []string{"1 + 1 = 2", "2 + 2 = 4"}
	got := c.History()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestHistoryGlyphs(t *testing.T) {
	var c Calculator
	press(t, &c, "9 - 4 * 2 / 5 =")
	want := []string{"9 − 4 = 5", "5 × 2 = 10", "10 ÷ 5 = 2"}
	got := c.History()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestHistoryKeepsLastFive(t *testing.T) {
	var c Calculator
	press(t, &c, "5 + 2 =")
	press(t, &c, "1 + 1 =")
	press(t, &c, "5 * 2 =")
	press(t, &c, "5 - 2 =")
	press(t, &c, "5 + 2 =")
	press(t, &c, "5 - 2 =")

	got := c.History()
	if len(got) != HistoryLimit {
		t.Fatalf("expected %d entries, got %d", HistoryLimit, len(got))
	}
	if got[0] != "1 + 1 = 2" {
		t.Fatalf("expected oldest entry %q, got %q", "1 + 1 = 2", got[0])
	}
	if got[len(got)-1] != "5 − 2 = 3" {
		t.Fatalf("expected newest entry %q, got %q", "5 − 2 = 3", got[len(got)-1])
	}
	if c.EvaluationCount() != 6 {
		t.Fatalf("expected 6 evaluations, got %d", c.EvaluationCount())
	}
}

func TestHistoryRecordsChainedEvaluations(t *testing.T) {
	var c Calculator
	press(t, &c, "6 * 6 * 6 =")
	want := []string{"6 × 6 = 36", "36 × 6 = 216"}
	if got := c.History(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDivisionByZero(t *testing.T) {
	var c Calculator
	press(t, &c, "6 / 0 =")

	if got := c.DisplayText(); got != ErrorText {
		t.Fatalf("expected %q, got %q", ErrorText, got)
	}
	if !errors.Is(c.Err(), ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", c.Err())
	}
	if got := c.History(); len(got) != 1 || got[0] != "6 ÷ 0 = Error" {
		t.Fatalf("expected failed evaluation in history, got %q", got)
	}
	if !c.ShowAllClear() {
		t.Fatal("expected AC after an error")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}

	press(t, &c, "=")
	if got := c.DisplayText(); got != ErrorText {
		t.Fatalf("expected equals to be a no-op, got %q", got)
	}

	press(t, &c, "3")
	if got := c.DisplayText(); got != "3" {
		t.Fatalf("expected typing to recover, got %q", got)
	}
	if c.Err() != nil {
		t.Fatalf("expected error cleared, got %v", c.Err())
	}
}

func TestDivisionByZeroWhileChaining(t *testing.T) {
	var c Calculator
	press(t, &c, "6 / 0 +")
	if got := c.DisplayText(); got != ErrorText {
		t.Fatalf("expected %q, got %q", ErrorText, got)
	}
	if c.IsHighlighted(Add) {
		t.Fatal("did not expect a pending operation after an error")
	}
}

func TestOverflowIsAnError(t *testing.T) {
	var c Calculator
	press(t, &c, "9 9 9 9 9 9 9 9 9 9 9 9 9 9 9 9 * 9 9 9 9 9 9 9 9 9 9 9 9 9 9 9 9 =")
	if got := c.DisplayText(); got != ErrorText {
		t.Fatalf("expected %q, got %q", ErrorText, got)
	}
	if !errors.Is(c.Err(), ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", c.Err())
	}
}

func TestEntryDigitLimit(t *testing.T) {
	var c Calculator
	press(t, &c, strings.Repeat("1 ", MaxEntryDigits+3))
	want := FormatNumber(mustParse(t, strings.Repeat("1", MaxEntryDigits)))
	if got := c.DisplayText(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLastEvaluation(t *testing.T) {
	var c Calculator
	if _, ok := c.LastEvaluation(); ok {
		t.Fatal("did not expect an evaluation on a fresh calculator")
	}
	press(t, &c, "3 * 4 = AC")
	ev, ok := c.LastEvaluation()
	if !ok {
		t.Fatal("expected last evaluation to survive all clear")
	}
	if ev.String() != "3 × 4 = 12" {
		t.Fatalf("expected %q, got %q", "3 × 4 = 12", ev.String())
	}
}

func TestCopyIsIndependent(t *testing.T) {
	var c Calculator
	press(t, &c, "6 *")
	snapshot := c
	press(t, &c, "+ 2 =")

	if got := snapshot.DisplayText(); got != "6" {
		t.Fatalf("expected copy to keep %q, got %q", "6", got)
	}
	if !snapshot.IsHighlighted(Multiply) {
		t.Fatal("expected copy to keep its pending operation")
	}
	if len(snapshot.History()) != 0 {
		t.Fatalf("expected copy history untouched, got %v", snapshot.History())
	}
}

func TestSnapshot(t *testing.T) {
	var c Calculator
	press(t, &c, "1 2 -")
	s := c.Snapshot()
	if s.Display != "12" {
		t.Fatalf("expected display %q, got %q", "12", s.Display)
	}
	if s.Highlighted != Subtract {
		t.Fatalf("expected %s highlighted, got %v", Subtract, s.Highlighted)
	}
	if s.ClearLabel() != "C" {
		t.Fatalf("expected clear label %q, got %q", "C", s.ClearLabel())
	}
}

func TestRandomSequencesKeepInvariants(t *testing.T) {
	keys := []Action{
		DigitAction(0), DigitAction(1), DigitAction(5), DigitAction(9),
		OperationAction(Add), OperationAction(Subtract), OperationAction(Multiply), OperationAction(Divide),
		ToggleSign, Percent, DecimalPoint, Equals, AllClear, Clear,
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 200; run++ {
		var c Calculator
		var pressed []string
		for step := 0; step < 60; step++ {
			a := keys[rng.IntN(len(keys))]
			pressed = append(pressed, a.String())
			c.Perform(a)
			if err := c.Validate(); err != nil {
				t.Fatalf("after %v: %v", pressed, err)
			}
			if n := len(c.History()); n > HistoryLimit {
				t.Fatalf("after %v: history has %d entries", pressed, n)
			}
		}
	}
}
