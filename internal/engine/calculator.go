// Package engine implements the keypad calculator state machine.
//
// A Calculator interprets a stream of Actions and exposes the derived
// display values. It performs no I/O and is not safe for concurrent use:
// owners serialize calls to Perform and re-read the queries afterwards.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/govalues/decimal"
)

// MaxEntryDigits bounds the significant digits of a typed number. Digits
// pressed beyond it are ignored.
const MaxEntryDigits = 16

var hundred = decimal.MustNew(100, 0)

type expression struct {
	left decimal.Decimal
	op   Operation
}

// Calculator is the engine state. The zero value is a fresh calculator
// displaying "0".
type Calculator struct {
	decimalPointPending bool
	pending             *expression
	result              *decimal.Decimal
	signOverridePending bool
	clearedToZero       bool
	history             history
	entry               *decimal.Decimal

	fault       error
	evaluations int
	last        Evaluation
}

// New returns a fresh calculator.
func New() *Calculator { return &Calculator{} }

// Perform applies one action. Actions that lack an operand are no-ops.
func (c *Calculator) Perform(a Action) {
	switch a.Kind {
	case ActionDigit:
		c.appendDigit(a.Digit)
	case ActionOperation:
		c.setOperation(a.Operation)
	case ActionToggleSign:
		c.toggleSign()
	case ActionPercent:
		c.percent()
	case ActionDecimalPoint:
		c.decimalPoint()
	case ActionEquals:
		c.equals()
	case ActionAllClear:
		c.allClear()
	case ActionClear:
		c.clear()
	}
}

func (c *Calculator) appendDigit(d Digit) {
	if !d.Valid() {
		return
	}
	text := c.entryText()
	if significantDigits(text) >= MaxEntryDigits {
		return
	}
	v, err := decimal.Parse(appendDigitText(text, d))
	if err != nil {
		v = decimal.Decimal{}
	}
	c.setEntry(v)
}

func (c *Calculator) setOperation(op Operation) {
	if !op.Valid() {
		return
	}
	var operand decimal.Decimal
	switch {
	case c.entry != nil:
		operand = *c.entry
	case c.result != nil:
		operand = *c.result
	default:
		return
	}
	if c.pending != nil {
		ev := c.evaluate(operand)
		if ev.Err != nil {
			c.fail(ev.Err)
			return
		}
		operand = ev.Result
	}
	c.pending = &expression{left: operand, op: op}
	c.resetEntry()
}

func (c *Calculator) toggleSign() {
	switch {
	case c.entry != nil:
		point := c.decimalPointPending
		c.setEntry(c.entry.Neg())
		c.decimalPointPending = point
	case c.result != nil:
		v := c.result.Neg()
		c.result = &v
	default:
		c.fault = nil
		c.signOverridePending = !c.signOverridePending
	}
}

func (c *Calculator) percent() {
	switch {
	case c.entry != nil:
		if v, err := c.entry.Quo(hundred); err == nil {
			c.setEntry(v.Trim(0))
		}
	case c.result != nil:
		if v, err := c.result.Quo(hundred); err == nil {
			v = v.Trim(0)
			c.result = &v
		}
	}
}

// decimalPoint is ignored while the displayed number, whichever source
// supplies it, already has a fractional part.
func (c *Calculator) decimalPoint() {
	if strings.Contains(c.DisplayText(), ".") {
		return
	}
	c.fault = nil
	c.decimalPointPending = true
}

func (c *Calculator) equals() {
	if c.entry == nil || c.pending == nil {
		return
	}
	ev := c.evaluate(*c.entry)
	if ev.Err != nil {
		c.fail(ev.Err)
		return
	}
	c.result = &ev.Result
	c.pending = nil
	c.resetEntry()
}

func (c *Calculator) allClear() {
	*c = Calculator{evaluations: c.evaluations, last: c.last}
}

func (c *Calculator) clear() {
	c.resetEntry()
	c.clearedToZero = true
	c.fault = nil
	c.history.reset()
}

// evaluate applies the pending expression to right and records the outcome.
func (c *Calculator) evaluate(right decimal.Decimal) Evaluation {
	ev := Evaluation{Left: c.pending.left, Operation: c.pending.op, Right: right}
	ev.Result, ev.Err = c.pending.op.Apply(c.pending.left, right)
	c.history.push(ev)
	c.evaluations++
	c.last = ev
	return ev
}

func (c *Calculator) fail(err error) {
	c.fault = err
	c.pending = nil
	c.result = nil
	c.resetEntry()
}

func (c *Calculator) setEntry(v decimal.Decimal) {
	c.entry = &v
	c.decimalPointPending = false
	c.signOverridePending = false
	c.clearedToZero = false
	c.fault = nil
}

func (c *Calculator) resetEntry() {
	c.entry = nil
	c.decimalPointPending = false
	c.signOverridePending = false
	c.clearedToZero = false
}

// entryActive reports whether the entry buffer supplies the displayed
// number, even when nothing has been typed into it yet. A pending sign
// override alone does not: it prefixes whatever number is shown.
func (c *Calculator) entryActive() bool {
	return c.entry != nil || c.clearedToZero || c.decimalPointPending
}

// shown resolves the displayed number by precedence: entry, pending left
// operand, result. ok is false for the implicit zero.
func (c *Calculator) shown() (v decimal.Decimal, ok bool) {
	switch {
	case c.entryActive():
		if c.entry != nil {
			return *c.entry, true
		}
		return decimal.Decimal{}, false
	case c.pending != nil:
		return c.pending.left, true
	case c.result != nil:
		return *c.result, true
	}
	return decimal.Decimal{}, false
}

// entryText is the raw text the next digit is appended to.
func (c *Calculator) entryText() string {
	text := "0"
	if c.entry != nil {
		text = c.entry.String()
	} else if c.signOverridePending {
		text = "-0"
	}
	if c.decimalPointPending {
		text += "."
	}
	return text
}

// DisplayText returns the number to show, comma-grouped, or ErrorText after
// a failed evaluation.
func (c *Calculator) DisplayText() string {
	if c.fault != nil && !c.entryActive() {
		return ErrorText
	}
	v, ok := c.shown()
	text := "0"
	if ok {
		text = FormatNumber(v)
	}
	if c.entry == nil && c.signOverridePending {
		text = "-" + text
	}
	if c.decimalPointPending {
		text += "."
	}
	return text
}

// History returns the recorded evaluations, oldest first, formatted as
// "<left> <op> <right> = <result>".
func (c *Calculator) History() []string {
	entries := c.history.entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

// Evaluations returns the evaluations backing History.
func (c *Calculator) Evaluations() []Evaluation { return c.history.entries() }

// EvaluationCount is the number of evaluations performed since creation.
// Clearing does not reset it, so owners can detect new evaluations by
// comparing counts around Perform.
func (c *Calculator) EvaluationCount() int { return c.evaluations }

// LastEvaluation returns the most recent evaluation, if any.
func (c *Calculator) LastEvaluation() (Evaluation, bool) {
	if c.evaluations == 0 {
		return Evaluation{}, false
	}
	return c.last, true
}

// ShowAllClear reports whether the clear key should read "AC" rather than "C".
func (c *Calculator) ShowAllClear() bool {
	return (c.entry == nil && c.pending == nil && c.result == nil) || c.clearedToZero
}

// IsHighlighted reports whether op is pending and no operand digit has been
// typed since it was chosen.
func (c *Calculator) IsHighlighted(op Operation) bool {
	return c.pending != nil && c.pending.op == op && c.entry == nil
}

// Err returns the failure behind an "Error" display, nil otherwise.
func (c *Calculator) Err() error { return c.fault }

// Snapshot is the full set of derived values after an action.
type Snapshot struct {
	Display      string
	History      []string
	ShowAllClear bool
	// Highlighted is the highlighted operation, zero when none is.
	Highlighted Operation
	Err         error
}

// ClearLabel is the label of the clear key.
func (s Snapshot) ClearLabel() string {
	if s.ShowAllClear {
		return AllClear.String()
	}
	return Clear.String()
}

// Snapshot collects every derived value at once, for owners that render or
// serialize the whole state after an action.
func (c *Calculator) Snapshot() Snapshot {
	s := Snapshot{
		Display:      c.DisplayText(),
		History:      c.History(),
		ShowAllClear: c.ShowAllClear(),
		Err:          c.fault,
	}
	for _, op := range Operations {
		if c.IsHighlighted(op) {
			s.Highlighted = op
		}
	}
	return s
}

// Validate checks the state invariants and reports every violation found.
func (c *Calculator) Validate() error {
	var errs []error
	if c.history.len() > HistoryLimit {
		errs = append(errs, fmt.Errorf("history holds %d entries", c.history.len()))
	}
	if c.pending != nil && !c.pending.op.Valid() {
		errs = append(errs, fmt.Errorf("pending expression has invalid operation %d", c.pending.op))
	}
	if c.fault != nil && (c.pending != nil || c.result != nil) {
		errs = append(errs, errors.New("fault with live expression or result"))
	}
	if c.decimalPointPending && c.entry != nil && c.entry.Scale() > 0 {
		errs = append(errs, errors.New("decimal point pending on a fractional entry"))
	}
	if n := strings.Count(c.DisplayText(), "."); n > 1 {
		errs = append(errs, fmt.Errorf("display %q has %d decimal points", c.DisplayText(), n))
	}
	return errors.Join(errs...)
}
