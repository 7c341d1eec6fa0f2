package engine

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/govalues/decimal"
)

var (
	// ErrDivisionByZero is reported when the right operand of a division is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrOverflow is reported when a result does not fit the decimal range.
	ErrOverflow = errors.New("result out of range")
)

// Digit is a single keypad digit, 0 through 9.
type Digit uint8

func (d Digit) Valid() bool { return d <= 9 }

func (d Digit) String() string { return strconv.Itoa(int(d)) }

// Operation is one of the four binary operators.
type Operation uint8

const (
	Add Operation = iota + 1
	Subtract
	Multiply
	Divide
)

// Operations lists every operation in keypad order.
var Operations = []Operation{Add, Subtract, Multiply, Divide}

func (o Operation) Valid() bool { return o >= Add && o <= Divide }

// String returns the display glyph.
func (o Operation) String() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "−"
	case Multiply:
		return "×"
	case Divide:
		return "÷"
	default:
		return "?"
	}
}

// Name returns the lower-case operation name used in APIs and metrics.
func (o Operation) Name() string {
	switch o {
	case Add:
		return "add"
	case Subtract:
		return "subtract"
	case Multiply:
		return "multiply"
	case Divide:
		return "divide"
	default:
		return "unknown"
	}
}

// Apply evaluates left <op> right with exact decimal arithmetic.
func (o Operation) Apply(left, right decimal.Decimal) (decimal.Decimal, error) {
	var (
		out decimal.Decimal
		err error
	)
	switch o {
	case Add:
		out, err = left.Add(right)
	case Subtract:
		out, err = left.Sub(right)
	case Multiply:
		out, err = left.Mul(right)
	case Divide:
		if right.IsZero() {
			return decimal.Decimal{}, ErrDivisionByZero
		}
		out, err = left.Quo(right)
	default:
		return decimal.Decimal{}, fmt.Errorf("unknown operation %d", o)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	return out.Trim(0), nil
}

// ActionKind discriminates Action values.
type ActionKind uint8

const (
	ActionDigit ActionKind = iota + 1
	ActionOperation
	ActionToggleSign
	ActionPercent
	ActionDecimalPoint
	ActionEquals
	ActionAllClear
	ActionClear
)

// Action is one discrete keypad input. Digit and Operation are only
// meaningful for their respective kinds.
type Action struct {
	Kind      ActionKind
	Digit     Digit
	Operation Operation
}

var (
	ToggleSign   = Action{Kind: ActionToggleSign}
	Percent      = Action{Kind: ActionPercent}
	DecimalPoint = Action{Kind: ActionDecimalPoint}
	Equals       = Action{Kind: ActionEquals}
	AllClear     = Action{Kind: ActionAllClear}
	Clear        = Action{Kind: ActionClear}
)

// DigitAction returns the action for pressing d.
func DigitAction(d Digit) Action { return Action{Kind: ActionDigit, Digit: d} }

// OperationAction returns the action for pressing op.
func OperationAction(op Operation) Action { return Action{Kind: ActionOperation, Operation: op} }

// String returns the keypad label of the action.
func (a Action) String() string {
	switch a.Kind {
	case ActionDigit:
		return a.Digit.String()
	case ActionOperation:
		return a.Operation.String()
	case ActionToggleSign:
		return "±"
	case ActionPercent:
		return "%"
	case ActionDecimalPoint:
		return "."
	case ActionEquals:
		return "="
	case ActionAllClear:
		return "AC"
	case ActionClear:
		return "C"
	default:
		return "?"
	}
}

// Evaluation is one evaluated expression. Err is set when the evaluation
// failed, in which case Result is zero.
type Evaluation struct {
	Left      decimal.Decimal
	Operation Operation
	Right     decimal.Decimal
	Result    decimal.Decimal
	Err       error
}

// ResultText is the result as recorded in history: the plain decimal or "Error".
func (e Evaluation) ResultText() string {
	if e.Err != nil {
		return ErrorText
	}
	return e.Result.Trim(0).String()
}

// String formats the evaluation as "<left> <op> <right> = <result>".
func (e Evaluation) String() string {
	return fmt.Sprintf("%s %s %s = %s", e.Left.Trim(0).String(), e.Operation, e.Right.Trim(0).String(), e.ResultText())
}
