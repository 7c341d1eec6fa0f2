package tui

import "calcpad/internal/engine"

type keyKind uint8

const (
	kindDigit keyKind = iota
	kindOperator
	kindFunction
)

// keypadKey is one cell of the keypad. Span is the number of columns it
// occupies.
type keypadKey struct {
	Label  string
	Action engine.Action
	Kind   keyKind
	Span   int
}

const keypadColumns = 4

func digitKey(d engine.Digit) keypadKey {
	return keypadKey{Label: d.String(), Action: engine.DigitAction(d), Kind: kindDigit, Span: 1}
}

func opKey(op engine.Operation) keypadKey {
	return keypadKey{Label: op.String(), Action: engine.OperationAction(op), Kind: kindOperator, Span: 1}
}

func fnKey(a engine.Action) keypadKey {
	return keypadKey{Label: a.String(), Action: a, Kind: kindFunction, Span: 1}
}

// clearKeyIndex locates the AC/C key, whose action follows the engine state.
var clearKeyIndex = [2]int{0, 0}

var keypadRows = [][]keypadKey{
	{fnKey(engine.AllClear), fnKey(engine.ToggleSign), fnKey(engine.Percent), opKey(engine.Divide)},
	{digitKey(7), digitKey(8), digitKey(9), opKey(engine.Multiply)},
	{digitKey(4), digitKey(5), digitKey(6), opKey(engine.Subtract)},
	{digitKey(1), digitKey(2), digitKey(3), opKey(engine.Add)},
	{{Label: "0", Action: engine.DigitAction(0), Kind: kindDigit, Span: 2}, fnKey(engine.DecimalPoint), {Label: "=", Action: engine.Equals, Kind: kindOperator, Span: 1}},
}

// resolveKey returns the key at (row, col) as it should currently act and
// read: the clear key becomes AC or C per the engine.
func resolveKey(c *engine.Calculator, row, col int) keypadKey {
	k := keypadRows[row][col]
	if row == clearKeyIndex[0] && col == clearKeyIndex[1] {
		if c.ShowAllClear() {
			k.Action, k.Label = engine.AllClear, engine.AllClear.String()
		} else {
			k.Action, k.Label = engine.Clear, engine.Clear.String()
		}
	}
	return k
}

// cursor is the focused keypad cell, addressed by row and key index.
type cursor struct {
	row, col int
}

// column returns the grid column the cursor's key starts at.
func (c cursor) column() int {
	n := 0
	for i := 0; i < c.col; i++ {
		n += keypadRows[c.row][i].Span
	}
	return n
}

// keyAtColumn returns the key index covering grid column x in row.
func keyAtColumn(row, x int) int {
	n := 0
	for i, k := range keypadRows[row] {
		if x < n+k.Span {
			return i
		}
		n += k.Span
	}
	return len(keypadRows[row]) - 1
}

func (c cursor) move(dRow, dCol int) cursor {
	if dRow != 0 {
		x := c.column()
		c.row = clamp(c.row+dRow, 0, len(keypadRows)-1)
		c.col = keyAtColumn(c.row, x)
	}
	if dCol != 0 {
		c.col = clamp(c.col+dCol, 0, len(keypadRows[c.row])-1)
	}
	return c
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
