package calculator

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"calcpad/internal/engine"
)

// actionNames maps the canonical names to their actions. Tokens are matched
// case-insensitively against these and against the keypad symbols.
var actionNames = map[string]engine.Action{
	"add":         engine.OperationAction(engine.Add),
	"subtract":    engine.OperationAction(engine.Subtract),
	"multiply":    engine.OperationAction(engine.Multiply),
	"divide":      engine.OperationAction(engine.Divide),
	"toggle_sign": engine.ToggleSign,
	"percent":     engine.Percent,
	"decimal":     engine.DecimalPoint,
	"equals":      engine.Equals,
	"all_clear":   engine.AllClear,
	"clear":       engine.Clear,
}

var actionSymbols = map[string]engine.Action{
	"+":   engine.OperationAction(engine.Add),
	"-":   engine.OperationAction(engine.Subtract),
	"−":   engine.OperationAction(engine.Subtract),
	"*":   engine.OperationAction(engine.Multiply),
	"×":   engine.OperationAction(engine.Multiply),
	"/":   engine.OperationAction(engine.Divide),
	"÷":   engine.OperationAction(engine.Divide),
	"±":   engine.ToggleSign,
	"neg": engine.ToggleSign,
	"%":   engine.Percent,
	".":   engine.DecimalPoint,
	"=":   engine.Equals,
	"ac":  engine.AllClear,
	"c":   engine.Clear,
}

// UnknownActionError reports a token that names no action.
type UnknownActionError struct {
	Token      string
	Suggestion string
}

func (e *UnknownActionError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("unknown action %q", e.Token)
	}
	return fmt.Sprintf("unknown action %q, did you mean %q?", e.Token, e.Suggestion)
}

// ParseAction converts one token to an engine action.
func ParseAction(token string) (engine.Action, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if len(t) == 1 && t[0] >= '0' && t[0] <= '9' {
		return engine.DigitAction(engine.Digit(t[0] - '0')), nil
	}
	if a, ok := actionSymbols[t]; ok {
		return a, nil
	}
	if a, ok := actionNames[t]; ok {
		return a, nil
	}
	return engine.Action{}, &UnknownActionError{Token: token, Suggestion: suggest(t)}
}

// ParseActions converts every token or reports the first it cannot.
func ParseActions(tokens []string) ([]engine.Action, error) {
	out := make([]engine.Action, 0, len(tokens))
	for i, tok := range tokens {
		a, err := ParseAction(tok)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// suggest returns the closest action name, or "" when nothing is close.
func suggest(token string) string {
	if token == "" {
		return ""
	}
	best, bestDist := "", -1
	for name := range actionNames {
		d := levenshtein.ComputeDistance(token, name)
		if bestDist < 0 || d < bestDist || (d == bestDist && name < best) {
			best, bestDist = name, d
		}
	}
	if bestDist > maxSuggestDistance(token) {
		return ""
	}
	return best
}

func maxSuggestDistance(token string) int {
	n := len([]rune(token)) / 2
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}

// ActionName is the canonical name of a, with every digit reported as
// "digit". It keeps metric attributes low-cardinality.
func ActionName(a engine.Action) string {
	switch a.Kind {
	case engine.ActionDigit:
		return "digit"
	case engine.ActionOperation:
		return a.Operation.Name()
	case engine.ActionToggleSign:
		return "toggle_sign"
	case engine.ActionPercent:
		return "percent"
	case engine.ActionDecimalPoint:
		return "decimal"
	case engine.ActionEquals:
		return "equals"
	case engine.ActionAllClear:
		return "all_clear"
	case engine.ActionClear:
		return "clear"
	default:
		return "unknown"
	}
}
