package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Action names what a key does in the keypad UI.
type Action string

type Binding struct {
	Action Action
	Keys   []string
	Help   string
	Scopes []string
}

// KeyRegistry resolves key names to bindings per scope, falling back to the
// global scope.
type KeyRegistry struct {
	bindingsByScope map[string][]*Binding
	indexByScope    map[string]map[string]*Binding
}

const (
	scopeGlobal = "global"
	scopeKeypad = "keypad"
	scopeTape   = "tape"
)

const (
	actionQuit       Action = "quit"
	actionToggleHelp Action = "toggle_help"
	actionToggleTape Action = "toggle_tape"
	actionMove       Action = "move"
	actionPress      Action = "press"
	actionDigit      Action = "digit"
	actionAdd        Action = "add"
	actionSubtract   Action = "subtract"
	actionMultiply   Action = "multiply"
	actionDivide     Action = "divide"
	actionToggleSign Action = "toggle_sign"
	actionPercent    Action = "percent"
	actionDecimal    Action = "decimal"
	actionEquals     Action = "equals"
	actionClear      Action = "clear"
	actionAllClear   Action = "all_clear"
	actionClose      Action = "close"
	actionRefresh    Action = "refresh"
)

func NewKeyRegistry() *KeyRegistry {
	r := &KeyRegistry{
		bindingsByScope: make(map[string][]*Binding),
		indexByScope:    make(map[string]map[string]*Binding),
	}

	reg := func(scope string, action Action, keys []string, help string) {
		r.Register(Binding{Action: action, Keys: keys, Help: help, Scopes: []string{scope}})
	}

	reg(scopeGlobal, actionQuit, []string{"q", "ctrl+c"}, "quit")
	reg(scopeGlobal, actionToggleHelp, []string{"?"}, "help")
	reg(scopeGlobal, actionToggleTape, []string{"t"}, "tape")

	// Help shows the first key of each binding, so the keypad lists the
	// grouped form first and the real key names after it.
	reg(scopeKeypad, actionDigit, []string{"0-9", "0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, "digit")
	reg(scopeKeypad, actionAdd, []string{"+"}, "add")
	reg(scopeKeypad, actionSubtract, []string{"-"}, "subtract")
	reg(scopeKeypad, actionMultiply, []string{"*", "x"}, "multiply")
	reg(scopeKeypad, actionDivide, []string{"/"}, "divide")
	reg(scopeKeypad, actionToggleSign, []string{"n", "_"}, "±")
	reg(scopeKeypad, actionPercent, []string{"%"}, "percent")
	reg(scopeKeypad, actionDecimal, []string{".", ","}, "point")
	reg(scopeKeypad, actionEquals, []string{"="}, "equals")
	reg(scopeKeypad, actionClear, []string{"backspace", "delete"}, "clear")
	reg(scopeKeypad, actionAllClear, []string{"esc"}, "all clear")
	reg(scopeKeypad, actionMove, []string{"arrows", "up", "down", "left", "right"}, "move")
	reg(scopeKeypad, actionPress, []string{"enter", "space"}, "press")

	reg(scopeTape, actionRefresh, []string{"r"}, "refresh")
	reg(scopeTape, actionClose, []string{"esc", "t"}, "close")

	return r
}

func (r *KeyRegistry) Register(b Binding) {
	if r == nil {
		return
	}
	for _, scope := range b.Scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" || len(b.Keys) == 0 {
			continue
		}
		if _, ok := r.indexByScope[scope]; !ok {
			r.indexByScope[scope] = make(map[string]*Binding)
		}
		normKeys := normalizeKeyList(b.Keys)
		if len(normKeys) == 0 {
			continue
		}
		if r.scopeHasAnyKey(scope, normKeys) {
			continue
		}

		copyBinding := b
		copyBinding.Keys = normKeys
		copyBinding.Scopes = []string{scope}
		r.bindingsByScope[scope] = append(r.bindingsByScope[scope], &copyBinding)
		for _, k := range copyBinding.Keys {
			r.indexByScope[scope][k] = &copyBinding
		}
	}
}

func (r *KeyRegistry) BindingsForScope(scope string) []Binding {
	if r == nil {
		return nil
	}
	items := r.bindingsByScope[scope]
	out := make([]Binding, 0, len(items))
	for _, b := range items {
		out = append(out, *b)
	}
	return out
}

func (r *KeyRegistry) Lookup(keyName, scope string) *Binding {
	if r == nil || keyName == "" {
		return nil
	}
	keyName = normalizeKeyName(keyName)
	if b := r.lookupInScope(keyName, scope); b != nil {
		return b
	}
	if scope != scopeGlobal {
		return r.lookupInScope(keyName, scopeGlobal)
	}
	return nil
}

// HelpBindings returns the scope's bindings followed by the global ones.
func (r *KeyRegistry) HelpBindings(scope string) []key.Binding {
	items := r.BindingsForScope(scope)
	if scope != scopeGlobal {
		items = append(items, r.BindingsForScope(scopeGlobal)...)
	}
	out := make([]key.Binding, 0, len(items))
	for _, b := range items {
		out = append(out, key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Help)))
	}
	return out
}

func (r *KeyRegistry) lookupInScope(keyName, scope string) *Binding {
	lookup, ok := r.indexByScope[scope]
	if !ok {
		return nil
	}
	return lookup[keyName]
}

func (r *KeyRegistry) scopeHasAnyKey(scope string, keys []string) bool {
	lookup := r.indexByScope[scope]
	for _, k := range keys {
		if _, exists := lookup[k]; exists {
			return true
		}
	}
	return false
}

func normalizeKeyList(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool)
	for _, k := range keys {
		n := normalizeKeyName(k)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeKeyName(k string) string {
	if k == " " {
		return "space"
	}
	s := strings.ToLower(strings.TrimSpace(k))
	s = strings.ReplaceAll(s, "control+", "ctrl+")
	s = strings.ReplaceAll(s, "return", "enter")
	return s
}
