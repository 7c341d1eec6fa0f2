// Package tui is the terminal keypad for the calculator engine.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"calcpad/internal/database/repository"
	"calcpad/internal/engine"
)

const (
	keyWidth    = 6
	tapeEntries = 10
)

// Recorder persists evaluations.
type Recorder interface {
	Record(ctx context.Context, sessionID string, evals ...engine.Evaluation) error
}

// TapeReader lists persisted evaluations, newest first.
type TapeReader interface {
	Recent(ctx context.Context, sessionID string, limit int) ([]repository.TapeEntry, error)
}

// Options configures a Model. Recorder, Tape and SavePrefs are optional.
// SavePrefs persists the help toggle; Now dates the tape entries.
type Options struct {
	Ctx       context.Context
	SessionID string
	Recorder  Recorder
	Tape      TapeReader
	Logger    *zap.Logger
	ShowHelp  bool
	KeyGap    int
	SavePrefs func(showHelp bool) error
	Now       func() time.Time
}

// Model is the bubbletea model owning one engine.
type Model struct {
	opts     Options
	calc     engine.Calculator
	keys     *KeyRegistry
	help     help.Model
	showHelp bool
	cursor   cursor

	tapeOpen bool
	tape     []repository.TapeEntry
	status   string
	statusOK bool
}

// Message types.
type (
	recordedMsg struct {
		expression string
		err        error
	}
	tapeLoadedMsg struct {
		entries []repository.TapeEntry
		err     error
	}
	prefsSavedMsg struct{ err error }
)

func New(opts Options) Model {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.KeyGap < 0 {
		opts.KeyGap = 0
	}
	h := help.New()
	h.ShowAll = false
	return Model{
		opts:     opts,
		keys:     NewKeyRegistry(),
		help:     h,
		showHelp: opts.ShowHelp,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case recordedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("tape: %v", msg.err), false)
			m.opts.Logger.Warn("recording evaluation failed",
				zap.String("expression", msg.expression),
				zap.Error(msg.err),
			)
		}
		return m, nil
	case tapeLoadedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("tape: %v", msg.err), false)
			m.opts.Logger.Warn("loading tape failed", zap.Error(msg.err))
			return m, nil
		}
		m.tape = msg.entries
		return m, nil
	case prefsSavedMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("config: %v", msg.err), false)
			m.opts.Logger.Warn("saving preferences failed", zap.Error(msg.err))
			return m, nil
		}
		m.setStatus("preferences saved", true)
		return m, nil
	}
	return m, nil
}

func (m Model) scope() string {
	if m.tapeOpen {
		return scopeTape
	}
	return scopeKeypad
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyName := msg.String()
	b := m.keys.Lookup(keyName, m.scope())
	if b == nil {
		return m, nil
	}

	switch b.Action {
	case actionQuit:
		return m, tea.Quit
	case actionToggleHelp:
		m.showHelp = !m.showHelp
		return m, m.savePrefs()
	case actionToggleTape:
		if m.opts.Tape == nil {
			m.setStatus("tape is disabled", false)
			return m, nil
		}
		m.tapeOpen = true
		return m, m.loadTape()
	case actionClose:
		m.tapeOpen = false
		return m, nil
	case actionRefresh:
		return m, m.loadTape()
	case actionMove:
		switch normalizeKeyName(keyName) {
		case "up":
			m.cursor = m.cursor.move(-1, 0)
		case "down":
			m.cursor = m.cursor.move(1, 0)
		case "left":
			m.cursor = m.cursor.move(0, -1)
		case "right":
			m.cursor = m.cursor.move(0, 1)
		}
		return m, nil
	case actionPress:
		k := resolveKey(&m.calc, m.cursor.row, m.cursor.col)
		return m.press(k.Action)
	case actionDigit:
		r := []rune(keyName)
		return m.press(engine.DigitAction(engine.Digit(r[0] - '0')))
	}

	if a, ok := engineActions[b.Action]; ok {
		return m.press(a)
	}
	return m, nil
}

var engineActions = map[Action]engine.Action{
	actionAdd:        engine.OperationAction(engine.Add),
	actionSubtract:   engine.OperationAction(engine.Subtract),
	actionMultiply:   engine.OperationAction(engine.Multiply),
	actionDivide:     engine.OperationAction(engine.Divide),
	actionToggleSign: engine.ToggleSign,
	actionPercent:    engine.Percent,
	actionDecimal:    engine.DecimalPoint,
	actionEquals:     engine.Equals,
	actionClear:      engine.Clear,
	actionAllClear:   engine.AllClear,
}

// press forwards a to the engine and, when it produced an evaluation, returns
// a command writing it to the tape.
func (m Model) press(a engine.Action) (tea.Model, tea.Cmd) {
	before := m.calc.EvaluationCount()
	m.calc.Perform(a)
	m.status = ""
	if m.calc.EvaluationCount() == before {
		return m, nil
	}
	ev, _ := m.calc.LastEvaluation()
	m.opts.Logger.Debug("evaluated", zap.String("expression", ev.String()))
	return m, m.record(ev)
}

func (m Model) record(ev engine.Evaluation) tea.Cmd {
	if m.opts.Recorder == nil {
		return nil
	}
	rec, ctx, sid := m.opts.Recorder, m.opts.Ctx, m.opts.SessionID
	return func() tea.Msg {
		return recordedMsg{expression: ev.String(), err: rec.Record(ctx, sid, ev)}
	}
}

func (m Model) loadTape() tea.Cmd {
	tape, ctx := m.opts.Tape, m.opts.Ctx
	return func() tea.Msg {
		entries, err := tape.Recent(ctx, "", tapeEntries)
		return tapeLoadedMsg{entries: entries, err: err}
	}
}

func (m Model) savePrefs() tea.Cmd {
	if m.opts.SavePrefs == nil {
		return nil
	}
	save, show := m.opts.SavePrefs, m.showHelp
	return func() tea.Msg { return prefsSavedMsg{err: save(show)} }
}

func (m *Model) setStatus(s string, ok bool) {
	m.status, m.statusOK = s, ok
}

// Snapshot returns the engine's derived values.
func (m Model) Snapshot() engine.Snapshot { return m.calc.Snapshot() }

func (m Model) View() string {
	var body string
	if m.tapeOpen {
		body = m.tapeView()
	} else {
		body = m.keypadView()
	}

	parts := []string{frameStyle.Render(body)}
	if m.status != "" {
		style := errorStyle
		if m.statusOK {
			style = savedStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	if m.showHelp {
		parts = append(parts, m.help.ShortHelpView(m.keys.HelpBindings(m.scope())))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) padWidth() int {
	return keypadColumns*keyWidth + (keypadColumns-1)*m.opts.KeyGap
}

func (m Model) keypadView() string {
	width := m.padWidth()
	snap := m.calc.Snapshot()

	lines := make([]string, 0, engine.HistoryLimit+2+len(keypadRows))
	for i := 0; i < engine.HistoryLimit-len(snap.History); i++ {
		lines = append(lines, historyStyle.Width(width).Render(""))
	}
	for _, h := range snap.History {
		lines = append(lines, historyStyle.Width(width).Render(truncateLeft(h, width)))
	}

	display := displayStyle
	if snap.Err != nil {
		display = displayErrorStyle
	}
	lines = append(lines, display.Width(width).Render(truncateLeft(snap.Display, width)), "")

	gap := strings.Repeat(" ", m.opts.KeyGap)
	for r, row := range keypadRows {
		cells := make([]string, 0, len(row))
		for c := range row {
			k := resolveKey(&m.calc, r, c)
			w := k.Span*keyWidth + (k.Span-1)*m.opts.KeyGap
			highlighted := k.Action.Kind == engine.ActionOperation && m.calc.IsHighlighted(k.Action.Operation)
			focused := m.cursor == cursor{row: r, col: c}
			cells = append(cells, keyCellStyle(k.Kind, highlighted, focused).Width(w).Render(k.Label))
		}
		lines = append(lines, strings.Join(cells, gap))
	}
	return strings.Join(lines, "\n")
}

func (m Model) tapeView() string {
	lines := []string{titleStyle.Render("Tape")}
	if len(m.tape) == 0 {
		lines = append(lines, statusStyle.Render("no evaluations recorded yet"))
	}
	now := m.opts.Now()
	for _, e := range m.tape {
		style := tapeStyle
		if e.Failed {
			style = tapeFailedStyle
		}
		lines = append(lines, style.Render(e.Expression)+" "+tapeMetaStyle.Render(humanize.RelTime(e.CreatedAt, now, "ago", "from now")))
	}
	return strings.Join(lines, "\n")
}

// truncateLeft keeps the rightmost width cells of s, marking the cut.
func truncateLeft(s string, width int) string {
	r := []rune(s)
	if len(r) <= width || width < 2 {
		return s
	}
	return "…" + string(r[len(r)-width+1:])
}
