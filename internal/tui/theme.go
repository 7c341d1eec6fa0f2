package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset the keypad uses.
const (
	colorMauve    lipgloss.Color = "#cba6f7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
	colorCrust    lipgloss.Color = "#11111b"
)

const (
	colorOperator = colorPeach
	colorFunction = colorSurface1
	colorDigit    = colorSurface0
	colorFocus    = colorLavender
	colorError    = colorRed
	colorSuccess  = colorGreen
)

var (
	displayStyle      = lipgloss.NewStyle().Foreground(colorText).Bold(true).Align(lipgloss.Right)
	displayErrorStyle = displayStyle.Foreground(colorError)
	historyStyle      = lipgloss.NewStyle().Foreground(colorOverlay0).Align(lipgloss.Right)
	statusStyle       = lipgloss.NewStyle().Foreground(colorSubtext0)
	savedStyle        = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle        = lipgloss.NewStyle().Foreground(colorError)
	titleStyle        = lipgloss.NewStyle().Foreground(colorMauve).Bold(true)
	tapeStyle         = lipgloss.NewStyle().Foreground(colorText)
	tapeFailedStyle   = lipgloss.NewStyle().Foreground(colorError)
	tapeMetaStyle     = lipgloss.NewStyle().Foreground(colorOverlay0)
	frameStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(0, 1)
	keyStyle          = lipgloss.NewStyle().Align(lipgloss.Center).Foreground(colorText).Background(colorDigit)
)

// keyCellStyle picks the cell style for a keypad key.
func keyCellStyle(kind keyKind, highlighted, focused bool) lipgloss.Style {
	s := keyStyle
	switch kind {
	case kindOperator:
		s = s.Background(colorOperator).Foreground(colorBase).Bold(true)
	case kindFunction:
		s = s.Background(colorFunction)
	}
	if highlighted {
		s = s.Background(colorText).Foreground(colorOperator)
	}
	if focused {
		s = s.Underline(true).Foreground(colorFocus)
		if kind == kindOperator && !highlighted {
			s = s.Foreground(colorCrust)
		}
	}
	return s
}
