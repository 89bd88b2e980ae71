package render

import "github.com/charmbracelet/lipgloss"

// Styles groups the terminal styles used for CLI output. The zero
// value renders plain text.
type Styles struct {
	Value  lipgloss.Style
	Kind   lipgloss.Style
	Error  lipgloss.Style
	Frame  lipgloss.Style
	Dim    lipgloss.Style
	Prompt lipgloss.Style
}

var (
	colorValue  = lipgloss.AdaptiveColor{Light: "#1f6f3f", Dark: "#7ee787"}
	colorKind   = lipgloss.AdaptiveColor{Light: "#5b3cc4", Dark: "#b392f0"}
	colorError  = lipgloss.AdaptiveColor{Light: "#b3261e", Dark: "#ff7b72"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#6e7781", Dark: "#8b949e"}
	colorPrompt = lipgloss.AdaptiveColor{Light: "#0550ae", Dark: "#79c0ff"}
)

func NewStyles(color bool) Styles {
	if !color {
		return Styles{}
	}
	return Styles{
		Value:  lipgloss.NewStyle().Foreground(colorValue),
		Kind:   lipgloss.NewStyle().Foreground(colorKind).Bold(true),
		Error:  lipgloss.NewStyle().Foreground(colorError),
		Frame:  lipgloss.NewStyle().Foreground(colorDim).PaddingLeft(2),
		Dim:    lipgloss.NewStyle().Foreground(colorDim),
		Prompt: lipgloss.NewStyle().Foreground(colorPrompt).Bold(true),
	}
}
