// Package cli provides styled terminal output and line prompts for the
// expensy commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	accent = lipgloss.Color("#5B8DEF")
	muted  = lipgloss.Color("#666666")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1D3"))
	promptStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingRight(2)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	mutedCell   = cellStyle.Foreground(muted)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	WalletIcon  = "💳"
	ChartIcon   = "📊"
)

func FormatSuccess(message string) string {
	return successStyle.Render(SuccessIcon + " " + message)
}

func FormatError(message string) string {
	return errorStyle.Render(ErrorIcon + " " + message)
}

func FormatWarning(message string) string {
	return warningStyle.Render(WarningIcon + " " + message)
}

func FormatInfo(message string) string {
	return infoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle prefixes title with the wallet icon.
func FormatTitle(title string) string {
	return titleStyle.Render(WalletIcon + " " + title)
}

func FormatPrompt(prompt string) string {
	return promptStyle.Render(prompt + " → ")
}

// RenderBox draws content in a rounded box under title.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.UnsetMargins().Render(title), content))
}

// RenderTable lays rows out under headers without outer borders.
func RenderTable(headers []string, rows [][]string) string {
	return RenderTableMuted(headers, rows, nil)
}

// RenderTableMuted is RenderTable with the rows for which dim reports true
// drawn in a muted color. Row indexes start at 0.
func RenderTableMuted(headers []string, rows [][]string, dim func(row int) bool) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case dim != nil && dim(row):
				return mutedCell
			default:
				return cellStyle
			}
		})
	return t.Render()
}
