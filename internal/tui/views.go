package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// View renders the UI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderTitle(),
		m.renderBadges(),
		m.theme.RoundedBox.Render(m.table.View()),
		m.renderStatus(),
	}
	if m.mode != inputNone {
		sections = append(sections, m.input.View())
	}
	sections = append(sections, m.help.View(m.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	count := humanize.Comma(int64(m.page.TotalRows))
	return m.theme.Title.Render("💳 Transactions") + "  " +
		m.theme.Subtitle.Render(count+" matching")
}

func (m *Model) renderBadges() string {
	badges := m.sync.Badges()
	if len(badges) == 0 {
		return m.theme.Subtitle.Render("No filters")
	}

	rendered := make([]string, len(badges))
	for i, b := range badges {
		style := m.theme.Badge
		if i == m.badge {
			style = m.theme.BadgeFocused
		}
		rendered[i] = style.Render(b.String())
	}
	return strings.Join(rendered, " ")
}

func (m *Model) renderStatus() string {
	parts := []string{
		m.theme.Normal.Render(fmt.Sprintf("Page %d of %d", m.sync.View().Page, max(m.page.TotalPages, 1))),
	}
	if n := m.page.Pending(); n > 0 && len(m.page.Rows) > 0 {
		parts = append(parts, m.theme.StatusPending.Render(fmt.Sprintf("%d rows pending", n)))
	}
	if m.loading {
		parts = append(parts, m.theme.StatusInfo.Render("Loading…"))
	}
	if m.err != nil {
		parts = append(parts, m.theme.StatusError.Render(m.err.Error()))
	}
	return strings.Join(parts, "  ")
}
