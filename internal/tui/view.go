package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"rigctl/internal/scenario"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	paneStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	paneTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	passedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return mutedStyle.Render("Initializing... (waiting for window size)")
	}

	contentWidth := m.width - paneStyle.GetHorizontalFrameSize()
	if contentWidth < 20 {
		contentWidth = 20
	}

	header := m.renderHeader()
	progress := m.renderProgressPane(contentWidth)
	components := m.renderComponentPane(contentWidth)
	logPane := m.renderLogPane()
	help := helpStyle.Render("q quit · y copy summary · ↑/↓ scroll log")

	sections := []string{header, progress, components, logPane, help}
	if m.statusMessage != "" && time.Now().Before(m.statusUntil) {
		sections = append(sections, statusStyle.Render(m.statusMessage))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	if m.suiteResult != nil {
		r := m.suiteResult
		verdict := passedStyle.Render("PASSED")
		if r.FailedScenarios > 0 || r.ErrorScenarios > 0 {
			verdict = failedStyle.Render("FAILED")
		}
		return titleStyle.Render("rigctl") + "  run finished: " + verdict +
			mutedStyle.Render(fmt.Sprintf("  (%d/%d passed, %s)",
				r.PassedScenarios, r.TotalScenarios, r.Duration.Round(time.Millisecond)))
	}
	if m.currentName == "" {
		return titleStyle.Render("rigctl") + "  " + m.spinner.View() + mutedStyle.Render("waiting for scenarios")
	}
	line := titleStyle.Render("rigctl") + "  " + m.spinner.View() + "running " + titleStyle.Render(m.currentName)
	if m.currentDesc != "" {
		line += mutedStyle.Render("  " + m.currentDesc)
	}
	return line
}

func (m Model) renderProgressPane(width int) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Steps"))
	b.WriteString("\n")
	if len(m.stepResults) == 0 {
		b.WriteString(mutedStyle.Render("no steps completed yet"))
	}
	for i, sr := range m.stepResults {
		mark := passedStyle.Render("✓")
		if sr.Result != scenario.ResultPassed {
			mark = failedStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %s (%s)", mark, sr.Step.Name, sr.Duration.Round(time.Millisecond))
		if sr.Error != "" {
			line += " " + failedStyle.Render(sr.Error)
		}
		b.WriteString(truncateLine(line, width))
		if i < len(m.stepResults)-1 {
			b.WriteString("\n")
		}
	}
	return paneStyle.Width(width).Render(b.String())
}

func (m Model) renderComponentPane(width int) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render(fmt.Sprintf("Components (%d)", len(m.components))))
	b.WriteString("\n")
	rows := m.sortedComponents()
	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("registry is empty"))
	}
	for i, row := range rows {
		line := fmt.Sprintf("%s  %s  %s", row.kind, mutedStyle.Render(row.id), formatProperties(row.properties))
		b.WriteString(truncateLine(line, width))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return paneStyle.Width(width).Render(b.String())
}

func (m Model) renderLogPane() string {
	title := paneTitleStyle.Render("Activity Log")
	return title + "\n" + m.logViewport.View()
}

// resizeViewport recomputes the log viewport dimensions after a window
// size change. The fixed panes consume rough, stable heights so the log
// gets whatever remains.
func (m *Model) resizeViewport() {
	logHeight := m.height - 18
	if logHeight < 3 {
		logHeight = 3
	}
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	m.logViewport.Width = width
	m.logViewport.Height = logHeight
	m.logDirty = true
	m.refreshViewport()
}

// refreshViewport repaints the log viewport content, keeping the view
// pinned to the newest entries unless the user scrolled up.
func (m *Model) refreshViewport() {
	if !m.logDirty {
		return
	}
	wasAtBottom := m.logViewport.AtBottom()
	lines := make([]string, len(m.activityLog))
	for i, raw := range m.activityLog {
		lines[i] = truncateLine(raw, m.logViewport.Width)
	}
	m.logViewport.SetContent(strings.Join(lines, "\n"))
	if wasAtBottom {
		m.logViewport.GotoBottom()
	}
	m.logDirty = false
}

// truncateLine keeps a line within the given display width, accounting
// for wide runes.
func truncateLine(line string, maxWidth int) string {
	if maxWidth <= 1 {
		return line
	}
	if runewidth.StringWidth(line) <= maxWidth {
		return line
	}
	return runewidth.Truncate(line, maxWidth-1, "") + "…"
}

// formatProperties renders a property map as stable "k=v" pairs.
func formatProperties(properties map[string]string) string {
	if len(properties) == 0 {
		return ""
	}
	keys := make([]string, 0, len(properties))
	for k := range properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + properties[k]
	}
	return mutedStyle.Render(strings.Join(pairs, " "))
}
