package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/examclock/internal/timing"
)

const (
	defaultWidth = 80
	maxCardWidth = 64
	minCardWidth = 28
	cardGap      = 4
)

const accentColor = lipgloss.Color("#C89A3A")

var (
	cardStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	sectionStyle    = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	countdownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	clockStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	notStartedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	runningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	finishedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
)

func statusStyle(s timing.Status) lipgloss.Style {
	switch s {
	case timing.Running:
		return runningStyle
	case timing.Finished:
		return finishedStyle
	default:
		return notStartedStyle
	}
}

func statusLabel(s timing.Status) string {
	return strings.ToUpper(s.String())
}

func (m *Model) viewWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

// cardWidth picks the outer card width and whether cards sit side by side.
func (m *Model) cardWidth() (width int, sideBySide bool) {
	avail := m.viewWidth() - 2
	if len(m.components) > 1 {
		each := (avail - cardGap) / 2
		if each >= minCardWidth {
			return minInt(each, maxCardWidth), true
		}
	}
	return clampInt(avail, minCardWidth, maxCardWidth), false
}

func (m *Model) renderFull() string {
	width, sideBySide := m.cardWidth()
	cards := make([]string, len(m.components))
	for i := range m.components {
		cards[i] = m.renderCard(i, width)
	}
	var body string
	if sideBySide {
		gap := strings.Repeat(" ", cardGap)
		body = lipgloss.JoinHorizontal(lipgloss.Top, cards[0], gap, cards[1])
	} else {
		body = lipgloss.JoinVertical(lipgloss.Center, cards...)
	}

	sections := []string{}
	if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	sections = append(sections, body, "", m.renderClock(lipgloss.Height(body)), m.renderHelp())
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderCard(i, width int) string {
	c := m.components[i]
	d := m.derived[i]
	inner := width - 4

	lines := []string{sectionStyle.Render("Component Details")}
	lines = append(lines, field("Component Title", c.Title, inner)...)
	lines = append(lines, field("Qualification", c.Qualification, inner)...)
	lines = append(lines, field("Component Code", c.Code, inner)...)
	lines = append(lines, field("Centre Number", c.CentreNumber, inner)...)
	lines = append(lines, "", sectionStyle.Render("Exam Timings"))
	lines = append(lines, field("Start Time", timing.FormatHM(d.Start), inner)...)
	lines = append(lines, field("Finish Time", timing.FormatHM(d.BaseEnd), inner)...)
	if m.timings[i].ExtraMinutes() > 0 {
		extra := fmt.Sprintf("%s (+%d min)", timing.FormatHM(d.End), m.timings[i].ExtraMinutes())
		lines = append(lines, field("Extra Time", extra, inner)...)
	}
	lines = append(lines, "",
		statusStyle(d.Status).Render(statusLabel(d.Status)),
		labelStyle.Render("Remaining ")+countdownStyle.Render(d.RemainingString()),
	)
	if m.cfg.ShowProgress {
		lines = append(lines, m.renderBar(d, inner))
	}
	return cardStyle.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func field(label, value string, width int) []string {
	out := []string{labelStyle.Render(label)}
	for _, line := range wrapText(value, width) {
		out = append(out, valueStyle.Render(line))
	}
	return out
}

func (m *Model) renderBar(d timing.Derived, width int) string {
	pct := fmt.Sprintf(" %3.0f%%", d.Progress)
	bar := m.bar
	bar.Width = maxInt(1, width-lipgloss.Width(pct))
	return bar.ViewAs(d.Progress/100) + labelStyle.Render(pct)
}

// renderClock shows the wall clock in block digits when there is room
// under the cards, and as a single line otherwise.
func (m *Model) renderClock(bodyHeight int) string {
	text := timing.FormatClock(m.now)
	fits := m.height == 0 || m.height-bodyHeight >= glyphHeight+4
	if m.cfg.BigClock && fits && bigTextWidth(text) <= m.viewWidth() {
		return clockStyle.Render(bigText(text))
	}
	return clockStyle.Bold(true).Render(text)
}

func (m *Model) renderHelp() string {
	return footerStyle.Render(m.help.ShortHelpView([]key.Binding{m.keys.Exit, m.keys.Quit}))
}

func (m *Model) renderCompact() string {
	lines := []string{}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	barWidth := clampInt(m.viewWidth()/4, 10, 40)
	for i, c := range m.components {
		d := m.derived[i]
		line := fmt.Sprintf("%s  %s  %s  %s",
			valueStyle.Render(c.Label()),
			labelStyle.Render(fmt.Sprintf("%s-%s", timing.FormatHM(d.Start), timing.FormatHM(d.End))),
			statusStyle(d.Status).Render(fmt.Sprintf("%-11s", statusLabel(d.Status))),
			countdownStyle.Render(d.RemainingString()),
		)
		if m.cfg.ShowProgress {
			line += "  " + m.renderBar(d, barWidth)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", clockStyle.Bold(true).Render(timing.FormatClock(m.now)), m.renderHelp())
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
