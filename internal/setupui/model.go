// Package setupui provides the Bubble Tea form where exam components are
// entered before presenting.
package setupui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/examclock/internal/model"
	"github.com/verte-zerg/examclock/internal/validate"
)

const (
	fieldQualification = iota
	fieldCode
	fieldTitle
	fieldCentre
	fieldStart
	fieldEnd
	fieldExtra
	fieldCount
)

var fieldPrompts = [fieldCount]string{
	"Qualification:     ",
	"Component code:    ",
	"Component title:   ",
	"Centre number:     ",
	"Start (HH:MM):     ",
	"End (HH:MM):       ",
	"Extra time (min):  ",
}

var fieldPlaceholders = [fieldCount]string{
	"GCSE",
	"J560/01",
	"Mathematics Paper 1",
	"12345",
	"09:00",
	"10:30",
	"0",
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAAD14"))
	formStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")).
			Padding(1, 2)
)

// SubmitMsg carries validated components out of the form.
type SubmitMsg struct {
	Components []model.Component
}

// Model implements the Bubble Tea setup form.
type Model struct {
	inputs [model.MaxComponents * fieldCount]textinput.Model
	count  int
	index  int

	errLines []string

	width  int
	height int
}

// NewModel constructs a form pre-filled with up to two components.
func NewModel(prefill []model.Component) *Model {
	m := &Model{count: 1}
	for i := range m.inputs {
		m.inputs[i] = newInput(i % fieldCount)
	}
	if len(prefill) > 1 {
		m.count = model.MaxComponents
	}
	for i, c := range prefill {
		if i >= model.MaxComponents {
			break
		}
		m.setComponent(i, c)
	}
	m.setIndex(0)
	return m
}

func newInput(field int) textinput.Model {
	input := textinput.New()
	input.Prompt = fieldPrompts[field]
	input.Placeholder = fieldPlaceholders[field]
	input.CharLimit = 80
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setComponent(i int, c model.Component) {
	base := i * fieldCount
	m.inputs[base+fieldQualification].SetValue(c.Qualification)
	m.inputs[base+fieldCode].SetValue(c.Code)
	m.inputs[base+fieldTitle].SetValue(c.Title)
	m.inputs[base+fieldCentre].SetValue(c.CentreNumber)
	m.inputs[base+fieldStart].SetValue(c.StartTime)
	m.inputs[base+fieldEnd].SetValue(c.EndTime)
	if c.ExtraTime != 0 {
		m.inputs[base+fieldExtra].SetValue(strconv.Itoa(c.ExtraTime))
	} else {
		m.inputs[base+fieldExtra].SetValue("")
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Focus re-focuses the active field, used when the form is shown again.
func (m *Model) Focus() tea.Cmd {
	return m.setIndex(m.index)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m, m.setIndex(m.index + 1)
		case "shift+tab", "up":
			return m, m.setIndex(m.index - 1)
		case "ctrl+d":
			return m, m.toggleDual()
		case "enter":
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.inputs[m.index], cmd = m.inputs[m.index].Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.inputs[m.index], cmd = m.inputs[m.index].Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := []string{titleStyle.Render("Exam Clock"), ""}
	for i := 0; i < m.count; i++ {
		if m.count > 1 {
			lines = append(lines, headerStyle.Render(fmt.Sprintf("Exam %d", i+1)))
		}
		for f := 0; f < fieldCount; f++ {
			lines = append(lines, m.inputs[i*fieldCount+f].View())
		}
		lines = append(lines, "")
	}
	comps, _ := m.values()
	for _, c := range comps {
		for _, w := range validate.Warnings(c) {
			lines = append(lines, warningStyle.Render("! "+w))
		}
	}
	for _, e := range m.errLines {
		lines = append(lines, errorStyle.Render(e))
	}
	lines = append(lines, helpStyle.Render(m.helpText()))
	form := formStyle.Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

func (m *Model) helpText() string {
	dual := "dual exam: ctrl+d"
	if m.count > 1 {
		dual = "single exam: ctrl+d"
	}
	return "tab/shift+tab: next field  enter: start  " + dual + "  quit: esc"
}

// Count returns the number of components being edited.
func (m *Model) Count() int {
	return m.count
}

// Errors returns the messages from the last rejected submission.
func (m *Model) Errors() []string {
	return append([]string(nil), m.errLines...)
}

// Components parses and validates the form values.
func (m *Model) Components() ([]model.Component, error) {
	comps, err := m.values()
	if err != nil {
		return nil, err
	}
	if err := validate.Components(comps); err != nil {
		return nil, err
	}
	return comps, nil
}

func (m *Model) values() ([]model.Component, error) {
	comps := make([]model.Component, m.count)
	parseErrs := validate.Errors{}
	for i := 0; i < m.count; i++ {
		base := i * fieldCount
		value := func(f int) string {
			return strings.TrimSpace(m.inputs[base+f].Value())
		}
		comps[i] = model.Component{
			Qualification: value(fieldQualification),
			Code:          value(fieldCode),
			Title:         value(fieldTitle),
			CentreNumber:  value(fieldCentre),
			StartTime:     value(fieldStart),
			EndTime:       value(fieldEnd),
		}
		if extra := value(fieldExtra); extra != "" {
			n, err := strconv.Atoi(extra)
			if err != nil {
				parseErrs[fmt.Sprintf("component[%d].extra", i)] = "extra must be a whole number of minutes"
				continue
			}
			comps[i].ExtraTime = n
		}
	}
	if len(parseErrs) > 0 {
		return comps, parseErrs
	}
	return comps, nil
}

func (m *Model) submit() tea.Cmd {
	comps, err := m.Components()
	if err != nil {
		m.errLines = errorLines(err)
		return nil
	}
	m.errLines = nil
	return func() tea.Msg {
		return SubmitMsg{Components: comps}
	}
}

func (m *Model) toggleDual() tea.Cmd {
	if m.count == 1 {
		m.count = model.MaxComponents
		second := fieldCount
		for _, f := range []int{fieldQualification, fieldCentre, fieldStart} {
			if m.inputs[second+f].Value() == "" {
				m.inputs[second+f].SetValue(m.inputs[f].Value())
			}
		}
		return m.setIndex(second)
	}
	m.count = 1
	m.errLines = nil
	if m.index >= fieldCount {
		return m.setIndex(0)
	}
	return m.setIndex(m.index)
}

func (m *Model) setIndex(idx int) tea.Cmd {
	visible := m.count * fieldCount
	if idx < 0 {
		idx = visible - 1
	}
	if idx >= visible {
		idx = 0
	}
	m.index = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.index {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) updateLayout() {
	for i := range m.inputs {
		promptWidth := lipgloss.Width(m.inputs[i].Prompt)
		m.inputs[i].Width = maxInt(10, minInt(48, m.width-promptWidth-8))
	}
}

// errorLines turns a validation error into "Exam N: message" lines.
func errorLines(err error) []string {
	var fields validate.Errors
	if !errors.As(err, &fields) {
		return []string{err.Error()}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		var idx int
		if _, scanErr := fmt.Sscanf(k, "component[%d]", &idx); scanErr == nil {
			lines = append(lines, fmt.Sprintf("Exam %d: %s", idx+1, fields[k]))
			continue
		}
		lines = append(lines, fields[k])
	}
	return lines
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
