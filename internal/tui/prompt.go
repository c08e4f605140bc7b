package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is what the user picked from the interactive menu.
type Action int

const (
	ActionQuit Action = iota
	ActionScan
	ActionAnalyze
	ActionDiscover
)

// Choice is the outcome of one menu round: an action and its target.
type Choice struct {
	Action Action
	Target string
}

type menuItem struct {
	label       string
	placeholder string
	action      Action
}

var menuItems = []menuItem{
	{"Scan a live target", "https://api.example.com", ActionScan},
	{"Analyze a spec URL or file", "./openapi.json", ActionAnalyze},
	{"Discover documentation endpoints", "https://api.example.com", ActionDiscover},
	{"Quit", "", ActionQuit},
}

// promptPhase tracks which half of the prompt is active.
type promptPhase int

const (
	phaseMenu promptPhase = iota
	phaseTarget
)

// promptModel is the Bubble Tea model for the action menu shown when
// apivet starts without arguments.
type promptModel struct {
	phase  promptPhase
	cursor int
	input  textinput.Model
	choice Choice
}

func newPrompt() promptModel {
	ti := textinput.New()
	ti.CharLimit = 256
	return promptModel{input: ti}
}

// Init implements tea.Model.
func (m promptModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.phase == phaseTarget {
		return m.handleTargetKey(keyMsg)
	}
	return m.handleMenuKey(keyMsg)
}

func (m promptModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuItems)-1 {
			m.cursor++
		}
	case "enter":
		item := menuItems[m.cursor]
		if item.action == ActionQuit {
			m.choice = Choice{Action: ActionQuit}
			return m, tea.Quit
		}
		m.phase = phaseTarget
		m.input.Placeholder = item.placeholder
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "q", "esc", "ctrl+c":
		m.choice = Choice{Action: ActionQuit}
		return m, tea.Quit
	}
	return m, nil
}

func (m promptModel) handleTargetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		target := strings.TrimSpace(m.input.Value())
		if target == "" {
			return m, nil
		}
		m.choice = Choice{Action: menuItems[m.cursor].action, Target: target}
		return m, tea.Quit
	case "esc":
		m.phase = phaseMenu
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		m.choice = Choice{Action: ActionQuit}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m promptModel) View() string {
	var b strings.Builder
	b.WriteString(styleMenuTitle.Render("apivet"))
	b.WriteString("  attack-surface triage\n\n")

	if m.phase == phaseTarget {
		b.WriteString(fmt.Sprintf("%s\n\n", menuItems[m.cursor].label))
		b.WriteString(styleSearchPrompt.Render("> "))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(styleMenuHint.Render("enter:run  esc:back"))
		b.WriteString("\n")
		return b.String()
	}

	for i, item := range menuItems {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, item.label))
	}
	b.WriteString("\n")
	b.WriteString(styleMenuHint.Render("enter:select  q:quit"))
	b.WriteString("\n")
	return b.String()
}

// PromptAction shows the action menu and returns the user's choice.
func PromptAction() (Choice, error) {
	p := tea.NewProgram(newPrompt())
	final, err := p.Run()
	if err != nil {
		return Choice{Action: ActionQuit}, err
	}
	m, ok := final.(promptModel)
	if !ok {
		return Choice{Action: ActionQuit}, nil
	}
	return m.choice, nil
}
