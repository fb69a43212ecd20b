// Package wizard implements the guided project setup flow: a short
// terminal form that collects the site name, a plain-language description,
// a platform target, and a look, then previews the inferred plan before
// anything is written to disk. Esc steps back; the first step cancels.
package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sitenerd/internal/planner"
	"sitenerd/internal/project"
	"sitenerd/internal/scaffold"
)

// Step indexes the wizard's screens.
type Step int

const (
	StepName Step = iota
	StepRequirements
	StepTarget
	StepBranding
	StepReview
	StepDone
)

// Result is what the wizard collected. Confirmed is false when the user
// quit before the review step.
type Result struct {
	Name           string
	Requirements   string
	PlatformTarget string
	Plan           *project.Plan
	Confirmed      bool
}

var targets = []struct {
	name  string
	label string
}{
	{scaffold.TargetHTMLJS, "Static site (html/css/js)"},
	{scaffold.TargetDashboard, "Static site with an admin dashboard shell"},
	{scaffold.TargetHandoff, "Handoff package for an outside developer"},
}

// brandingOptions are the look choices offered on the branding step. The
// empty scheme keeps whatever the planner derived from the description.
var brandingOptions = []struct {
	scheme string
	label  string
}{
	{"", "Automatic (from the description)"},
	{"professional", "Professional (blue, Inter)"},
	{"vibrant", "Vibrant (red and amber, Poppins)"},
	{"minimal", "Minimal (slate, Inter)"},
}

const (
	namePlaceholder         = "Desk Lamp Store"
	requirementsPlaceholder = "online store selling handmade desk lamps, with a contact form"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).MarginBottom(1)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	itemStyle   = lipgloss.NewStyle().PaddingLeft(2)
)

// Model is the bubbletea model for the setup wizard.
type Model struct {
	step  Step
	input textinput.Model

	name          string
	requirements  string
	targetIndex   int
	brandingIndex int
	plan          *project.Plan

	confirmed bool
	err       string
}

// New returns the wizard at its first step.
func New() Model {
	ti := textinput.New()
	ti.Placeholder = namePlaceholder
	ti.CharLimit = 120
	ti.Width = 48
	ti.Focus()
	return Model{step: StepName, input: ti}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		// Esc steps back one screen; on the first screen there is nothing
		// behind it, so it cancels instead.
		if m.step == StepName {
			return m, tea.Quit
		}
		return m.back(), nil
	case tea.KeyEnter:
		return m.advance()
	case tea.KeyUp:
		switch m.step {
		case StepTarget:
			if m.targetIndex > 0 {
				m.targetIndex--
			}
		case StepBranding:
			if m.brandingIndex > 0 {
				m.brandingIndex--
			}
		}
		return m, nil
	case tea.KeyDown:
		switch m.step {
		case StepTarget:
			if m.targetIndex < len(targets)-1 {
				m.targetIndex++
			}
		case StepBranding:
			if m.brandingIndex < len(brandingOptions)-1 {
				m.brandingIndex++
			}
		}
		return m, nil
	}

	if m.step == StepName || m.step == StepRequirements {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) advance() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepName:
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.err = "the site needs a name"
			return m, nil
		}
		m.name = name
		m.err = ""
		// Restore any description drafted before stepping back here.
		m.input.SetValue(m.requirements)
		m.input.CursorEnd()
		m.input.Placeholder = requirementsPlaceholder
		m.step = StepRequirements
	case StepRequirements:
		req := strings.TrimSpace(m.input.Value())
		if req == "" {
			m.err = "describe the site in a sentence or two"
			return m, nil
		}
		m.requirements = req
		m.err = ""
		m.step = StepTarget
	case StepTarget:
		m.step = StepBranding
	case StepBranding:
		m.plan = planner.InferPlan(m.name, targets[m.targetIndex].name, m.requirements)
		if scheme := brandingOptions[m.brandingIndex].scheme; scheme != "" {
			if b, ok := planner.SchemeBranding(scheme, m.name); ok {
				m.plan.Branding = b
			}
		}
		m.step = StepReview
	case StepReview:
		m.confirmed = true
		m.step = StepDone
		return m, tea.Quit
	}
	return m, nil
}

// back returns to the previous step, restoring the text input for the
// steps that use it.
func (m Model) back() Model {
	m.err = ""
	switch m.step {
	case StepRequirements:
		m.requirements = m.input.Value()
		m.input.SetValue(m.name)
		m.input.CursorEnd()
		m.input.Placeholder = namePlaceholder
		m.step = StepName
	case StepTarget:
		m.input.SetValue(m.requirements)
		m.input.CursorEnd()
		m.input.Placeholder = requirementsPlaceholder
		m.step = StepRequirements
	case StepBranding:
		m.step = StepTarget
	case StepReview:
		m.step = StepBranding
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.step {
	case StepName:
		b.WriteString(titleStyle.Render("Step 1 of 5 - Name your site"))
		b.WriteString("\n" + m.input.View() + "\n")
	case StepRequirements:
		b.WriteString(titleStyle.Render("Step 2 of 5 - Describe it"))
		b.WriteString(hintStyle.Render("What is the site for? Mention a shop, blog, gallery, or contact form\nto enable those sections.") + "\n\n")
		b.WriteString(m.input.View() + "\n")
	case StepTarget:
		b.WriteString(titleStyle.Render("Step 3 of 5 - Choose an output"))
		for i, target := range targets {
			cursor := "  "
			line := itemStyle.Render(target.label)
			if i == m.targetIndex {
				cursor = cursorStyle.Render("> ")
				line = cursorStyle.Render(target.label)
			}
			b.WriteString(cursor + line + "\n")
		}
	case StepBranding:
		b.WriteString(titleStyle.Render("Step 4 of 5 - Pick a look"))
		for i, opt := range brandingOptions {
			cursor := "  "
			line := itemStyle.Render(opt.label)
			if i == m.brandingIndex {
				cursor = cursorStyle.Render("> ")
				line = cursorStyle.Render(opt.label)
			}
			b.WriteString(cursor + line + "\n")
		}
	case StepReview:
		b.WriteString(titleStyle.Render("Step 5 of 5 - Review the plan"))
		b.WriteString(fmt.Sprintf("%s (%s)\n", m.name, targets[m.targetIndex].name))
		b.WriteString(fmt.Sprintf("Look: %s, %s\n\nPages:\n", m.plan.Branding.PrimaryColor, m.plan.Branding.Font))
		for _, p := range m.plan.Pages {
			b.WriteString(fmt.Sprintf("  /%s  %s\n", p.Slug, p.Title))
		}
		b.WriteString("\n" + hintStyle.Render("enter to create the project, esc to go back, ctrl+c to cancel") + "\n")
	case StepDone:
		return ""
	}

	if m.err != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.err) + "\n")
	}
	switch m.step {
	case StepName:
		b.WriteString("\n" + hintStyle.Render("enter to continue, esc to cancel") + "\n")
	case StepRequirements:
		b.WriteString("\n" + hintStyle.Render("enter to continue, esc to go back") + "\n")
	case StepTarget, StepBranding:
		b.WriteString("\n" + hintStyle.Render("up/down to choose, enter to continue, esc to go back") + "\n")
	}
	return b.String()
}

// Result returns what the wizard collected.
func (m Model) Result() Result {
	return Result{
		Name:           m.name,
		Requirements:   m.requirements,
		PlatformTarget: targets[m.targetIndex].name,
		Plan:           m.plan,
		Confirmed:      m.confirmed,
	}
}
