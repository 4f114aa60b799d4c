package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyjira/lazyjira/internal/jira"
)

const (
	fieldProject = iota
	fieldType
	fieldSummary
	fieldDescription
	fieldCount
)

var fieldLabels = [fieldCount]string{"Project", "Type", "Summary", "Description"}

// createForm collects the fields for a new ticket.
type createForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newCreateForm(project string) *createForm {
	f := &createForm{}
	for i := range f.inputs {
		input := textinput.New()
		input.Prompt = ""
		if styles.FilterPlaceholder != nil {
			input.PlaceholderStyle = *styles.FilterPlaceholder
		}
		f.inputs[i] = input
	}
	f.inputs[fieldProject].SetValue(project)
	f.inputs[fieldProject].CharLimit = 20
	f.inputs[fieldType].SetValue("Task")
	f.inputs[fieldType].CharLimit = 40
	f.inputs[fieldSummary].Placeholder = "one-line summary"
	f.inputs[fieldSummary].CharLimit = 255
	f.inputs[fieldDescription].Placeholder = "optional description"
	f.inputs[fieldDescription].CharLimit = 2000
	f.focus = fieldSummary
	if project == "" {
		f.focus = fieldProject
	}
	return f
}

func (f *createForm) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f *createForm) focusNext() tea.Cmd {
	f.focus = (f.focus + 1) % fieldCount
	return f.focusCmd()
}

func (f *createForm) focusPrev() tea.Cmd {
	f.focus = (f.focus + fieldCount - 1) % fieldCount
	return f.focusCmd()
}

func (f *createForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// issueData validates the form and produces the create payload.
func (f *createForm) issueData() (jira.CreateIssueData, error) {
	project := strings.ToUpper(strings.TrimSpace(f.inputs[fieldProject].Value()))
	summary := strings.TrimSpace(f.inputs[fieldSummary].Value())
	issueType := strings.TrimSpace(f.inputs[fieldType].Value())
	if project == "" {
		return jira.CreateIssueData{}, fmt.Errorf("project is required")
	}
	if summary == "" {
		return jira.CreateIssueData{}, fmt.Errorf("summary is required")
	}
	if issueType == "" {
		issueType = "Task"
	}
	return jira.CreateIssueData{
		ProjectKey:  project,
		Type:        issueType,
		Summary:     summary,
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
	}, nil
}
