package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lazyjira/lazyjira/internal/jira"
)

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Loading           *lipgloss.Style
	Item              *lipgloss.Style
	SelectedItem      *lipgloss.Style
	IssueKey          *lipgloss.Style
	Error             *lipgloss.Style
	Info              *lipgloss.Style
	Header            *lipgloss.Style
	Footer            *lipgloss.Style
	Filter            *lipgloss.Style
	FilterPrompt      *lipgloss.Style
	FilterPlaceholder *lipgloss.Style
	DetailTitle       *lipgloss.Style
	DetailLabel       *lipgloss.Style
	DetailBody        *lipgloss.Style
	CommentAuthor     *lipgloss.Style
}

var defaultStyles = Styles{
	Loading: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true),
	),
	Item: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	SelectedItem: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true),
	),
	IssueKey: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Filter: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	FilterPrompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	FilterPlaceholder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	DetailTitle: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
	),
	DetailLabel: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	),
	DetailBody: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	CommentAuthor: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	),
}

var (
	statusToDo       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	statusDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	priorityLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priorityMedium   = lipgloss.NewStyle().Foreground(lipgloss.Color("249"))
	priorityHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	priorityCritical = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

// Status picks the style for a workflow status category.
func Status(category jira.StatusCategory) *lipgloss.Style {
	switch category {
	case jira.CategoryInProgress:
		return &statusInProgress
	case jira.CategoryDone:
		return &statusDone
	default:
		return &statusToDo
	}
}

// Priority picks the style for an issue priority.
func Priority(p jira.Priority) *lipgloss.Style {
	switch {
	case p >= jira.PriorityCritical:
		return &priorityCritical
	case p == jira.PriorityHigh:
		return &priorityHigh
	case p == jira.PriorityMedium:
		return &priorityMedium
	default:
		return &priorityLow
	}
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
