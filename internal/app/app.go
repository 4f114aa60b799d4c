package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyjira/lazyjira/internal/jira"
	"github.com/lazyjira/lazyjira/internal/logging/events"
	"github.com/lazyjira/lazyjira/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	Instance string
	Username string
	Token    string
	Project  string
	JQL      string
	PageSize int
	Verbose  bool
}

// DefaultJQL builds the issue-list query when none is configured:
// the project's open issues, or the current user's work when no
// project is set either. Both stay bounded with an ORDER BY clause.
func (c Config) DefaultJQL() string {
	if c.JQL != "" {
		return c.JQL
	}
	if c.Project != "" {
		return fmt.Sprintf("project = %s AND statusCategory != Done ORDER BY updated DESC", c.Project)
	}
	return "assignee = currentUser() AND statusCategory != Done ORDER BY updated DESC"
}

const connectTimeout = 45 * time.Second

// Run verifies connectivity and executes the Bubble Tea program.
func Run(cfg Config) error {
	client, err := jira.NewClient(cfg.Instance, cfg.Username, cfg.Token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	status, err := jira.TestConnection(ctx, client)
	cancel()
	if err != nil {
		events.App.ConnectFailed(status.String())
		return fmt.Errorf("connecting to %s: %w", cfg.Instance, err)
	}
	events.App.Connected(cfg.Instance)

	model := ui.NewModel(client, ui.Options{
		Instance: cfg.Instance,
		Project:  cfg.Project,
		JQL:      cfg.DefaultJQL(),
		PageSize: cfg.PageSize,
		Verbose:  cfg.Verbose,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
