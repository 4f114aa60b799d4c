package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyjira/lazyjira/internal/jira"
	"github.com/lazyjira/lazyjira/internal/logging"
	"github.com/lazyjira/lazyjira/internal/logging/events"
)

// loadIssuesCmd fetches the first page for the given query.
func (m *Model) loadIssuesCmd(jql string) tea.Cmd {
	pageSize := m.opts.PageSize
	return func() tea.Msg {
		result, err := m.svc.Search(context.Background(), jql, 0, pageSize)
		if err != nil {
			logging.Error(err)
		}
		return issuesLoadedMsg{jql: jql, result: result, err: err}
	}
}

// loadPageCmd fetches the next page of the current query.
func (m *Model) loadPageCmd(jql string, startAt int) tea.Cmd {
	pageSize := m.opts.PageSize
	return func() tea.Msg {
		result, err := m.svc.Search(context.Background(), jql, startAt, pageSize)
		if err != nil {
			logging.Error(err)
		}
		return pageLoadedMsg{jql: jql, result: result, err: err}
	}
}

// openDetailCmd fetches the issue and its comments concurrently and
// joins both before delivering a single message. Neither failure
// blocks the view: a failed issue fetch degrades to the fallback row
// already on screen, and a failed comment fetch leaves the feed empty.
func (m *Model) openDetailCmd(fallback jira.Issue) tea.Cmd {
	key := fallback.Key
	return func() tea.Msg {
		var (
			wg          sync.WaitGroup
			issue       jira.Issue
			issueErr    error
			comments    []jira.Comment
			commentsErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			issue, issueErr = m.svc.GetIssue(context.Background(), key)
		}()
		go func() {
			defer wg.Done()
			comments, commentsErr = m.svc.ListComments(context.Background(), key)
		}()
		wg.Wait()

		if issueErr != nil {
			logging.Error(issueErr)
			issue = fallback
		}
		if commentsErr != nil {
			logging.Error(commentsErr)
		}
		return detailLoadedMsg{key: key, issue: issue, comments: comments, commentsErr: commentsErr, issueErr: issueErr}
	}
}

func (m *Model) loadTransitionsCmd(key string) tea.Cmd {
	return func() tea.Msg {
		transitions, err := m.svc.ListTransitions(context.Background(), key)
		if err != nil {
			logging.Error(err)
		}
		return transitionsLoadedMsg{key: key, transitions: transitions, err: err}
	}
}

// executeTransitionCmd runs the transition and refetches the issue so
// the list and detail reflect the server's resulting state.
func (m *Model) executeTransitionCmd(key string, t jira.Transition) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.ExecuteTransition(context.Background(), key, t.ID, ""); err != nil {
			logging.Error(err)
			return transitionDoneMsg{key: key, name: t.Name, err: err}
		}
		issue, err := m.svc.GetIssue(context.Background(), key)
		if err != nil {
			logging.Error(err)
			return transitionDoneMsg{key: key, name: t.Name, err: err}
		}
		return transitionDoneMsg{key: key, name: t.Name, issue: issue}
	}
}

// quickTransitionCmd lists the available transitions, picks the first
// one matching target and executes it in one step. The edge set is
// server-owned, so the lookup happens fresh every time.
func (m *Model) quickTransitionCmd(key, target string) tea.Cmd {
	return func() tea.Msg {
		transitions, err := m.svc.ListTransitions(context.Background(), key)
		if err != nil {
			logging.Error(err)
			return transitionDoneMsg{key: key, err: err}
		}
		picked, ok := matchTransition(transitions, target)
		if !ok {
			err := fmt.Errorf("no transition towards %q available for %s", target, key)
			logging.Error(err)
			return transitionDoneMsg{key: key, err: err}
		}
		if err := m.svc.ExecuteTransition(context.Background(), key, picked.ID, ""); err != nil {
			logging.Error(err)
			return transitionDoneMsg{key: key, name: picked.Name, err: err}
		}
		issue, err := m.svc.GetIssue(context.Background(), key)
		if err != nil {
			logging.Error(err)
			return transitionDoneMsg{key: key, name: picked.Name, err: err}
		}
		return transitionDoneMsg{key: key, name: picked.Name, issue: issue}
	}
}

// matchTransition finds the first transition whose target status or
// name contains target, case-insensitively.
func matchTransition(transitions []jira.Transition, target string) (jira.Transition, bool) {
	lower := strings.ToLower(target)
	for _, t := range transitions {
		if strings.Contains(strings.ToLower(t.ToStatus), lower) {
			return t, true
		}
	}
	for _, t := range transitions {
		if strings.Contains(strings.ToLower(t.Name), lower) {
			return t, true
		}
	}
	return jira.Transition{}, false
}

// addCommentCmd posts the comment and refetches the feed.
func (m *Model) addCommentCmd(key, text string) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.AddComment(context.Background(), key, text); err != nil {
			logging.Error(err)
			return commentAddedMsg{key: key, err: err}
		}
		comments, err := m.svc.ListComments(context.Background(), key)
		if err != nil {
			logging.Error(err)
			return commentAddedMsg{key: key, err: err}
		}
		return commentAddedMsg{key: key, comments: comments}
	}
}

func (m *Model) createIssueCmd(data jira.CreateIssueData) tea.Cmd {
	return func() tea.Msg {
		issue, err := m.svc.CreateIssue(context.Background(), data)
		if err != nil {
			logging.Error(err)
		}
		return issueCreatedMsg{issue: issue, err: err}
	}
}

// yankCmd copies the issue's browse URL to the system clipboard.
func (m *Model) yankCmd(key string) tea.Cmd {
	instance := m.opts.Instance
	return func() tea.Msg {
		url := fmt.Sprintf("https://%s/browse/%s", instance, key)
		if err := clipboard.WriteAll(url); err != nil {
			logging.Error(err)
			return yankDoneMsg{key: key, url: url, err: err}
		}
		return yankDoneMsg{key: key, url: url}
	}
}

func (m *Model) handleIssuesLoadedMsg(msg tea.Msg) tea.Cmd {
	loaded, ok := msg.(issuesLoadedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	if loaded.err != nil {
		m.setError(loaded.err)
		return nil
	}
	m.clearMessages()
	m.list.UpdateIssues(loaded.result.Issues)
	m.list.Total = loaded.result.Total
	m.list.EnsureCursorVisible(m.listBodyHeight())
	events.UI.Refresh(loaded.jql)
	return nil
}

func (m *Model) handlePageLoadedMsg(msg tea.Msg) tea.Cmd {
	loaded, ok := msg.(pageLoadedMsg)
	if !ok {
		return nil
	}
	m.loadingPage = false
	if loaded.err != nil {
		m.setError(loaded.err)
		return nil
	}
	m.list.Total = loaded.result.Total
	m.list.AppendPage(loaded.result.Issues)
	m.list.EnsureCursorVisible(m.listBodyHeight())
	return nil
}

func (m *Model) handleDetailLoadedMsg(msg tea.Msg) tea.Cmd {
	loaded, ok := msg.(detailLoadedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.clearMessages()
	m.detail = &detail{issue: loaded.issue, comments: loaded.comments}
	if loaded.commentsErr != nil {
		m.detail.commentsErr = loaded.commentsErr.Error()
	}
	if loaded.issueErr != nil {
		m.setError(loaded.issueErr)
	} else {
		m.list.ReplaceIssue(loaded.issue)
	}
	m.setMode(ModeDetail)
	m.detailView.Width = m.width
	m.detailView.Height = m.detailBodyHeight()
	m.detailView.SetContent(m.renderDetailBody())
	m.detailView.GotoTop()
	events.UI.Select(loaded.key)
	return nil
}

func (m *Model) handleTransitionsLoadedMsg(msg tea.Msg) tea.Cmd {
	loaded, ok := msg.(transitionsLoadedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	if loaded.err != nil {
		m.setError(loaded.err)
		return nil
	}
	if len(loaded.transitions) == 0 {
		m.setError(fmt.Errorf("no transitions available for %s", loaded.key))
		return nil
	}
	m.clearMessages()
	m.transitions = loaded.transitions
	m.transitionCursor = 0
	m.setMode(ModeTransitions)
	return nil
}

func (m *Model) handleTransitionDoneMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(transitionDoneMsg)
	if !ok {
		return nil
	}
	m.loading = false
	if done.err != nil {
		// A failure leaves the picker exactly as it was, so the user
		// can retry another transition or back out.
		m.setError(done.err)
		return nil
	}
	m.list.ReplaceIssue(done.issue)
	if m.detail != nil && m.detail.issue.Key == done.issue.Key {
		m.detail.issue = done.issue
		m.detailView.SetContent(m.renderDetailBody())
	}
	if m.mode == ModeTransitions {
		m.transitions = nil
		m.transitionCursor = 0
		m.setMode(m.returnMode())
	}
	m.setInfo(fmt.Sprintf("%s: %s", done.key, done.name))
	events.UI.Transition(done.key, done.issue.Status.Name, done.name)
	// The moved issue may no longer match the active query, so the
	// whole list is reloaded rather than just patched.
	m.loading = true
	return tea.Batch(m.spin.Tick, m.loadIssuesCmd(m.opts.JQL))
}

func (m *Model) handleCommentAddedMsg(msg tea.Msg) tea.Cmd {
	added, ok := msg.(commentAddedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	if added.err != nil {
		m.setError(added.err)
		return nil
	}
	if m.detail != nil && m.detail.issue.Key == added.key {
		m.detail.comments = added.comments
		m.detail.commentsErr = ""
		m.detailView.SetContent(m.renderDetailBody())
	}
	m.setInfo(fmt.Sprintf("comment added to %s", added.key))
	events.UI.Comment(added.key, len(added.comments))
	return nil
}

func (m *Model) handleIssueCreatedMsg(msg tea.Msg) tea.Cmd {
	created, ok := msg.(issueCreatedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	if created.err != nil {
		m.setError(created.err)
		return nil
	}
	m.createForm = nil
	m.setMode(ModeList)
	m.setInfo(fmt.Sprintf("created %s", created.issue.Key))
	// Refresh so the new issue shows up under the current query.
	m.loading = true
	return tea.Batch(m.spin.Tick, m.loadIssuesCmd(m.opts.JQL))
}

func (m *Model) handleYankDoneMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(yankDoneMsg)
	if !ok {
		return nil
	}
	if done.err != nil {
		m.setError(fmt.Errorf("clipboard: %w", done.err))
		return nil
	}
	m.setInfo("copied " + done.url)
	events.UI.Yank(done.key)
	return nil
}

// returnMode decides where a finished overlay (comment prompt,
// confirmed transition) lands: the open detail view when one exists.
func (m *Model) returnMode() Mode {
	if m.detail != nil {
		return ModeDetail
	}
	return ModeList
}

func (m *Model) setMode(mode Mode) {
	if m.mode == mode {
		return
	}
	events.UI.ViewChange(m.mode.String(), mode.String())
	m.mode = mode
}
