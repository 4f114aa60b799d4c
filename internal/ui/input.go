package ui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyjira/lazyjira/internal/logging/events"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.mode {
	case ModeDetail:
		return m.handleDetailKey(key)
	case ModeTransitions:
		return m.handleTransitionsKey(key)
	case ModeCommentInput:
		return m.handleCommentKey(key)
	case ModeCreate:
		return m.handleCreateKey(key)
	default:
		return m.handleListKey(key)
	}
}

func (m *Model) handleListKey(key tea.KeyMsg) tea.Cmd {
	if m.filtering {
		if cmd, handled := m.handleFilterKey(key); handled {
			return cmd
		}
	}
	switch key.String() {
	case "q", "esc":
		if m.list.Filter != "" {
			m.list.SetFilter("")
			m.list.EnsureCursorVisible(m.listBodyHeight())
			events.UI.FilterChange("")
			return nil
		}
		return tea.Quit
	case "/":
		m.filtering = true
		m.clearMessages()
		return nil
	case "up", "k":
		if m.list.MoveCursorUp() {
			m.list.EnsureCursorVisible(m.listBodyHeight())
		}
		return nil
	case "down", "j":
		moved := m.list.MoveCursorDown()
		if moved {
			m.list.EnsureCursorVisible(m.listBodyHeight())
		}
		// Hitting the bottom of the fetched rows pulls in the next
		// page while the user keeps scrolling.
		if m.list.AtLastRow() && m.list.HasMorePages() && !m.loadingPage {
			m.loadingPage = true
			return tea.Batch(m.spin.Tick, m.loadPageCmd(m.opts.JQL, len(m.list.Full)))
		}
		return nil
	case "pgup":
		if m.list.MoveCursorPageUp(m.listBodyHeight()) {
			m.list.EnsureCursorVisible(m.listBodyHeight())
		}
		return nil
	case "pgdown":
		if m.list.MoveCursorPageDown(m.listBodyHeight()) {
			m.list.EnsureCursorVisible(m.listBodyHeight())
		}
		return nil
	case "g", "home":
		if m.list.MoveCursorHome() {
			m.list.EnsureCursorVisible(m.listBodyHeight())
		}
		return nil
	case "G", "end":
		if m.list.MoveCursorEnd() {
			m.list.EnsureCursorVisible(m.listBodyHeight())
		}
		return nil
	case "enter":
		return m.openSelected()
	case "r":
		if m.loading {
			return nil
		}
		m.loading = true
		m.clearMessages()
		return tea.Batch(m.spin.Tick, m.loadIssuesCmd(m.opts.JQL))
	case "t":
		return m.openTransitionsForSelected()
	case "c":
		return m.openCommentInputForSelected()
	case "s":
		return m.quickTransitionSelected("progress")
	case "d":
		return m.quickTransitionSelected("done")
	case "y":
		if current := m.list.Current(); current != nil {
			return m.yankCmd(current.Key)
		}
		return nil
	case "n":
		if m.loading {
			return nil
		}
		m.createForm = newCreateForm(m.opts.Project)
		m.clearMessages()
		m.setMode(ModeCreate)
		return m.createForm.focusCmd()
	}
	return nil
}

// handleFilterKey edits the list filter. Keys it does not understand
// fall through to the normal list bindings.
func (m *Model) handleFilterKey(key tea.KeyMsg) (tea.Cmd, bool) {
	switch key.String() {
	case "esc":
		m.filtering = false
		m.list.SetFilter("")
		m.list.EnsureCursorVisible(m.listBodyHeight())
		events.UI.FilterChange("")
		return nil, true
	case "enter":
		m.filtering = false
		return nil, true
	case "ctrl+u":
		m.list.SetFilter("")
		m.list.EnsureCursorVisible(m.listBodyHeight())
		events.UI.FilterChange("")
		return nil, true
	}
	switch key.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		if m.list.Filter == "" {
			m.filtering = false
			return nil, true
		}
		runes := []rune(m.list.Filter)
		m.list.SetFilter(string(runes[:len(runes)-1]))
		m.list.EnsureCursorVisible(m.listBodyHeight())
		events.UI.FilterChange(m.list.Filter)
		return nil, true
	case tea.KeySpace:
		m.list.SetFilter(m.list.Filter + " ")
		events.UI.FilterChange(m.list.Filter)
		return nil, true
	case tea.KeyRunes:
		if key.Alt || len(key.Runes) == 0 {
			return nil, false
		}
		for _, r := range key.Runes {
			if unicode.IsControl(r) {
				return nil, false
			}
		}
		m.list.SetFilter(m.list.Filter + string(key.Runes))
		m.list.EnsureCursorVisible(m.listBodyHeight())
		events.UI.FilterChange(m.list.Filter)
		return nil, true
	}
	return nil, false
}

func (m *Model) handleDetailKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "q", "esc":
		m.detail = nil
		m.clearMessages()
		m.setMode(ModeList)
		return nil
	case "up", "k", "down", "j", "pgup", "pgdown":
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(key)
		return cmd
	case "t":
		return m.openTransitionsForSelected()
	case "c":
		return m.openCommentInputForSelected()
	case "s":
		return m.quickTransitionSelected("progress")
	case "d":
		return m.quickTransitionSelected("done")
	case "y":
		if m.detail != nil {
			return m.yankCmd(m.detail.issue.Key)
		}
		return nil
	case "r":
		if m.loading || m.detail == nil {
			return nil
		}
		m.loading = true
		return tea.Batch(m.spin.Tick, m.openDetailCmd(m.detail.issue))
	}
	return nil
}

func (m *Model) handleTransitionsKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "q", "esc":
		// Backing out of the picker always lands on the list, and
		// everything scoped to the inspected issue goes with it.
		m.transitions = nil
		m.transitionCursor = 0
		m.detail = nil
		m.setMode(ModeList)
		return nil
	case "up", "k":
		if m.transitionCursor > 0 {
			m.transitionCursor--
		}
		return nil
	case "down", "j":
		if m.transitionCursor < len(m.transitions)-1 {
			m.transitionCursor++
		}
		return nil
	case "enter":
		if m.loading || m.transitionCursor >= len(m.transitions) {
			return nil
		}
		picked := m.transitions[m.transitionCursor]
		issueKey := m.selectedKey()
		if issueKey == "" {
			return nil
		}
		m.loading = true
		return tea.Batch(m.spin.Tick, m.executeTransitionCmd(issueKey, picked))
	}
	return nil
}

func (m *Model) handleCommentKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		m.commentInput.Reset()
		m.commentInput.Blur()
		m.setMode(m.returnMode())
		return nil
	case "enter":
		text := m.commentInput.Value()
		if text == "" {
			return nil
		}
		issueKey := m.selectedKey()
		if issueKey == "" {
			return nil
		}
		m.commentInput.Reset()
		m.commentInput.Blur()
		m.setMode(m.returnMode())
		m.loading = true
		return tea.Batch(m.spin.Tick, m.addCommentCmd(issueKey, text))
	}
	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(key)
	return cmd
}

func (m *Model) handleCreateKey(key tea.KeyMsg) tea.Cmd {
	if m.createForm == nil {
		m.setMode(ModeList)
		return nil
	}
	switch key.String() {
	case "esc":
		m.createForm = nil
		m.setMode(ModeList)
		return nil
	case "tab", "down":
		return m.createForm.focusNext()
	case "shift+tab", "up":
		return m.createForm.focusPrev()
	case "enter":
		data, err := m.createForm.issueData()
		if err != nil {
			m.setError(err)
			return nil
		}
		m.loading = true
		return tea.Batch(m.spin.Tick, m.createIssueCmd(data))
	}
	return m.createForm.update(key)
}

func (m *Model) selectedKey() string {
	if m.detail != nil {
		return m.detail.issue.Key
	}
	if current := m.list.Current(); current != nil {
		return current.Key
	}
	return ""
}

func (m *Model) openSelected() tea.Cmd {
	if m.loading {
		return nil
	}
	current := m.list.Current()
	if current == nil {
		return nil
	}
	m.loading = true
	m.clearMessages()
	return tea.Batch(m.spin.Tick, m.openDetailCmd(*current))
}

func (m *Model) openTransitionsForSelected() tea.Cmd {
	if m.loading {
		return nil
	}
	key := m.selectedKey()
	if key == "" {
		return nil
	}
	m.loading = true
	m.clearMessages()
	return tea.Batch(m.spin.Tick, m.loadTransitionsCmd(key))
}

func (m *Model) openCommentInputForSelected() tea.Cmd {
	if m.loading {
		return nil
	}
	if m.selectedKey() == "" {
		return nil
	}
	m.clearMessages()
	m.setMode(ModeCommentInput)
	return m.commentInput.Focus()
}

func (m *Model) quickTransitionSelected(target string) tea.Cmd {
	if m.loading {
		return nil
	}
	key := m.selectedKey()
	if key == "" {
		return nil
	}
	m.loading = true
	m.clearMessages()
	return tea.Batch(m.spin.Tick, m.quickTransitionCmd(key, target))
}
