package ui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"

	"github.com/lazyjira/lazyjira/internal/theme"
)

const (
	headerHeight = 1
	footerHeight = 1
	statusHeight = 1

	statusColumnWidth   = 14
	priorityColumnWidth = 10
)

// listBodyHeight returns the number of issue rows that fit on screen.
func (m *Model) listBodyHeight() int {
	h := m.height - headerHeight - footerHeight - statusHeight
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) detailBodyHeight() int {
	return m.listBodyHeight()
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.mode {
	case ModeDetail:
		b.WriteString(m.detailView.View())
	case ModeTransitions:
		b.WriteString(m.renderTransitions())
	case ModeCommentInput:
		b.WriteString(m.renderCommentInput())
	case ModeCreate:
		b.WriteString(m.renderCreateForm())
	default:
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.opts.Instance
	if m.opts.Project != "" {
		title += " / " + m.opts.Project
	}
	if m.detail != nil && m.mode != ModeList {
		title += " / " + m.detail.issue.Key
	}
	if m.filtering || m.list.Filter != "" {
		prompt := "/"
		if styles.FilterPrompt != nil {
			prompt = styles.FilterPrompt.Render("/")
		}
		title += "  " + prompt + m.list.Filter
	}
	if styles.Header != nil {
		return styles.Header.Render(title)
	}
	return title
}

func (m *Model) renderList() string {
	maxVisible := m.listBodyHeight()
	var b strings.Builder
	if len(m.list.Items) == 0 {
		if m.loading {
			b.WriteString(m.renderLoading("fetching issues"))
		} else if m.list.Filter != "" {
			b.WriteString("no issues match the filter")
		} else {
			b.WriteString("no issues found")
		}
		return b.String()
	}
	start := m.list.ViewportOffset
	end := start + maxVisible
	if end > len(m.list.Items) {
		end = len(m.list.Items)
	}
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString("\n")
		}
		b.WriteString(m.renderListRow(i))
	}
	return b.String()
}

func (m *Model) renderListRow(i int) string {
	issue := m.list.Items[i]
	selected := i == m.list.Cursor

	key := fmt.Sprintf("%-10s", issue.Key)
	status := fmt.Sprintf("%-*s", statusColumnWidth, clip(issue.Status.Name, statusColumnWidth))
	priority := fmt.Sprintf("%-*s", priorityColumnWidth, issue.Priority.String())

	summaryWidth := m.width - len(key) - statusColumnWidth - priorityColumnWidth - 6
	summary := issue.Summary
	if summaryWidth > 0 {
		summary = truncate.StringWithTail(summary, uint(summaryWidth), "…")
	}

	if selected {
		row := fmt.Sprintf("> %s %s %s %s", key, status, priority, summary)
		if styles.SelectedItem != nil {
			return styles.SelectedItem.Render(row)
		}
		return row
	}
	if styles.IssueKey != nil {
		key = styles.IssueKey.Render(key)
	}
	status = theme.Status(issue.Status.Category).Render(status)
	priority = theme.Priority(issue.Priority).Render(priority)
	if styles.Item != nil {
		summary = styles.Item.Render(summary)
	}
	return fmt.Sprintf("  %s %s %s %s", key, status, priority, summary)
}

// renderDetailBody produces the scrollable content for the detail
// viewport.
func (m *Model) renderDetailBody() string {
	if m.detail == nil {
		return ""
	}
	issue := m.detail.issue
	var b strings.Builder

	title := issue.Key + "  " + issue.Summary
	if styles.DetailTitle != nil {
		title = styles.DetailTitle.Render(title)
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.detailField("Status", theme.Status(issue.Status.Category).Render(issue.Status.Name)))
	b.WriteString(m.detailField("Priority", theme.Priority(issue.Priority).Render(issue.Priority.String())))
	b.WriteString(m.detailField("Type", issue.Type))
	assignee := "Unassigned"
	if issue.Assignee != nil {
		assignee = issue.Assignee.DisplayName
	}
	b.WriteString(m.detailField("Assignee", assignee))
	b.WriteString(m.detailField("Updated", issue.Updated.Format("2006-01-02 15:04")))

	if issue.Description != "" {
		b.WriteString("\n")
		if styles.DetailLabel != nil {
			b.WriteString(styles.DetailLabel.Render("Description"))
		} else {
			b.WriteString("Description")
		}
		b.WriteString("\n")
		desc := issue.Description
		if styles.DetailBody != nil {
			desc = styles.DetailBody.Render(desc)
		}
		b.WriteString(desc)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	label := fmt.Sprintf("Comments (%d)", len(m.detail.comments))
	if styles.DetailLabel != nil {
		label = styles.DetailLabel.Render(label)
	}
	b.WriteString(label)
	b.WriteString("\n")
	if m.detail.commentsErr != "" {
		msg := "comments unavailable: " + m.detail.commentsErr
		if styles.Error != nil {
			msg = styles.Error.Render(msg)
		}
		b.WriteString(msg)
		b.WriteString("\n")
	}
	for _, comment := range m.detail.comments {
		author := comment.Author.DisplayName
		if styles.CommentAuthor != nil {
			author = styles.CommentAuthor.Render(author)
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", author, comment.Created.Format("2006-01-02 15:04")))
		body := comment.Body
		if styles.DetailBody != nil {
			body = styles.DetailBody.Render(body)
		}
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m *Model) detailField(label, value string) string {
	if styles.DetailLabel != nil {
		label = styles.DetailLabel.Render(label)
	}
	return fmt.Sprintf("%s: %s\n", label, value)
}

func (m *Model) renderTransitions() string {
	var b strings.Builder
	header := "Move " + m.selectedKey() + " to:"
	if styles.DetailTitle != nil {
		header = styles.DetailTitle.Render(header)
	}
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, t := range m.transitions {
		label := t.Name
		if t.ToStatus != "" && t.ToStatus != t.Name {
			label += " → " + t.ToStatus
		}
		if i == m.transitionCursor {
			row := "> " + label
			if styles.SelectedItem != nil {
				row = styles.SelectedItem.Render(row)
			}
			b.WriteString(row)
		} else {
			row := "  " + label
			if styles.Item != nil {
				row = styles.Item.Render(row)
			}
			b.WriteString(row)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderCommentInput() string {
	var b strings.Builder
	header := "Comment on " + m.selectedKey()
	if styles.DetailTitle != nil {
		header = styles.DetailTitle.Render(header)
	}
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(m.commentInput.View())
	return b.String()
}

func (m *Model) renderCreateForm() string {
	if m.createForm == nil {
		return ""
	}
	var b strings.Builder
	header := "New ticket"
	if styles.DetailTitle != nil {
		header = styles.DetailTitle.Render(header)
	}
	b.WriteString(header)
	b.WriteString("\n\n")
	for i := range m.createForm.inputs {
		label := fmt.Sprintf("%-12s", fieldLabels[i])
		if styles.DetailLabel != nil {
			label = styles.DetailLabel.Render(label)
		}
		b.WriteString(label)
		b.WriteString(m.createForm.inputs[i].View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatusLine() string {
	switch {
	case m.errMsg != "":
		if styles.Error != nil {
			return styles.Error.Render(m.errMsg)
		}
		return m.errMsg
	case m.loading || m.loadingPage:
		return m.renderLoading("working")
	case m.infoMsg != "":
		if styles.Info != nil {
			return styles.Info.Render(m.infoMsg)
		}
		return m.infoMsg
	default:
		return ""
	}
}

func (m *Model) renderLoading(what string) string {
	text := m.spin.View() + " " + what
	if styles.Loading != nil {
		return styles.Loading.Render(text)
	}
	return text
}

func (m *Model) renderFooter() string {
	var hints string
	switch m.mode {
	case ModeDetail:
		hints = "esc back · t transitions · c comment · s start · d done · y copy url"
	case ModeTransitions:
		hints = "enter apply · esc cancel"
	case ModeCommentInput:
		hints = "enter post · esc cancel"
	case ModeCreate:
		hints = "tab next field · enter create · esc cancel"
	default:
		hints = m.listFooter()
	}
	if styles.Footer != nil {
		return styles.Footer.Render(hints)
	}
	return hints
}

func (m *Model) listFooter() string {
	position := ""
	if len(m.list.Items) > 0 {
		total := m.list.Total
		if total < len(m.list.Full) {
			total = len(m.list.Full)
		}
		position = fmt.Sprintf("%d/%d · ", m.list.Cursor+1, total)
	}
	return position + "enter open · / filter · t transitions · n new · r refresh · q quit"
}

func clip(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}
