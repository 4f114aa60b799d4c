package state

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/lazyjira/lazyjira/internal/jira"
)

// IssueList encapsulates issue-list state such as cursor position,
// filter, and viewport. Full holds every fetched issue; Items holds
// the filtered view the cursor moves over.
type IssueList struct {
	Items          []jira.Issue
	Full           []jira.Issue
	Filter         string
	Cursor         int
	LastCursor     int
	ViewportOffset int

	// Total is the server-side hit count, which can exceed
	// len(Full) when more pages remain.
	Total int
}

// NewIssueList constructs an IssueList over the provided issues.
func NewIssueList(issues []jira.Issue) *IssueList {
	l := &IssueList{Cursor: -1, LastCursor: -1}
	l.UpdateIssues(issues)
	return l
}

// Current returns the issue under the cursor, or nil.
func (l *IssueList) Current() *jira.Issue {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return nil
	}
	return &l.Items[l.Cursor]
}

// IndexOf returns the index for a given issue key.
func (l *IssueList) IndexOf(key string) int {
	if key == "" {
		return -1
	}
	for i, issue := range l.Items {
		if issue.Key == key {
			return i
		}
	}
	return -1
}

// UpdateIssues refreshes the backing issues while preserving the
// cursor position by key where possible.
func (l *IssueList) UpdateIssues(issues []jira.Issue) {
	var currentKey string
	if current := l.Current(); current != nil {
		currentKey = current.Key
	}
	prevOffset := l.ViewportOffset
	l.Full = cloneIssues(issues)
	l.applyFilter()
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	if idx := l.IndexOf(currentKey); idx >= 0 {
		l.Cursor = idx
	} else if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		l.Cursor = 0
	}
	if prevOffset < 0 || prevOffset > len(l.Items)-1 {
		prevOffset = 0
	}
	l.ViewportOffset = prevOffset
}

// ReplaceIssue swaps the stored copy of one issue after a refetch.
func (l *IssueList) ReplaceIssue(issue jira.Issue) {
	for i := range l.Full {
		if l.Full[i].Key == issue.Key {
			l.Full[i] = issue
			break
		}
	}
	for i := range l.Items {
		if l.Items[i].Key == issue.Key {
			l.Items[i] = issue
			break
		}
	}
}

// MoveCursorUp moves the cursor one row up.
func (l *IssueList) MoveCursorUp() bool { return l.moveCursorBy(-1) }

// MoveCursorDown moves the cursor one row down.
func (l *IssueList) MoveCursorDown() bool { return l.moveCursorBy(1) }

// MoveCursorHome moves the cursor to the first issue.
func (l *IssueList) MoveCursorHome() bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor = 0
	return old != l.Cursor
}

// MoveCursorEnd moves the cursor to the last issue.
func (l *IssueList) MoveCursorEnd() bool {
	n := len(l.Items)
	if n == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor = n - 1
	return old != l.Cursor
}

// MoveCursorPageUp moves the cursor up by the given page size.
func (l *IssueList) MoveCursorPageUp(maxVisible int) bool {
	return l.moveCursorBy(-l.pageSize(maxVisible))
}

// MoveCursorPageDown moves the cursor down by the given page size.
func (l *IssueList) MoveCursorPageDown(maxVisible int) bool {
	return l.moveCursorBy(l.pageSize(maxVisible))
}

func (l *IssueList) moveCursorBy(delta int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	l.Cursor += delta
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	return l.Cursor != old
}

func (l *IssueList) pageSize(maxVisible int) int {
	total := len(l.Items)
	if total == 0 {
		return 0
	}
	size := maxVisible
	if size <= 0 || size > total {
		size = total
	}
	if size < 1 {
		size = 1
	}
	return size
}

// AtLastRow reports whether the cursor sits on the final fetched row,
// the trigger point for fetching the next page.
func (l *IssueList) AtLastRow() bool {
	return len(l.Items) > 0 && l.Cursor == len(l.Items)-1
}

// HasMorePages reports whether the server holds issues beyond Full.
func (l *IssueList) HasMorePages() bool {
	return len(l.Full) < l.Total
}

// AppendPage adds the next page of issues, dropping any keys already
// present so an overlapping fetch cannot duplicate rows.
func (l *IssueList) AppendPage(issues []jira.Issue) {
	seen := make(map[string]struct{}, len(l.Full))
	for _, issue := range l.Full {
		seen[issue.Key] = struct{}{}
	}
	merged := cloneIssues(l.Full)
	for _, issue := range issues {
		if _, ok := seen[issue.Key]; ok {
			continue
		}
		merged = append(merged, issue)
	}
	l.UpdateIssues(merged)
}

// EnsureCursorVisible adjusts the viewport offset so the cursor stays visible.
func (l *IssueList) EnsureCursorVisible(maxVisible int) {
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	if maxVisible <= 0 {
		l.ViewportOffset = 0
		return
	}
	maxOffset := len(l.Items) - maxVisible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if l.ViewportOffset > maxOffset {
		l.ViewportOffset = maxOffset
	}
	if l.ViewportOffset < 0 {
		l.ViewportOffset = 0
	}
	if l.Cursor < l.ViewportOffset {
		l.ViewportOffset = l.Cursor
	}
	upper := l.ViewportOffset + maxVisible - 1
	if l.Cursor > upper {
		l.ViewportOffset = l.Cursor - maxVisible + 1
		if l.ViewportOffset < 0 {
			l.ViewportOffset = 0
		}
		if l.ViewportOffset > maxOffset {
			l.ViewportOffset = maxOffset
		}
	}
}

// SetFilter updates the filter query and re-derives the visible items.
func (l *IssueList) SetFilter(query string) {
	trimmed := strings.TrimSpace(query)
	prevTrimmed := strings.TrimSpace(l.Filter)
	restore := -1
	l.Filter = query
	if trimmed != "" {
		if prevTrimmed == "" {
			l.LastCursor = l.Cursor
		}
		l.Cursor = 0
	} else if prevTrimmed != "" {
		restore = l.LastCursor
	}
	l.applyFilter()
	if trimmed == "" && prevTrimmed != "" {
		if restore >= 0 && restore < len(l.Items) {
			l.Cursor = restore
		} else if len(l.Items) > 0 {
			l.Cursor = len(l.Items) - 1
		}
		l.LastCursor = -1
	}
}

func (l *IssueList) applyFilter() {
	l.Items = FilterIssues(l.Full, l.Filter)
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.ViewportOffset = 0
		return
	}
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	if l.ViewportOffset > len(l.Items)-1 {
		l.ViewportOffset = 0
	}
}

// FilterIssues returns issues matching the query, fuzzy-matched over
// the key and summary with a plain substring fallback.
func FilterIssues(issues []jira.Issue, query string) []jira.Issue {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return cloneIssues(issues)
	}
	labels := make([]string, len(issues))
	for i, issue := range issues {
		labels[i] = issue.Key + " " + issue.Summary
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels)
	if len(ranks) > 0 {
		matches := make(map[int]struct{}, len(ranks))
		for _, rank := range ranks {
			matches[rank.OriginalIndex] = struct{}{}
		}
		filtered := make([]jira.Issue, 0, len(matches))
		for idx, issue := range issues {
			if _, ok := matches[idx]; ok {
				filtered = append(filtered, issue)
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}
	lower := strings.ToLower(trimmed)
	filtered := make([]jira.Issue, 0, len(issues))
	for _, issue := range issues {
		if strings.Contains(strings.ToLower(issue.Key), lower) ||
			strings.Contains(strings.ToLower(issue.Summary), lower) {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}

func cloneIssues(issues []jira.Issue) []jira.Issue {
	dup := make([]jira.Issue, len(issues))
	copy(dup, issues)
	return dup
}
