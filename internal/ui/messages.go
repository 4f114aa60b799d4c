package ui

import "github.com/lazyjira/lazyjira/internal/jira"

// issuesLoadedMsg mirrors the async issue-list fetch.
type issuesLoadedMsg struct {
	jql    string
	result jira.SearchResult
	err    error
}

// pageLoadedMsg carries the next page of the current search.
type pageLoadedMsg struct {
	jql    string
	result jira.SearchResult
	err    error
}

// detailLoadedMsg joins the concurrent issue and comment fetches into
// one delivery. Both errors are non-fatal: issueErr means the issue
// field holds the stale list row, commentsErr means the feed is empty.
type detailLoadedMsg struct {
	key         string
	issue       jira.Issue
	comments    []jira.Comment
	commentsErr error
	issueErr    error
}

type transitionsLoadedMsg struct {
	key         string
	transitions []jira.Transition
	err         error
}

// transitionDoneMsg reports an executed transition along with the
// refetched issue.
type transitionDoneMsg struct {
	key   string
	name  string
	issue jira.Issue
	err   error
}

type commentAddedMsg struct {
	key      string
	comments []jira.Comment
	err      error
}

type issueCreatedMsg struct {
	issue jira.Issue
	err   error
}

type yankDoneMsg struct {
	key string
	url string
	err error
}
