package jira

import "time"

// StatusCategory is the coarse classification Jira applies to every
// workflow status, independent of the status name.
type StatusCategory int

const (
	CategoryToDo StatusCategory = iota
	CategoryInProgress
	CategoryDone
)

func (c StatusCategory) String() string {
	switch c {
	case CategoryToDo:
		return "To Do"
	case CategoryInProgress:
		return "In Progress"
	case CategoryDone:
		return "Done"
	}
	return "Unknown"
}

// Priority is a six-level total order from Lowest to Critical.
type Priority int

const (
	PriorityLowest Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityHighest
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "Lowest"
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityHighest:
		return "Highest"
	case PriorityCritical:
		return "Critical"
	}
	return "Medium"
}

// Status is an issue's workflow status.
type Status struct {
	ID       string
	Name     string
	Category StatusCategory
}

// User identifies a Jira account.
type User struct {
	AccountID   string
	DisplayName string
	Email       string
}

// Issue is an immutable snapshot of a Jira issue. A refetch replaces
// the whole value; nothing mutates an Issue in place.
type Issue struct {
	ID          string
	Key         string
	Summary     string
	Status      Status
	Assignee    *User
	Priority    Priority
	Type        string
	ProjectKey  string
	Description string
	Created     time.Time
	Updated     time.Time
}

// IsDone reports whether the issue sits in the Done status category.
func (i Issue) IsDone() bool { return i.Status.Category == CategoryDone }

// IsInProgress reports whether the issue sits in the In Progress category.
func (i Issue) IsInProgress() bool { return i.Status.Category == CategoryInProgress }

// IsToDo reports whether the issue sits in the To Do category.
func (i Issue) IsToDo() bool { return i.Status.Category == CategoryToDo }

// Comment is a single issue comment with its rich-text body already
// flattened to plain text.
type Comment struct {
	ID      string
	Author  User
	Body    string
	Created time.Time
	Updated *time.Time
}

// Transition is one edge of the server-owned workflow graph. The edge
// set is fetched fresh per issue; the client never assumes a fixed
// state machine.
type Transition struct {
	ID       string
	Name     string
	ToStatus string
}

// SearchResult is one page of a paginated search. Total is whatever the
// server reported and is advisory only: never allocate from it, and do
// not assume StartAt+len(Issues) <= Total holds.
type SearchResult struct {
	StartAt    int
	MaxResults int
	Total      int
	Issues     []Issue
}

// HasMore reports whether another page is expected after this one.
func (r SearchResult) HasMore() bool {
	return r.StartAt+len(r.Issues) < r.Total
}

// NextStartAt returns the offset for the next page.
func (r SearchResult) NextStartAt() int {
	return r.StartAt + len(r.Issues)
}

// CreateIssueData carries the fields for a new issue.
type CreateIssueData struct {
	ProjectKey  string
	Type        string
	Summary     string
	Description string
	AssigneeID  string
	Priority    string
}

// UpdateIssueData carries raw field updates for an existing issue,
// keyed by Jira field name.
type UpdateIssueData struct {
	Fields map[string]any
}
