package ui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lazyjira/lazyjira/internal/jira"
)

// fakeService drives the model in tests without a network.
type fakeService struct {
	issues      map[string]jira.Issue
	comments    map[string][]jira.Comment
	commentsErr error
	transitions []jira.Transition
	searchErr   error
	executed    []string
	added       []string
}

func (f *fakeService) GetIssue(_ context.Context, key string) (jira.Issue, error) {
	issue, ok := f.issues[key]
	if !ok {
		return jira.Issue{}, fmt.Errorf("no such issue %s", key)
	}
	return issue, nil
}

func (f *fakeService) Search(_ context.Context, jql string, startAt, maxResults int) (jira.SearchResult, error) {
	if f.searchErr != nil {
		return jira.SearchResult{}, f.searchErr
	}
	result := jira.SearchResult{StartAt: startAt, MaxResults: maxResults}
	for _, issue := range f.issues {
		result.Issues = append(result.Issues, issue)
	}
	result.Total = len(result.Issues)
	return result, nil
}

func (f *fakeService) CreateIssue(_ context.Context, data jira.CreateIssueData) (jira.Issue, error) {
	issue := jira.Issue{Key: data.ProjectKey + "-999", Summary: data.Summary}
	if f.issues == nil {
		f.issues = map[string]jira.Issue{}
	}
	f.issues[issue.Key] = issue
	return issue, nil
}

func (f *fakeService) UpdateIssue(context.Context, string, jira.UpdateIssueData) error { return nil }

func (f *fakeService) ListTransitions(context.Context, string) ([]jira.Transition, error) {
	return f.transitions, nil
}

func (f *fakeService) ExecuteTransition(_ context.Context, key, transitionID, _ string) error {
	f.executed = append(f.executed, key+":"+transitionID)
	return nil
}

func (f *fakeService) AddComment(_ context.Context, key, text string) error {
	f.added = append(f.added, key+":"+text)
	return nil
}

func (f *fakeService) ListComments(_ context.Context, key string) ([]jira.Comment, error) {
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return f.comments[key], nil
}

func testIssue(key, summary string) jira.Issue {
	return jira.Issue{
		Key:     key,
		Summary: summary,
		Status: jira.Status{
			Name:     "To Do",
			Category: jira.CategoryToDo,
		},
		Priority: jira.PriorityMedium,
		Updated:  time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
	}
}

func newTestModel(svc jira.Service) *Model {
	m := NewModel(svc, Options{
		Instance: "test.atlassian.net",
		Project:  "PROJ",
		JQL:      "project = PROJ",
		PageSize: 50,
		Verbose:  true,
	})
	m.width = 120
	m.height = 40
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestIssuesLoadedPopulatesList(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.Update(issuesLoadedMsg{
		jql: "project = PROJ",
		result: jira.SearchResult{
			Total:  2,
			Issues: []jira.Issue{testIssue("PROJ-1", "first"), testIssue("PROJ-2", "second")},
		},
	})
	if m.loading {
		t.Fatalf("expected loading cleared")
	}
	if len(m.list.Items) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(m.list.Items))
	}
	if m.list.Cursor != 0 {
		t.Fatalf("expected cursor at first issue, got %d", m.list.Cursor)
	}
}

func TestIssuesLoadErrorSetsMessage(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.Update(issuesLoadedMsg{err: fmt.Errorf("boom")})
	if m.errMsg != "boom" {
		t.Fatalf("expected error message, got %q", m.errMsg)
	}
	if m.loading {
		t.Fatalf("expected loading cleared even on error")
	}
}

func TestOpenDetailJoinsIssueAndComments(t *testing.T) {
	svc := &fakeService{
		issues: map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
		comments: map[string][]jira.Comment{
			"PROJ-1": {{ID: "1", Body: "hello", Created: time.Now()}},
		},
	}
	m := newTestModel(svc)
	msg := m.openDetailCmd(testIssue("PROJ-1", "first"))()
	loaded, ok := msg.(detailLoadedMsg)
	if !ok {
		t.Fatalf("expected detailLoadedMsg, got %T", msg)
	}
	if loaded.issueErr != nil {
		t.Fatalf("unexpected error: %v", loaded.issueErr)
	}
	if loaded.issue.Key != "PROJ-1" || len(loaded.comments) != 1 {
		t.Fatalf("expected joined issue and comments, got %#v", loaded)
	}

	m.Update(msg)
	if m.mode != ModeDetail {
		t.Fatalf("expected detail mode, got %s", m.mode)
	}
	if m.detail == nil || m.detail.issue.Key != "PROJ-1" {
		t.Fatalf("expected detail state populated")
	}
}

func TestDetailOpensDespiteCommentFailure(t *testing.T) {
	svc := &fakeService{
		issues:      map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
		commentsErr: fmt.Errorf("comment feed down"),
	}
	m := newTestModel(svc)
	msg := m.openDetailCmd(testIssue("PROJ-1", "first"))()
	loaded := msg.(detailLoadedMsg)
	if loaded.issueErr != nil {
		t.Fatalf("issue fetch should succeed: %v", loaded.issueErr)
	}
	if loaded.commentsErr == nil {
		t.Fatalf("expected comments error carried separately")
	}

	m.Update(msg)
	if m.mode != ModeDetail {
		t.Fatalf("expected detail mode despite comment failure")
	}
	if m.detail.commentsErr == "" {
		t.Fatalf("expected comment error recorded")
	}
}

func TestDetailFallsBackToListRowOnFetchFailure(t *testing.T) {
	svc := &fakeService{} // GetIssue fails for every key
	m := newTestModel(svc)
	row := testIssue("PROJ-1", "stale summary")
	m.Update(issuesLoadedMsg{result: jira.SearchResult{Total: 1, Issues: []jira.Issue{row}}})

	msg := m.openDetailCmd(row)()
	loaded := msg.(detailLoadedMsg)
	if loaded.issueErr == nil {
		t.Fatalf("expected issue fetch error")
	}
	if loaded.issue.Key != "PROJ-1" || loaded.issue.Summary != "stale summary" {
		t.Fatalf("expected list-row fallback, got %#v", loaded.issue)
	}

	m.Update(msg)
	if m.mode != ModeDetail {
		t.Fatalf("expected detail mode with fallback issue, got %s", m.mode)
	}
	if m.detail == nil || m.detail.issue.Summary != "stale summary" {
		t.Fatalf("expected stale row shown in detail")
	}
	if m.errMsg == "" {
		t.Fatalf("expected fetch error surfaced in status line")
	}
}

func TestLoadingBarsNewWork(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total:  1,
		Issues: []jira.Issue{testIssue("PROJ-1", "first")},
	}})
	m.loading = true

	if _, cmd := m.Update(keyMsg("enter")); cmd != nil {
		t.Fatalf("expected enter ignored while loading")
	}
	if _, cmd := m.Update(keyMsg("t")); cmd != nil {
		t.Fatalf("expected transitions ignored while loading")
	}
	if _, cmd := m.Update(keyMsg("s")); cmd != nil {
		t.Fatalf("expected quick transition ignored while loading")
	}
}

func TestTransitionPickerFlow(t *testing.T) {
	svc := &fakeService{
		issues: map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
		transitions: []jira.Transition{
			{ID: "21", Name: "Start Progress", ToStatus: "In Progress"},
			{ID: "31", Name: "Close", ToStatus: "Done"},
		},
	}
	m := newTestModel(svc)
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total:  1,
		Issues: []jira.Issue{testIssue("PROJ-1", "first")},
	}})

	m.Update(transitionsLoadedMsg{key: "PROJ-1", transitions: svc.transitions})
	if m.mode != ModeTransitions {
		t.Fatalf("expected transitions mode, got %s", m.mode)
	}

	m.Update(keyMsg("j"))
	if m.transitionCursor != 1 {
		t.Fatalf("expected cursor on second transition, got %d", m.transitionCursor)
	}

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatalf("expected execute command")
	}
	if !m.loading {
		t.Fatalf("expected loading while transition runs")
	}

	moved := testIssue("PROJ-1", "first")
	moved.Status = jira.Status{Name: "Done", Category: jira.CategoryDone}
	_, cmd = m.Update(transitionDoneMsg{key: "PROJ-1", name: "Close", issue: moved})
	if m.mode != ModeList {
		t.Fatalf("expected return to list, got %s", m.mode)
	}
	if m.transitions != nil {
		t.Fatalf("expected picker cleared after success")
	}
	if m.list.Items[0].Status.Category != jira.CategoryDone {
		t.Fatalf("expected list updated with new status")
	}
	if m.infoMsg == "" {
		t.Fatalf("expected info message after transition")
	}
	if cmd == nil {
		t.Fatalf("expected list refresh command after transition")
	}
}

func TestFailedTransitionStaysInPicker(t *testing.T) {
	svc := &fakeService{
		issues: map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
		transitions: []jira.Transition{
			{ID: "21", Name: "Start Progress", ToStatus: "In Progress"},
			{ID: "31", Name: "Close", ToStatus: "Done"},
		},
	}
	m := newTestModel(svc)
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total:  1,
		Issues: []jira.Issue{testIssue("PROJ-1", "first")},
	}})
	m.Update(transitionsLoadedMsg{key: "PROJ-1", transitions: svc.transitions})
	m.Update(keyMsg("j"))

	if _, cmd := m.Update(keyMsg("enter")); cmd == nil {
		t.Fatalf("expected execute command")
	}
	if len(m.transitions) != 2 {
		t.Fatalf("expected picker kept while transition runs, got %d entries", len(m.transitions))
	}

	m.Update(transitionDoneMsg{key: "PROJ-1", name: "Close", err: fmt.Errorf("workflow rejected")})
	if m.mode != ModeTransitions {
		t.Fatalf("expected to stay in transitions after failure, got %s", m.mode)
	}
	if len(m.transitions) != 2 || m.transitionCursor != 1 {
		t.Fatalf("expected picker state unchanged, got %d entries at cursor %d", len(m.transitions), m.transitionCursor)
	}
	if m.errMsg == "" {
		t.Fatalf("expected error surfaced in status line")
	}
}

func TestTransitionsBackClearsDetailState(t *testing.T) {
	svc := &fakeService{
		issues:      map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
		transitions: []jira.Transition{{ID: "31", Name: "Close", ToStatus: "Done"}},
	}
	m := newTestModel(svc)
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total:  1,
		Issues: []jira.Issue{testIssue("PROJ-1", "first")},
	}})
	m.Update(m.openDetailCmd(testIssue("PROJ-1", "first"))())
	m.Update(transitionsLoadedMsg{key: "PROJ-1", transitions: svc.transitions})
	if m.mode != ModeTransitions {
		t.Fatalf("expected transitions mode, got %s", m.mode)
	}

	m.Update(keyMsg("esc"))
	if m.mode != ModeList {
		t.Fatalf("expected back to land on list, got %s", m.mode)
	}
	if m.detail != nil {
		t.Fatalf("expected detail state cleared")
	}
	if m.transitions != nil {
		t.Fatalf("expected transition list cleared")
	}
}

func TestMatchTransition(t *testing.T) {
	transitions := []jira.Transition{
		{ID: "11", Name: "Reopen", ToStatus: "To Do"},
		{ID: "21", Name: "Start Progress", ToStatus: "In Progress"},
		{ID: "31", Name: "Resolve", ToStatus: "Done"},
	}
	picked, ok := matchTransition(transitions, "progress")
	if !ok || picked.ID != "21" {
		t.Fatalf("expected Start Progress, got %#v", picked)
	}
	picked, ok = matchTransition(transitions, "done")
	if !ok || picked.ID != "31" {
		t.Fatalf("expected Resolve, got %#v", picked)
	}
	if _, ok := matchTransition(transitions, "blocked"); ok {
		t.Fatalf("expected no match for blocked")
	}
}

func TestFilterKeysNarrowList(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total: 3,
		Issues: []jira.Issue{
			testIssue("PROJ-1", "fix login"),
			testIssue("PROJ-2", "update docs"),
			testIssue("PROJ-3", "login audit"),
		},
	}})

	m.Update(keyMsg("/"))
	if !m.filtering {
		t.Fatalf("expected filter mode")
	}
	m.Update(keyMsg("login"))
	if len(m.list.Items) != 2 {
		t.Fatalf("expected 2 filtered issues, got %d", len(m.list.Items))
	}

	m.Update(keyMsg("esc"))
	if m.filtering || m.list.Filter != "" {
		t.Fatalf("expected filter cleared")
	}
	if len(m.list.Items) != 3 {
		t.Fatalf("expected full list restored, got %d", len(m.list.Items))
	}
}

func TestScrollingPastLastRowFetchesNextPage(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total:  4,
		Issues: []jira.Issue{testIssue("PROJ-1", "a"), testIssue("PROJ-2", "b")},
	}})

	m.Update(keyMsg("j"))
	if !m.loadingPage {
		t.Fatalf("expected page fetch at last row")
	}

	m.Update(pageLoadedMsg{result: jira.SearchResult{
		Total:  4,
		Issues: []jira.Issue{testIssue("PROJ-3", "c"), testIssue("PROJ-4", "d")},
	}})
	if m.loadingPage {
		t.Fatalf("expected page loading cleared")
	}
	if len(m.list.Full) != 4 {
		t.Fatalf("expected 4 issues after page merge, got %d", len(m.list.Full))
	}
}

func TestCommentFlowUpdatesDetail(t *testing.T) {
	svc := &fakeService{
		issues: map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
	}
	m := newTestModel(svc)
	m.Update(m.openDetailCmd(testIssue("PROJ-1", "first"))())

	m.Update(keyMsg("c"))
	if m.mode != ModeCommentInput {
		t.Fatalf("expected comment input mode, got %s", m.mode)
	}

	m.Update(keyMsg("looks fine"))
	if m.commentInput.Value() != "looks fine" {
		t.Fatalf("expected typed text, got %q", m.commentInput.Value())
	}

	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatalf("expected comment command")
	}
	if m.mode != ModeDetail {
		t.Fatalf("expected return to detail, got %s", m.mode)
	}

	feed := []jira.Comment{{ID: "1", Body: "looks fine", Created: time.Now()}}
	m.Update(commentAddedMsg{key: "PROJ-1", comments: feed})
	if len(m.detail.comments) != 1 {
		t.Fatalf("expected comment feed refreshed")
	}
	if m.infoMsg == "" {
		t.Fatalf("expected confirmation message")
	}
}

func TestCreateFormValidation(t *testing.T) {
	f := newCreateForm("")
	if _, err := f.issueData(); err == nil {
		t.Fatalf("expected error without project")
	}

	f = newCreateForm("PROJ")
	if _, err := f.issueData(); err == nil {
		t.Fatalf("expected error without summary")
	}

	f.inputs[fieldSummary].SetValue("do the thing")
	data, err := f.issueData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.ProjectKey != "PROJ" || data.Type != "Task" || data.Summary != "do the thing" {
		t.Fatalf("unexpected data: %#v", data)
	}
}

func TestCreatedIssueTriggersRefresh(t *testing.T) {
	m := newTestModel(&fakeService{})
	m.createForm = newCreateForm("PROJ")
	m.mode = ModeCreate

	_, cmd := m.Update(issueCreatedMsg{issue: jira.Issue{Key: "PROJ-999"}})
	if cmd == nil {
		t.Fatalf("expected refresh command after create")
	}
	if m.mode != ModeList {
		t.Fatalf("expected return to list, got %s", m.mode)
	}
	if m.createForm != nil {
		t.Fatalf("expected form cleared")
	}
}

func TestViewRendersWithoutPanic(t *testing.T) {
	m := newTestModel(&fakeService{
		issues: map[string]jira.Issue{"PROJ-1": testIssue("PROJ-1", "first")},
	})
	m.Update(issuesLoadedMsg{result: jira.SearchResult{
		Total:  1,
		Issues: []jira.Issue{testIssue("PROJ-1", "first")},
	}})
	if m.View() == "" {
		t.Fatalf("expected non-empty list view")
	}

	m.Update(m.openDetailCmd(testIssue("PROJ-1", "first"))())
	_ = m.View()

	m.Update(transitionsLoadedMsg{key: "PROJ-1", transitions: []jira.Transition{{ID: "1", Name: "Close"}}})
	if m.View() == "" {
		t.Fatalf("expected non-empty transitions view")
	}
}
