package jira

import (
	"fmt"
	"time"

	"github.com/lazyjira/lazyjira/internal/logging"
)

// Timestamp layouts accepted from the server, tried in order. Jira
// Cloud emits the offset-bearing form; the naive and RFC 3339 forms
// cover older instances and middleware rewrites.
var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000",
	time.RFC3339,
}

// Priority names the server may use, plus the numeric-id fallback table
// consulted when a custom priority scheme renames the levels.
var priorityNames = map[string]Priority{
	"Lowest":   PriorityLowest,
	"Low":      PriorityLow,
	"Medium":   PriorityMedium,
	"High":     PriorityHigh,
	"Highest":  PriorityHighest,
	"Critical": PriorityCritical,
}

var priorityIDs = map[string]Priority{
	"1": PriorityHighest,
	"2": PriorityHigh,
	"3": PriorityMedium,
	"4": PriorityLow,
	"5": PriorityLowest,
}

// ParseIssue maps a decoded issue JSON object into an Issue. Required
// fields fail with a Parse error naming the field; priority, assignee
// and description are optional.
func ParseIssue(raw map[string]any) (Issue, error) {
	id, err := requireString(raw, "id")
	if err != nil {
		return Issue{}, err
	}
	key, err := requireString(raw, "key")
	if err != nil {
		return Issue{}, err
	}
	fields, ok := raw["fields"].(map[string]any)
	if !ok {
		return Issue{}, errParse("missing 'fields' object")
	}
	summary, err := requireString(fields, "summary")
	if err != nil {
		return Issue{}, err
	}
	status, err := parseStatus(fields)
	if err != nil {
		return Issue{}, err
	}
	assignee, err := parseAssignee(fields)
	if err != nil {
		return Issue{}, err
	}
	issueType, err := requireNestedString(fields, "issuetype", "name")
	if err != nil {
		return Issue{}, err
	}
	projectKey, err := requireNestedString(fields, "project", "key")
	if err != nil {
		return Issue{}, err
	}
	created, err := parseTime(fields, "created")
	if err != nil {
		return Issue{}, err
	}
	updated, err := parseTime(fields, "updated")
	if err != nil {
		return Issue{}, err
	}

	return Issue{
		ID:          id,
		Key:         key,
		Summary:     summary,
		Status:      status,
		Assignee:    assignee,
		Priority:    parsePriority(fields),
		Type:        issueType,
		ProjectKey:  projectKey,
		Description: FlattenDocument(fields["description"]),
		Created:     created,
		Updated:     updated,
	}, nil
}

func parseStatus(fields map[string]any) (Status, error) {
	obj, ok := fields["status"].(map[string]any)
	if !ok {
		return Status{}, errParse("missing 'status' field")
	}
	id, err := requireString(obj, "id")
	if err != nil {
		return Status{}, errParse("missing status 'id' field")
	}
	name, err := requireString(obj, "name")
	if err != nil {
		return Status{}, errParse("missing status 'name' field")
	}
	catObj, _ := obj["statusCategory"].(map[string]any)
	key, _ := catObj["key"].(string)
	var category StatusCategory
	switch key {
	case "new":
		category = CategoryToDo
	case "indeterminate":
		category = CategoryInProgress
	case "done":
		category = CategoryDone
	case "":
		return Status{}, errParse("missing 'statusCategory.key' field")
	default:
		return Status{}, errParsef("unknown status category %q", key)
	}
	return Status{ID: id, Name: name, Category: category}, nil
}

// parsePriority never fails: absent priorities default to Medium, and
// unrecognized names fall back to the numeric-id table, then Medium.
func parsePriority(fields map[string]any) Priority {
	obj, ok := fields["priority"].(map[string]any)
	if !ok {
		return PriorityMedium
	}
	if name, ok := obj["name"].(string); ok {
		if p, ok := priorityNames[name]; ok {
			return p
		}
	}
	if id, ok := obj["id"].(string); ok {
		if p, ok := priorityIDs[id]; ok {
			return p
		}
	}
	return PriorityMedium
}

func parseAssignee(fields map[string]any) (*User, error) {
	raw, present := fields["assignee"]
	if !present || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errParse("missing assignee 'accountId' field")
	}
	user, err := parseUser(obj)
	if err != nil {
		return nil, errParse("missing assignee 'accountId' field")
	}
	return &user, nil
}

func parseUser(obj map[string]any) (User, error) {
	accountID, ok := obj["accountId"].(string)
	if !ok || accountID == "" {
		return User{}, errParse("missing 'accountId' field")
	}
	displayName, ok := obj["displayName"].(string)
	if !ok {
		displayName = "Unknown"
	}
	email, _ := obj["emailAddress"].(string)
	return User{AccountID: accountID, DisplayName: displayName, Email: email}, nil
}

// ParseComments accepts both response shapes Jira has shipped: a bare
// array, and an object wrapping a "comments" array. Malformed entries
// are skipped with a warning so one bad comment cannot void the feed.
func ParseComments(raw any) ([]Comment, error) {
	var entries []any
	switch v := raw.(type) {
	case []any:
		entries = v
	case map[string]any:
		arr, ok := v["comments"].([]any)
		if !ok {
			return nil, errParse("missing 'comments' array in response")
		}
		entries = arr
	default:
		return nil, errParse("expected array or object with 'comments' field")
	}

	comments := make([]Comment, 0, len(entries))
	for idx, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			logging.Warn(fmt.Sprintf("skipping comment at index %d: not an object", idx))
			continue
		}
		id, ok := obj["id"].(string)
		if !ok {
			logging.Warn(fmt.Sprintf("skipping comment at index %d: missing 'id' field", idx))
			continue
		}
		authorObj, ok := obj["author"].(map[string]any)
		if !ok {
			logging.Warn(fmt.Sprintf("skipping comment %s: missing 'author' field", id))
			continue
		}
		author, err := parseUser(authorObj)
		if err != nil {
			logging.Warn(fmt.Sprintf("skipping comment %s: %v", id, err))
			continue
		}
		created, err := parseTime(obj, "created")
		if err != nil {
			logging.Warn(fmt.Sprintf("skipping comment %s: %v", id, err))
			continue
		}
		var updated *time.Time
		if _, ok := obj["updated"].(string); ok {
			if t, err := parseTime(obj, "updated"); err == nil {
				updated = &t
			}
		}
		comments = append(comments, Comment{
			ID:      id,
			Author:  author,
			Body:    FlattenDocument(obj["body"]),
			Created: created,
			Updated: updated,
		})
	}
	return comments, nil
}

// ParseSearchResults extracts one page of search results. Pagination
// fields default to the request's own parameters when the server omits
// them; issue entries that fail to parse are logged and dropped rather
// than failing the page.
func ParseSearchResults(raw map[string]any, startAt, maxResults int) (SearchResult, error) {
	result := SearchResult{
		StartAt:    intField(raw, "startAt", startAt),
		MaxResults: intField(raw, "maxResults", maxResults),
		Total:      intField(raw, "total", 0),
	}

	arr, ok := raw["issues"].([]any)
	if !ok {
		arr, ok = raw["values"].([]any)
	}
	if !ok {
		return SearchResult{}, errParse("missing 'issues' or 'values' array")
	}

	for idx, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			logging.Warn(fmt.Sprintf("skipping search result at index %d: not an object", idx))
			continue
		}
		issue, err := ParseIssue(obj)
		if err != nil {
			logging.Warn(fmt.Sprintf("skipping search result at index %d: %v", idx, err))
			continue
		}
		result.Issues = append(result.Issues, issue)
	}
	return result, nil
}

func parseTime(obj map[string]any, field string) (time.Time, error) {
	str, ok := obj[field].(string)
	if !ok {
		return time.Time{}, errParsef("missing '%s' field", field)
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errParsef("failed to parse %s timestamp %q", field, str)
}

func requireString(obj map[string]any, field string) (string, error) {
	v, ok := obj[field].(string)
	if !ok {
		return "", errParsef("missing '%s' field", field)
	}
	return v, nil
}

func requireNestedString(obj map[string]any, outer, inner string) (string, error) {
	nested, ok := obj[outer].(map[string]any)
	if !ok {
		return "", errParsef("missing '%s' field", outer)
	}
	v, ok := nested[inner].(string)
	if !ok {
		return "", errParsef("missing %s '%s' field", outer, inner)
	}
	return v, nil
}

// intField reads a JSON number defensively; encoding/json decodes
// numbers as float64.
func intField(obj map[string]any, field string, fallback int) int {
	if v, ok := obj[field].(float64); ok {
		return int(v)
	}
	return fallback
}
