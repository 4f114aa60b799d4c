package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lazyjira/lazyjira/internal/logging"
	"github.com/lazyjira/lazyjira/internal/logging/events"
)

// Service is the capability surface the UI programs against.
// Production traffic goes through *Client; tests substitute doubles.
type Service interface {
	GetIssue(ctx context.Context, key string) (Issue, error)
	Search(ctx context.Context, jql string, startAt, maxResults int) (SearchResult, error)
	CreateIssue(ctx context.Context, data CreateIssueData) (Issue, error)
	UpdateIssue(ctx context.Context, key string, data UpdateIssueData) error
	ListTransitions(ctx context.Context, key string) ([]Transition, error)
	ExecuteTransition(ctx context.Context, key, transitionID, comment string) error
	AddComment(ctx context.Context, key, text string) error
	ListComments(ctx context.Context, key string) ([]Comment, error)
}

const (
	requestTimeout = 30 * time.Second

	// penaltyDelay is slept on every 429 before the error is surfaced,
	// so reactive backoff composes with the token bucket instead of
	// racing it.
	penaltyDelay = time.Second
)

// Client talks to the Jira Cloud REST API v3 with Basic auth, a token
// bucket in front of every operation and retry-with-backoff around
// every request.
type Client struct {
	http       *http.Client
	baseURL    string
	authHeader string
	limiter    *RateLimiter
	retry      RetryConfig

	// useJQLSearch flips to true once the legacy search endpoint
	// reports itself gone, switching all later searches to the
	// id-only search/jql shape.
	useJQLSearch atomic.Bool
}

var _ Service = (*Client)(nil)

// NewClient builds a client for the given Jira instance, e.g.
// "company.atlassian.net", authenticating as username with an API
// token.
func NewClient(instance, username, token string) (*Client, error) {
	if err := ValidateInstance(instance); err != nil {
		return nil, err
	}
	if username == "" || token == "" {
		return nil, errConfig("username and API token are required")
	}
	return NewClientWithBaseURL("https://"+instance+"/rest/api/3", username, token), nil
}

// NewClientWithBaseURL builds a client against an explicit base URL.
// Tests point this at a local server.
func NewClientWithBaseURL(baseURL, username, token string) *Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + token))
	return &Client{
		http:       &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		authHeader: "Basic " + credentials,
		limiter:    JiraCloudLimiter(),
		retry:      DefaultRetryConfig(),
	}
}

// SetRateLimiter replaces the default Jira Cloud limiter.
func (c *Client) SetRateLimiter(l *RateLimiter) { c.limiter = l }

// SetRetryConfig replaces the default retry policy.
func (c *Client) SetRetryConfig(cfg RetryConfig) { c.retry = cfg }

// GetIssue fetches a single issue. key accepts both the human key
// ("PROJ-123") and the numeric id.
func (c *Client) GetIssue(ctx context.Context, key string) (Issue, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return Issue{}, err
	}
	return Retry(ctx, c.retry, func() (Issue, error) {
		raw, err := c.doJSON(ctx, http.MethodGet, "issue/"+url.PathEscape(key), nil)
		if err != nil {
			return Issue{}, err
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return Issue{}, errParse("issue response is not an object")
		}
		return ParseIssue(obj)
	})
}

// Search runs a JQL query. The legacy search endpoint returns full
// issue bodies; once the server reports that endpoint gone the client
// switches to search/jql, which returns ids only and requires a
// fan-out of GetIssue calls to materialize issues.
func (c *Client) Search(ctx context.Context, jql string, startAt, maxResults int) (SearchResult, error) {
	if !c.useJQLSearch.Load() {
		result, err := c.searchLegacy(ctx, jql, startAt, maxResults)
		if e, ok := err.(*Error); ok && e.Kind == KindAPI && (e.StatusCode == 404 || e.StatusCode == 410) {
			c.useJQLSearch.Store(true)
		} else {
			return result, err
		}
	}
	return c.searchJQL(ctx, jql, startAt, maxResults)
}

func (c *Client) searchLegacy(ctx context.Context, jql string, startAt, maxResults int) (SearchResult, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return SearchResult{}, err
	}
	endpoint := fmt.Sprintf("search?jql=%s&startAt=%d&maxResults=%d", url.QueryEscape(jql), startAt, maxResults)
	return Retry(ctx, c.retry, func() (SearchResult, error) {
		raw, err := c.doJSON(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return SearchResult{}, err
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return SearchResult{}, errParse("search response is not an object")
		}
		return ParseSearchResults(obj, startAt, maxResults)
	})
}

// searchJQL queries the id-only endpoint and fans out one GetIssue per
// hit. Individual fetch failures are skipped: a partial page is better
// than none.
func (c *Client) searchJQL(ctx context.Context, jql string, startAt, maxResults int) (SearchResult, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return SearchResult{}, err
	}
	endpoint := fmt.Sprintf("search/jql?jql=%s&startAt=%d&maxResults=%d", url.QueryEscape(jql), startAt, maxResults)
	raw, err := Retry(ctx, c.retry, func() (any, error) {
		return c.doJSON(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return SearchResult{}, err
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return SearchResult{}, errParse("search response is not an object")
	}

	ids := searchHitIDs(obj)
	result := SearchResult{
		StartAt:    intField(obj, "startAt", startAt),
		MaxResults: intField(obj, "maxResults", maxResults),
		Total:      intField(obj, "total", 0),
	}

	fetched := make([]*Issue, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			issue, err := c.GetIssue(ctx, id)
			if err != nil {
				logging.Warn(fmt.Sprintf("search fan-out: skipping issue %s: %v", id, err))
				return
			}
			fetched[i] = &issue
		}()
	}
	wg.Wait()

	for _, issue := range fetched {
		if issue != nil {
			result.Issues = append(result.Issues, *issue)
		}
	}
	events.API.FanOut(len(ids), len(result.Issues))
	return result, nil
}

// searchHitIDs pulls issue identifiers out of an id-only search page,
// preferring the key when present.
func searchHitIDs(obj map[string]any) []string {
	arr, ok := obj["issues"].([]any)
	if !ok {
		arr, _ = obj["values"].([]any)
	}
	ids := make([]string, 0, len(arr))
	for _, entry := range arr {
		hit, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if key, ok := hit["key"].(string); ok && key != "" {
			ids = append(ids, key)
			continue
		}
		if id, ok := hit["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// CreateIssue creates a new issue and fetches the created issue back.
func (c *Client) CreateIssue(ctx context.Context, data CreateIssueData) (Issue, error) {
	if strings.TrimSpace(data.Summary) == "" {
		return Issue{}, errValidation("summary cannot be empty")
	}
	if data.ProjectKey == "" {
		return Issue{}, errValidation("project key cannot be empty")
	}
	fields := map[string]any{
		"project":   map[string]any{"key": data.ProjectKey},
		"issuetype": map[string]any{"name": data.Type},
		"summary":   data.Summary,
	}
	if data.Description != "" {
		fields["description"] = TextDocument(data.Description)
	}
	if data.AssigneeID != "" {
		fields["assignee"] = map[string]any{"accountId": data.AssigneeID}
	}
	if data.Priority != "" {
		fields["priority"] = map[string]any{"name": data.Priority}
	}

	if err := c.limiter.Acquire(ctx); err != nil {
		return Issue{}, err
	}
	created, err := Retry(ctx, c.retry, func() (string, error) {
		raw, err := c.doJSON(ctx, http.MethodPost, "issue", map[string]any{"fields": fields})
		if err != nil {
			return "", err
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return "", errParse("create response is not an object")
		}
		key, ok := obj["key"].(string)
		if !ok {
			return "", errParse("missing 'key' field")
		}
		return key, nil
	})
	if err != nil {
		return Issue{}, err
	}
	return c.GetIssue(ctx, created)
}

// UpdateIssue applies raw field updates to an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, data UpdateIssueData) error {
	if len(data.Fields) == 0 {
		return errValidation("no fields to update")
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}
	_, err := Retry(ctx, c.retry, func() (struct{}, error) {
		_, err := c.doJSON(ctx, http.MethodPut, "issue/"+url.PathEscape(key), map[string]any{"fields": data.Fields})
		return struct{}{}, err
	})
	return err
}

// ListTransitions fetches the workflow edges currently available for
// an issue. The edge set is server-owned and can change between calls.
func (c *Client) ListTransitions(ctx context.Context, key string) ([]Transition, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return Retry(ctx, c.retry, func() ([]Transition, error) {
		raw, err := c.doJSON(ctx, http.MethodGet, "issue/"+url.PathEscape(key)+"/transitions", nil)
		if err != nil {
			return nil, err
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, errParse("transitions response is not an object")
		}
		arr, ok := obj["transitions"].([]any)
		if !ok {
			return nil, errParse("missing 'transitions' array")
		}
		transitions := make([]Transition, 0, len(arr))
		for _, entry := range arr {
			t, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			id, _ := t["id"].(string)
			name, _ := t["name"].(string)
			var toStatus string
			if to, ok := t["to"].(map[string]any); ok {
				toStatus, _ = to["name"].(string)
			}
			if id == "" {
				continue
			}
			transitions = append(transitions, Transition{ID: id, Name: name, ToStatus: toStatus})
		}
		return transitions, nil
	})
}

// ExecuteTransition moves an issue along a workflow edge, optionally
// attaching a comment to the transition.
func (c *Client) ExecuteTransition(ctx context.Context, key, transitionID, comment string) error {
	if transitionID == "" {
		return errValidation("transition id cannot be empty")
	}
	body := map[string]any{
		"transition": map[string]any{"id": transitionID},
	}
	if comment != "" {
		body["update"] = map[string]any{
			"comment": []any{
				map[string]any{"add": map[string]any{"body": TextDocument(comment)}},
			},
		}
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}
	_, err := Retry(ctx, c.retry, func() (struct{}, error) {
		_, err := c.doJSON(ctx, http.MethodPost, "issue/"+url.PathEscape(key)+"/transitions", body)
		return struct{}{}, err
	})
	return err
}

// AddComment posts a plain-text comment, encoded as an ADF document.
func (c *Client) AddComment(ctx context.Context, key, text string) error {
	if strings.TrimSpace(text) == "" {
		return errValidation("comment cannot be empty")
	}
	if err := c.limiter.Acquire(ctx); err != nil {
		return err
	}
	_, err := Retry(ctx, c.retry, func() (struct{}, error) {
		_, err := c.doJSON(ctx, http.MethodPost, "issue/"+url.PathEscape(key)+"/comment", map[string]any{"body": TextDocument(text)})
		return struct{}{}, err
	})
	return err
}

// ListComments fetches an issue's comment feed.
func (c *Client) ListComments(ctx context.Context, key string) ([]Comment, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return Retry(ctx, c.retry, func() ([]Comment, error) {
		raw, err := c.doJSON(ctx, http.MethodGet, "issue/"+url.PathEscape(key)+"/comment", nil)
		if err != nil {
			return nil, err
		}
		return ParseComments(raw)
	})
}

// doJSON sends one authenticated request and decodes the JSON body. A
// 204 yields nil. 401/403 become Authentication errors; 429 sleeps the
// fixed penalty before surfacing a retryable API error; any other
// non-2xx becomes an API error carrying status and body text.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any) (any, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errInternal("encoding request body: " + err.Error())
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, reqBody)
	if err != nil {
		return nil, errInternal("building request: " + err.Error())
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	events.API.Request(method, endpoint)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errNetwork("request failed", err)
	}
	defer resp.Body.Close()
	events.API.Response(method, endpoint, resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errNetwork("reading response body", err)
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, errParse("response is not valid JSON: " + err.Error())
		}
		return decoded, nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, errAuth("unauthorized")
	case http.StatusForbidden:
		return nil, errAuth("forbidden")
	case http.StatusTooManyRequests:
		events.API.Penalty(resp.StatusCode)
		timer := time.NewTimer(penaltyDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		return nil, errAPI(resp.StatusCode, strings.TrimSpace(string(text)))
	default:
		return nil, errAPI(resp.StatusCode, strings.TrimSpace(string(text)))
	}
}
