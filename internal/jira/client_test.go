package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := NewClientWithBaseURL(server.URL, "user@example.com", "token")
	c.SetRetryConfig(RetryConfig{MaxRetries: 3, Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0})
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClientSendsBasicAuth(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, rawIssue("PROJ-1", nil))
	}))

	_, err := c.GetIssue(context.Background(), "PROJ-1")
	require.NoError(t, err)
	// base64("user@example.com:token")
	assert.Equal(t, "Basic dXNlckBleGFtcGxlLmNvbTp0b2tlbg==", gotAuth)
}

func TestGetIssueParsesResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issue/PROJ-1", r.URL.Path)
		writeJSON(t, w, rawIssue("PROJ-1", nil))
	}))

	issue, err := c.GetIssue(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, CategoryInProgress, issue.Status.Category)
}

func TestClientRecoversFromRateLimitResponse(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(t, w, rawIssue("PROJ-1", nil))
	}))

	start := time.Now()
	issue, err := c.GetIssue(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), penaltyDelay, "a 429 must cost the fixed penalty sleep")
}

func TestClientDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetIssue(context.Background(), "PROJ-404")
	require.Error(t, err)
	assert.Equal(t, KindAPI, ErrKind(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientMapsUnauthorized(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.GetIssue(context.Background(), "PROJ-1")
	require.Error(t, err)
	assert.Equal(t, KindAuthentication, ErrKind(err))
}

func TestSearchLegacyEndpoint(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "project = PROJ", r.URL.Query().Get("jql"))
		writeJSON(t, w, map[string]any{
			"startAt":    0,
			"maxResults": 50,
			"total":      1,
			"issues":     []any{rawIssue("PROJ-1", nil)},
		})
	}))

	result, err := c.Search(context.Background(), "project = PROJ", 0, 50)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, 1, result.Total)
	assert.False(t, result.HasMore())
}

func TestSearchFallsBackToJQLEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/search/jql", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"startAt":    0,
			"maxResults": 50,
			"total":      2,
			"issues": []any{
				map[string]any{"id": "10001", "key": "PROJ-1"},
				map[string]any{"id": "10002", "key": "PROJ-2"},
			},
		})
	})
	mux.HandleFunc("/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, rawIssue("PROJ-1", nil))
	})
	mux.HandleFunc("/issue/PROJ-2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, rawIssue("PROJ-2", nil))
	})
	c := newTestClient(t, mux)

	result, err := c.Search(context.Background(), "project = PROJ", 0, 50)
	require.NoError(t, err)
	assert.Len(t, result.Issues, 2)
	assert.Equal(t, 2, result.Total)

	// The fallback decision sticks: the next search skips the legacy
	// endpoint entirely.
	result, err = c.Search(context.Background(), "project = PROJ", 0, 50)
	require.NoError(t, err)
	assert.Len(t, result.Issues, 2)
}

func TestSearchFanOutToleratesPartialFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/search/jql", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"total": 2,
			"issues": []any{
				map[string]any{"key": "PROJ-1"},
				map[string]any{"key": "PROJ-2"},
			},
		})
	})
	mux.HandleFunc("/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, rawIssue("PROJ-1", nil))
	})
	mux.HandleFunc("/issue/PROJ-2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	result, err := c.Search(context.Background(), "project = PROJ", 0, 50)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1, "the failed fetch is skipped, not fatal")
	assert.Equal(t, "PROJ-1", result.Issues[0].Key)
}

func TestCreateIssueValidatesAndFetchesBack(t *testing.T) {
	_, err := (&Client{}).CreateIssue(context.Background(), CreateIssueData{ProjectKey: "PROJ"})
	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrKind(err))

	var createBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /issue", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&createBody))
		writeJSON(t, w, map[string]any{"id": "10001", "key": "PROJ-9"})
	})
	mux.HandleFunc("GET /issue/PROJ-9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, rawIssue("PROJ-9", nil))
	})
	c := newTestClient(t, mux)

	issue, err := c.CreateIssue(context.Background(), CreateIssueData{
		ProjectKey:  "PROJ",
		Type:        "Task",
		Summary:     "Do the thing",
		Description: "With details.",
	})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-9", issue.Key)

	fields := createBody["fields"].(map[string]any)
	assert.Equal(t, "Do the thing", fields["summary"])
	assert.Equal(t, "With details.", FlattenDocument(fields["description"]))
}

func TestListTransitions(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issue/PROJ-1/transitions", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"transitions": []any{
				map[string]any{"id": "21", "name": "Start Progress", "to": map[string]any{"name": "In Progress"}},
				map[string]any{"id": "31", "name": "Done", "to": map[string]any{"name": "Done"}},
			},
		})
	}))

	transitions, err := c.ListTransitions(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, "21", transitions[0].ID)
	assert.Equal(t, "In Progress", transitions[0].ToStatus)
}

func TestExecuteTransitionWithComment(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.ExecuteTransition(context.Background(), "PROJ-1", "31", "closing this out")
	require.NoError(t, err)

	transition := body["transition"].(map[string]any)
	assert.Equal(t, "31", transition["id"])
	update := body["update"].(map[string]any)
	adds := update["comment"].([]any)
	require.Len(t, adds, 1)
	add := adds[0].(map[string]any)["add"].(map[string]any)
	assert.Equal(t, "closing this out", FlattenDocument(add["body"]))
}

func TestUpdateIssueSendsFields(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/issue/PROJ-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.UpdateIssue(context.Background(), "PROJ-1", UpdateIssueData{
		Fields: map[string]any{"summary": "renamed"},
	})
	require.NoError(t, err)

	fields := body["fields"].(map[string]any)
	assert.Equal(t, "renamed", fields["summary"])
}

func TestUpdateIssueRejectsEmptyFields(t *testing.T) {
	err := (&Client{}).UpdateIssue(context.Background(), "PROJ-1", UpdateIssueData{})
	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrKind(err))
}

func TestAddCommentRejectsEmptyText(t *testing.T) {
	err := (&Client{}).AddComment(context.Background(), "PROJ-1", "   ")
	require.Error(t, err)
	assert.Equal(t, KindValidation, ErrKind(err))
}

func TestListCommentsWrappedShape(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"comments": []any{
				map[string]any{
					"id":      "1",
					"author":  map[string]any{"accountId": "u1", "displayName": "Sam Ortiz"},
					"body":    TextDocument("first"),
					"created": "2024-03-15T10:30:00.000+0000",
				},
			},
		})
	}))

	comments, err := c.ListComments(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "first", comments[0].Body)
}
