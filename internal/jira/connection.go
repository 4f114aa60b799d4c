package jira

import (
	"context"
	"fmt"
)

// ConnectionStatus classifies the outcome of a connectivity probe.
type ConnectionStatus int

const (
	ConnectionOK ConnectionStatus = iota
	ConnectionAuthFailed
	ConnectionUnreachable
	ConnectionFailed
)

func (s ConnectionStatus) String() string {
	switch s {
	case ConnectionOK:
		return "ok"
	case ConnectionAuthFailed:
		return "authentication failed"
	case ConnectionUnreachable:
		return "unreachable"
	default:
		return "failed"
	}
}

// connectionProbeJQL is deliberately bounded: the id-only search
// endpoint rejects unbounded queries.
const connectionProbeJQL = "assignee = currentUser() ORDER BY updated DESC"

// TestConnection runs a minimal search to verify that the instance is
// reachable and the credentials are accepted.
func TestConnection(ctx context.Context, svc Service) (ConnectionStatus, error) {
	_, err := svc.Search(ctx, connectionProbeJQL, 0, 1)
	if err == nil {
		return ConnectionOK, nil
	}
	switch ErrKind(err) {
	case KindAuthentication:
		return ConnectionAuthFailed, fmt.Errorf("check your username and API token: %w", err)
	case KindNetwork:
		return ConnectionUnreachable, fmt.Errorf("check the instance hostname and your network: %w", err)
	default:
		return ConnectionFailed, err
	}
}
