package flows

import (
	"context"
	"io"
	"net/http"
)

// ExecuteState is the per-request authentication state.
type ExecuteState int

const (
	StateUnauthenticated ExecuteState = iota
	StateValid
	StateRefreshing
	StateInvalid
)

func (s ExecuteState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ExecuteFailureKind classifies executor failures for root-level mapping.
type ExecuteFailureKind int

const (
	ExecuteFailureNone ExecuteFailureKind = iota
	ExecuteFailureNoAccessToken
	ExecuteFailureBuild
	ExecuteFailureNetwork
	ExecuteFailureRefresh
)

// maxDrainBytes bounds how much of a 401 body is read before the connection is released.
const maxDrainBytes = 64 << 10

// ExecuteDeps captures executor dependencies for a single call.
type ExecuteDeps struct {
	// CurrentToken returns the session's access token, or "" when there is none.
	CurrentToken func(ctx context.Context) (string, error)
	// Build creates a fresh request carrying accessToken. It is called once per attempt.
	Build func(ctx context.Context, accessToken string) (*http.Request, error)
	// Send performs one HTTP round trip.
	Send func(req *http.Request) (*http.Response, error)
	// Refresh obtains a new access token after rejectedToken got a 401.
	Refresh func(ctx context.Context, rejectedToken string) (string, error)
	// OnTransition observes state changes. Optional.
	OnTransition func(from, to ExecuteState)
}

// ExecuteResult is the outcome of RunExecute.
type ExecuteResult struct {
	Response  *http.Response
	State     ExecuteState
	Failure   ExecuteFailureKind
	Err       error
	Attempts  int
	Refreshed bool
}

// RunExecute sends a request with bearer auth and drives at most one
// refresh-then-retry cycle on 401. Transport errors are never retried.
func RunExecute(ctx context.Context, deps ExecuteDeps) ExecuteResult {
	state := StateUnauthenticated
	move := func(to ExecuteState) {
		if deps.OnTransition != nil && to != state {
			deps.OnTransition(state, to)
		}
		state = to
	}

	token, err := deps.CurrentToken(ctx)
	if err != nil || token == "" {
		return ExecuteResult{State: state, Failure: ExecuteFailureNoAccessToken, Err: err}
	}
	move(StateValid)

	resp, failure, err := sendOnce(ctx, token, deps)
	if failure != ExecuteFailureNone {
		return ExecuteResult{State: state, Failure: failure, Err: err, Attempts: attemptsFor(failure, 1)}
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return ExecuteResult{Response: resp, State: state, Attempts: 1}
	}

	drainAndClose(resp)
	move(StateRefreshing)

	fresh, err := deps.Refresh(ctx, token)
	if err != nil {
		move(StateInvalid)
		return ExecuteResult{State: state, Failure: ExecuteFailureRefresh, Err: err, Attempts: 1}
	}
	move(StateValid)

	resp, failure, err = sendOnce(ctx, fresh, deps)
	if failure != ExecuteFailureNone {
		return ExecuteResult{State: state, Failure: failure, Err: err, Attempts: attemptsFor(failure, 2), Refreshed: true}
	}
	return ExecuteResult{Response: resp, State: state, Attempts: 2, Refreshed: true}
}

func sendOnce(ctx context.Context, token string, deps ExecuteDeps) (*http.Response, ExecuteFailureKind, error) {
	req, err := deps.Build(ctx, token)
	if err != nil {
		return nil, ExecuteFailureBuild, err
	}
	resp, err := deps.Send(req)
	if err != nil {
		return nil, ExecuteFailureNetwork, err
	}
	return resp, ExecuteFailureNone, nil
}

func attemptsFor(kind ExecuteFailureKind, n int) int {
	if kind == ExecuteFailureBuild {
		return n - 1
	}
	return n
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()
}
