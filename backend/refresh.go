package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// RefreshKind discriminates a [RefreshResult].
type RefreshKind int

const (
	// RefreshRejected means the refresh token is no longer usable.
	RefreshRejected RefreshKind = iota
	// RefreshSuccess means the backend issued a new access token.
	RefreshSuccess
)

func (k RefreshKind) String() string {
	switch k {
	case RefreshSuccess:
		return "success"
	case RefreshRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Rejection codes produced when the backend gave no code of its own.
const (
	CodeMalformed = "malformed"
	CodeRejected  = "rejected"
)

// RefreshResult is the normalized outcome of a refresh call.
//
// For RefreshSuccess, RefreshToken is empty when the backend did not rotate it.
// For RefreshRejected, Code and Message describe the rejection.
type RefreshResult struct {
	Kind         RefreshKind
	AccessToken  string
	RefreshToken string
	Code         string
	Message      string
}

// Rejected reports whether the result is a rejection.
func (r RefreshResult) Rejected() bool {
	return r.Kind != RefreshSuccess
}

// Refresh exchanges refreshToken for a new pair. A non-nil error means the
// request never produced an HTTP response; every response is decoded with
// [DecodeRefreshResponse].
func (c *Client) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	status, body, err := c.postJSON(ctx, c.paths.Refresh, "", map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		return RefreshResult{}, fmt.Errorf("backend refresh: %w", err)
	}
	return DecodeRefreshResponse(status, body), nil
}

// DecodeRefreshResponse normalizes a refresh response body.
//
// A rejection is signaled by "error": true or "code": 401 (number or string),
// either at the top level or under "data". Success requires a non-empty string
// "data.accessToken" and a 2xx status. Anything else is a rejection with
// [CodeMalformed], or an HTTP status code when the body said nothing.
func DecodeRefreshResponse(status int, body []byte) RefreshResult {
	var top map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&top); err != nil || top == nil {
		return rejectByStatus(status, "unreadable refresh response")
	}

	data, _ := top["data"].(map[string]any)

	for _, obj := range []map[string]any{top, data} {
		if obj == nil {
			continue
		}
		if isRejection(obj) {
			return RefreshResult{
				Kind:    RefreshRejected,
				Code:    rejectionCode(obj),
				Message: firstMessage(obj, top),
			}
		}
	}

	if status < 200 || status > 299 {
		return rejectByStatus(status, firstMessage(top, data))
	}
	if data == nil {
		return RefreshResult{Kind: RefreshRejected, Code: CodeMalformed, Message: "refresh response has no data"}
	}

	access, ok := data["accessToken"].(string)
	if !ok || access == "" {
		return RefreshResult{Kind: RefreshRejected, Code: CodeMalformed, Message: "refresh response has no access token"}
	}
	rotated, _ := data["refreshToken"].(string)

	return RefreshResult{
		Kind:         RefreshSuccess,
		AccessToken:  access,
		RefreshToken: rotated,
	}
}

func isRejection(obj map[string]any) bool {
	if flag, ok := obj["error"].(bool); ok && flag {
		return true
	}
	return codeIs401(obj["code"])
}

func codeIs401(v any) bool {
	switch c := v.(type) {
	case json.Number:
		n, err := c.Int64()
		return err == nil && n == 401
	case string:
		n, err := strconv.Atoi(c)
		return err == nil && n == 401
	default:
		return false
	}
}

func rejectionCode(obj map[string]any) string {
	switch c := obj["code"].(type) {
	case json.Number:
		return c.String()
	case string:
		if c != "" {
			return c
		}
	}
	return CodeRejected
}

func firstMessage(objs ...map[string]any) string {
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return ""
}

func rejectByStatus(status int, msg string) RefreshResult {
	code := CodeMalformed
	if status != 0 && (status < 200 || status > 299) {
		code = strconv.Itoa(status)
	}
	return RefreshResult{Kind: RefreshRejected, Code: code, Message: msg}
}
