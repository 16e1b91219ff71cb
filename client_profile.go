package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/MrEthical07/goSession/session"
)

// Avatar is an image uploaded with a profile update.
type Avatar struct {
	Filename string
	Data     []byte
}

// ProfileUpdate lists the profile fields to change. Nil fields are left alone.
type ProfileUpdate struct {
	Name   *string
	Email  *string
	Avatar *Avatar
}

type profileResponse struct {
	Data struct {
		Name   *string `json:"name"`
		Email  *string `json:"email"`
		Avatar *string `json:"avatar"`
	} `json:"data"`
}

// UpdateProfile sends a multipart PATCH to the user resource and, on success,
// mirrors the new values into the session. The returned user carries no tokens.
func (c *Client) UpdateProfile(ctx context.Context, sessionID string, upd ProfileUpdate) (*session.User, error) {
	userID, err := c.sessionUserID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	form := NewFormData()
	if upd.Name != nil {
		form.Set("name", *upd.Name)
	}
	if upd.Email != nil {
		form.Set("email", *upd.Email)
	}
	if upd.Avatar != nil {
		form.File("avatar", upd.Avatar.Filename, upd.Avatar.Data)
	}

	resp, err := c.Do(ctx, sessionID, Request{
		Method: http.MethodPatch,
		Path:   c.config.Request.UsersPath + "/" + url.PathEscape(userID),
		Body:   form,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	patch := session.ProfilePatch{Name: upd.Name, Email: upd.Email}
	var parsed profileResponse
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &parsed) == nil {
		if parsed.Data.Name != nil {
			patch.Name = parsed.Data.Name
		}
		if parsed.Data.Email != nil {
			patch.Email = parsed.Data.Email
		}
		if parsed.Data.Avatar != nil {
			patch.Avatar = parsed.Data.Avatar
		}
	}
	if patch.Name == nil && patch.Email == nil && patch.Avatar == nil {
		sess, err := c.Session(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		u := sess.User.Redacted()
		return &u, nil
	}

	sess, err := c.store.Update(ctx, sessionID, session.Patch{Profile: &patch})
	if err != nil {
		return nil, c.storeError(err)
	}
	u := sess.User.Redacted()
	return &u, nil
}

// ChangePassword asks the backend to replace the user's password.
// Non-2xx responses are returned as *StatusError.
func (c *Client) ChangePassword(ctx context.Context, sessionID, current, next string) error {
	userID, err := c.sessionUserID(ctx, sessionID)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, sessionID, Request{
		Method: http.MethodPatch,
		Path:   c.config.Request.UsersPath + "/" + url.PathEscape(userID) + "/change-password",
		Body: JSONBody(map[string]string{
			"currentPassword": current,
			"newPassword":     next,
		}),
	}, nil)
}

func (c *Client) sessionUserID(ctx context.Context, sessionID string) (string, error) {
	sess, err := c.store.Read(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrNoAccessToken
		}
		return "", fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}
	if !sess.HasAccessToken() {
		return "", ErrNoAccessToken
	}
	if sess.User.ID == "" {
		return "", fmt.Errorf("%w: session has no user id", ErrInvalidRequest)
	}
	return sess.User.ID, nil
}
