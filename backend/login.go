package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goSession/session"
)

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a successful credential exchange.
type LoginResult struct {
	User session.User
}

type userJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Avatar  string `json:"avatar"`
	IsAdmin bool   `json:"isAdmin"`
}

type loginPayload struct {
	userJSON
	User         *userJSON `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
}

type loginEnvelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	User    *loginPayload   `json:"user"`
}

// Login exchanges credentials for a user profile and token pair.
//
// The user fields may sit directly under "data" or in a nested "user" object,
// and a top-level "user" object carrying the tokens is accepted as well.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	status, body, err := c.postJSON(ctx, c.paths.Login, "", creds)
	if err != nil {
		return nil, fmt.Errorf("backend login: %w", err)
	}

	var env loginEnvelope
	decodeErr := json.Unmarshal(body, &env)

	if (status >= 400 && status < 500) || (decodeErr == nil && env.Error) {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return nil, fmt.Errorf("%w: %s", ErrLoginRejected, msg)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: login returned %d", ErrUnexpectedStatus, status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}

	payload := env.User
	if len(env.Data) > 0 && string(env.Data) != "null" {
		var p loginPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		payload = &p
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: no user payload", ErrMalformedResponse)
	}

	profile := payload.userJSON
	if payload.User != nil {
		profile = *payload.User
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, fmt.Errorf("%w: login did not return a token pair", ErrMalformedResponse)
	}

	return &LoginResult{User: session.User{
		ID:           profile.ID,
		Name:         profile.Name,
		Email:        profile.Email,
		Avatar:       profile.Avatar,
		IsAdmin:      profile.IsAdmin,
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}}, nil
}
