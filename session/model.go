package session

import (
	"errors"
	"time"
)

// ErrInvalidPatch is returned when a patch would break the token pairing invariant.
var ErrInvalidPatch = errors.New("invalid session patch")

// ErrInvalidSession is returned when a session cannot be created as given.
var ErrInvalidSession = errors.New("invalid session")

// User is the signed-in identity together with its current token pair.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Avatar       string `json:"avatar,omitempty"`
	IsAdmin      bool   `json:"isAdmin"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Redacted returns a copy of u without its tokens.
func (u User) Redacted() User {
	u.AccessToken = ""
	u.RefreshToken = ""
	return u
}

// Session is the record held for one authenticated browser context.
type Session struct {
	ID        string `json:"-"`
	User      User   `json:"user"`
	Version   uint64 `json:"version"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// HasAccessToken reports whether the session holds a usable token pair.
func (s *Session) HasAccessToken() bool {
	return s != nil && s.User.AccessToken != "" && s.User.RefreshToken != ""
}

// TokenPair is an access token and the refresh token it was issued with.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ProfilePatch updates the non-credential user fields. Nil fields are left untouched.
type ProfilePatch struct {
	Name   *string
	Email  *string
	Avatar *string
}

// Patch describes an update applied atomically by [Store.Update].
type Patch struct {
	Tokens  *TokenPair
	Profile *ProfilePatch
}

// Validate checks the patch against the token pairing invariant.
func (p Patch) Validate() error {
	if p.Tokens == nil && p.Profile == nil {
		return ErrInvalidPatch
	}
	if p.Tokens != nil && (p.Tokens.AccessToken == "" || p.Tokens.RefreshToken == "") {
		return ErrInvalidPatch
	}
	return nil
}

func (p Patch) apply(s *Session, now time.Time) {
	if p.Tokens != nil {
		s.User.AccessToken = p.Tokens.AccessToken
		s.User.RefreshToken = p.Tokens.RefreshToken
	}
	if p.Profile != nil {
		if p.Profile.Name != nil {
			s.User.Name = *p.Profile.Name
		}
		if p.Profile.Email != nil {
			s.User.Email = *p.Profile.Email
		}
		if p.Profile.Avatar != nil {
			s.User.Avatar = *p.Profile.Avatar
		}
	}
	s.Version++
	s.UpdatedAt = now.Unix()
}

func validateNew(s *Session) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}
	if s.User.AccessToken != "" && s.User.RefreshToken == "" {
		return ErrInvalidSession
	}
	return nil
}
