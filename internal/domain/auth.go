package domain

import (
	"errors"
	"time"
)

// DefaultTokenLifetime applies when the token endpoint omits expires_in.
const DefaultTokenLifetime = 2 * time.Hour

type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (t TokenSet) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Validate enforces that an access token always travels with its expiry.
func (t TokenSet) Validate() error {
	if t.AccessToken == "" {
		return errors.New("access token is empty")
	}
	if t.ExpiresAt.IsZero() {
		return errors.New("access token has no expiry")
	}
	return nil
}

// ExpiringWithin reports whether the access token is expired or will expire
// before now+skew.
func (t TokenSet) ExpiringWithin(now time.Time, skew time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !t.ExpiresAt.After(now.Add(skew))
}

func (t TokenSet) CanRefresh() bool {
	return t.RefreshToken != ""
}

// ExpiryFromLifetime turns an expires_in value into an absolute time.
func ExpiryFromLifetime(now time.Time, expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return now.Add(DefaultTokenLifetime)
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}

type LoginState string

const (
	LoginIdle             LoginState = "idle"
	LoginAwaitingCallback LoginState = "awaiting_callback"
	LoginExchanging       LoginState = "exchanging"
	LoginAuthenticated    LoginState = "authenticated"
	LoginFailed           LoginState = "failed"
)

type Workspace struct {
	UserID        string `json:"user_id,omitempty"`
	UserName      string `json:"user_name,omitempty"`
	Email         string `json:"email,omitempty"`
	WorkspaceID   string `json:"workspace_id,omitempty"`
	WorkspaceName string `json:"workspace_name,omitempty"`
	WorkspaceSlug string `json:"workspace_slug,omitempty"`
}
