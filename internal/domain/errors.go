package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSecretNotFound    = errors.New("secret not found")
	ErrCredentialCorrupt = errors.New("stored credentials are corrupt")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrStateMismatch     = errors.New("oauth callback state mismatch")
	ErrLoginTimeout      = errors.New("timed out waiting for oauth callback")
	ErrTokenExchange     = errors.New("token exchange failed")
	ErrRefreshExpired    = errors.New("refresh token expired or revoked")
	ErrInvalidRequest    = errors.New("invalid api request")
	ErrLinkNotFound      = errors.New("link not found")
	ErrMissingClientID   = errors.New("oauth client id is not configured")
)

// AuthProtocolError carries what the authorization server said when a grant
// was rejected. Kind is one of ErrTokenExchange or ErrRefreshExpired.
type AuthProtocolError struct {
	Kind        error
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *AuthProtocolError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	switch {
	case e.Code != "" && e.Description != "":
		msg += ": " + e.Code + ": " + e.Description
	case e.Code != "":
		msg += ": " + e.Code
	case e.Description != "":
		msg += ": " + e.Description
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
