// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"net/http"
)

// Authenticator bridges the authorization endpoint to whatever end-user
// authentication mechanism the deployment uses. The provider never renders
// login pages itself; unauthenticated requests are handed off to the URI
// returned by Authenticate carrying the pending request as a signed JWT.
type Authenticator interface {
	// IsAuthenticated reports whether the request carries a valid end-user
	// session.
	IsAuthenticated(ctx context.Context, r *http.Request) (authenticated bool, err error)

	// GetSubject returns the subject identifier of the authenticated end-user.
	// Only called after IsAuthenticated has returned true.
	GetSubject(ctx context.Context, r *http.Request) (subject string, err error)

	// GetAuthTime returns the time of the end-user's most recent active
	// authentication. A zero time means the authentication time is unknown.
	GetAuthTime(ctx context.Context, r *http.Request) (authTime int64, err error)

	// GetACR returns the authentication context class reference satisfied by
	// the current session, or the empty string.
	GetACR(ctx context.Context, r *http.Request) (acr string, err error)

	// Authenticate returns the URI the end-user should be redirected to in
	// order to authenticate. The pending authentication request is passed as a
	// signed JWT along with the URI to return to once authentication succeeds.
	Authenticate(ctx context.Context, requestJWT string, redirectURI string) (location string, err error)
}

// ConsentHandler is optionally implemented by Authenticators which render a
// consent page. When absent, prompt=consent requests proceed as if consent
// had been granted.
type ConsentHandler interface {
	// Consent returns the URI of the consent page for the pending request.
	Consent(ctx context.Context, requestJWT string, redirectURI string) (location string, err error)
}

// AccountSelector is optionally implemented by Authenticators which can offer
// the end-user a choice between multiple active sessions. When absent,
// prompt=select_account requests fail with the account_selection_required
// error.
type AccountSelector interface {
	// SelectAccount returns the URI of the account chooser for the pending
	// request.
	SelectAccount(ctx context.Context, requestJWT string, redirectURI string) (location string, err error)
}

// SessionTerminator is optionally implemented by Authenticators which support
// RP-initiated logout.
type SessionTerminator interface {
	// EndSession tears down the end-user session and returns the URI to
	// redirect to afterwards, typically the validated post-logout redirect
	// URI.
	EndSession(ctx context.Context, w http.ResponseWriter, r *http.Request, postLogoutRedirectURI string) (location string, err error)
}

// Userinfo holds the standard claims returned by the userinfo endpoint.
type Userinfo struct {
	Subject       string `json:"sub"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Locale        string `json:"locale,omitempty"`
	UpdatedAt     int64  `json:"updated_at,omitempty"`
}

// UserinfoProvider loads the claims for a subject. The set of claims actually
// returned is scoped by the granted scope values.
type UserinfoProvider interface {
	GetUserinfo(ctx context.Context, subject string, scopes Arguments) (info *Userinfo, err error)
}
