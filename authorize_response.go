// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"net/http"
	"net/url"

	"trajano.net/provider/openid/internal/consts"
)

// AuthorizeResponse is the outcome of a successfully processed authorization
// request. It either redirects back to the client carrying parameters, or
// hands the end-user off to another endpoint such as login or consent.
type AuthorizeResponse struct {
	Header     http.Header
	Parameters url.Values

	code     string
	location string
	status   int
}

func NewAuthorizeResponse() *AuthorizeResponse {
	return &AuthorizeResponse{
		Header:     http.Header{},
		Parameters: url.Values{},
		status:     http.StatusFound,
	}
}

// NewAuthorizeHandoff returns a response which sends the end-user to another
// endpoint, preserving the request method with a temporary redirect.
func NewAuthorizeHandoff(location string) *AuthorizeResponse {
	return &AuthorizeResponse{
		Header:     http.Header{},
		Parameters: url.Values{},
		location:   location,
		status:     http.StatusTemporaryRedirect,
	}
}

func (a *AuthorizeResponse) GetCode() string {
	return a.code
}

func (a *AuthorizeResponse) GetHeader() http.Header {
	return a.Header
}

func (a *AuthorizeResponse) AddHeader(key, value string) {
	a.Header.Add(key, value)
}

func (a *AuthorizeResponse) GetParameters() url.Values {
	return a.Parameters
}

func (a *AuthorizeResponse) AddParameter(key, value string) {
	if key == consts.FormParameterAuthorizationCode {
		a.code = value
	}

	a.Parameters.Add(key, value)
}

// GetLocation returns the handoff target, or the empty string for client
// redirects.
func (a *AuthorizeResponse) GetLocation() string {
	return a.location
}

// GetStatus returns the redirect status code.
func (a *AuthorizeResponse) GetStatus() int {
	return a.status
}
