// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
)

// RegexSpecificationVSCHAR matches strings that consist only of the printable
// US-ASCII range permitted for client credentials by RFC 6749.
var RegexSpecificationVSCHAR = regexp.MustCompile(`^[\x20-\x7E]+$`)

// ClientManager looks up and authenticates registered clients.
type ClientManager interface {
	// GetClient loads the client by its id or returns an error if the client
	// does not exist.
	GetClient(ctx context.Context, id string) (client Client, err error)
}

// AuthenticateClient resolves and authenticates the client for a token
// endpoint request. Credentials are taken from the HTTP basic authorization
// header when present, otherwise from the client_id and client_secret form
// parameters.
func AuthenticateClient(ctx context.Context, manager ClientManager, r *http.Request) (client Client, err error) {
	id, secret, hasBasic, err := getClientCredentialsSecretBasic(r)
	if err != nil {
		return nil, err
	}

	if !hasBasic {
		id, secret = r.PostFormValue(consts.FormParameterClientID), r.PostFormValue(consts.FormParameterClientSecret)
	}

	if id == "" {
		return nil, errorsx.WithStack(ErrInvalidRequest.WithHint("Client credentials missing or malformed in both HTTP Authorization header and HTTP POST body."))
	}

	if client, err = manager.GetClient(ctx, id); err != nil {
		return nil, errorsx.WithStack(ErrInvalidClient.WithWrap(err).WithDebugError(err))
	}

	registered := client.GetSecret()
	if registered == nil || !registered.Valid() {
		return nil, errorsx.WithStack(ErrInvalidClient.WithHint("The OAuth 2.0 Client has no client secret registered."))
	}

	if err = registered.Compare(ctx, []byte(secret)); err != nil {
		return nil, errorsx.WithStack(ErrInvalidClient.WithWrap(err).WithDebugError(err))
	}

	return client, nil
}

func getClientCredentialsSecretBasic(r *http.Request) (id, secret string, ok bool, err error) {
	auth := r.Header.Get(consts.HeaderAuthorization)

	if auth == "" {
		return "", "", false, nil
	}

	scheme, value, ok := strings.Cut(auth, " ")

	if !ok {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client credentials from the HTTP authorization header could not be parsed.").WithDebug("The header value is either missing a scheme, value, or the separator between them."))
	}

	if !strings.EqualFold(scheme, consts.AuthorizationTypeBasic) {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client credentials from the HTTP authorization header had an unknown scheme.").WithDebugf("The scheme '%s' is not known for client authentication.", scheme))
	}

	c, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client credentials from the HTTP authorization header could not be parsed.").WithWrap(err).WithDebugf("Error occurred performing a base64 decode: %+v.", err))
	}

	id, secret, ok = strings.Cut(string(c), ":")
	if !ok {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client credentials from the HTTP authorization header could not be parsed.").WithDebug("The basic scheme value was not separated by a colon."))
	}

	if id, err = url.QueryUnescape(id); err != nil {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client id in the HTTP authorization header could not be decoded from 'application/x-www-form-urlencoded'.").WithWrap(err).WithDebugError(err))
	}

	if secret, err = url.QueryUnescape(secret); err != nil {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client secret in the HTTP authorization header could not be decoded from 'application/x-www-form-urlencoded'.").WithWrap(err).WithDebugError(err))
	}

	if len(id) != 0 && !RegexSpecificationVSCHAR.MatchString(id) {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client id in the HTTP request had an invalid character."))
	}

	if len(secret) != 0 && !RegexSpecificationVSCHAR.MatchString(secret) {
		return "", "", false, errorsx.WithStack(ErrInvalidRequest.WithHint("The client secret in the HTTP request had an invalid character."))
	}

	return id, secret, secret != "", nil
}

// AccessTokenFromRequest returns the access token sent with the request, from
// the bearer authorization header when present, otherwise from the
// access_token query or form parameter. Returns the empty string when no token
// was sent.
func AccessTokenFromRequest(r *http.Request) string {
	auth := r.Header.Get(consts.HeaderAuthorization)

	scheme, value, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, consts.AuthorizationTypeBearer) {
		// The Authorization header either is missing entirely or carries a
		// different scheme, so fall back to the request parameter.
		return r.FormValue(consts.FormParameterAccessToken)
	}

	return value
}
