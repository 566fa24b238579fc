// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
	"trajano.net/provider/openid/jose"
)

// AuthenticationRequest is the parsed and validated form of an authorization
// endpoint request. It is immutable once built; handlers read it but never
// write it.
type AuthenticationRequest struct {
	ClientID     string    `json:"client_id"`
	RedirectURI  string    `json:"redirect_uri"`
	ResponseType string    `json:"response_type"`
	Scope        Arguments `json:"scope"`
	State        string    `json:"state,omitempty"`
	Nonce        string    `json:"nonce,omitempty"`
	Prompts      Arguments `json:"prompt,omitempty"`
	Display      string    `json:"display,omitempty"`
	MaxAge       int64     `json:"max_age,omitempty"`
	ACRValues    Arguments `json:"acr_values,omitempty"`
	IDTokenHint  string    `json:"id_token_hint,omitempty"`
	LoginHint    string    `json:"login_hint,omitempty"`
	UILocales    Arguments `json:"ui_locales,omitempty"`

	client Client
}

// GetClient returns the client resolved while parsing the request. It is nil
// on requests reconstructed from a request JWT until rebound with BindClient.
func (r *AuthenticationRequest) GetClient() Client {
	return r.client
}

// BindClient reattaches the resolved client after the request round-trips
// through a request JWT.
func (r *AuthenticationRequest) BindClient(client Client) {
	r.client = client
}

// redirectVerified reports whether the redirection URI was validated against
// the client registration. Errors may only be returned by redirect once this
// holds.
func (r *AuthenticationRequest) redirectVerified() bool {
	return r.client != nil && r.RedirectURI != ""
}

func parseSpaceDelimited(value string) Arguments {
	return RemoveEmpty(strings.Split(value, " "))
}

// newAuthenticationRequest parses the wire form of an authorization request.
// The client and redirection URI are checked first so that later failures can
// be reported by redirect; failures in these two are returned as direct
// errors because no trustworthy redirection target exists yet.
func newAuthenticationRequest(r *http.Request, manager ClientManager) (request *AuthenticationRequest, err error) {
	if err = r.ParseForm(); err != nil {
		return nil, errorsx.WithStack(ErrInvalidRequest.WithHint("Unable to parse HTTP body, make sure to send a properly formatted form request body.").WithWrap(err).WithDebugError(err))
	}

	request = &AuthenticationRequest{
		ClientID:     r.Form.Get(consts.FormParameterClientID),
		RedirectURI:  r.Form.Get(consts.FormParameterRedirectURI),
		ResponseType: r.Form.Get(consts.FormParameterResponseType),
		Scope:        parseSpaceDelimited(r.Form.Get(consts.FormParameterScope)),
		State:        r.Form.Get(consts.FormParameterState),
		Nonce:        r.Form.Get(consts.FormParameterNonce),
		Prompts:      parseSpaceDelimited(r.Form.Get(consts.FormParameterPrompt)),
		Display:      r.Form.Get(consts.FormParameterDisplay),
		ACRValues:    parseSpaceDelimited(r.Form.Get(consts.FormParameterACRValues)),
		IDTokenHint:  r.Form.Get(consts.FormParameterIDTokenHint),
		LoginHint:    r.Form.Get(consts.FormParameterLoginHint),
		UILocales:    parseSpaceDelimited(r.Form.Get(consts.FormParameterUILocales)),
	}

	if raw := r.Form.Get(consts.FormParameterMaximumAge); raw != "" {
		if request.MaxAge, err = strconv.ParseInt(raw, 10, 64); err != nil || request.MaxAge < 0 {
			return request, errorsx.WithStack(ErrInvalidRequest.WithHintf("The request parameter 'max_age' must be a non-negative integer but got '%s'.", raw))
		}
	}

	if request.ClientID == "" {
		return request, errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'client_id' is missing."))
	}

	if request.client, err = manager.GetClient(r.Context(), request.ClientID); err != nil {
		return request, errorsx.WithStack(ErrInvalidClient.WithHintf("The requested OAuth 2.0 Client does not exist.").WithWrap(err).WithDebugError(err))
	}

	if err = validateRedirectURI(request.RedirectURI, request.client); err != nil {
		// The verified client flag stays unset so this is never reported by
		// redirect.
		request.client = nil
		return request, err
	}

	if request.ResponseType != consts.ResponseTypeAuthorizationCodeFlow {
		return request, errorsx.WithStack(ErrUnsupportedResponseType.WithHintf("The client is not allowed to request response_type '%s'.", request.ResponseType))
	}

	if !request.Scope.Has(consts.ScopeOpenID) {
		return request, errorsx.WithStack(ErrInvalidScope.WithHintf("The request is missing the required scope '%s'.", consts.ScopeOpenID))
	}

	for _, scope := range request.Scope {
		if scope != consts.ScopeOpenID && !request.client.GetScopes().Has(scope) {
			return request, errorsx.WithStack(ErrInvalidScope.WithHintf("The OAuth 2.0 Client is not allowed to request scope '%s'.", scope))
		}
	}

	if request.Prompts.Has(consts.PromptNone) && len(request.Prompts) > 1 {
		return request, errorsx.WithStack(ErrInvalidRequest.WithHintf("Parameter 'prompt' was set to 'none', but contains other values as well which is not allowed."))
	}

	return request, nil
}

func validateRedirectURI(redirectURI string, client Client) error {
	if redirectURI == "" {
		return errorsx.WithStack(ErrInvalidGrant.WithHint("The request parameter 'redirect_uri' is missing."))
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil || !IsValidRedirectURI(parsed) {
		return errorsx.WithStack(ErrInvalidGrant.WithHintf("The request parameter 'redirect_uri' with value '%s' is not a valid redirection URI.", redirectURI))
	}

	if !StringInSlice(redirectURI, client.GetRedirectURIs()) {
		return errorsx.WithStack(ErrInvalidGrant.WithHintf("The request parameter 'redirect_uri' with value '%s' is not registered for the OAuth 2.0 Client.", redirectURI))
	}

	return nil
}

// requestJWTLifespan bounds how long a handed-off authentication request
// stays replayable at the login and consent endpoints.
const requestJWTLifespan = 10 * time.Minute

// EncodeRequestJWT serializes the request into a signed JWT for the login
// handoff. The issuer signs with its preferred key so the login endpoint can
// verify the request was not altered in flight.
func EncodeRequestJWT(request *AuthenticationRequest, issuer string, keys *jose.JSONWebKeySet) (string, error) {
	key, err := keys.SelectKey("", jose.RS256, jose.KeyUseSignature)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	now := time.Now()

	payload := struct {
		*AuthenticationRequest
		Issuer    string `json:"iss"`
		IssuedAt  int64  `json:"iat"`
		ExpiresAt int64  `json:"exp"`
	}{
		AuthenticationRequest: request,
		Issuer:                issuer,
		IssuedAt:              now.Unix(),
		ExpiresAt:             now.Add(requestJWTLifespan).Unix(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	return jose.Sign(jose.Header{Algorithm: jose.RS256, KeyID: key.KeyID, Type: consts.JSONWebTokenTypeJWT}, raw, key)
}

// DecodeRequestJWT verifies and deserializes a handed-off authentication
// request. The client must be rebound by the caller before further use.
func DecodeRequestJWT(raw string, issuer string, keys *jose.JSONWebKeySet) (*AuthenticationRequest, error) {
	processor, err := jose.NewProcessor(raw)
	if err != nil {
		return nil, errorsx.WithStack(ErrInvalidRequestObject.WithHint("The request object could not be parsed.").WithWrap(err).WithDebugError(err))
	}

	payload, err := processor.WithKeySet(keys).Payload()
	if err != nil {
		return nil, errorsx.WithStack(ErrInvalidRequestObject.WithHint("The request object signature could not be verified.").WithWrap(err).WithDebugError(err))
	}

	var claims struct {
		AuthenticationRequest
		Issuer    string `json:"iss"`
		ExpiresAt int64  `json:"exp"`
	}

	if err = json.Unmarshal(payload, &claims); err != nil {
		return nil, errorsx.WithStack(ErrInvalidRequestObject.WithHint("The request object is not valid JSON.").WithWrap(err).WithDebugError(err))
	}

	if claims.Issuer != issuer {
		return nil, errorsx.WithStack(ErrInvalidRequestObject.WithHint("The request object was issued by an unexpected issuer."))
	}

	if time.Now().Unix() >= claims.ExpiresAt {
		return nil, errorsx.WithStack(ErrInvalidRequestObject.WithHint("The request object has expired."))
	}

	request := claims.AuthenticationRequest

	return &request, nil
}

// RequestFromValues rebuilds an http.Request form for tests and the login
// endpoint return leg.
func RequestFromValues(values url.Values) *http.Request {
	return &http.Request{Form: values, URL: &url.URL{}, Header: http.Header{}}
}
