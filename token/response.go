// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"encoding/json"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
	"trajano.net/provider/openid/jose"
)

// IDTokenResponse is the token endpoint response defined in OpenID Connect
// Core 1.0 section 3.1.3.3. It is immutable once built; use
// IDTokenResponseBuilder to construct one.
type IDTokenResponse struct {
	idToken      string
	accessToken  string
	tokenType    string
	expiresIn    int64
	refreshToken string
	scope        string

	// usedUpAuthorizationCode marks a response which was refused because the
	// authorization code had already been redeemed. It never serializes.
	usedUpAuthorizationCode bool
}

func (r *IDTokenResponse) IDToken() string      { return r.idToken }
func (r *IDTokenResponse) AccessToken() string  { return r.accessToken }
func (r *IDTokenResponse) TokenType() string    { return r.tokenType }
func (r *IDTokenResponse) ExpiresIn() int64     { return r.expiresIn }
func (r *IDTokenResponse) RefreshToken() string { return r.refreshToken }
func (r *IDTokenResponse) Scope() string        { return r.scope }

// UsedUpAuthorizationCode reports whether the code backing this exchange had
// already been redeemed.
func (r *IDTokenResponse) UsedUpAuthorizationCode() bool {
	return r.usedUpAuthorizationCode
}

// Claims verifies the encoded ID token against the key set and returns its
// claims. Callers must not skip the usable key precondition; a token without a
// resolvable key is rejected before any verification is attempted.
func (r *IDTokenResponse) Claims(jwks *jose.JSONWebKeySet) (*IDTokenClaims, error) {
	processor, err := jose.NewProcessor(r.idToken)
	if err != nil {
		return nil, err
	}

	if !processor.WithKeySet(jwks).HasKey() {
		return nil, errorsx.WithStack(jose.ErrKeyNotFound)
	}

	payload, err := processor.Payload()
	if err != nil {
		return nil, err
	}

	claims := &IDTokenClaims{}

	if err = json.Unmarshal(payload, claims); err != nil {
		return nil, errorsx.WithStack(err)
	}

	return claims, nil
}

type rawIDTokenResponse struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func (r IDTokenResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawIDTokenResponse{
		IDToken:      r.idToken,
		AccessToken:  r.accessToken,
		TokenType:    r.tokenType,
		ExpiresIn:    r.expiresIn,
		RefreshToken: r.refreshToken,
		Scope:        r.scope,
	})
}

func (r *IDTokenResponse) UnmarshalJSON(data []byte) error {
	var raw rawIDTokenResponse

	if err := json.Unmarshal(data, &raw); err != nil {
		return errorsx.WithStack(err)
	}

	r.idToken = raw.IDToken
	r.accessToken = raw.AccessToken
	r.tokenType = raw.TokenType
	r.expiresIn = raw.ExpiresIn
	r.refreshToken = raw.RefreshToken
	r.scope = raw.Scope

	return nil
}

// IDTokenResponseBuilder accumulates the response fields and produces the
// finished immutable value.
type IDTokenResponseBuilder struct {
	response IDTokenResponse
}

func NewIDTokenResponseBuilder() *IDTokenResponseBuilder {
	return &IDTokenResponseBuilder{response: IDTokenResponse{tokenType: consts.TokenTypeBearer}}
}

func (b *IDTokenResponseBuilder) WithIDToken(idToken string) *IDTokenResponseBuilder {
	b.response.idToken = idToken

	return b
}

func (b *IDTokenResponseBuilder) WithAccessToken(accessToken string) *IDTokenResponseBuilder {
	b.response.accessToken = accessToken

	return b
}

func (b *IDTokenResponseBuilder) WithExpiresIn(seconds int64) *IDTokenResponseBuilder {
	b.response.expiresIn = seconds

	return b
}

func (b *IDTokenResponseBuilder) WithRefreshToken(refreshToken string) *IDTokenResponseBuilder {
	b.response.refreshToken = refreshToken

	return b
}

func (b *IDTokenResponseBuilder) WithScope(scope string) *IDTokenResponseBuilder {
	b.response.scope = scope

	return b
}

func (b *IDTokenResponseBuilder) WithUsedUpAuthorizationCode() *IDTokenResponseBuilder {
	b.response.usedUpAuthorizationCode = true

	return b
}

// Build returns the finished response. The id_token and access_token fields
// are required for a successful exchange.
func (b *IDTokenResponseBuilder) Build() (*IDTokenResponse, error) {
	if !b.response.usedUpAuthorizationCode && (b.response.idToken == "" || b.response.accessToken == "") {
		return nil, errorsx.WithStack(errMissingTokenMaterial)
	}

	response := b.response

	return &response, nil
}
