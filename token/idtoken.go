// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"encoding/json"

	"github.com/google/uuid"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
)

// Audience is the aud claim which may be serialized as a single string or an
// array of strings.
type Audience []string

func (a Audience) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}

	return json.Marshal([]string(a))
}

func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string

	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}

		return nil
	}

	var many []string

	if err := json.Unmarshal(data, &many); err != nil {
		return errorsx.WithStack(err)
	}

	*a = many

	return nil
}

// Has reports whether the audience contains the given value.
func (a Audience) Has(value string) bool {
	for _, audience := range a {
		if audience == value {
			return true
		}
	}

	return false
}

// IDTokenClaims represent the claims of an ID Token as defined in OpenID
// Connect Core 1.0 section 2. The value is created by the token endpoint at
// code exchange time and never mutated after verification.
type IDTokenClaims struct {
	JTI                                 string   `json:"jti,omitempty"`
	Issuer                              string   `json:"iss"`
	Subject                             string   `json:"sub"`
	Audience                            Audience `json:"aud"`
	AuthorizedParty                     string   `json:"azp,omitempty"`
	ExpiresAt                           int64    `json:"exp"`
	IssuedAt                            int64    `json:"iat"`
	AuthTime                            int64    `json:"auth_time,omitempty"`
	Nonce                               string   `json:"nonce,omitempty"`
	AuthenticationContextClassReference string   `json:"acr,omitempty"`
	AuthenticationMethodsReferences     []string `json:"amr,omitempty"`
}

// WithDefaults fills a fresh JTI when none is set and returns the claims.
func (c IDTokenClaims) WithDefaults() IDTokenClaims {
	if c.JTI == "" {
		c.JTI = uuid.NewString()
	}

	return c
}

// ToMap returns the claims as a generic map in their wire names.
func (c *IDTokenClaims) ToMap() map[string]any {
	claims := map[string]any{
		consts.ClaimIssuer:         c.Issuer,
		consts.ClaimSubject:        c.Subject,
		consts.ClaimAudience:       c.Audience,
		consts.ClaimExpirationTime: c.ExpiresAt,
		consts.ClaimIssuedAt:       c.IssuedAt,
	}

	if c.JTI != "" {
		claims[consts.ClaimJWTID] = c.JTI
	}

	if c.AuthorizedParty != "" {
		claims[consts.ClaimAuthorizedParty] = c.AuthorizedParty
	}

	if c.AuthTime != 0 {
		claims[consts.ClaimAuthenticationTime] = c.AuthTime
	}

	if c.Nonce != "" {
		claims[consts.ClaimNonce] = c.Nonce
	}

	if c.AuthenticationContextClassReference != "" {
		claims[consts.ClaimAuthenticationContextClassReference] = c.AuthenticationContextClassReference
	}

	if len(c.AuthenticationMethodsReferences) > 0 {
		claims[consts.ClaimAuthenticationMethodsReference] = c.AuthenticationMethodsReferences
	}

	return claims
}
