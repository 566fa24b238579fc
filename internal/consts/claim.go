// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package consts

// Registered Claim strings. See https://www.iana.org/assignments/jwt/jwt.xhtml.
const (
	ClaimJWTID                               = "jti"
	ClaimIssuer                              = valueIss
	ClaimSubject                             = "sub"
	ClaimAudience                            = "aud"
	ClaimAuthorizedParty                     = "azp"
	ClaimExpirationTime                      = "exp"
	ClaimIssuedAt                            = "iat"
	ClaimNonce                               = valueNonce
	ClaimAuthenticationTime                  = "auth_time"
	ClaimAuthenticationContextClassReference = "acr"
	ClaimAuthenticationMethodsReference      = "amr"
	ClaimFullName                            = "name"
	ClaimPreferredEmail                      = "email"
	ClaimEmailVerified                       = "email_verified"
	ClaimLocale                              = "locale"
	ClaimUpdatedAt                           = "updated_at"
)
