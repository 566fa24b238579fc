// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"encoding/json"
	"errors"
	"time"

	"trajano.net/provider/openid/jose"
)

// Validator performs ID Token validation as described in OpenID Connect Core
// 1.0 section 3.1.3.7. A validation pass is pure: it runs to the first failing
// check and reports that check, or accepts the token. Re-validating the same
// token yields the same outcome and the same first failing check.
type Validator struct {
	// Issuer is the provider issuer identifier; iss must equal it exactly.
	Issuer string

	// ClientID is the verifying client. It must be listed in aud and, when
	// azp is present, must equal it.
	ClientID string

	// ClientSecret provides the key material for the HMAC family per section
	// 3.1.3.7 item 8.
	ClientSecret []byte

	// KeySet holds the issuer keys used for signature verification and, when
	// encryption is negotiated, decryption.
	KeySet *jose.JSONWebKeySet

	// RequireEncryption rejects plain JWS tokens when ID Token encryption was
	// negotiated during registration.
	RequireEncryption bool

	// MaxIssuedAtAge bounds how far in the past iat may lie. Zero disables
	// the check; the acceptable range is client policy, not protocol.
	MaxIssuedAtAge time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// ValidationOptions carries the per-request expectations.
type ValidationOptions struct {
	// Nonce is the value sent in the authentication request. Empty means no
	// nonce was sent and the claim is not checked. Replay detection storage
	// is the caller's concern.
	Nonce string

	// MaxAge is the requested max_age. When set the auth_time claim must be
	// present and recent enough.
	MaxAge time.Duration
}

func (v *Validator) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}

	return time.Now()
}

// Validate runs the ordered checks against the compact serialized token and
// returns the claims when every check passed. The error is always a
// *ValidationError naming the first failed check.
func (v *Validator) Validate(raw string, opts ValidationOptions) (*IDTokenClaims, error) {
	processor, err := jose.NewProcessor(raw)
	if err != nil {
		return nil, &ValidationError{Errors: ValidationErrorMalformed, Inner: err}
	}

	// 1. Decrypt before anything else when encryption was negotiated. The
	// decrypted payload is the nested signed token.
	if processor.Header().Encryption != "" {
		inner, err := processor.WithKeySet(v.KeySet).Payload()
		if err != nil {
			return nil, &ValidationError{Errors: ValidationErrorDecryption, Inner: err}
		}

		if processor, err = jose.NewProcessor(string(inner)); err != nil {
			return nil, &ValidationError{Errors: ValidationErrorMalformed, Inner: err}
		}
	} else if v.RequireEncryption {
		return nil, &ValidationError{Errors: ValidationErrorDecryption, text: "encryption was negotiated but the token is not encrypted"}
	}

	unverified, err := processor.UnsafePayloadWithoutVerification()
	if err != nil {
		return nil, &ValidationError{Errors: ValidationErrorMalformed, Inner: err}
	}

	claims := &IDTokenClaims{}

	if err = json.Unmarshal(unverified, claims); err != nil {
		return nil, &ValidationError{Errors: ValidationErrorMalformed, Inner: err}
	}

	// 2. iss must match exactly, without normalization.
	if claims.Issuer != v.Issuer {
		return nil, &ValidationError{Errors: ValidationErrorIssuer, text: "issuer claim does not match the provider issuer identifier"}
	}

	// 3. aud must list the client; multiple audiences require azp.
	if !claims.Audience.Has(v.ClientID) {
		return nil, &ValidationError{Errors: ValidationErrorAudience, text: "audience claim does not list the client"}
	}

	if len(claims.Audience) > 1 && claims.AuthorizedParty == "" {
		return nil, &ValidationError{Errors: ValidationErrorAudience, text: "multiple audiences without an azp claim"}
	}

	// 4. azp, when present, must be the client id.
	if claims.AuthorizedParty != "" && claims.AuthorizedParty != v.ClientID {
		return nil, &ValidationError{Errors: ValidationErrorAuthorizedParty, text: "azp claim does not match the client"}
	}

	// 5. Signature verification with the issuer keys, or the client secret
	// for the HMAC family.
	processor = processor.WithKeySet(v.KeySet)

	if processor.Header().Algorithm.IsMAC() {
		processor = processor.WithSecret(v.ClientSecret)
	}

	if !processor.HasKey() {
		return nil, &ValidationError{Errors: ValidationErrorUnverifiable, text: "no usable key for the token"}
	}

	if _, err = processor.Payload(); err != nil {
		if errors.Is(err, jose.ErrAmbiguousKey) || errors.Is(err, jose.ErrKeyNotFound) {
			return nil, &ValidationError{Errors: ValidationErrorUnverifiable, Inner: err}
		}

		return nil, &ValidationError{Errors: ValidationErrorSignatureInvalid, Inner: err}
	}

	now := v.now()

	// 6. The current time must be strictly before exp.
	if !now.Before(time.Unix(claims.ExpiresAt, 0)) {
		return nil, &ValidationError{Errors: ValidationErrorExpired, text: "token is expired"}
	}

	// 7. iat freshness window, client policy.
	if v.MaxIssuedAtAge > 0 && now.Sub(time.Unix(claims.IssuedAt, 0)) > v.MaxIssuedAtAge {
		return nil, &ValidationError{Errors: ValidationErrorIssuedAt, text: "token was issued too far in the past"}
	}

	// 8. nonce must match the one sent in the authentication request.
	if opts.Nonce != "" && claims.Nonce != opts.Nonce {
		return nil, &ValidationError{Errors: ValidationErrorNonce, text: "nonce claim does not match the authentication request"}
	}

	// 9. acr is advisory, no fatal rule.

	// 10. auth_time against the requested max_age.
	if opts.MaxAge > 0 {
		if claims.AuthTime == 0 {
			return nil, &ValidationError{Errors: ValidationErrorAuthTime, text: "auth_time claim was requested but is absent"}
		}

		if now.Sub(time.Unix(claims.AuthTime, 0)) > opts.MaxAge {
			return nil, &ValidationError{Errors: ValidationErrorAuthTime, text: "too much time has elapsed since the last authentication"}
		}
	}

	return claims, nil
}
