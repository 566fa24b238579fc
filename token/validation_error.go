// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package token

// The conditions an ID Token can fail validation with. Each numbered check of
// the validation pipeline maps to exactly one of these.
const (
	ValidationErrorMalformed        uint32 = 1 << iota // token cannot be parsed
	ValidationErrorUnverifiable                        // no usable key for the token
	ValidationErrorDecryption                          // negotiated encryption missing or decryption failed
	ValidationErrorIssuer                              // iss mismatch
	ValidationErrorAudience                            // aud does not list the client, or azp missing for multi-audience
	ValidationErrorAuthorizedParty                     // azp differs from the client id
	ValidationErrorSignatureInvalid                    // signature verification failed
	ValidationErrorExpired                             // current time is not strictly before exp
	ValidationErrorIssuedAt                            // iat outside the configured freshness window
	ValidationErrorNonce                               // nonce differs from the one sent
	ValidationErrorAuthTime                            // auth_time exceeds the re-authentication threshold
)

// ValidationError reports the first check an ID Token failed.
type ValidationError struct {
	Inner  error
	Errors uint32
	text   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Inner != nil:
		return e.Inner.Error()
	case len(e.text) != 0:
		return e.text
	default:
		return "token is invalid"
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Inner
}

// Has reports whether the given condition is set.
func (e *ValidationError) Has(condition uint32) bool {
	return e.Errors&condition != 0
}
