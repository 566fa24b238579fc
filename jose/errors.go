// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"github.com/pkg/errors"
)

var (
	// ErrMalformedEncoding is returned for values which are not valid unpadded
	// base64url, including segments with a trailing length of 1 mod 4.
	ErrMalformedEncoding = errors.New("jose: malformed base64url value")

	// ErrMalformedToken is returned when a compact serialization does not have
	// three (JWS) or five (JWE) segments or a segment fails to decode.
	ErrMalformedToken = errors.New("jose: malformed compact serialization")

	// ErrUnsupportedAlgorithm is returned when an algorithm identifier is not
	// part of the closed registry.
	ErrUnsupportedAlgorithm = errors.New("jose: unsupported algorithm")

	// ErrKeyNotFound is returned when no key in the set matches the token
	// header.
	ErrKeyNotFound = errors.New("jose: no key available for token")

	// ErrAmbiguousKey is returned when no kid is present and more than one key
	// in the set is compatible. A server must not guess which key to use.
	ErrAmbiguousKey = errors.New("jose: multiple keys match and none can be selected")

	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("jose: invalid signature")

	// ErrDecryptionFailed is returned for any failure while unwrapping the
	// content encryption key or decrypting the ciphertext. The step which
	// failed is deliberately not disclosed.
	ErrDecryptionFailed = errors.New("jose: decryption failed")

	// ErrUnsignedTokenNotAllowed is returned for alg 'none' tokens unless the
	// caller explicitly opted in.
	ErrUnsignedTokenNotAllowed = errors.New("jose: unsigned tokens are not allowed")

	// ErrMismatchedKey is returned when a key cannot serve the requested
	// operation, for example signing with a public key.
	ErrMismatchedKey = errors.New("jose: key cannot be used for this operation")

	// ErrInvalidKeyMaterial is returned when a JWK carries parameters which are
	// syntactically valid but cannot form a usable key, such as a zero RSA
	// modulus or prime.
	ErrInvalidKeyMaterial = errors.New("jose: invalid key material")
)
