// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"encoding/base64"
	"math/big"
	"strings"

	"trajano.net/provider/openid/internal/errorsx"
)

// EncodeBytes encodes data using the unpadded URL-safe base64 alphabet used
// throughout JOSE.
func EncodeBytes(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBytes decodes a base64url value. Padded input is accepted because
// ecosystems differ on emitting it, but the canonical form is unpadded.
func DecodeBytes(value string) ([]byte, error) {
	value = strings.TrimRight(value, "=")

	// A segment length of 1 mod 4 can never be produced by an encoder.
	if len(value)%4 == 1 {
		return nil, errorsx.WithStack(ErrMalformedEncoding)
	}

	data, err := base64.RawURLEncoding.Strict().DecodeString(value)
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedEncoding)
	}

	return data, nil
}

// DecodeString decodes a base64url value into its UTF-8 string form.
func DecodeString(value string) (string, error) {
	data, err := DecodeBytes(value)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// EncodeUint encodes a non-negative arbitrary-precision integer using the
// Base64urlUInt representation: the minimal big-endian octet sequence with no
// leading zero octet, except the zero value which is the single zero octet.
func EncodeUint(value *big.Int) (string, error) {
	if value == nil || value.Sign() < 0 {
		return "", errorsx.WithStack(ErrMalformedEncoding)
	}

	if value.Sign() == 0 {
		return EncodeBytes([]byte{0}), nil
	}

	// big.Int.Bytes is already the minimal big-endian form.
	return EncodeBytes(value.Bytes()), nil
}

// DecodeUint decodes a Base64urlUInt value.
func DecodeUint(value string) (*big.Int, error) {
	data, err := DecodeBytes(value)
	if err != nil {
		return nil, err
	}

	return new(big.Int).SetBytes(data), nil
}
