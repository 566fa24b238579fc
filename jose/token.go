// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"encoding/json"
	"strings"

	"trajano.net/provider/openid/internal/errorsx"
)

const (
	segmentsSigned    = 3
	segmentsEncrypted = 5
)

// Header is the JOSE header of a compact serialized token.
type Header struct {
	Algorithm   Algorithm `json:"alg"`
	Encryption  Algorithm `json:"enc,omitempty"`
	KeyID       string    `json:"kid,omitempty"`
	Type        string    `json:"typ,omitempty"`
	ContentType string    `json:"cty,omitempty"`
}

// UnmarshalJSON rejects algorithm identifiers outside the closed registry at
// parse time so later dispatch is total.
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw struct {
		Algorithm   string `json:"alg"`
		Encryption  string `json:"enc"`
		KeyID       string `json:"kid"`
		Type        string `json:"typ"`
		ContentType string `json:"cty"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return errorsx.WithStack(err)
	}

	alg, err := ParseAlgorithm(raw.Algorithm)
	if err != nil {
		return err
	}

	h.Algorithm = alg
	h.KeyID = raw.KeyID
	h.Type = raw.Type
	h.ContentType = raw.ContentType

	if raw.Encryption != "" {
		enc, err := ParseAlgorithm(raw.Encryption)
		if err != nil {
			return err
		}

		h.Encryption = enc
	}

	return nil
}

// compactToken is a split but not yet verified compact serialization.
type compactToken struct {
	segments []string
	header   Header
}

func (t *compactToken) encrypted() bool {
	return len(t.segments) == segmentsEncrypted
}

// signingInput is the protected data a JWS signature covers.
func (t *compactToken) signingInput() []byte {
	return []byte(t.segments[0] + "." + t.segments[1])
}

func parseCompact(serialized string) (*compactToken, error) {
	segments := strings.Split(serialized, ".")

	if len(segments) != segmentsSigned && len(segments) != segmentsEncrypted {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	headerJSON, err := DecodeBytes(segments[0])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	token := &compactToken{segments: segments}

	if err = json.Unmarshal(headerJSON, &token.header); err != nil {
		if errorsx.Cause(err) == ErrUnsupportedAlgorithm {
			return nil, err
		}

		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	if token.encrypted() && !token.header.Encryption.IsContentEncryption() {
		return nil, errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	return token, nil
}
