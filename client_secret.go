// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"trajano.net/provider/openid/internal/errorsx"
)

// ClientSecret compares a registered secret to form input. Plaintext access to
// the secret is only available for secrets which support it, which the HMAC
// token algorithms require.
type ClientSecret interface {
	// Compare returns nil if the secret input matches the expected value.
	Compare(ctx context.Context, secret []byte) (err error)

	// IsPlainText reports whether the plaintext octets of the secret can be
	// recovered, which the HMAC family needs for key material.
	IsPlainText() (is bool)

	// GetPlainTextValue returns the plaintext octets of the secret, or
	// ErrClientSecretNotPlainText when they cannot be recovered.
	GetPlainTextValue() (secret []byte, err error)

	// Valid returns false if the secret is nil or otherwise invalid.
	Valid() (valid bool)
}

// ErrClientSecretNotPlainText is the deterministic error for secrets without a
// recoverable plaintext form.
var ErrClientSecretNotPlainText = fmt.Errorf("this secret doesn't support plaintext access")

const DefaultBCryptWorkFactor = 12

// NewBCryptClientSecret returns a new BCryptClientSecret given a hash.
func NewBCryptClientSecret(hash string) *BCryptClientSecret {
	return &BCryptClientSecret{value: []byte(hash)}
}

// NewBCryptClientSecretPlain returns a new BCryptClientSecret given a
// plaintext secret.
func NewBCryptClientSecretPlain(rawSecret string, cost int) (secret *BCryptClientSecret, err error) {
	if cost == 0 {
		cost = DefaultBCryptWorkFactor
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(rawSecret), cost)
	if err != nil {
		return nil, err
	}

	return &BCryptClientSecret{value: hashed}, nil
}

// BCryptClientSecret holds a bcrypt digest of the client secret.
type BCryptClientSecret struct {
	value []byte
}

func (s *BCryptClientSecret) IsPlainText() (is bool) {
	return false
}

func (s *BCryptClientSecret) GetPlainTextValue() (secret []byte, err error) {
	return nil, ErrClientSecretNotPlainText
}

func (s *BCryptClientSecret) Compare(ctx context.Context, secret []byte) (err error) {
	if err = bcrypt.CompareHashAndPassword(s.value, secret); err != nil {
		return errorsx.WithStack(err)
	}

	return nil
}

func (s *BCryptClientSecret) Valid() (valid bool) {
	return s != nil && len(s.value) != 0
}

// NewPlainTextClientSecret returns a new PlainTextClientSecret given a value.
func NewPlainTextClientSecret(value string) *PlainTextClientSecret {
	return &PlainTextClientSecret{value: []byte(value)}
}

// PlainTextClientSecret holds the raw secret and compares in constant time.
type PlainTextClientSecret struct {
	value []byte
}

func (s *PlainTextClientSecret) IsPlainText() (is bool) {
	return true
}

func (s *PlainTextClientSecret) GetPlainTextValue() (secret []byte, err error) {
	return s.value, nil
}

func (s *PlainTextClientSecret) Compare(ctx context.Context, secret []byte) (err error) {
	if subtle.ConstantTimeCompare(s.value, secret) == 0 {
		return errorsx.WithStack(fmt.Errorf("secrets don't match"))
	}

	return nil
}

func (s *PlainTextClientSecret) Valid() (valid bool) {
	return s != nil && len(s.value) != 0
}
