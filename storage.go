// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"sync"
	"time"

	"trajano.net/provider/openid/internal/errorsx"
)

// AuthorizationCode is the state bound to a single-use authorization code
// between issuance at the authorization endpoint and redemption at the token
// endpoint.
type AuthorizationCode struct {
	Code        string
	ClientID    string
	RedirectURI string
	Scope       Arguments
	Nonce       string
	Subject     string
	AuthTime    int64
	ACR         string
	ExpiresAt   time.Time
}

// Storage persists authorization codes. Implementations must make
// RedeemAuthorizationCode atomic: a code handed out by a successful
// redemption must never be handed out again, even under concurrent
// redemption attempts.
type Storage interface {
	// CreateAuthorizationCode stores a freshly issued code.
	CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) (err error)

	// RedeemAuthorizationCode atomically loads and invalidates the code. A
	// second redemption of the same code returns ErrAuthorizationCodeUsed.
	// Unknown and expired codes return ErrInvalidGrant.
	RedeemAuthorizationCode(ctx context.Context, code string) (session *AuthorizationCode, err error)
}

// AccessTokenStorage is optionally implemented by Storage implementations
// which retain the session behind issued access tokens, enabling the
// userinfo endpoint.
type AccessTokenStorage interface {
	// CreateAccessTokenSession stores the session an access token was minted
	// from.
	CreateAccessTokenSession(ctx context.Context, accessToken string, session *AuthorizationCode) (err error)

	// GetAccessTokenSession loads the session behind an access token, or
	// ErrRequestUnauthorized when the token is unknown or expired.
	GetAccessTokenSession(ctx context.Context, accessToken string) (session *AuthorizationCode, err error)
}

// MemoryStore is an in-memory Storage for tests and single-node deployments.
type MemoryStore struct {
	codes  map[string]*memoryCode
	tokens map[string]*AuthorizationCode
	mutex  sync.Mutex
}

type memoryCode struct {
	session *AuthorizationCode
	used    bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codes:  map[string]*memoryCode{},
		tokens: map[string]*AuthorizationCode{},
	}
}

func (s *MemoryStore) CreateAuthorizationCode(_ context.Context, code *AuthorizationCode) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.codes[code.Code] = &memoryCode{session: code}

	return nil
}

func (s *MemoryStore) RedeemAuthorizationCode(_ context.Context, code string) (*AuthorizationCode, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, ok := s.codes[code]
	if !ok {
		return nil, errorsx.WithStack(ErrInvalidGrant.WithHint("The authorization code is unknown."))
	}

	if entry.used {
		return nil, errorsx.WithStack(ErrAuthorizationCodeUsed)
	}

	// Marked used rather than deleted so replays are distinguishable from
	// codes which never existed.
	entry.used = true

	if !entry.session.ExpiresAt.IsZero() && time.Now().After(entry.session.ExpiresAt) {
		return nil, errorsx.WithStack(ErrInvalidGrant.WithHint("The authorization code has expired."))
	}

	return entry.session, nil
}

func (s *MemoryStore) CreateAccessTokenSession(_ context.Context, accessToken string, session *AuthorizationCode) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tokens[accessToken] = session

	return nil
}

func (s *MemoryStore) GetAccessTokenSession(_ context.Context, accessToken string) (*AuthorizationCode, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.tokens[accessToken]
	if !ok {
		return nil, errorsx.WithStack(ErrRequestUnauthorized.WithHint("The access token is unknown."))
	}

	return session, nil
}

var (
	_ Storage            = (*MemoryStore)(nil)
	_ AccessTokenStorage = (*MemoryStore)(nil)
)
