// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserinfoProvider struct {
	infos map[string]*Userinfo
}

func (p *fakeUserinfoProvider) GetUserinfo(_ context.Context, subject string, _ Arguments) (*Userinfo, error) {
	if info, ok := p.infos[subject]; ok {
		return info, nil
	}

	return &Userinfo{Subject: subject}, nil
}

func newUserinfoFixture(t *testing.T) (*Provider, *MemoryStore) {
	t.Helper()

	provider, store := newAccessFixture(t)
	provider.Userinfo = &fakeUserinfoProvider{infos: map[string]*Userinfo{
		"user-1": {
			Subject:       "user-1",
			Name:          "First Last",
			Email:         "user-1@example.com",
			EmailVerified: true,
		},
	}}

	return provider, store
}

func seedAccessToken(t *testing.T, store *MemoryStore, subject string) string {
	t.Helper()

	token, err := generateOpaqueToken()
	require.NoError(t, err)

	session := &AuthorizationCode{
		ClientID:  "rp-1",
		Scope:     Arguments{"openid", "profile", "email"},
		Subject:   subject,
		ExpiresAt: time.Now().Add(time.Hour),
	}

	require.NoError(t, store.CreateAccessTokenSession(context.Background(), token, session))

	return token
}

func newUserinfoRequest(accessToken string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "https://login.example.com/userinfo", nil)

	if accessToken != "" {
		r.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return r
}

func TestNewUserinfoResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldReturnClaimsForValidToken", func(t *testing.T) {
		provider, store := newUserinfoFixture(t)
		accessToken := seedAccessToken(t, store, "user-1")

		info, err := provider.NewUserinfoResponse(ctx, newUserinfoRequest(accessToken))
		require.NoError(t, err)

		assert.Equal(t, "user-1", info.Subject)
		assert.Equal(t, "First Last", info.Name)
		assert.Equal(t, "user-1@example.com", info.Email)
		assert.True(t, info.EmailVerified)
	})

	t.Run("ShouldFailWithoutToken", func(t *testing.T) {
		provider, _ := newUserinfoFixture(t)

		_, err := provider.NewUserinfoResponse(ctx, newUserinfoRequest(""))
		assert.ErrorIs(t, err, ErrRequestUnauthorized)
	})

	t.Run("ShouldFailWithUnknownToken", func(t *testing.T) {
		provider, _ := newUserinfoFixture(t)

		_, err := provider.NewUserinfoResponse(ctx, newUserinfoRequest("unknown-token"))
		assert.ErrorIs(t, err, ErrRequestUnauthorized)
	})

	t.Run("ShouldRequireSecureTransport", func(t *testing.T) {
		provider, store := newUserinfoFixture(t)
		accessToken := seedAccessToken(t, store, "user-1")

		r := httptest.NewRequest(http.MethodGet, "http://resource.example.com/userinfo", nil)
		r.Header.Set("Authorization", "Bearer "+accessToken)

		_, err := provider.NewUserinfoResponse(ctx, r)
		assert.ErrorIs(t, err, ErrSSLRequired)
	})

	t.Run("ShouldFailWithoutUserinfoSource", func(t *testing.T) {
		provider, store := newUserinfoFixture(t)
		provider.Userinfo = nil
		accessToken := seedAccessToken(t, store, "user-1")

		_, err := provider.NewUserinfoResponse(ctx, newUserinfoRequest(accessToken))
		assert.ErrorIs(t, err, ErrServerError)
	})
}

func TestWriteUserinfoResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("ShouldWriteClaimsJSON", func(t *testing.T) {
		provider, store := newUserinfoFixture(t)
		accessToken := seedAccessToken(t, store, "user-1")

		info, err := provider.NewUserinfoResponse(ctx, newUserinfoRequest(accessToken))
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		provider.WriteUserinfoResponse(ctx, rec, info, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "user-1", body["sub"])
		assert.Equal(t, "First Last", body["name"])
	})

	t.Run("ShouldChallengeUnauthorizedRequests", func(t *testing.T) {
		provider, _ := newUserinfoFixture(t)

		rec := httptest.NewRecorder()
		provider.WriteUserinfoResponse(ctx, rec, nil, ErrRequestUnauthorized)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Bearer realm="https://login.example.com"`, rec.Header().Get("WWW-Authenticate"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "request_unauthorized", body["error"])
	})
}
