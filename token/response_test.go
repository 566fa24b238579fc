// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajano.net/provider/openid/jose"
)

func TestIDTokenResponseBuilder(t *testing.T) {
	t.Run("ShouldBuildCompleteResponse", func(t *testing.T) {
		response, err := NewIDTokenResponseBuilder().
			WithIDToken("header.payload.signature").
			WithAccessToken("opaque-access-token").
			WithExpiresIn(3600).
			WithScope("openid profile").
			Build()
		require.NoError(t, err)

		assert.Equal(t, "header.payload.signature", response.IDToken())
		assert.Equal(t, "opaque-access-token", response.AccessToken())
		assert.Equal(t, "Bearer", response.TokenType())
		assert.Equal(t, int64(3600), response.ExpiresIn())
		assert.Equal(t, "openid profile", response.Scope())
		assert.False(t, response.UsedUpAuthorizationCode())
	})

	t.Run("ShouldFailWithoutIDToken", func(t *testing.T) {
		_, err := NewIDTokenResponseBuilder().WithAccessToken("opaque").Build()
		assert.Error(t, err)
	})

	t.Run("ShouldFailWithoutAccessToken", func(t *testing.T) {
		_, err := NewIDTokenResponseBuilder().WithIDToken("a.b.c").Build()
		assert.Error(t, err)
	})

	t.Run("ShouldBuildUsedUpResponseWithoutTokenMaterial", func(t *testing.T) {
		response, err := NewIDTokenResponseBuilder().WithUsedUpAuthorizationCode().Build()
		require.NoError(t, err)
		assert.True(t, response.UsedUpAuthorizationCode())
	})
}

func TestIDTokenResponseSerialization(t *testing.T) {
	response, err := NewIDTokenResponseBuilder().
		WithIDToken("a.b.c").
		WithAccessToken("opaque").
		WithExpiresIn(3600).
		Build()
	require.NoError(t, err)

	data, err := json.Marshal(response)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.Equal(t, "a.b.c", wire["id_token"])
	assert.Equal(t, "opaque", wire["access_token"])
	assert.Equal(t, "Bearer", wire["token_type"])
	assert.Equal(t, float64(3600), wire["expires_in"])
	assert.NotContains(t, wire, "refresh_token")

	var decoded IDTokenResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, response.IDToken(), decoded.IDToken())
	assert.Equal(t, response.AccessToken(), decoded.AccessToken())
}

func TestIDTokenResponseClaims(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key := jose.NewRSAPrivateKey(rsaKey, "rsa-1", jose.RS256, jose.KeyUseSignature)
	keys := &jose.JSONWebKeySet{Keys: []jose.JSONWebKey{key}}

	claims := IDTokenClaims{
		Issuer:   "https://login.example.com",
		Subject:  "user-1",
		Audience: Audience{"client-1"},
	}

	payload, err := json.Marshal(claims.ToMap())
	require.NoError(t, err)

	signed, err := jose.Sign(jose.Header{Algorithm: jose.RS256, KeyID: "rsa-1", Type: "JWT"}, payload, &key)
	require.NoError(t, err)

	response, err := NewIDTokenResponseBuilder().WithIDToken(signed).WithAccessToken("opaque").Build()
	require.NoError(t, err)

	t.Run("ShouldReturnClaimsWhenKeyAvailable", func(t *testing.T) {
		decoded, err := response.Claims(keys)
		require.NoError(t, err)
		assert.Equal(t, "user-1", decoded.Subject)
	})

	t.Run("ShouldRefuseWhenNoKeyAvailable", func(t *testing.T) {
		_, err := response.Claims(&jose.JSONWebKeySet{})
		assert.ErrorIs(t, err, jose.ErrKeyNotFound)
	})
}

func TestAudience(t *testing.T) {
	t.Run("ShouldUnmarshalSingleString", func(t *testing.T) {
		var audience Audience

		require.NoError(t, json.Unmarshal([]byte(`"client-1"`), &audience))
		assert.Equal(t, Audience{"client-1"}, audience)
	})

	t.Run("ShouldUnmarshalArray", func(t *testing.T) {
		var audience Audience

		require.NoError(t, json.Unmarshal([]byte(`["client-1","client-2"]`), &audience))
		assert.Equal(t, Audience{"client-1", "client-2"}, audience)
	})

	t.Run("ShouldReportMembership", func(t *testing.T) {
		audience := Audience{"client-1", "client-2"}

		assert.True(t, audience.Has("client-1"))
		assert.False(t, audience.Has("client-3"))
	})
}
