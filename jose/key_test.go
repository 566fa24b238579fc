// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return key
}

func mustECKey(t *testing.T, curve elliptic.Curve) *ecdsa.PrivateKey {
	t.Helper()

	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	require.NoError(t, err)

	return key
}

func TestJSONWebKeyRSARoundTrip(t *testing.T) {
	private := mustRSAKey(t)

	t.Run("ShouldRoundTripPublicKey", func(t *testing.T) {
		key := NewRSAPublicKey(&private.PublicKey, "rsa-1", RS256)

		data, err := json.Marshal(key)
		require.NoError(t, err)

		var decoded JSONWebKey
		require.NoError(t, json.Unmarshal(data, &decoded))

		assert.Equal(t, KeyTypeRSA, decoded.KeyType)
		assert.Equal(t, "rsa-1", decoded.KeyID)
		assert.Equal(t, RS256, decoded.Algorithm)
		assert.False(t, decoded.IsPrivate())

		pub, ok := decoded.Key.(*rsa.PublicKey)
		require.True(t, ok)
		assert.Zero(t, private.N.Cmp(pub.N))
		assert.Equal(t, private.E, pub.E)
	})

	t.Run("ShouldRoundTripPrivateKey", func(t *testing.T) {
		key := NewRSAPrivateKey(private, "rsa-1", RS256, KeyUseSignature)

		data, err := json.Marshal(key)
		require.NoError(t, err)

		var decoded JSONWebKey
		require.NoError(t, json.Unmarshal(data, &decoded))

		require.True(t, decoded.IsPrivate())

		recovered, ok := decoded.Key.(*rsa.PrivateKey)
		require.True(t, ok)
		assert.Zero(t, private.D.Cmp(recovered.D))
		require.Len(t, recovered.Primes, 2)
		assert.NoError(t, recovered.Validate())
	})

	t.Run("ShouldRejectZeroParameters", func(t *testing.T) {
		// "AA" is the Base64urlUInt form of zero. A zero prime would divide by
		// zero while deriving the missing second prime.
		testCases := []struct {
			name string
			doc  string
		}{
			{"ZeroModulus", `{"kty":"RSA","n":"AA","e":"AQAB"}`},
			{"ZeroExponent", `{"kty":"RSA","n":"AQAB","e":"AA"}`},
			{"ZeroPrivateExponent", `{"kty":"RSA","n":"AQAB","e":"AQAB","d":"AA"}`},
			{"ZeroFirstPrime", `{"kty":"RSA","n":"AQAB","e":"AQAB","d":"AQAB","p":"AA"}`},
			{"ZeroSecondPrime", `{"kty":"RSA","n":"AQAB","e":"AQAB","d":"AQAB","p":"AQAB","q":"AA"}`},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				var decoded JSONWebKey

				err := json.Unmarshal([]byte(tc.doc), &decoded)
				assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
			})
		}
	})

	t.Run("ShouldDeriveSecondPrimeWhenAbsent", func(t *testing.T) {
		key := NewRSAPrivateKey(private, "rsa-1", RS256, KeyUseSignature)

		data, err := json.Marshal(key)
		require.NoError(t, err)

		var wire map[string]any
		require.NoError(t, json.Unmarshal(data, &wire))
		delete(wire, "q")

		data, err = json.Marshal(wire)
		require.NoError(t, err)

		var decoded JSONWebKey
		require.NoError(t, json.Unmarshal(data, &decoded))

		recovered, ok := decoded.Key.(*rsa.PrivateKey)
		require.True(t, ok)
		require.Len(t, recovered.Primes, 2)
		assert.NoError(t, recovered.Validate())
	})
}

func TestJSONWebKeyECRoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		curve elliptic.Curve
		alg   Algorithm
		crv   string
	}{
		{"ShouldRoundTripP256", elliptic.P256(), ES256, "P-256"},
		{"ShouldRoundTripP384", elliptic.P384(), ES384, "P-384"},
		{"ShouldRoundTripP521", elliptic.P521(), ES512, "P-521"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			private := mustECKey(t, tc.curve)
			key := NewECPublicKey(&private.PublicKey, "ec-1", tc.alg)

			data, err := json.Marshal(key)
			require.NoError(t, err)

			var wire map[string]any
			require.NoError(t, json.Unmarshal(data, &wire))
			assert.Equal(t, tc.crv, wire["crv"])

			var decoded JSONWebKey
			require.NoError(t, json.Unmarshal(data, &decoded))

			pub, ok := decoded.Key.(*ecdsa.PublicKey)
			require.True(t, ok)
			assert.Zero(t, private.X.Cmp(pub.X))
			assert.Zero(t, private.Y.Cmp(pub.Y))
		})
	}

	t.Run("ShouldRejectUnknownCurve", func(t *testing.T) {
		var decoded JSONWebKey

		err := json.Unmarshal([]byte(`{"kty":"EC","crv":"P-224","x":"AQ","y":"AQ"}`), &decoded)
		assert.Error(t, err)
	})
}

func TestJSONWebKeyPublic(t *testing.T) {
	t.Run("ShouldStripRSAPrivateMaterial", func(t *testing.T) {
		private := mustRSAKey(t)
		key := NewRSAPrivateKey(private, "rsa-1", RS256, KeyUseSignature)

		pub := key.Public()
		assert.False(t, pub.IsPrivate())
		assert.Equal(t, "rsa-1", pub.KeyID)

		_, ok := pub.Key.(*rsa.PublicKey)
		assert.True(t, ok)
	})

	t.Run("ShouldStripSymmetricMaterialEntirely", func(t *testing.T) {
		key := NewSymmetricKey([]byte("secret"), "oct-1", HS256, KeyUseSignature)

		pub := key.Public()
		assert.Nil(t, pub.Key)
	})
}

func TestJSONWebKeySetSelectKey(t *testing.T) {
	rsaKey := mustRSAKey(t)
	ecKey := mustECKey(t, elliptic.P256())

	set := &JSONWebKeySet{Keys: []JSONWebKey{
		NewRSAPublicKey(&rsaKey.PublicKey, "rsa-1", RS256),
		NewECPublicKey(&ecKey.PublicKey, "ec-1", ES256),
	}}

	t.Run("ShouldSelectByExactKeyID", func(t *testing.T) {
		key, err := set.SelectKey("ec-1", ES256, KeyUseSignature)
		require.NoError(t, err)
		assert.Equal(t, "ec-1", key.KeyID)
	})

	t.Run("ShouldFailOnUnknownKeyID", func(t *testing.T) {
		_, err := set.SelectKey("missing", RS256, KeyUseSignature)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("ShouldSelectSingleCompatibleKeyWithoutKeyID", func(t *testing.T) {
		key, err := set.SelectKey("", RS256, KeyUseSignature)
		require.NoError(t, err)
		assert.Equal(t, "rsa-1", key.KeyID)
	})

	t.Run("ShouldFailWhenSeveralKeysAreCompatible", func(t *testing.T) {
		second := mustRSAKey(t)
		ambiguous := &JSONWebKeySet{Keys: []JSONWebKey{
			NewRSAPublicKey(&rsaKey.PublicKey, "rsa-1", RS256),
			NewRSAPublicKey(&second.PublicKey, "rsa-2", RS256),
		}}

		_, err := ambiguous.SelectKey("", RS256, KeyUseSignature)
		assert.ErrorIs(t, err, ErrAmbiguousKey)
	})

	t.Run("ShouldFailWhenNoKeyIsCompatible", func(t *testing.T) {
		_, err := set.SelectKey("", HS256, KeyUseSignature)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestJSONWebKeySetPublic(t *testing.T) {
	rsaKey := mustRSAKey(t)

	set := &JSONWebKeySet{Keys: []JSONWebKey{
		NewRSAPrivateKey(rsaKey, "rsa-1", RS256, KeyUseSignature),
		NewSymmetricKey([]byte("secret"), "oct-1", HS256, KeyUseSignature),
	}}

	public := set.Public()
	require.Len(t, public.Keys, 1)
	assert.Equal(t, "rsa-1", public.Keys[0].KeyID)
	assert.False(t, public.Keys[0].IsPrivate())

	t.Run("ShouldNotSerializePrivateMembers", func(t *testing.T) {
		ecKey := mustECKey(t, elliptic.P256())

		set := &JSONWebKeySet{Keys: []JSONWebKey{
			NewRSAPrivateKey(rsaKey, "rsa-1", RS256, KeyUseSignature),
			NewECPrivateKey(ecKey, "ec-1", ES256),
			NewSymmetricKey([]byte("secret"), "oct-1", HS256, KeyUseSignature),
		}}

		data, err := json.Marshal(set.Public())
		require.NoError(t, err)

		var wire struct {
			Keys []map[string]json.RawMessage `json:"keys"`
		}

		require.NoError(t, json.Unmarshal(data, &wire))
		require.Len(t, wire.Keys, 2)

		for _, key := range wire.Keys {
			for _, member := range []string{"d", "p", "q", "dp", "dq", "qi", "k"} {
				assert.NotContains(t, key, member)
			}
		}
	})
}
