// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"crypto/elliptic"
	"strings"
	"testing"

	gojose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPayload = `{"iss":"https://login.example.com","sub":"user-1"}`

func TestProcessorSignedRoundTrip(t *testing.T) {
	rsaKey := mustRSAKey(t)
	ecKey := mustECKey(t, elliptic.P256())

	testCases := []struct {
		name string
		alg  Algorithm
		key  JSONWebKey
	}{
		{"ShouldRoundTripRS256", RS256, NewRSAPrivateKey(rsaKey, "rsa-1", RS256, KeyUseSignature)},
		{"ShouldRoundTripRS512", RS512, NewRSAPrivateKey(rsaKey, "rsa-1", RS512, KeyUseSignature)},
		{"ShouldRoundTripES256", ES256, NewECPrivateKey(ecKey, "ec-1", ES256)},
		{"ShouldRoundTripHS256", HS256, NewSymmetricKey([]byte("client secret value"), "", HS256, KeyUseSignature)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			serialized, err := Sign(Header{Algorithm: tc.alg, KeyID: tc.key.KeyID, Type: "JWT"}, []byte(testPayload), &tc.key)
			require.NoError(t, err)
			require.Len(t, strings.Split(serialized, "."), 3)

			processor, err := NewProcessor(serialized)
			require.NoError(t, err)

			if tc.alg.IsMAC() {
				processor = processor.WithSecret([]byte("client secret value"))
			} else {
				processor = processor.WithKeySet(&JSONWebKeySet{Keys: []JSONWebKey{tc.key}})
			}

			require.True(t, processor.HasKey())

			payload, err := processor.Payload()
			require.NoError(t, err)
			assert.Equal(t, testPayload, string(payload))
		})
	}
}

func TestProcessorRejectsTampering(t *testing.T) {
	rsaKey := mustRSAKey(t)
	key := NewRSAPrivateKey(rsaKey, "rsa-1", RS256, KeyUseSignature)
	keys := &JSONWebKeySet{Keys: []JSONWebKey{key}}

	serialized, err := Sign(Header{Algorithm: RS256, KeyID: "rsa-1"}, []byte(testPayload), &key)
	require.NoError(t, err)

	t.Run("ShouldRejectModifiedPayload", func(t *testing.T) {
		segments := strings.Split(serialized, ".")
		segments[1] = EncodeBytes([]byte(`{"iss":"https://evil.example.com"}`))

		processor, err := NewProcessor(strings.Join(segments, "."))
		require.NoError(t, err)

		_, err = processor.WithKeySet(keys).Payload()
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("ShouldRejectTruncatedSignature", func(t *testing.T) {
		segments := strings.Split(serialized, ".")
		segments[2] = segments[2][:len(segments[2])-8]

		processor, err := NewProcessor(strings.Join(segments, "."))
		require.NoError(t, err)

		_, err = processor.WithKeySet(keys).Payload()
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("ShouldRejectSignatureFromAnotherKey", func(t *testing.T) {
		other := NewRSAPrivateKey(mustRSAKey(t), "rsa-1", RS256, KeyUseSignature)

		forged, err := Sign(Header{Algorithm: RS256, KeyID: "rsa-1"}, []byte(testPayload), &other)
		require.NoError(t, err)

		processor, err := NewProcessor(forged)
		require.NoError(t, err)

		_, err = processor.WithKeySet(keys).Payload()
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("ShouldRejectWrongSecretForMAC", func(t *testing.T) {
		symmetric := NewSymmetricKey([]byte("correct secret"), "", HS256, KeyUseSignature)

		mac, err := Sign(Header{Algorithm: HS256}, []byte(testPayload), &symmetric)
		require.NoError(t, err)

		processor, err := NewProcessor(mac)
		require.NoError(t, err)

		_, err = processor.WithSecret([]byte("wrong secret")).Payload()
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestProcessorUnsignedTokens(t *testing.T) {
	serialized, err := Sign(Header{Algorithm: AlgorithmNone}, []byte(testPayload), nil)
	require.NoError(t, err)

	t.Run("ShouldRejectUnsignedByDefault", func(t *testing.T) {
		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		_, err = processor.Payload()
		assert.ErrorIs(t, err, ErrUnsignedTokenNotAllowed)
	})

	t.Run("ShouldAcceptUnsignedAfterOptIn", func(t *testing.T) {
		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		payload, err := processor.AllowUnsigned().Payload()
		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})

	t.Run("ShouldRejectUnsignedWithNonEmptySignature", func(t *testing.T) {
		processor, err := NewProcessor(serialized + "AQAB")
		require.NoError(t, err)

		_, err = processor.AllowUnsigned().Payload()
		assert.ErrorIs(t, err, ErrMalformedToken)
	})
}

func TestProcessorKeyResolution(t *testing.T) {
	rsaKey := mustRSAKey(t)
	key := NewRSAPrivateKey(rsaKey, "rsa-1", RS256, KeyUseSignature)

	serialized, err := Sign(Header{Algorithm: RS256, KeyID: "rsa-1"}, []byte(testPayload), &key)
	require.NoError(t, err)

	t.Run("ShouldReportMissingKey", func(t *testing.T) {
		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		assert.False(t, processor.WithKeySet(&JSONWebKeySet{}).HasKey())
	})

	t.Run("ShouldReportMissingKeySetEntirely", func(t *testing.T) {
		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		assert.False(t, processor.HasKey())
	})

	t.Run("ShouldExposeUnverifiedPayloadExplicitly", func(t *testing.T) {
		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		payload, err := processor.UnsafePayloadWithoutVerification()
		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})
}

func TestProcessorMalformedTokens(t *testing.T) {
	testCases := []struct {
		name string
		have string
	}{
		{"ShouldRejectTwoSegments", "eyJhbGciOiJSUzI1NiJ9.AQAB"},
		{"ShouldRejectFourSegments", "eyJhbGciOiJSUzI1NiJ9.AQAB.AQAB.AQAB"},
		{"ShouldRejectSixSegments", "a.b.c.d.e.f"},
		{"ShouldRejectGarbageHeader", "bm90anNvbg.AQAB.AQAB"},
		{"ShouldRejectEmptyString", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProcessor(tc.have)
			assert.Error(t, err)
		})
	}

	t.Run("ShouldRejectUnknownAlgorithmAtParse", func(t *testing.T) {
		header := EncodeBytes([]byte(`{"alg":"PS256"}`))

		_, err := NewProcessor(header + ".AQAB.AQAB")
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("ShouldRejectEncryptedTokenWithoutContentEncryption", func(t *testing.T) {
		header := EncodeBytes([]byte(`{"alg":"RSA-OAEP"}`))

		_, err := NewProcessor(header + ".a.b.c.d")
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestProcessorEncryptedRoundTrip(t *testing.T) {
	rsaKey := mustRSAKey(t)
	private := NewRSAPrivateKey(rsaKey, "rsa-enc", RSAOAEP, KeyUseEncryption)
	keys := &JSONWebKeySet{Keys: []JSONWebKey{private}}

	testCases := []struct {
		name string
		alg  Algorithm
		enc  Algorithm
	}{
		{"ShouldRoundTripOAEPWithA128GCM", RSAOAEP, A128GCM},
		{"ShouldRoundTripOAEPWithA256GCM", RSAOAEP, A256GCM},
		{"ShouldRoundTripRSA15WithA128GCM", RSA15, A128GCM},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			serialized, err := Encrypt(Header{Algorithm: tc.alg, Encryption: tc.enc, KeyID: "rsa-enc"}, []byte(testPayload), &private)
			require.NoError(t, err)
			require.Len(t, strings.Split(serialized, "."), 5)

			processor, err := NewProcessor(serialized)
			require.NoError(t, err)

			payload, err := processor.WithKeySet(keys).Payload()
			require.NoError(t, err)
			assert.Equal(t, testPayload, string(payload))
		})
	}
}

func TestProcessorDecryptionFailures(t *testing.T) {
	rsaKey := mustRSAKey(t)
	private := NewRSAPrivateKey(rsaKey, "rsa-enc", RSAOAEP, KeyUseEncryption)
	keys := &JSONWebKeySet{Keys: []JSONWebKey{private}}

	serialized, err := Encrypt(Header{Algorithm: RSAOAEP, Encryption: A128GCM, KeyID: "rsa-enc"}, []byte(testPayload), &private)
	require.NoError(t, err)

	t.Run("ShouldFailOpaquelyOnModifiedCiphertext", func(t *testing.T) {
		segments := strings.Split(serialized, ".")
		segments[3] = EncodeBytes([]byte("tampered ciphertext!"))

		processor, err := NewProcessor(strings.Join(segments, "."))
		require.NoError(t, err)

		_, err = processor.WithKeySet(keys).Payload()
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("ShouldFailOpaquelyOnModifiedEncryptedKey", func(t *testing.T) {
		segments := strings.Split(serialized, ".")
		raw := make([]byte, 256)
		segments[1] = EncodeBytes(raw)

		processor, err := NewProcessor(strings.Join(segments, "."))
		require.NoError(t, err)

		_, err = processor.WithKeySet(keys).Payload()
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("ShouldFailOpaquelyOnWrongKey", func(t *testing.T) {
		other := NewRSAPrivateKey(mustRSAKey(t), "rsa-enc", RSAOAEP, KeyUseEncryption)

		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		_, err = processor.WithKeySet(&JSONWebKeySet{Keys: []JSONWebKey{other}}).Payload()
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("ShouldRejectCBCContentEncryption", func(t *testing.T) {
		serialized, err := Encrypt(Header{Algorithm: RSAOAEP, Encryption: A256CBC, KeyID: "rsa-enc"}, []byte(testPayload), &private)
		assert.Error(t, err)
		assert.Empty(t, serialized)
	})

	t.Run("ShouldHideUnverifiedPayloadOfEncryptedTokens", func(t *testing.T) {
		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		_, err = processor.UnsafePayloadWithoutVerification()
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestProcessorInterop(t *testing.T) {
	rsaKey := mustRSAKey(t)

	t.Run("ShouldVerifyTokenSignedByReferenceImplementation", func(t *testing.T) {
		signer, err := gojose.NewSigner(gojose.SigningKey{Algorithm: gojose.RS256, Key: rsaKey}, (&gojose.SignerOptions{}).WithType("JWT"))
		require.NoError(t, err)

		object, err := signer.Sign([]byte(testPayload))
		require.NoError(t, err)

		serialized, err := object.CompactSerialize()
		require.NoError(t, err)

		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		key := NewRSAPublicKey(&rsaKey.PublicKey, "", RS256)

		payload, err := processor.WithKeySet(&JSONWebKeySet{Keys: []JSONWebKey{key}}).Payload()
		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})

	t.Run("ShouldProduceTokenTheReferenceImplementationVerifies", func(t *testing.T) {
		key := NewRSAPrivateKey(rsaKey, "rsa-1", RS256, KeyUseSignature)

		serialized, err := Sign(Header{Algorithm: RS256, KeyID: "rsa-1", Type: "JWT"}, []byte(testPayload), &key)
		require.NoError(t, err)

		object, err := gojose.ParseSigned(serialized, []gojose.SignatureAlgorithm{gojose.RS256})
		require.NoError(t, err)

		payload, err := object.Verify(&rsaKey.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})

	t.Run("ShouldDecryptTokenProducedByReferenceImplementation", func(t *testing.T) {
		encrypter, err := gojose.NewEncrypter(
			gojose.A128GCM,
			gojose.Recipient{Algorithm: gojose.RSA_OAEP, Key: &rsaKey.PublicKey},
			nil,
		)
		require.NoError(t, err)

		object, err := encrypter.Encrypt([]byte(testPayload))
		require.NoError(t, err)

		serialized, err := object.CompactSerialize()
		require.NoError(t, err)

		private := NewRSAPrivateKey(rsaKey, "", RSAOAEP, KeyUseEncryption)

		processor, err := NewProcessor(serialized)
		require.NoError(t, err)

		payload, err := processor.WithKeySet(&JSONWebKeySet{Keys: []JSONWebKey{private}}).Payload()
		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})

	t.Run("ShouldProduceTokenTheReferenceImplementationDecrypts", func(t *testing.T) {
		private := NewRSAPrivateKey(rsaKey, "rsa-enc", RSAOAEP, KeyUseEncryption)

		serialized, err := Encrypt(Header{Algorithm: RSAOAEP, Encryption: A128GCM, KeyID: "rsa-enc"}, []byte(testPayload), &private)
		require.NoError(t, err)

		object, err := gojose.ParseEncrypted(serialized, []gojose.KeyAlgorithm{gojose.RSA_OAEP}, []gojose.ContentEncryption{gojose.A128GCM})
		require.NoError(t, err)

		payload, err := object.Decrypt(rsaKey)
		require.NoError(t, err)
		assert.Equal(t, testPayload, string(payload))
	})
}
