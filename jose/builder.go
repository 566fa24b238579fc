// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/json"

	"trajano.net/provider/openid/internal/errorsx"
)

// Sign produces the compact JWS serialization of payload. The header carries
// the signature algorithm and key id; symmetric algorithms expect the key
// material to be the UTF-8 octets of the client secret.
func Sign(header Header, payload []byte, key *JSONWebKey) (string, error) {
	if header.Algorithm == AlgorithmNone {
		return serializeUnsigned(header, payload)
	}

	primitive, ok := header.Algorithm.Primitive()
	if !ok || !header.Algorithm.IsSignature() {
		return "", errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	signingInput := EncodeBytes(headerJSON) + "." + EncodeBytes(payload)

	signature, err := computeSignature(primitive, key, []byte(signingInput))
	if err != nil {
		return "", err
	}

	return signingInput + "." + EncodeBytes(signature), nil
}

func serializeUnsigned(header Header, payload []byte) (string, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	return EncodeBytes(headerJSON) + "." + EncodeBytes(payload) + ".", nil
}

func computeSignature(primitive Primitive, key *JSONWebKey, input []byte) ([]byte, error) {
	switch primitive.Kind {
	case PrimitiveMAC:
		material, ok := key.Key.([]byte)
		if !ok {
			return nil, errorsx.WithStack(ErrMismatchedKey)
		}

		mac := hmac.New(primitive.Hash.New, material)
		mac.Write(input)

		return mac.Sum(nil), nil
	case PrimitiveSignature:
		digest := primitive.Hash.New()
		digest.Write(input)
		sum := digest.Sum(nil)

		switch private := key.Key.(type) {
		case *rsa.PrivateKey:
			signature, err := rsa.SignPKCS1v15(rand.Reader, private, primitive.Hash, sum)
			if err != nil {
				return nil, errorsx.WithStack(err)
			}

			return signature, nil
		case *ecdsa.PrivateKey:
			r, s, err := ecdsa.Sign(rand.Reader, private, sum)
			if err != nil {
				return nil, errorsx.WithStack(err)
			}

			// The JWS form is the fixed width big-endian R || S.
			size := (private.Curve.Params().BitSize + 7) / 8
			signature := make([]byte, 2*size)
			r.FillBytes(signature[:size])
			s.FillBytes(signature[size:])

			return signature, nil
		default:
			return nil, errorsx.WithStack(ErrMismatchedKey)
		}
	default:
		return nil, errorsx.WithStack(ErrUnsupportedAlgorithm)
	}
}

// Encrypt produces the compact JWE serialization of payload. The header
// algorithm selects the key management scheme (RSA1_5 or RSA-OAEP) and the
// header enc value the content encryption mode (A128GCM or A256GCM).
func Encrypt(header Header, payload []byte, key *JSONWebKey) (string, error) {
	if !header.Algorithm.IsKeyManagement() {
		return "", errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	contentPrimitive, ok := header.Encryption.Primitive()
	if !ok || contentPrimitive.Kind != PrimitiveContentEncryption || header.Encryption == A256CBC {
		return "", errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	public, ok := publicKey(key).(*rsa.PublicKey)
	if !ok {
		return "", errorsx.WithStack(ErrMismatchedKey)
	}

	cek := make([]byte, contentPrimitive.KeyBits/8)
	if _, err := rand.Read(cek); err != nil {
		return "", errorsx.WithStack(err)
	}

	encryptedKey, err := wrapKey(header.Algorithm, public, cek)
	if err != nil {
		return "", err
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	encodedHeader := EncodeBytes(headerJSON)

	block, err := aes.NewCipher(cek)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errorsx.WithStack(err)
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err = rand.Read(iv); err != nil {
		return "", errorsx.WithStack(err)
	}

	sealed := gcm.Seal(nil, iv, payload, []byte(encodedHeader))
	tagOffset := len(sealed) - gcm.Overhead()

	return encodedHeader +
		"." + EncodeBytes(encryptedKey) +
		"." + EncodeBytes(iv) +
		"." + EncodeBytes(sealed[:tagOffset]) +
		"." + EncodeBytes(sealed[tagOffset:]), nil
}

func wrapKey(alg Algorithm, public *rsa.PublicKey, cek []byte) ([]byte, error) {
	switch alg {
	case RSA15:
		encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, public, cek)
		if err != nil {
			return nil, errorsx.WithStack(err)
		}

		return encrypted, nil
	case RSAOAEP:
		encrypted, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, public, cek, nil)
		if err != nil {
			return nil, errorsx.WithStack(err)
		}

		return encrypted, nil
	default:
		return nil, errorsx.WithStack(ErrUnsupportedAlgorithm)
	}
}
