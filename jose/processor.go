// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha1"
	"math/big"

	"trajano.net/provider/openid/internal/errorsx"
)

// Processor parses a compact serialized token, resolves the verification or
// decryption key from its trust anchor, and exposes the raw payload only after
// the signature verified or the ciphertext decrypted.
//
// A Processor is configured with a JSONWebKeySet, a symmetric secret (the
// UTF-8 octets of a client secret for the HMAC family), or both. Callers must
// check HasKey before treating a missing key situation as a verification
// failure.
type Processor struct {
	token *compactToken

	jwks          *JSONWebKeySet
	secret        []byte
	allowUnsigned bool

	payload []byte
}

// NewProcessor parses the compact serialization, rejecting anything which is
// neither a three segment JWS nor a five segment JWE.
func NewProcessor(serialized string) (*Processor, error) {
	token, err := parseCompact(serialized)
	if err != nil {
		return nil, err
	}

	return &Processor{token: token}, nil
}

// WithKeySet sets the trust anchor used to resolve asymmetric keys.
func (p *Processor) WithKeySet(jwks *JSONWebKeySet) *Processor {
	p.jwks = jwks

	return p
}

// WithSecret sets the symmetric key material used by the HMAC family.
func (p *Processor) WithSecret(secret []byte) *Processor {
	p.secret = secret

	return p
}

// AllowUnsigned opts in to accepting alg 'none' tokens. The default is to
// reject them.
func (p *Processor) AllowUnsigned() *Processor {
	p.allowUnsigned = true

	return p
}

// Header returns the parsed, not yet trusted JOSE header.
func (p *Processor) Header() Header {
	return p.token.header
}

// HasKey reports whether a usable key can be resolved for this token. It is a
// required precondition check: a false value means the token cannot be
// verified at all rather than that it failed verification.
func (p *Processor) HasKey() bool {
	if p.token.header.Algorithm == AlgorithmNone {
		return p.allowUnsigned
	}

	_, err := p.resolveKey()

	return err == nil
}

// Payload verifies or decrypts the token and returns the raw payload bytes.
// The payload is never exposed before verification succeeds.
func (p *Processor) Payload() ([]byte, error) {
	if p.payload != nil {
		return p.payload, nil
	}

	var (
		payload []byte
		err     error
	)

	if p.token.encrypted() {
		payload, err = p.decrypt()
	} else {
		payload, err = p.verify()
	}

	if err != nil {
		return nil, err
	}

	p.payload = payload

	return payload, nil
}

// UnsafePayloadWithoutVerification returns the decoded payload of a signed
// token before any signature check. It exists so ordered claim checks can
// reject a token early; nothing read from it may be trusted until Payload
// succeeded. Encrypted tokens have no unverified payload.
func (p *Processor) UnsafePayloadWithoutVerification() ([]byte, error) {
	if p.token.encrypted() {
		return nil, errorsx.WithStack(ErrDecryptionFailed)
	}

	payload, err := DecodeBytes(p.token.segments[1])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	return payload, nil
}

func (p *Processor) resolveKey() (*JSONWebKey, error) {
	header := p.token.header

	use := KeyUseSignature
	if p.token.encrypted() {
		use = KeyUseEncryption
	}

	if header.Algorithm.IsMAC() && p.secret != nil {
		key := NewSymmetricKey(p.secret, header.KeyID, header.Algorithm, use)

		return &key, nil
	}

	if p.jwks == nil {
		return nil, errorsx.WithStack(ErrKeyNotFound)
	}

	key, err := p.jwks.SelectKey(header.KeyID, header.Algorithm, use)
	if err != nil {
		return nil, errorsx.WithStack(err)
	}

	return key, nil
}

func (p *Processor) verify() ([]byte, error) {
	header := p.token.header

	payload, err := DecodeBytes(p.token.segments[1])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	// Accepting an unprotected payload is security sensitive and strictly
	// opt-in.
	if header.Algorithm == AlgorithmNone {
		if !p.allowUnsigned {
			return nil, errorsx.WithStack(ErrUnsignedTokenNotAllowed)
		}

		if p.token.segments[2] != "" {
			return nil, errorsx.WithStack(ErrMalformedToken)
		}

		return payload, nil
	}

	primitive, ok := header.Algorithm.Primitive()
	if !ok || !header.Algorithm.IsSignature() {
		return nil, errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	signature, err := DecodeBytes(p.token.segments[2])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	key, err := p.resolveKey()
	if err != nil {
		return nil, err
	}

	if err = verifySignature(primitive, key, p.token.signingInput(), signature); err != nil {
		return nil, err
	}

	return payload, nil
}

func verifySignature(primitive Primitive, key *JSONWebKey, input, signature []byte) error {
	switch primitive.Kind {
	case PrimitiveMAC:
		material, ok := key.Key.([]byte)
		if !ok {
			return errorsx.WithStack(ErrMismatchedKey)
		}

		mac := hmac.New(primitive.Hash.New, material)
		mac.Write(input)

		// hmac.Equal is a constant time comparison.
		if !hmac.Equal(mac.Sum(nil), signature) {
			return errorsx.WithStack(ErrInvalidSignature)
		}

		return nil
	case PrimitiveSignature:
		digest := primitive.Hash.New()
		digest.Write(input)
		sum := digest.Sum(nil)

		switch pub := publicKey(key).(type) {
		case *rsa.PublicKey:
			if err := rsa.VerifyPKCS1v15(pub, primitive.Hash, sum, signature); err != nil {
				return errorsx.WithStack(ErrInvalidSignature)
			}

			return nil
		case *ecdsa.PublicKey:
			size := (pub.Curve.Params().BitSize + 7) / 8
			if len(signature) != 2*size {
				return errorsx.WithStack(ErrInvalidSignature)
			}

			r := new(big.Int).SetBytes(signature[:size])
			s := new(big.Int).SetBytes(signature[size:])

			if !ecdsa.Verify(pub, sum, r, s) {
				return errorsx.WithStack(ErrInvalidSignature)
			}

			return nil
		default:
			return errorsx.WithStack(ErrMismatchedKey)
		}
	default:
		return errorsx.WithStack(ErrUnsupportedAlgorithm)
	}
}

func publicKey(key *JSONWebKey) any {
	switch k := key.Key.(type) {
	case *rsa.PrivateKey:
		return &k.PublicKey
	case *ecdsa.PrivateKey:
		return &k.PublicKey
	default:
		return key.Key
	}
}

// decrypt unwraps the content encryption key and decrypts the ciphertext. Any
// failure after key resolution reports the single ErrDecryptionFailed so an
// attacker cannot distinguish which step failed.
func (p *Processor) decrypt() ([]byte, error) {
	header := p.token.header

	if !header.Algorithm.IsKeyManagement() {
		return nil, errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	contentPrimitive, ok := header.Encryption.Primitive()
	if !ok || contentPrimitive.Kind != PrimitiveContentEncryption || header.Encryption == A256CBC {
		// Only the authenticated GCM modes are served here.
		return nil, errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	key, err := p.resolveKey()
	if err != nil {
		return nil, err
	}

	encryptedKey, err := DecodeBytes(p.token.segments[1])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	iv, err := DecodeBytes(p.token.segments[2])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	ciphertext, err := DecodeBytes(p.token.segments[3])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	tag, err := DecodeBytes(p.token.segments[4])
	if err != nil {
		return nil, errorsx.WithStack(ErrMalformedToken)
	}

	cek, err := unwrapKey(header.Algorithm, key, encryptedKey)
	if err != nil || len(cek) != contentPrimitive.KeyBits/8 {
		return nil, errorsx.WithStack(ErrDecryptionFailed)
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, errorsx.WithStack(ErrDecryptionFailed)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil || len(iv) != gcm.NonceSize() {
		return nil, errorsx.WithStack(ErrDecryptionFailed)
	}

	// The additional authenticated data is the ASCII form of the protected
	// header segment per RFC 7516 section 5.1.
	payload, err := gcm.Open(nil, iv, append(ciphertext, tag...), []byte(p.token.segments[0]))
	if err != nil {
		return nil, errorsx.WithStack(ErrDecryptionFailed)
	}

	return payload, nil
}

func unwrapKey(alg Algorithm, key *JSONWebKey, encryptedKey []byte) ([]byte, error) {
	private, ok := key.Key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrMismatchedKey
	}

	switch alg {
	case RSA15:
		return rsa.DecryptPKCS1v15(nil, private, encryptedKey)
	case RSAOAEP:
		return rsa.DecryptOAEP(sha1.New(), nil, private, encryptedKey, nil)
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}
