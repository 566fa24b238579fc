// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/json"
	"math/big"

	"trajano.net/provider/openid/internal/errorsx"
)

// KeyType is the JWK 'kty' parameter.
type KeyType string

const (
	KeyTypeRSA       KeyType = "RSA"
	KeyTypeEC        KeyType = "EC"
	KeyTypeSymmetric KeyType = "oct"
)

// KeyUse is the JWK 'use' parameter.
type KeyUse string

const (
	KeyUseSignature  KeyUse = "sig"
	KeyUseEncryption KeyUse = "enc"
)

// JSONWebKey is typed key material constructed once from configuration or a
// discovery document and immutable afterwards. Key holds one of *rsa.PublicKey,
// *rsa.PrivateKey, *ecdsa.PublicKey, *ecdsa.PrivateKey, or []byte for
// symmetric keys.
type JSONWebKey struct {
	KeyType   KeyType
	KeyID     string
	Use       KeyUse
	Algorithm Algorithm
	Key       any
}

// NewRSAPublicKey builds a signature-verification key.
func NewRSAPublicKey(key *rsa.PublicKey, kid string, alg Algorithm) JSONWebKey {
	return JSONWebKey{KeyType: KeyTypeRSA, KeyID: kid, Use: KeyUseSignature, Algorithm: alg, Key: key}
}

// NewRSAPrivateKey builds a signing or decryption key depending on use.
func NewRSAPrivateKey(key *rsa.PrivateKey, kid string, alg Algorithm, use KeyUse) JSONWebKey {
	return JSONWebKey{KeyType: KeyTypeRSA, KeyID: kid, Use: use, Algorithm: alg, Key: key}
}

// NewECPublicKey builds an ECDSA verification key.
func NewECPublicKey(key *ecdsa.PublicKey, kid string, alg Algorithm) JSONWebKey {
	return JSONWebKey{KeyType: KeyTypeEC, KeyID: kid, Use: KeyUseSignature, Algorithm: alg, Key: key}
}

// NewECPrivateKey builds an ECDSA signing key.
func NewECPrivateKey(key *ecdsa.PrivateKey, kid string, alg Algorithm) JSONWebKey {
	return JSONWebKey{KeyType: KeyTypeEC, KeyID: kid, Use: KeyUseSignature, Algorithm: alg, Key: key}
}

// NewSymmetricKey builds an 'oct' key, typically from the UTF-8 octets of a
// client secret.
func NewSymmetricKey(key []byte, kid string, alg Algorithm, use KeyUse) JSONWebKey {
	return JSONWebKey{KeyType: KeyTypeSymmetric, KeyID: kid, Use: use, Algorithm: alg, Key: key}
}

// IsPrivate reports whether the key carries private material.
func (k *JSONWebKey) IsPrivate() bool {
	switch k.Key.(type) {
	case *rsa.PrivateKey, *ecdsa.PrivateKey, []byte:
		return true
	default:
		return false
	}
}

// Public returns the key with any private material stripped. Symmetric keys
// have no public half and are returned with no key material at all.
func (k *JSONWebKey) Public() JSONWebKey {
	pub := JSONWebKey{KeyType: k.KeyType, KeyID: k.KeyID, Use: k.Use, Algorithm: k.Algorithm}

	switch key := k.Key.(type) {
	case *rsa.PrivateKey:
		pub.Key = &key.PublicKey
	case *ecdsa.PrivateKey:
		pub.Key = &key.PublicKey
	case []byte:
		pub.Key = nil
	default:
		pub.Key = k.Key
	}

	return pub
}

// compatible reports whether the key can serve the given algorithm and use.
// An empty use or algorithm on the key acts as a wildcard.
func (k *JSONWebKey) compatible(alg Algorithm, use KeyUse) bool {
	if k.Use != "" && use != "" && k.Use != use {
		return false
	}

	if k.Algorithm != "" && alg != "" && k.Algorithm != alg {
		return false
	}

	if kty := alg.KeyType(); kty != "" && k.KeyType != kty {
		return false
	}

	return true
}

type rawJSONWebKey struct {
	KeyType   string `json:"kty"`
	KeyID     string `json:"kid,omitempty"`
	Use       string `json:"use,omitempty"`
	Algorithm string `json:"alg,omitempty"`

	// RSA, Base64urlUInt encoded.
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
	D string `json:"d,omitempty"`
	P string `json:"p,omitempty"`
	Q string `json:"q,omitempty"`

	// EC.
	Curve string `json:"crv,omitempty"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`

	// Symmetric.
	K string `json:"k,omitempty"`
}

// MarshalJSON serializes the key in JWK form. Private RSA material is emitted
// only when the key carries it; callers wanting a publishable document should
// call Public first.
func (k JSONWebKey) MarshalJSON() ([]byte, error) {
	raw := rawJSONWebKey{
		KeyType:   string(k.KeyType),
		KeyID:     k.KeyID,
		Use:       string(k.Use),
		Algorithm: string(k.Algorithm),
	}

	var err error

	switch key := k.Key.(type) {
	case *rsa.PublicKey:
		if err = raw.fromRSAPublic(key); err != nil {
			return nil, err
		}
	case *rsa.PrivateKey:
		if err = raw.fromRSAPrivate(key); err != nil {
			return nil, err
		}
	case *ecdsa.PublicKey:
		raw.fromECPublic(key)
	case *ecdsa.PrivateKey:
		raw.fromECPublic(&key.PublicKey)
		raw.D = EncodeBytes(padCoordinate(key.D, key.Curve))
	case []byte:
		raw.K = EncodeBytes(key)
	case nil:
		// Symmetric key with material stripped.
	default:
		return nil, errorsx.WithStack(ErrMismatchedKey)
	}

	return json.Marshal(raw)
}

func (raw *rawJSONWebKey) fromRSAPublic(key *rsa.PublicKey) (err error) {
	if raw.N, err = EncodeUint(key.N); err != nil {
		return err
	}

	if raw.E, err = EncodeUint(big.NewInt(int64(key.E))); err != nil {
		return err
	}

	return nil
}

func (raw *rawJSONWebKey) fromRSAPrivate(key *rsa.PrivateKey) (err error) {
	if err = raw.fromRSAPublic(&key.PublicKey); err != nil {
		return err
	}

	if raw.D, err = EncodeUint(key.D); err != nil {
		return err
	}

	if len(key.Primes) >= 2 {
		if raw.P, err = EncodeUint(key.Primes[0]); err != nil {
			return err
		}

		if raw.Q, err = EncodeUint(key.Primes[1]); err != nil {
			return err
		}
	}

	return nil
}

func (raw *rawJSONWebKey) fromECPublic(key *ecdsa.PublicKey) {
	raw.Curve = curveName(key.Curve)
	raw.X = EncodeBytes(padCoordinate(key.X, key.Curve))
	raw.Y = EncodeBytes(padCoordinate(key.Y, key.Curve))
}

// UnmarshalJSON parses a JWK. The RSA private representation follows the
// original key material which carries d and p; q is derived from n when it is
// absent.
func (k *JSONWebKey) UnmarshalJSON(data []byte) error {
	var raw rawJSONWebKey

	if err := json.Unmarshal(data, &raw); err != nil {
		return errorsx.WithStack(err)
	}

	k.KeyType = KeyType(raw.KeyType)
	k.KeyID = raw.KeyID
	k.Use = KeyUse(raw.Use)
	k.Algorithm = Algorithm(raw.Algorithm)

	switch k.KeyType {
	case KeyTypeRSA:
		return k.unmarshalRSA(&raw)
	case KeyTypeEC:
		return k.unmarshalEC(&raw)
	case KeyTypeSymmetric:
		material, err := DecodeBytes(raw.K)
		if err != nil {
			return err
		}

		k.Key = material

		return nil
	default:
		return errorsx.WithStack(ErrMismatchedKey)
	}
}

// decodePositiveUint decodes a Base64urlUInt RSA parameter. Zero is not a
// legal value for any of them; a zero prime in particular must never reach the
// modulus arithmetic below.
func decodePositiveUint(value string) (*big.Int, error) {
	i, err := DecodeUint(value)
	if err != nil {
		return nil, err
	}

	if i.Sign() <= 0 {
		return nil, errorsx.WithStack(ErrInvalidKeyMaterial)
	}

	return i, nil
}

func (k *JSONWebKey) unmarshalRSA(raw *rawJSONWebKey) error {
	n, err := decodePositiveUint(raw.N)
	if err != nil {
		return err
	}

	e, err := decodePositiveUint(raw.E)
	if err != nil {
		return err
	}

	public := &rsa.PublicKey{N: n, E: int(e.Int64())}

	if raw.D == "" {
		k.Key = public

		return nil
	}

	d, err := decodePositiveUint(raw.D)
	if err != nil {
		return err
	}

	private := &rsa.PrivateKey{PublicKey: *public, D: d}

	if raw.P != "" {
		p, err := decodePositiveUint(raw.P)
		if err != nil {
			return err
		}

		q := new(big.Int)

		if raw.Q != "" {
			if q, err = decodePositiveUint(raw.Q); err != nil {
				return err
			}
		} else if rem := new(big.Int); rem.Mod(n, p).Sign() == 0 {
			q.Div(n, p)
		}

		if q.Sign() > 0 {
			private.Primes = []*big.Int{p, q}
			private.Precompute()
		}
	}

	k.Key = private

	return nil
}

func (k *JSONWebKey) unmarshalEC(raw *rawJSONWebKey) error {
	curve := curveForName(raw.Curve)
	if curve == nil {
		return errorsx.WithStack(ErrUnsupportedAlgorithm)
	}

	x, err := DecodeUint(raw.X)
	if err != nil {
		return err
	}

	y, err := DecodeUint(raw.Y)
	if err != nil {
		return err
	}

	public := &ecdsa.PublicKey{Curve: curve, X: x, Y: y}

	if raw.D == "" {
		k.Key = public

		return nil
	}

	d, err := DecodeUint(raw.D)
	if err != nil {
		return err
	}

	k.Key = &ecdsa.PrivateKey{PublicKey: *public, D: d}

	return nil
}

func curveName(curve elliptic.Curve) string {
	switch curve {
	case elliptic.P256():
		return "P-256"
	case elliptic.P384():
		return "P-384"
	case elliptic.P521():
		return "P-521"
	default:
		return ""
	}
}

func curveForName(name string) elliptic.Curve {
	switch name {
	case "P-256":
		return elliptic.P256()
	case "P-384":
		return elliptic.P384()
	case "P-521":
		return elliptic.P521()
	default:
		return nil
	}
}

// padCoordinate left pads a curve coordinate to the fixed width required by
// RFC 7518 section 6.2.1.2.
func padCoordinate(value *big.Int, curve elliptic.Curve) []byte {
	size := (curve.Params().BitSize + 7) / 8
	buf := make([]byte, size)
	value.FillBytes(buf)

	return buf
}
