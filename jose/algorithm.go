// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

import (
	"crypto"
	"fmt"

	"trajano.net/provider/openid/internal/errorsx"
)

// Algorithm is a JSON Web Algorithm identifier from the closed registry in
// RFC 7518 that this provider understands.
type Algorithm string

const (
	// AlgorithmNone denotes a token without cryptographic protection.
	AlgorithmNone Algorithm = "none"

	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"

	RS256 Algorithm = "RS256"
	RS384 Algorithm = "RS384"
	RS512 Algorithm = "RS512"

	ES256 Algorithm = "ES256"
	ES384 Algorithm = "ES384"
	ES512 Algorithm = "ES512"

	RSA15   Algorithm = "RSA1_5"
	RSAOAEP Algorithm = "RSA-OAEP"

	A128KW Algorithm = "A128KW"
	A256KW Algorithm = "A256KW"

	ECDHES Algorithm = "ECDH-ES"

	A128GCM Algorithm = "A128GCM"
	A256GCM Algorithm = "A256GCM"
	A256CBC Algorithm = "A256CBC"
)

// PrimitiveKind classifies the concrete cryptographic operation behind an
// algorithm identifier.
type PrimitiveKind int

const (
	PrimitiveSignature PrimitiveKind = iota + 1
	PrimitiveMAC
	PrimitiveKeyManagement
	PrimitiveContentEncryption
)

// Primitive describes the cryptographic primitive behind an Algorithm. Name is
// unique across the registry: the key size is part of the name precisely so
// that the reverse lookup can never be ambiguous.
type Primitive struct {
	Name    string
	Kind    PrimitiveKind
	Hash    crypto.Hash
	KeyBits int
}

var algorithms = map[Algorithm]Primitive{
	HS256: {Name: "HmacSHA256", Kind: PrimitiveMAC, Hash: crypto.SHA256},
	HS384: {Name: "HmacSHA384", Kind: PrimitiveMAC, Hash: crypto.SHA384},
	HS512: {Name: "HmacSHA512", Kind: PrimitiveMAC, Hash: crypto.SHA512},

	RS256: {Name: "SHA256withRSA", Kind: PrimitiveSignature, Hash: crypto.SHA256},
	RS384: {Name: "SHA384withRSA", Kind: PrimitiveSignature, Hash: crypto.SHA384},
	RS512: {Name: "SHA512withRSA", Kind: PrimitiveSignature, Hash: crypto.SHA512},

	ES256: {Name: "SHA256withECDSA", Kind: PrimitiveSignature, Hash: crypto.SHA256, KeyBits: 256},
	ES384: {Name: "SHA384withECDSA", Kind: PrimitiveSignature, Hash: crypto.SHA384, KeyBits: 384},
	ES512: {Name: "SHA512withECDSA", Kind: PrimitiveSignature, Hash: crypto.SHA512, KeyBits: 521},

	RSA15:   {Name: "RSA/PKCS1", Kind: PrimitiveKeyManagement},
	RSAOAEP: {Name: "RSA/OAEP", Kind: PrimitiveKeyManagement, Hash: crypto.SHA1},

	A128GCM: {Name: "AES/128/GCM", Kind: PrimitiveContentEncryption, KeyBits: 128},
	A256GCM: {Name: "AES/256/GCM", Kind: PrimitiveContentEncryption, KeyBits: 256},
	A256CBC: {Name: "AES/256/CBC", Kind: PrimitiveContentEncryption, KeyBits: 256},
}

// Identifiers with no generic primitive mapping. They remain part of the
// closed registry so ParseAlgorithm accepts them, but Primitive reports no
// mapping.
var unmapped = map[Algorithm]struct{}{
	AlgorithmNone: {},
	A128KW:        {},
	A256KW:        {},
	ECDHES:        {},
}

var primitives map[string]Algorithm

func init() {
	primitives = make(map[string]Algorithm, len(algorithms))

	for alg, primitive := range algorithms {
		if existing, ok := primitives[primitive.Name]; ok {
			panic(fmt.Sprintf("jose: primitive name %q registered for both %q and %q", primitive.Name, existing, alg))
		}

		primitives[primitive.Name] = alg
	}
}

// ParseAlgorithm maps an identifier from the wire to an Algorithm, rejecting
// anything outside the closed registry.
func ParseAlgorithm(value string) (Algorithm, error) {
	alg := Algorithm(value)

	if _, ok := algorithms[alg]; ok {
		return alg, nil
	}

	if _, ok := unmapped[alg]; ok {
		return alg, nil
	}

	return "", errorsx.WithStack(ErrUnsupportedAlgorithm)
}

// AlgorithmForPrimitive is the reverse registry lookup. It fails when no
// algorithm maps to the given primitive name.
func AlgorithmForPrimitive(name string) (Algorithm, error) {
	if alg, ok := primitives[name]; ok {
		return alg, nil
	}

	return "", errorsx.WithStack(ErrUnsupportedAlgorithm)
}

// Primitive returns the primitive specification for the algorithm. The second
// return value is false for identifiers which have no generic primitive
// mapping such as the key wrap family, ECDH-ES, and 'none'.
func (a Algorithm) Primitive() (Primitive, bool) {
	primitive, ok := algorithms[a]

	return primitive, ok
}

// IsMAC reports whether the algorithm is from the HMAC family. HMAC algorithms
// use the UTF-8 octets of the client secret as key material.
func (a Algorithm) IsMAC() bool {
	primitive, ok := algorithms[a]

	return ok && primitive.Kind == PrimitiveMAC
}

// IsSignature reports whether the algorithm produces a JWS signature,
// including the MAC family.
func (a Algorithm) IsSignature() bool {
	primitive, ok := algorithms[a]

	return ok && (primitive.Kind == PrimitiveSignature || primitive.Kind == PrimitiveMAC)
}

// IsKeyManagement reports whether the algorithm wraps content encryption keys.
func (a Algorithm) IsKeyManagement() bool {
	if _, ok := unmapped[a]; ok {
		return a != AlgorithmNone
	}

	primitive, ok := algorithms[a]

	return ok && primitive.Kind == PrimitiveKeyManagement
}

// IsContentEncryption reports whether the algorithm encrypts JWE payloads.
func (a Algorithm) IsContentEncryption() bool {
	primitive, ok := algorithms[a]

	return ok && primitive.Kind == PrimitiveContentEncryption
}

// KeyType returns the JWK key type able to serve this algorithm.
func (a Algorithm) KeyType() KeyType {
	switch a {
	case RS256, RS384, RS512, RSA15, RSAOAEP:
		return KeyTypeRSA
	case ES256, ES384, ES512, ECDHES:
		return KeyTypeEC
	case HS256, HS384, HS512, A128KW, A256KW, A128GCM, A256GCM, A256CBC:
		return KeyTypeSymmetric
	default:
		return ""
	}
}
