// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"trajano.net/provider/openid/jose"
)

// Client represents a registered Relying Party.
type Client interface {
	// GetID returns the client id.
	GetID() string

	// GetSecret returns the registered client secret.
	GetSecret() ClientSecret

	// GetRedirectURIs returns the registered redirection URIs.
	GetRedirectURIs() []string

	// GetScopes returns the scopes the client may request.
	GetScopes() Arguments

	// GetIDTokenSignedResponseAlg returns the JWS algorithm negotiated for ID
	// Tokens issued to this client. Empty means the provider default of RS256.
	GetIDTokenSignedResponseAlg() jose.Algorithm
}

// EncryptionCapableClient is implemented by clients which negotiated ID Token
// encryption during registration.
type EncryptionCapableClient interface {
	Client

	// GetIDTokenEncryptedResponseAlg returns the key management algorithm.
	GetIDTokenEncryptedResponseAlg() jose.Algorithm

	// GetIDTokenEncryptedResponseEnc returns the content encryption algorithm.
	GetIDTokenEncryptedResponseEnc() jose.Algorithm

	// GetJSONWebKeys returns the client's registered public keys.
	GetJSONWebKeys() *jose.JSONWebKeySet
}

// DefaultClient is a simple value implementation of Client.
type DefaultClient struct {
	ID                       string
	Secret                   ClientSecret
	RedirectURIs             []string
	Scopes                   []string
	IDTokenSignedResponseAlg jose.Algorithm
}

func (c *DefaultClient) GetID() string {
	return c.ID
}

func (c *DefaultClient) GetSecret() ClientSecret {
	return c.Secret
}

func (c *DefaultClient) GetRedirectURIs() []string {
	return c.RedirectURIs
}

func (c *DefaultClient) GetScopes() Arguments {
	return c.Scopes
}

func (c *DefaultClient) GetIDTokenSignedResponseAlg() jose.Algorithm {
	if c.IDTokenSignedResponseAlg == "" {
		return jose.RS256
	}

	return c.IDTokenSignedResponseAlg
}
