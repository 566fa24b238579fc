// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"trajano.net/provider/openid/jose"
)

// Provider is the OpenID Connect Provider. It wires the storage, client
// registry and end-user authentication collaborators to the authorization and
// token endpoint handlers.
type Provider struct {
	// Store persists authorization codes.
	Store Storage

	// Clients resolves registered clients.
	Clients ClientManager

	// Authenticator bridges to the deployment's end-user authentication.
	Authenticator Authenticator

	// Userinfo loads the claims behind the userinfo endpoint. Optional.
	Userinfo UserinfoProvider

	// IssuerKeys holds the provider's signing keys. The private keys sign
	// issued ID Tokens and handed-off request JWTs; their public halves are
	// served from the jwks_uri.
	IssuerKeys *jose.JSONWebKeySet

	// Config supplies the tunables consumed by the handlers.
	Config Configurator
}

// NewProvider returns a Provider with the given collaborators and an empty
// default configuration.
func NewProvider(store Storage, clients ClientManager, authenticator Authenticator, keys *jose.JSONWebKeySet, config Configurator) *Provider {
	if config == nil {
		config = &Config{}
	}

	return &Provider{
		Store:         store,
		Clients:       clients,
		Authenticator: authenticator,
		IssuerKeys:    keys,
		Config:        config,
	}
}

// PublicKeys returns the key set served from the jwks_uri, with private
// material stripped and symmetric keys withheld.
func (f *Provider) PublicKeys() *jose.JSONWebKeySet {
	return f.IssuerKeys.Public()
}
