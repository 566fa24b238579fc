// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"time"

	"trajano.net/provider/openid/i18n"
	"trajano.net/provider/openid/internal/consts"
)

// IssuerProvider returns the issuer identifier minted into ID Tokens.
type IssuerProvider interface {
	GetIssuer(ctx context.Context) (issuer string)
}

// AuthorizeCodeLifespanProvider returns the lifespan of authorization codes.
type AuthorizeCodeLifespanProvider interface {
	GetAuthorizeCodeLifespan(ctx context.Context) (lifespan time.Duration)
}

// IDTokenLifespanProvider returns the lifespan of issued ID Tokens.
type IDTokenLifespanProvider interface {
	GetIDTokenLifespan(ctx context.Context) (lifespan time.Duration)
}

// AccessTokenLifespanProvider returns the lifespan of issued access tokens.
type AccessTokenLifespanProvider interface {
	GetAccessTokenLifespan(ctx context.Context) (lifespan time.Duration)
}

// AllowedPromptsProvider returns which prompt values the provider honors.
type AllowedPromptsProvider interface {
	GetAllowedPrompts(ctx context.Context) (prompts []string)
}

// MessageCatalogProvider returns the message catalog used to localize errors.
type MessageCatalogProvider interface {
	GetMessageCatalog(ctx context.Context) (catalog i18n.MessageCatalog)
}

// SendDebugMessagesToClientsProvider reports whether debug details are
// exposed in error responses.
type SendDebugMessagesToClientsProvider interface {
	GetSendDebugMessagesToClients(ctx context.Context) (send bool)
}

// DisableSecureTransportCheckProvider reports whether the HTTPS requirement
// on the token endpoint is waived. Only sensible behind a terminating proxy
// in development.
type DisableSecureTransportCheckProvider interface {
	GetDisableSecureTransportCheck(ctx context.Context) (disable bool)
}

// JWKSFetcherStrategyProvider returns the strategy used to fetch remote key
// sets.
type JWKSFetcherStrategyProvider interface {
	GetJWKSFetcherStrategy(ctx context.Context) (strategy JWKSFetcherStrategy)
}

// Configurator bundles every provider interface the handlers consume.
type Configurator interface {
	IssuerProvider
	AuthorizeCodeLifespanProvider
	IDTokenLifespanProvider
	AccessTokenLifespanProvider
	AllowedPromptsProvider
	MessageCatalogProvider
	SendDebugMessagesToClientsProvider
	DisableSecureTransportCheckProvider
	JWKSFetcherStrategyProvider
}

// Config is the value implementation of Configurator. The zero value is
// usable; getters substitute defaults for unset fields.
type Config struct {
	// Issuer is the issuer identifier, e.g. https://login.example.com.
	Issuer string

	// AuthorizeCodeLifespan sets how long authorization codes stay
	// redeemable. Defaults to one minute.
	AuthorizeCodeLifespan time.Duration

	// IDTokenLifespan sets the exp window of issued ID Tokens. Defaults to
	// one hour.
	IDTokenLifespan time.Duration

	// AccessTokenLifespan sets the expires_in of issued access tokens.
	// Defaults to one hour.
	AccessTokenLifespan time.Duration

	// AllowedPrompts restricts the prompt values honored at the
	// authorization endpoint. Defaults to none, login, consent and
	// select_account.
	AllowedPrompts []string

	// MessageCatalog localizes error descriptions when set.
	MessageCatalog i18n.MessageCatalog

	// SendDebugMessagesToClients exposes debug details in error responses.
	SendDebugMessagesToClients bool

	// DisableSecureTransportCheck waives the HTTPS requirement on the token
	// endpoint.
	DisableSecureTransportCheck bool

	// JWKSFetcherStrategy fetches remote key sets. Defaults to a
	// NewDefaultJWKSFetcherStrategy.
	JWKSFetcherStrategy JWKSFetcherStrategy
}

func (c *Config) GetIssuer(_ context.Context) string {
	return c.Issuer
}

func (c *Config) GetAuthorizeCodeLifespan(_ context.Context) time.Duration {
	if c.AuthorizeCodeLifespan == 0 {
		return time.Minute
	}

	return c.AuthorizeCodeLifespan
}

func (c *Config) GetIDTokenLifespan(_ context.Context) time.Duration {
	if c.IDTokenLifespan == 0 {
		return time.Hour
	}

	return c.IDTokenLifespan
}

func (c *Config) GetAccessTokenLifespan(_ context.Context) time.Duration {
	if c.AccessTokenLifespan == 0 {
		return time.Hour
	}

	return c.AccessTokenLifespan
}

func (c *Config) GetAllowedPrompts(_ context.Context) []string {
	if len(c.AllowedPrompts) == 0 {
		return []string{consts.PromptNone, consts.PromptLogin, consts.PromptConsent, consts.PromptSelectAccount}
	}

	return c.AllowedPrompts
}

func (c *Config) GetMessageCatalog(_ context.Context) i18n.MessageCatalog {
	return c.MessageCatalog
}

func (c *Config) GetSendDebugMessagesToClients(_ context.Context) bool {
	return c.SendDebugMessagesToClients
}

func (c *Config) GetDisableSecureTransportCheck(_ context.Context) bool {
	return c.DisableSecureTransportCheck
}

func (c *Config) GetJWKSFetcherStrategy(_ context.Context) JWKSFetcherStrategy {
	if c.JWKSFetcherStrategy == nil {
		c.JWKSFetcherStrategy = NewDefaultJWKSFetcherStrategy()
	}

	return c.JWKSFetcherStrategy
}

var _ Configurator = (*Config)(nil)
