// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package consts

const (
	valueScope       = "scope"
	valueClientID    = "client_id"
	valueCode        = "code"
	valueNonce       = "nonce"
	valueState       = "state"
	valueIss         = "iss"
	valueAccessToken = "access_token"
	valueIDToken     = "id_token"
)

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderPragma          = "Pragma"
	HeaderLocation        = "Location"
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderForwardedProto  = "X-Forwarded-Proto"
)

const (
	ContentTypeApplicationJSON = "application/json;charset=UTF-8"
	ContentTypeApplicationForm = "application/x-www-form-urlencoded"

	CacheControlNoStore = "no-store"
	PragmaNoCache       = "no-cache"
)

const (
	SchemeHTTPS = "https"

	AuthorizationTypeBasic  = "Basic"
	AuthorizationTypeBearer = "Bearer"

	TokenTypeBearer = "Bearer"
)
