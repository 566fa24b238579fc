// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package consts

const (
	FormParameterClientID          = valueClientID
	FormParameterClientSecret      = "client_secret"
	FormParameterRedirectURI       = "redirect_uri"
	FormParameterResponseType      = "response_type"
	FormParameterResponseMode      = "response_mode"
	FormParameterScope             = valueScope
	FormParameterState             = valueState
	FormParameterNonce             = valueNonce
	FormParameterPrompt            = "prompt"
	FormParameterDisplay           = "display"
	FormParameterMaximumAge        = "max_age"
	FormParameterACRValues         = "acr_values"
	FormParameterIDTokenHint       = "id_token_hint"
	FormParameterLoginHint         = "login_hint"
	FormParameterUILocales         = "ui_locales"
	FormParameterRequest           = "request"
	FormParameterGrantType         = "grant_type"
	FormParameterAuthorizationCode = valueCode
	FormParameterAccessToken       = valueAccessToken
	FormParameterIDToken           = valueIDToken
	FormParameterError             = "error"
	FormParameterErrorDescription  = "error_description"
	FormParameterErrorURI          = "error_uri"
	FormParameterPostLogoutURI     = "post_logout_redirect_uri"
)

const (
	ResponseTypeAuthorizationCodeFlow = valueCode

	GrantTypeAuthorizationCode = "authorization_code"

	ScopeOpenID = "openid"
)

const (
	PromptNone          = "none"
	PromptLogin         = "login"
	PromptConsent       = "consent"
	PromptSelectAccount = "select_account"
)
