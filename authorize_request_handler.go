// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
	"trajano.net/provider/openid/jose"
)

// NewAuthenticationRequest parses and validates an authorization endpoint
// request. On error the returned request may still carry enough state for
// WriteAuthorizeError to decide between a direct and a redirected error.
func (f *Provider) NewAuthenticationRequest(_ context.Context, r *http.Request) (*AuthenticationRequest, error) {
	request, err := newAuthenticationRequest(r, f.Clients)
	if err != nil {
		return request, err
	}

	allowed := f.Config.GetAllowedPrompts(r.Context())

	for _, prompt := range request.Prompts {
		if !StringInSlice(prompt, allowed) {
			return request, errorsx.WithStack(ErrInvalidRequest.WithHintf("The request parameter 'prompt' was set to '%s' which is not allowed by this server.", prompt))
		}
	}

	return request, nil
}

// NewAuthorizeResponse drives the authentication state machine for a parsed
// request. The outcome is either a redirect back to the client carrying an
// authorization code, or a handoff sending the end-user to the login or
// consent endpoint with the pending request preserved as a signed JWT.
func (f *Provider) NewAuthorizeResponse(ctx context.Context, r *http.Request, request *AuthenticationRequest) (*AuthorizeResponse, error) {
	authenticated, err := f.Authenticator.IsAuthenticated(ctx, r)
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	if !authenticated {
		if request.Prompts.Has(consts.PromptNone) {
			return nil, errorsx.WithStack(ErrLoginRequired.WithHint("The Authorization Server requires End-User authentication, but the request indicated no interactive prompt is allowed."))
		}

		return f.handoffToAuthenticator(ctx, r, request)
	}

	subject, err := f.Authenticator.GetSubject(ctx, r)
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	if request.IDTokenHint != "" {
		if err = f.validateIDTokenHint(ctx, request, subject); err != nil {
			return nil, err
		}
	}

	if request.Prompts.Has(consts.PromptLogin) {
		// The end-user has a session but the client demanded active
		// reauthentication.
		return f.handoffToAuthenticator(ctx, r, request)
	}

	authTime, err := f.Authenticator.GetAuthTime(ctx, r)
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	if request.MaxAge > 0 && authTime > 0 && time.Now().Unix()-authTime > request.MaxAge {
		if request.Prompts.Has(consts.PromptNone) {
			return nil, errorsx.WithStack(ErrLoginRequired.WithHint("The End-User authentication is older than the requested 'max_age' and no interactive prompt is allowed."))
		}

		return f.handoffToAuthenticator(ctx, r, request)
	}

	if request.Prompts.Has(consts.PromptSelectAccount) {
		selector, ok := f.Authenticator.(AccountSelector)
		if !ok {
			return nil, errorsx.WithStack(ErrAccountSelectionRequired.WithHint("The request parameter 'prompt' requested account selection but this server cannot offer a choice of sessions."))
		}

		requestJWT, jerr := EncodeRequestJWT(request, f.Config.GetIssuer(ctx), f.IssuerKeys)
		if jerr != nil {
			return nil, errorsx.WithStack(ErrServerError.WithWrap(jerr).WithDebugError(jerr))
		}

		location, serr := selector.SelectAccount(ctx, requestJWT, r.URL.String())
		if serr != nil {
			return nil, errorsx.WithStack(ErrServerError.WithWrap(serr).WithDebugError(serr))
		}

		if location != "" {
			return NewAuthorizeHandoff(location), nil
		}
	}

	if request.Prompts.Has(consts.PromptConsent) {
		if handler, ok := f.Authenticator.(ConsentHandler); ok {
			requestJWT, jerr := EncodeRequestJWT(request, f.Config.GetIssuer(ctx), f.IssuerKeys)
			if jerr != nil {
				return nil, errorsx.WithStack(ErrServerError.WithWrap(jerr).WithDebugError(jerr))
			}

			location, cerr := handler.Consent(ctx, requestJWT, r.URL.String())
			if cerr != nil {
				return nil, errorsx.WithStack(ErrServerError.WithWrap(cerr).WithDebugError(cerr))
			}

			if location != "" {
				return NewAuthorizeHandoff(location), nil
			}
		}
	}

	acr, err := f.Authenticator.GetACR(ctx, r)
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	return f.issueAuthorizationCode(ctx, request, subject, authTime, acr)
}

func (f *Provider) handoffToAuthenticator(ctx context.Context, r *http.Request, request *AuthenticationRequest) (*AuthorizeResponse, error) {
	requestJWT, err := EncodeRequestJWT(request, f.Config.GetIssuer(ctx), f.IssuerKeys)
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	location, err := f.Authenticator.Authenticate(ctx, requestJWT, r.URL.String())
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	return NewAuthorizeHandoff(location), nil
}

// validateIDTokenHint checks that the subject of a presented id_token_hint
// matches the authenticated end-user. The hint was issued by this provider,
// so MAC-signed hints verify against the client secret and everything else
// against the issuer keys.
func (f *Provider) validateIDTokenHint(_ context.Context, request *AuthenticationRequest, subject string) error {
	processor, err := jose.NewProcessor(request.IDTokenHint)
	if err != nil {
		return errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'id_token_hint' is not a well formed JWT.").WithWrap(err).WithDebugError(err))
	}

	processor = processor.WithKeySet(f.IssuerKeys)

	if processor.Header().Algorithm.IsMAC() {
		secret := request.GetClient().GetSecret()
		if secret == nil || !secret.IsPlainText() {
			return errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'id_token_hint' uses a MAC algorithm but the client has no recoverable secret to verify it with."))
		}

		raw, serr := secret.GetPlainTextValue()
		if serr != nil {
			return errorsx.WithStack(ErrServerError.WithWrap(serr).WithDebugError(serr))
		}

		processor = processor.WithSecret(raw)
	}

	payload, err := processor.Payload()
	if err != nil {
		return errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'id_token_hint' could not be verified.").WithWrap(err).WithDebugError(err))
	}

	if hintSubject := gjson.GetBytes(payload, consts.ClaimSubject).String(); hintSubject != subject {
		return errorsx.WithStack(ErrLoginRequired.WithHint("The currently authenticated End-User is not the End-User of the 'id_token_hint'."))
	}

	return nil
}

func (f *Provider) issueAuthorizationCode(ctx context.Context, request *AuthenticationRequest, subject string, authTime int64, acr string) (*AuthorizeResponse, error) {
	code, err := generateOpaqueToken()
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	session := &AuthorizationCode{
		Code:        code,
		ClientID:    request.ClientID,
		RedirectURI: request.RedirectURI,
		Scope:       request.Scope,
		Nonce:       request.Nonce,
		Subject:     subject,
		AuthTime:    authTime,
		ACR:         acr,
		ExpiresAt:   time.Now().Add(f.Config.GetAuthorizeCodeLifespan(ctx)),
	}

	if err = f.Store.CreateAuthorizationCode(ctx, session); err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	response := NewAuthorizeResponse()
	response.AddParameter(consts.FormParameterAuthorizationCode, code)

	if request.State != "" {
		response.AddParameter(consts.FormParameterState, request.State)
	}

	return response, nil
}
