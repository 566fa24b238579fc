// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
	"trajano.net/provider/openid/jose"
	"trajano.net/provider/openid/token"
)

// NewAccessResponse handles a token endpoint request. The client is
// authenticated, the authorization code redeemed exactly once, and the ID
// Token and access token minted on success. The returned error is always a
// *RFC6749Error suitable for WriteAccessError.
func (f *Provider) NewAccessResponse(ctx context.Context, r *http.Request) (*token.IDTokenResponse, error) {
	if !f.Config.GetDisableSecureTransportCheck(ctx) && !IsSecureRequest(r) {
		return nil, errorsx.WithStack(ErrSSLRequired)
	}

	if r.Method != http.MethodPost {
		return nil, errorsx.WithStack(ErrInvalidRequest.WithHintf("HTTP method is '%s', expected 'POST'.", r.Method))
	}

	if err := r.ParseForm(); err != nil {
		return nil, errorsx.WithStack(ErrInvalidRequest.WithHint("Unable to parse HTTP body, make sure to send a properly formatted form request body.").WithWrap(err).WithDebugError(err))
	}

	if grantType := r.PostForm.Get(consts.FormParameterGrantType); grantType != consts.GrantTypeAuthorizationCode {
		return nil, errorsx.WithStack(ErrUnsupportedGrantType.WithHintf("The grant_type '%s' is not supported by this server.", grantType))
	}

	client, err := AuthenticateClient(ctx, f.Clients, r)
	if err != nil {
		return nil, err
	}

	code := r.PostForm.Get(consts.FormParameterAuthorizationCode)
	if code == "" {
		return nil, errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'code' is missing."))
	}

	session, err := f.Store.RedeemAuthorizationCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if session.ClientID != client.GetID() {
		return nil, errorsx.WithStack(ErrInvalidGrant.WithHint("The authorization code was issued to a different OAuth 2.0 Client."))
	}

	if redirectURI := r.PostForm.Get(consts.FormParameterRedirectURI); redirectURI != session.RedirectURI {
		return nil, errorsx.WithStack(ErrInvalidGrant.WithHint("The request parameter 'redirect_uri' does not match the value from the authorization request."))
	}

	idToken, err := f.mintIDToken(ctx, client, session)
	if err != nil {
		return nil, err
	}

	accessToken, err := generateOpaqueToken()
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	if store, ok := f.Store.(AccessTokenStorage); ok {
		if err = store.CreateAccessTokenSession(ctx, accessToken, session); err != nil {
			return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
		}
	}

	response, err := token.NewIDTokenResponseBuilder().
		WithIDToken(idToken).
		WithAccessToken(accessToken).
		WithExpiresIn(int64(f.Config.GetAccessTokenLifespan(ctx) / time.Second)).
		WithScope(session.Scope.String()).
		Build()
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	return response, nil
}

// mintIDToken signs, and for encryption capable clients additionally
// encrypts, the ID Token for a redeemed authorization code.
func (f *Provider) mintIDToken(ctx context.Context, client Client, session *AuthorizationCode) (string, error) {
	now := time.Now()

	claims := token.IDTokenClaims{
		Issuer:                              f.Config.GetIssuer(ctx),
		Subject:                             session.Subject,
		Audience:                            token.Audience{client.GetID()},
		ExpiresAt:                           now.Add(f.Config.GetIDTokenLifespan(ctx)).Unix(),
		IssuedAt:                            now.Unix(),
		AuthTime:                            session.AuthTime,
		Nonce:                               session.Nonce,
		AuthenticationContextClassReference: session.ACR,
	}.WithDefaults()

	payload, err := json.Marshal(claims.ToMap())
	if err != nil {
		return "", errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	alg := client.GetIDTokenSignedResponseAlg()

	var signingKey *jose.JSONWebKey

	if alg.IsMAC() {
		secret := client.GetSecret()
		if secret == nil || !secret.IsPlainText() {
			return "", errorsx.WithStack(ErrInvalidClient.WithHintf("The OAuth 2.0 Client negotiated the '%s' algorithm but has no recoverable client secret to sign with.", alg))
		}

		raw, serr := secret.GetPlainTextValue()
		if serr != nil {
			return "", errorsx.WithStack(ErrServerError.WithWrap(serr).WithDebugError(serr))
		}

		symmetric := jose.NewSymmetricKey(raw, "", alg, jose.KeyUseSignature)
		signingKey = &symmetric
	} else {
		if signingKey, err = f.IssuerKeys.SelectKey("", alg, jose.KeyUseSignature); err != nil {
			return "", errorsx.WithStack(ErrServerError.WithHintf("No issuer key is available for the '%s' algorithm.", alg).WithWrap(err).WithDebugError(err))
		}
	}

	signed, err := jose.Sign(jose.Header{Algorithm: alg, KeyID: signingKey.KeyID, Type: consts.JSONWebTokenTypeJWT}, payload, signingKey)
	if err != nil {
		return "", errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	encrypting, ok := client.(EncryptionCapableClient)
	if !ok {
		return signed, nil
	}

	keys := encrypting.GetJSONWebKeys()
	if keys == nil {
		return "", errorsx.WithStack(ErrInvalidClient.WithHint("The OAuth 2.0 Client negotiated ID Token encryption but has no JSON Web Keys registered."))
	}

	encryptionKey, err := keys.SelectKey("", encrypting.GetIDTokenEncryptedResponseAlg(), jose.KeyUseEncryption)
	if err != nil {
		return "", errorsx.WithStack(ErrInvalidClient.WithHint("The OAuth 2.0 Client has no JSON Web Key suitable for ID Token encryption.").WithWrap(err).WithDebugError(err))
	}

	encrypted, err := jose.Encrypt(jose.Header{
		Algorithm:   encrypting.GetIDTokenEncryptedResponseAlg(),
		Encryption:  encrypting.GetIDTokenEncryptedResponseEnc(),
		KeyID:       encryptionKey.KeyID,
		ContentType: consts.JSONWebTokenTypeJWT,
	}, []byte(signed), encryptionKey)
	if err != nil {
		return "", errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	return encrypted, nil
}
