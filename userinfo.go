// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
)

// NewUserinfoResponse resolves the end-user claims for a userinfo endpoint
// request authorized by a bearer access token.
func (f *Provider) NewUserinfoResponse(ctx context.Context, r *http.Request) (*Userinfo, error) {
	if !f.Config.GetDisableSecureTransportCheck(ctx) && !IsSecureRequest(r) {
		return nil, errorsx.WithStack(ErrSSLRequired)
	}

	accessToken := AccessTokenFromRequest(r)
	if accessToken == "" {
		return nil, errorsx.WithStack(ErrRequestUnauthorized.WithHint("No access token was sent with the request."))
	}

	store, ok := f.Store.(AccessTokenStorage)
	if !ok {
		return nil, errorsx.WithStack(ErrServerError.WithHint("The configured storage does not retain access token sessions."))
	}

	session, err := store.GetAccessTokenSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if f.Userinfo == nil {
		return nil, errorsx.WithStack(ErrServerError.WithHint("No userinfo source is configured."))
	}

	info, err := f.Userinfo.GetUserinfo(ctx, session.Subject, session.Scope)
	if err != nil {
		return nil, errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	return info, nil
}

// WriteUserinfoResponse writes the userinfo claims, or a bearer challenge
// when err indicates the request was not authorized.
func (f *Provider) WriteUserinfoResponse(ctx context.Context, rw http.ResponseWriter, info *Userinfo, err error) {
	rw.Header().Set(consts.HeaderCacheControl, consts.CacheControlNoStore)
	rw.Header().Set(consts.HeaderPragma, consts.PragmaNoCache)

	if err != nil {
		rfc := ErrorToRFC6749Error(err).WithExposeDebug(f.Config.GetSendDebugMessagesToClients(ctx))

		if rfc.StatusCode() == http.StatusUnauthorized {
			rw.Header().Set(consts.HeaderWWWAuthenticate, fmt.Sprintf(`Bearer realm="%s"`, f.Config.GetIssuer(ctx)))
		}

		f.handleWriteAuthorizeErrorJSON(ctx, rw, rfc)

		return
	}

	rw.Header().Set(consts.HeaderContentType, consts.ContentTypeApplicationJSON)

	js, merr := json.Marshal(info)
	if merr != nil {
		http.Error(rw, ErrServerError.Error(), http.StatusInternalServerError)

		return
	}

	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(js)
}
