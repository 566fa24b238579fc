// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"net/http"
	"net/url"

	"trajano.net/provider/openid/internal/consts"
)

// WriteAuthorizeResponse writes the authorization outcome. Handoffs to the
// login or consent endpoint use a temporary redirect so the pending request
// survives the hop; client redirects use 302 with the response parameters
// appended to the redirection URI query.
func (f *Provider) WriteAuthorizeResponse(ctx context.Context, rw http.ResponseWriter, requester *AuthenticationRequest, responder *AuthorizeResponse) {
	header := rw.Header()

	header.Set(consts.HeaderCacheControl, consts.CacheControlNoStore)
	header.Set(consts.HeaderPragma, consts.PragmaNoCache)

	rheader := responder.GetHeader()

	for k := range rheader {
		header.Set(k, rheader.Get(k))
	}

	if location := responder.GetLocation(); location != "" {
		header.Set(consts.HeaderLocation, location)
		rw.WriteHeader(responder.GetStatus())

		return
	}

	redirectURI, err := url.Parse(requester.RedirectURI)
	if err != nil {
		f.handleWriteAuthorizeErrorJSON(ctx, rw, ErrServerError.WithWrap(err).WithDebugError(err))

		return
	}

	redirectURI.Fragment = ""

	parameters := responder.GetParameters()

	query := redirectURI.Query()
	for key, values := range parameters {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	redirectURI.RawQuery = query.Encode()

	header.Set(consts.HeaderLocation, redirectURI.String())
	rw.WriteHeader(responder.GetStatus())
}
