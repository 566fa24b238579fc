// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/text/language"

	"trajano.net/provider/openid/internal/consts"
)

// WriteAuthorizeError reports an authorization failure. Errors travel back to
// the client by redirect only once the redirection URI has been validated
// against the client registration; anything earlier is written directly as
// JSON so an attacker cannot use the endpoint as an open redirector.
func (f *Provider) WriteAuthorizeError(ctx context.Context, rw http.ResponseWriter, requester *AuthenticationRequest, err error) {
	rw.Header().Set(consts.HeaderCacheControl, consts.CacheControlNoStore)
	rw.Header().Set(consts.HeaderPragma, consts.PragmaNoCache)

	rfc := ErrorToRFC6749Error(err).
		WithExposeDebug(f.Config.GetSendDebugMessagesToClients(ctx)).
		WithLocalizer(f.Config.GetMessageCatalog(ctx), getLangFromRequester(requester))

	if requester == nil || !requester.redirectVerified() {
		f.handleWriteAuthorizeErrorJSON(ctx, rw, rfc)

		return
	}

	parameters := rfc.ToValues()

	if state := requester.State; len(state) != 0 {
		parameters.Set(consts.FormParameterState, state)
	}

	redirectURI, uerr := url.Parse(requester.RedirectURI)
	if uerr != nil {
		f.handleWriteAuthorizeErrorJSON(ctx, rw, rfc)

		return
	}

	redirectURI.Fragment = ""

	query := redirectURI.Query()
	for key, values := range parameters {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	redirectURI.RawQuery = query.Encode()

	rw.Header().Set(consts.HeaderLocation, redirectURI.String())
	rw.WriteHeader(http.StatusFound)
}

func (f *Provider) handleWriteAuthorizeErrorJSON(ctx context.Context, rw http.ResponseWriter, rfc *RFC6749Error) {
	rw.Header().Set(consts.HeaderContentType, consts.ContentTypeApplicationJSON)

	var (
		data []byte
		err  error
	)

	if data, err = json.Marshal(rfc); err != nil {
		if f.Config.GetSendDebugMessagesToClients(ctx) {
			errorMessage := EscapeJSONString(err.Error())
			http.Error(rw, fmt.Sprintf(`{"error":"server_error","error_description":"%s"}`, errorMessage), http.StatusInternalServerError)
		} else {
			http.Error(rw, `{"error":"server_error"}`, http.StatusInternalServerError)
		}

		return
	}

	rw.WriteHeader(rfc.StatusCode())
	_, _ = rw.Write(data)
}

func getLangFromRequester(requester *AuthenticationRequest) language.Tag {
	if requester != nil && len(requester.UILocales) != 0 {
		if tag, err := language.Parse(requester.UILocales[0]); err == nil {
			return tag
		}
	}

	return language.English
}
