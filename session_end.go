// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/internal/errorsx"
	"trajano.net/provider/openid/jose"
)

// EndSession handles an RP-initiated logout request. The id_token_hint is
// verified against the issuer keys and the post_logout_redirect_uri checked
// against the client registration derived from the hint's audience before the
// end-user is sent anywhere.
func (f *Provider) EndSession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	terminator, ok := f.Authenticator.(SessionTerminator)
	if !ok {
		return errorsx.WithStack(ErrRequestNotSupported.WithHint("This server does not support RP-Initiated Logout."))
	}

	if err := r.ParseForm(); err != nil {
		return errorsx.WithStack(ErrInvalidRequest.WithHint("Unable to parse HTTP body, make sure to send a properly formatted form request body.").WithWrap(err).WithDebugError(err))
	}

	postLogoutRedirectURI := r.Form.Get(consts.FormParameterPostLogoutURI)

	if postLogoutRedirectURI != "" {
		hint := r.Form.Get(consts.FormParameterIDTokenHint)
		if hint == "" {
			return errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'post_logout_redirect_uri' requires an accompanying 'id_token_hint'."))
		}

		clientID, err := f.clientFromIDTokenHint(hint)
		if err != nil {
			return err
		}

		client, err := f.Clients.GetClient(ctx, clientID)
		if err != nil {
			return errorsx.WithStack(ErrInvalidRequest.WithHint("The 'id_token_hint' audience is not a registered client.").WithWrap(err).WithDebugError(err))
		}

		if !StringInSlice(postLogoutRedirectURI, client.GetRedirectURIs()) {
			return errorsx.WithStack(ErrInvalidRequest.WithHintf("The request parameter 'post_logout_redirect_uri' with value '%s' is not registered for the client.", postLogoutRedirectURI))
		}
	}

	location, err := terminator.EndSession(ctx, w, r, postLogoutRedirectURI)
	if err != nil {
		return errorsx.WithStack(ErrServerError.WithWrap(err).WithDebugError(err))
	}

	w.Header().Set(consts.HeaderCacheControl, consts.CacheControlNoStore)
	w.Header().Set(consts.HeaderPragma, consts.PragmaNoCache)

	if location == "" {
		w.WriteHeader(http.StatusNoContent)

		return nil
	}

	w.Header().Set(consts.HeaderLocation, location)
	w.WriteHeader(http.StatusFound)

	return nil
}

// clientFromIDTokenHint verifies a hint against the issuer keys and returns
// its audience. MAC-signed hints are not accepted here because the client is
// not yet known when the hint is inspected.
func (f *Provider) clientFromIDTokenHint(hint string) (string, error) {
	processor, err := jose.NewProcessor(hint)
	if err != nil {
		return "", errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'id_token_hint' is not a well formed JWT.").WithWrap(err).WithDebugError(err))
	}

	payload, err := processor.WithKeySet(f.IssuerKeys).Payload()
	if err != nil {
		return "", errorsx.WithStack(ErrInvalidRequest.WithHint("The request parameter 'id_token_hint' could not be verified.").WithWrap(err).WithDebugError(err))
	}

	audience := gjson.GetBytes(payload, consts.ClaimAudience)

	if audience.IsArray() {
		values := audience.Array()
		if len(values) == 0 {
			return "", errorsx.WithStack(ErrInvalidRequest.WithHint("The 'id_token_hint' carries no audience."))
		}

		return values[0].String(), nil
	}

	if audience.String() == "" {
		return "", errorsx.WithStack(ErrInvalidRequest.WithHint("The 'id_token_hint' carries no audience."))
	}

	return audience.String(), nil
}
