// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"net/http"

	"trajano.net/provider/openid/internal/consts"
	"trajano.net/provider/openid/token"
)

// WriteAccessResponse writes a successful token endpoint response. Token
// material is uncacheable by mandate, so the no-store and no-cache headers
// are always set.
func (f *Provider) WriteAccessResponse(_ context.Context, rw http.ResponseWriter, response *token.IDTokenResponse) {
	rw.Header().Set(consts.HeaderContentType, consts.ContentTypeApplicationJSON)
	rw.Header().Set(consts.HeaderCacheControl, consts.CacheControlNoStore)
	rw.Header().Set(consts.HeaderPragma, consts.PragmaNoCache)

	js, err := json.Marshal(response)
	if err != nil {
		http.Error(rw, ErrServerError.Error(), http.StatusInternalServerError)

		return
	}

	rw.WriteHeader(http.StatusOK)
	// ignoring the error because the connection is broken when it happens
	_, _ = rw.Write(js)
}
