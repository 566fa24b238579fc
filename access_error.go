// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"trajano.net/provider/openid/internal/consts"
)

func (f *Provider) WriteAccessError(ctx context.Context, rw http.ResponseWriter, err error) {
	f.writeJsonError(ctx, rw, err)
}

func (f *Provider) writeJsonError(ctx context.Context, rw http.ResponseWriter, err error) {
	rw.Header().Set(consts.HeaderContentType, consts.ContentTypeApplicationJSON)
	rw.Header().Set(consts.HeaderCacheControl, consts.CacheControlNoStore)
	rw.Header().Set(consts.HeaderPragma, consts.PragmaNoCache)

	rfc := ErrorToRFC6749Error(err).WithExposeDebug(f.Config.GetSendDebugMessagesToClients(ctx))

	if rfc.StatusCode() == http.StatusUnauthorized {
		rw.Header().Set(consts.HeaderWWWAuthenticate, fmt.Sprintf(`Basic realm="%s"`, f.Config.GetIssuer(ctx)))
	}

	js, err := json.Marshal(rfc)
	if err != nil {
		if f.Config.GetSendDebugMessagesToClients(ctx) {
			errorMessage := EscapeJSONString(err.Error())
			http.Error(rw, fmt.Sprintf(`{"error":"server_error","error_description":"%s"}`, errorMessage), http.StatusInternalServerError)
		} else {
			http.Error(rw, `{"error":"server_error"}`, http.StatusInternalServerError)
		}
		return
	}

	rw.WriteHeader(rfc.StatusCode())
	// ignoring the error because the connection is broken when it happens
	_, _ = rw.Write(js)
}
