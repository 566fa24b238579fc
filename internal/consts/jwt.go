// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package consts

const (
	JSONWebTokenHeaderAlgorithm   = "alg"
	JSONWebTokenHeaderEncryption  = "enc"
	JSONWebTokenHeaderKeyID       = "kid"
	JSONWebTokenHeaderType        = "typ"
	JSONWebTokenHeaderContentType = "cty"

	JSONWebTokenTypeJWT = "JWT"

	JSONWebTokenAlgNone = "none"

	JSONWebTokenUseSignature  = "sig"
	JSONWebTokenUseEncryption = "enc"
)
