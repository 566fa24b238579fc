// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"github.com/pkg/errors"
)

var errMissingTokenMaterial = errors.New("token: response requires both an id_token and an access_token")
