// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgumentsMatches(t *testing.T) {
	testCases := []struct {
		name     string
		have     Arguments
		items    []string
		expected bool
	}{
		{"ShouldMatchExactly", Arguments{"openid", "profile"}, []string{"openid", "profile"}, true},
		{"ShouldMatchOutOfOrder", Arguments{"openid", "profile"}, []string{"profile", "openid"}, true},
		{"ShouldNotMatchSubset", Arguments{"openid", "profile"}, []string{"openid"}, false},
		{"ShouldNotMatchSuperset", Arguments{"openid"}, []string{"openid", "profile"}, false},
		{"ShouldNotMatchDuplicates", Arguments{"openid", "openid"}, []string{"openid", "profile"}, false},
		{"ShouldBeCaseSensitive", Arguments{"openid"}, []string{"OpenID"}, false},
		{"ShouldMatchEmpty", Arguments{}, []string{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.have.Matches(tc.items...))
		})
	}
}

func TestArgumentsHas(t *testing.T) {
	arguments := Arguments{"openid", "profile", "email"}

	assert.True(t, arguments.Has("openid"))
	assert.True(t, arguments.Has("openid", "email"))
	assert.False(t, arguments.Has("openid", "admin"))
	assert.False(t, arguments.Has("OpenID"))

	assert.True(t, arguments.HasOneOf("admin", "email"))
	assert.False(t, arguments.HasOneOf("admin", "offline_access"))
}

func TestArgumentsString(t *testing.T) {
	assert.Equal(t, "openid profile", Arguments{"openid", "profile"}.String())
	assert.Equal(t, "openid", Arguments{"openid"}.String())
	assert.Equal(t, "", Arguments{}.String())
}
