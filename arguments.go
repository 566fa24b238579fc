// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

// Arguments is a space-delimited parameter value such as scope or prompt,
// parsed into its items.
type Arguments []string

// Matches performs a case-sensitive, out-of-order check that the items
// provided exist in and equal all of the args in arguments.
func (r Arguments) Matches(items ...string) bool {
	if len(r) != len(items) {
		return false
	}

	found := make(map[string]bool)
	for _, item := range items {
		if !StringInSlice(item, r) {
			return false
		}

		found[item] = true
	}

	return len(found) == len(r)
}

// Has checks, in a case-sensitive manner, that all of the items
// provided exist in arguments.
func (r Arguments) Has(items ...string) bool {
	for _, item := range items {
		if !StringInSlice(item, r) {
			return false
		}
	}

	return true
}

// HasOneOf checks, in a case-sensitive manner, that at least one of the items
// provided exists in arguments.
func (r Arguments) HasOneOf(items ...string) bool {
	for _, item := range items {
		if StringInSlice(item, r) {
			return true
		}
	}

	return false
}

// String returns the arguments in their space-delimited wire form.
func (r Arguments) String() string {
	var out string

	for i, item := range r {
		if i > 0 {
			out += " "
		}

		out += item
	}

	return out
}
