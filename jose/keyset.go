// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package jose

// JSONWebKeySet is an ordered collection of keys unique by kid when one is
// present. It is loaded once and read concurrently afterwards; refreshing is
// owned by the collaborator which performs discovery.
type JSONWebKeySet struct {
	Keys []JSONWebKey `json:"keys"`
}

// Key returns the key with the exact kid.
func (s *JSONWebKeySet) Key(kid string) (*JSONWebKey, bool) {
	for i := range s.Keys {
		if s.Keys[i].KeyID == kid {
			return &s.Keys[i], true
		}
	}

	return nil, false
}

// SelectKey resolves the key a token header designates. When the header
// carries a kid it must match exactly. Without a kid the key is selected only
// when exactly one key in the set is compatible with the header algorithm and
// intended use; several compatible keys fail with ErrAmbiguousKey because the
// server must not guess.
func (s *JSONWebKeySet) SelectKey(kid string, alg Algorithm, use KeyUse) (*JSONWebKey, error) {
	if kid != "" {
		if key, ok := s.Key(kid); ok {
			return key, nil
		}

		return nil, ErrKeyNotFound
	}

	var match *JSONWebKey

	for i := range s.Keys {
		if !s.Keys[i].compatible(alg, use) {
			continue
		}

		if match != nil {
			return nil, ErrAmbiguousKey
		}

		match = &s.Keys[i]
	}

	if match == nil {
		return nil, ErrKeyNotFound
	}

	return match, nil
}

// Public returns the key set with all private material stripped, suitable for
// publication at the jwks_uri.
func (s *JSONWebKeySet) Public() *JSONWebKeySet {
	public := &JSONWebKeySet{Keys: make([]JSONWebKey, 0, len(s.Keys))}

	for i := range s.Keys {
		key := s.Keys[i].Public()
		if key.Key == nil {
			// Symmetric keys have no publishable half.
			continue
		}

		public.Keys = append(public.Keys, key)
	}

	return public
}
