// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultJWKSFetcherStrategy(t *testing.T) {
	ctx := context.Background()

	keys := testIssuerKeys(t).Public()

	var hits atomic.Int64

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(keys))
	}))
	defer ts.Close()

	t.Run("ShouldFetchAndCacheRemoteKeySet", func(t *testing.T) {
		strategy := NewDefaultJWKSFetcherStrategy()
		hits.Store(0)

		set, err := strategy.Resolve(ctx, ts.URL, false)
		require.NoError(t, err)
		require.Len(t, set.Keys, 1)
		assert.Equal(t, "issuer-1", set.Keys[0].KeyID)

		strategy.(*DefaultJWKSFetcherStrategy).WaitForCache()

		set, err = strategy.Resolve(ctx, ts.URL, false)
		require.NoError(t, err)
		require.Len(t, set.Keys, 1)

		assert.Equal(t, int64(1), hits.Load())
	})

	t.Run("ShouldRefetchWhenForced", func(t *testing.T) {
		strategy := NewDefaultJWKSFetcherStrategy()
		hits.Store(0)

		_, err := strategy.Resolve(ctx, ts.URL, false)
		require.NoError(t, err)

		strategy.(*DefaultJWKSFetcherStrategy).WaitForCache()

		_, err = strategy.Resolve(ctx, ts.URL, true)
		require.NoError(t, err)

		assert.Equal(t, int64(2), hits.Load())
	})

	t.Run("ShouldExpireCachedKeySet", func(t *testing.T) {
		strategy := NewDefaultJWKSFetcherStrategy(JWKSFetcherWithDefaultTTL(50 * time.Millisecond))
		hits.Store(0)

		_, err := strategy.Resolve(ctx, ts.URL, false)
		require.NoError(t, err)

		strategy.(*DefaultJWKSFetcherStrategy).WaitForCache()
		time.Sleep(100 * time.Millisecond)

		_, err = strategy.Resolve(ctx, ts.URL, false)
		require.NoError(t, err)

		assert.Equal(t, int64(2), hits.Load())
	})

	t.Run("ShouldFailWithErrorStatusCode", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer failing.Close()

		strategy := NewDefaultJWKSFetcherStrategy()

		_, err := strategy.Resolve(ctx, failing.URL, false)
		assert.ErrorIs(t, err, ErrServerError)
	})

	t.Run("ShouldFailWithInvalidJSON", func(t *testing.T) {
		invalid := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer invalid.Close()

		strategy := NewDefaultJWKSFetcherStrategy()

		_, err := strategy.Resolve(ctx, invalid.URL, false)
		assert.ErrorIs(t, err, ErrServerError)
	})
}
