package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyRingCachesWithinTTL(t *testing.T) {
	key := genKey(t)
	hits := 0
	srv := jwksServer(t, &hits, jwksEntry("kid-1", &key.PublicKey), jwksEntry("kid-2", &key.PublicKey))

	ring := NewKeyRing(srv.URL, WithKeyTTL(time.Hour))

	ctx := context.Background()
	_, err := ring.Key(ctx, "kid-1")
	require.NoError(t, err)
	_, err = ring.Key(ctx, "kid-2")
	require.NoError(t, err)

	require.Equal(t, 1, hits, "second lookup should be served from cache")
}

func TestKeyRingRefreshesAfterTTL(t *testing.T) {
	key := genKey(t)
	hits := 0
	srv := jwksServer(t, &hits, jwksEntry("kid-1", &key.PublicKey))

	now := time.Now()
	ring := NewKeyRing(srv.URL,
		WithKeyTTL(time.Minute),
		WithKeyRingClock(func() time.Time { return now }),
	)

	ctx := context.Background()
	_, err := ring.Key(ctx, "kid-1")
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	now = now.Add(2 * time.Minute)
	_, err = ring.Key(ctx, "kid-1")
	require.NoError(t, err)
	require.Equal(t, 2, hits)
}

func TestKeyRingRefreshesOnUnknownKid(t *testing.T) {
	key := genKey(t)
	hits := 0
	srv := jwksServer(t, &hits, jwksEntry("kid-1", &key.PublicKey))

	ring := NewKeyRing(srv.URL, WithKeyTTL(time.Hour))

	ctx := context.Background()
	_, err := ring.Key(ctx, "kid-1")
	require.NoError(t, err)

	_, err = ring.Key(ctx, "kid-rotated")
	require.ErrorIs(t, err, ErrKeyNotFound)
	require.Equal(t, 2, hits, "unknown kid should force a refresh")
}

func TestKeyRingServesStaleOnRefreshFailure(t *testing.T) {
	key := genKey(t)
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		srvWriteJWKS(t, w, jwksEntry("kid-1", &key.PublicKey))
	}))
	t.Cleanup(srv.Close)

	now := time.Now()
	ring := NewKeyRing(srv.URL,
		WithKeyTTL(time.Minute),
		WithKeyRingClock(func() time.Time { return now }),
	)

	ctx := context.Background()
	_, err := ring.Key(ctx, "kid-1")
	require.NoError(t, err)

	fail = true
	now = now.Add(2 * time.Minute)
	got, err := ring.Key(ctx, "kid-1")
	require.NoError(t, err, "stale keys should keep serving")
	require.NotNil(t, got)
}

func TestKeyRingEmptyCacheHardFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	ring := NewKeyRing(srv.URL)

	_, err := ring.Key(context.Background(), "kid-1")
	require.True(t, errors.Is(err, ErrKeyProviderUnavailable))
}

func srvWriteJWKS(t *testing.T, w http.ResponseWriter, entries ...map[string]string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	body, err := json.Marshal(map[string]any{"keys": entries})
	require.NoError(t, err)
	if _, err := w.Write(body); err != nil {
		t.Errorf("write jwks: %v", err)
	}
}
