package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"veritrail.io/internal/obs"
)

const defaultKeyTTL = time.Hour

// KeyRing fetches and caches the identity provider's published signing
// keys, indexed by key id. The key set is replaced wholesale on every
// successful refresh: provider keys rotate as a set, and a partial
// refresh risks keeping a revoked key alive.
type KeyRing struct {
	url    string
	ttl    time.Duration
	client *http.Client
	log    zerolog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time
}

// KeyRingOption configures a KeyRing.
type KeyRingOption func(*KeyRing)

// WithKeyTTL overrides the refresh interval (default one hour).
func WithKeyTTL(ttl time.Duration) KeyRingOption {
	return func(k *KeyRing) {
		if ttl > 0 {
			k.ttl = ttl
		}
	}
}

// WithHTTPClient overrides the HTTP client used for key fetches.
func WithHTTPClient(c *http.Client) KeyRingOption {
	return func(k *KeyRing) {
		if c != nil {
			k.client = c
		}
	}
}

// WithKeyRingClock overrides the time source (useful for tests).
func WithKeyRingClock(fn func() time.Time) KeyRingOption {
	return func(k *KeyRing) {
		if fn != nil {
			k.now = fn
		}
	}
}

// WithKeyRingLogger sets the logger used for refresh diagnostics.
func WithKeyRingLogger(log zerolog.Logger) KeyRingOption {
	return func(k *KeyRing) {
		k.log = log
	}
}

// NewKeyRing constructs a KeyRing for the given JWKS endpoint. The ring
// is an explicit dependency: construct one at process start and inject
// it wherever token validation happens.
func NewKeyRing(jwksURL string, opts ...KeyRingOption) *KeyRing {
	k := &KeyRing{
		url: jwksURL,
		ttl: defaultKeyTTL,
		// The key fetch is bounded separately from request timeouts so a
		// slow provider degrades to serving stale keys instead of hanging
		// every authenticated request.
		client: &http.Client{Timeout: 10 * time.Second},
		log:    obs.Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Key returns the signing key for the given key id, refreshing the set
// when the TTL elapsed or the id is unknown. A failed refresh keeps the
// previous set; only an empty cache escalates to
// ErrKeyProviderUnavailable.
func (k *KeyRing) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	k.mu.RLock()
	fresh := k.now().Sub(k.lastFetch) <= k.ttl
	key, ok := k.keys[kid]
	k.mu.RUnlock()

	if fresh && ok {
		return key, nil
	}

	if err := k.refresh(ctx); err != nil {
		obs.ObserveJWKSRefresh("error")
		k.mu.RLock()
		empty := len(k.keys) == 0
		k.mu.RUnlock()
		if empty {
			return nil, fmt.Errorf("%w: %v", ErrKeyProviderUnavailable, err)
		}
		k.log.Warn().Err(err).Msg("jwks refresh failed, serving cached keys")
	} else {
		obs.ObserveJWKSRefresh("ok")
	}

	k.mu.RLock()
	key, ok = k.keys[kid]
	k.mu.RUnlock()
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

func (k *KeyRing) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks request failed: %s", resp.Status)
	}

	var doc struct {
		Keys []jsonWebKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if jwk.Kid == "" {
			k.log.Warn().Msg("jwks entry missing kid, skipped")
			continue
		}
		pub, err := jwk.publicKey()
		if err != nil {
			k.log.Warn().Err(err).Str("kid", jwk.Kid).Msg("unparseable jwks entry, skipped")
			continue
		}
		keys[jwk.Kid] = pub
	}

	k.mu.Lock()
	k.keys = keys
	k.lastFetch = k.now()
	k.mu.Unlock()

	k.log.Debug().Int("key_count", len(keys)).Msg("jwks refreshed")
	return nil
}

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (j jsonWebKey) publicKey() (*rsa.PublicKey, error) {
	if j.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", j.Kty)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
