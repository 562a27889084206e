package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"veritrail.io/internal/obs"
)

// Validator verifies bearer tokens issued by the external identity
// provider. Only RS256 is accepted; audience and issuer are checked on
// every token.
type Validator struct {
	keys     *KeyRing
	audience string
	issuer   string
	leeway   time.Duration
	log      zerolog.Logger
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithLeeway allows a clock skew tolerance on time-based claims.
func WithLeeway(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.leeway = d
		}
	}
}

// WithValidatorLogger sets the logger used for validation diagnostics.
func WithValidatorLogger(log zerolog.Logger) ValidatorOption {
	return func(v *Validator) {
		v.log = log
	}
}

// NewValidator constructs a Validator around an injected KeyRing.
func NewValidator(keys *KeyRing, audience, issuer string, opts ...ValidatorOption) *Validator {
	v := &Validator{
		keys:     keys,
		audience: audience,
		issuer:   issuer,
		log:      obs.Logger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate parses and verifies a compact JWS token and returns its
// claims. Failures collapse to three sentinel errors: ErrTokenExpired,
// ErrKeyProviderUnavailable, and ErrTokenInvalid for everything else.
func (v *Validator) Validate(ctx context.Context, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(v.leeway))
	}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrTokenInvalid
		}
		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			if errors.Is(err, ErrKeyProviderUnavailable) {
				return nil, err
			}
			return nil, ErrTokenInvalid
		}
		return key, nil
	}, opts...)

	switch {
	case err == nil:
		obs.ObserveTokenValidation("ok")
		return claims, nil
	case errors.Is(err, ErrKeyProviderUnavailable):
		obs.ObserveTokenValidation("keys_unavailable")
		return nil, ErrKeyProviderUnavailable
	case errors.Is(err, jwt.ErrTokenExpired):
		obs.ObserveTokenValidation("expired")
		return nil, ErrTokenExpired
	default:
		obs.ObserveTokenValidation("invalid")
		v.log.Debug().Err(err).Msg("token rejected")
		return nil, ErrTokenInvalid
	}
}
