package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ServiceTokenConfig configures the service token source.
type ServiceTokenConfig struct {
	// Issuer is the service account identifier placed in the iss claim.
	Issuer string

	// Subject is placed in the sub claim.
	// Default: Issuer
	Subject string

	// Audience is placed in the aud claim when set.
	Audience string

	// TenantID is placed in the tenant_id claim when set.
	TenantID string

	// SigningKey is the shared secret used to sign tokens.
	SigningKey []byte

	// KeyID is placed in the kid header when set, so the backend can
	// select the right verification key during rotation.
	KeyID string

	// TokenTTL is the lifetime of each minted token.
	// Default: 15 minutes
	TokenTTL time.Duration

	// RefreshMargin is how long before expiry a new token is minted.
	// Default: 1 minute, clamped to TokenTTL/4 when larger.
	RefreshMargin time.Duration
}

// ServiceTokenSource mints short-lived HS256 tokens from a service account
// key. Tokens are cached and reused until they approach expiry; concurrent
// refreshes collapse into a single mint.
type ServiceTokenSource struct {
	config ServiceTokenConfig

	mu      sync.RWMutex
	token   string
	expiry  time.Time
	sfGroup singleflight.Group // collapses concurrent mints
}

// NewServiceTokenSource creates a service token source.
func NewServiceTokenSource(config ServiceTokenConfig) (*ServiceTokenSource, error) {
	if len(config.SigningKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if config.Issuer == "" {
		return nil, ErrMissingIssuer
	}

	// Apply defaults
	if config.Subject == "" {
		config.Subject = config.Issuer
	}
	if config.TokenTTL == 0 {
		config.TokenTTL = 15 * time.Minute
	}
	if config.RefreshMargin == 0 {
		config.RefreshMargin = time.Minute
	}
	if config.RefreshMargin >= config.TokenTTL {
		config.RefreshMargin = config.TokenTTL / 4
	}

	return &ServiceTokenSource{config: config}, nil
}

// Token returns a signed token, minting a fresh one when the cached token
// is missing or inside the refresh margin. If minting fails, the previous
// token is returned as long as it has not expired.
func (s *ServiceTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	fresh := token != "" && time.Until(s.expiry) > s.config.RefreshMargin
	s.mu.RUnlock()

	if fresh {
		return token, nil
	}

	// Mint using singleflight so a burst of expiring callers produces one
	// new token.
	v, err, _ := s.sfGroup.Do("mint", func() (any, error) {
		return s.mint()
	})
	if err != nil {
		// On mint failure, reuse the previous token while it is still
		// valid (graceful degradation).
		s.mu.RLock()
		token := s.token
		valid := token != "" && time.Now().Before(s.expiry)
		s.mu.RUnlock()

		if valid {
			return token, nil
		}
		return "", err
	}

	return v.(string), nil
}

// Expiry returns the expiry time of the cached token, or the zero time if
// no token has been minted yet.
func (s *ServiceTokenSource) Expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiry
}

// mint signs a new token and updates the cache.
func (s *ServiceTokenSource) mint() (string, error) {
	now := time.Now()
	expiry := now.Add(s.config.TokenTTL)

	claims := jwt.MapClaims{
		"iss": s.config.Issuer,
		"sub": s.config.Subject,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
		"jti": uuid.NewString(),
	}
	if s.config.Audience != "" {
		claims["aud"] = s.config.Audience
	}
	if s.config.TenantID != "" {
		claims["tenant_id"] = s.config.TenantID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.config.KeyID != "" {
		token.Header["kid"] = s.config.KeyID
	}

	signed, err := token.SignedString(s.config.SigningKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenMint, err)
	}

	// Update cache
	s.mu.Lock()
	s.token = signed
	s.expiry = expiry
	s.mu.Unlock()

	return signed, nil
}

// Ensure ServiceTokenSource implements TokenSource
var _ TokenSource = (*ServiceTokenSource)(nil)
