package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/fleetops/fleet-manager/internal/shared"
)

// VerifierConfig selects the token signing scheme. A PEM public key enables
// RS256; otherwise Secret enables HS256.
type VerifierConfig struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
	Audience     string
}

// Verifier validates bearer tokens and extracts their subject.
type Verifier struct {
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
}

// NewVerifier constructs a Verifier from cfg.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired(), jwt.WithLeeway(30 * time.Second)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	var keyFunc jwt.Keyfunc
	switch {
	case strings.TrimSpace(cfg.PublicKeyPEM) != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("auth: parse public key: %w", err)
		}
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		keyFunc = func(*jwt.Token) (any, error) { return pub, nil }
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		keyFunc = func(*jwt.Token) (any, error) { return secret, nil }
	default:
		return nil, errors.New("auth: jwt secret or public key required")
	}
	return &Verifier{parser: jwt.NewParser(opts...), keyFunc: keyFunc}, nil
}

// Verify parses raw and returns the token subject.
func (v *Verifier) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	if _, err := v.parser.ParseWithClaims(raw, &claims, v.keyFunc); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject missing", shared.ErrInvalidToken)
	}
	return claims.Subject, nil
}

// PrincipalCache keeps resolved principals in Redis keyed by subject.
type PrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPrincipalCache instantiates the cache helper.
func NewPrincipalCache(client *redis.Client, ttl time.Duration) *PrincipalCache {
	return &PrincipalCache{client: client, ttl: ttl}
}

func principalKey(subject string) string {
	return "principal:" + subject
}

// Get returns the cached principal, if any.
func (c *PrincipalCache) Get(ctx context.Context, subject string) (*shared.Principal, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, principalKey(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p shared.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// Set stores the principal for the configured TTL.
func (c *PrincipalCache) Set(ctx context.Context, p *shared.Principal) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, principalKey(p.Subject), raw, c.ttl).Err()
}

// Invalidate drops the cached principal so the next request reloads it.
// Role changes and deactivation call it.
func (c *PrincipalCache) Invalidate(ctx context.Context, subject string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, principalKey(subject)).Err()
}

// Service resolves token subjects to principals.
type Service struct {
	repo  Repository
	cache *PrincipalCache
	group singleflight.Group
}

// NewService constructs a new Service.
func NewService(repo Repository, cache *PrincipalCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Resolve returns the active principal for subject. Concurrent lookups for
// the same subject share one repository call.
func (s *Service) Resolve(ctx context.Context, subject string) (*shared.Principal, error) {
	if p, ok, err := s.cache.Get(ctx, subject); err == nil && ok {
		return p, nil
	}
	v, err, _ := s.group.Do(subject, func() (any, error) {
		acc, err := s.repo.FindBySubject(ctx, subject)
		if err != nil {
			return nil, err
		}
		if !acc.IsActive {
			return nil, shared.ErrInactiveUser
		}
		p := acc.Principal
		if p.Subject == "" {
			p.Subject = subject
		}
		_ = s.cache.Set(ctx, &p)
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*shared.Principal)
	return &p, nil
}
