// Copyright 2025 OneVice Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// jwksRefreshInterval bounds how often the key set is re-fetched, so a
// rotated signing key is picked up without a restart.
const jwksRefreshInterval = 15 * time.Minute

// IdentityVerifier is the seam pkg/session calls on an inbound auth
// frame. JWTValidator is the only implementation in this core; the
// external identity provider is a non-goal collaborator reached only
// through the JWKS endpoint it publishes.
type IdentityVerifier interface {
	Verify(ctx context.Context, bearerToken string) (principal.Principal, error)
}

// JWTValidator validates bearer tokens against a JWKS endpoint, caching
// and auto-refreshing the key set so key rotation at the provider never
// requires a restart here.
type JWTValidator struct {
	jwksURL  string
	cache    *jwk.Cache
	issuer   string
	audience string
}

var _ IdentityVerifier = (*JWTValidator)(nil)

// NewJWTValidator builds a validator and eagerly fetches the JWKS once,
// so a misconfigured URL fails at construction rather than on the first
// request.
func NewJWTValidator(ctx context.Context, jwksURL, issuer, audience string) (*JWTValidator, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(jwksRefreshInterval)); err != nil {
		return nil, fmt.Errorf("auth.NewJWTValidator: register JWKS URL: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("auth.NewJWTValidator: fetch JWKS from %s: %w", jwksURL, err)
	}

	return &JWTValidator{
		jwksURL:  jwksURL,
		cache:    cache,
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Verify validates signature, expiry, issuer, and audience, extracts
// this core's custom role/data-access-level/department claims, and
// converts them into a principal.Principal.
func (v *JWTValidator) Verify(ctx context.Context, bearerToken string) (principal.Principal, error) {
	keyset, err := v.cache.Get(ctx, v.jwksURL)
	if err != nil {
		return principal.Principal{}, errkind.New(errkind.Connection, "auth.JWTValidator.Verify",
			fmt.Errorf("fetch JWKS: %w", err))
	}

	token, err := jwt.Parse(
		[]byte(bearerToken),
		jwt.WithKeySet(keyset),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return principal.Principal{}, errkind.New(errkind.Unauthorized, "auth.JWTValidator.Verify",
			fmt.Errorf("invalid token: %w", err))
	}

	claims := Claims{Subject: token.Subject()}
	if email, ok := token.Get("email"); ok {
		if s, ok := email.(string); ok {
			claims.Email = s
		}
	}
	if role, ok := token.Get("role"); ok {
		if s, ok := role.(string); ok {
			claims.Role = s
		}
	}
	if dept, ok := token.Get("department"); ok {
		if s, ok := dept.(string); ok {
			claims.Department = s
		}
	}
	if level, ok := token.Get("data_access_level"); ok {
		switch v := level.(type) {
		case float64:
			claims.DataAccessLevel = int(v)
		case int64:
			claims.DataAccessLevel = int(v)
		case int:
			claims.DataAccessLevel = v
		}
	}

	return claims.ToPrincipal()
}
