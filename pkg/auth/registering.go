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

	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// PrincipalRegistry is the narrow interface onto rbac.StaticPermissionSource
// that RegisteringVerifier needs, kept here instead of importing pkg/rbac
// directly so pkg/auth doesn't pick up a dependency on pkg/rbac.
type PrincipalRegistry interface {
	Register(p principal.Principal)
}

// RegisteringVerifier wraps another IdentityVerifier and records every
// principal it successfully authenticates with a PrincipalRegistry. The
// composition root uses this to keep rbac.StaticPermissionSource's
// in-memory role table current without the rbac package needing to know
// anything about JWTs or websockets.
type RegisteringVerifier struct {
	inner    IdentityVerifier
	registry PrincipalRegistry
}

// NewRegisteringVerifier wraps inner so every successful Verify also
// registers the resulting principal with registry.
func NewRegisteringVerifier(inner IdentityVerifier, registry PrincipalRegistry) *RegisteringVerifier {
	return &RegisteringVerifier{inner: inner, registry: registry}
}

var _ IdentityVerifier = (*RegisteringVerifier)(nil)

func (v *RegisteringVerifier) Verify(ctx context.Context, bearerToken string) (principal.Principal, error) {
	p, err := v.inner.Verify(ctx, bearerToken)
	if err != nil {
		return principal.Principal{}, err
	}
	v.registry.Register(p)
	return p, nil
}
