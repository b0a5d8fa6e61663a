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

// Package auth validates bearer tokens issued by the external identity
// provider (a non-goal collaborator) and turns their claims into the
// principal.Principal the rest of the core reasons about.
package auth

import (
	"fmt"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// Claims is what's extracted from a validated token. Role and
// DataAccessLevel are provider-issued custom claims, not standard JWT
// fields, matching this core's RBAC model rather than the IdP's own.
type Claims struct {
	Subject         string
	Email           string
	Role            string
	DataAccessLevel int
	Department      string
}

// ToPrincipal converts validated claims into a principal.Principal,
// rejecting an unrecognized role or an out-of-range data access level
// rather than silently defaulting to the least-privileged value, a
// malformed claim should fail closed, not open.
func (c Claims) ToPrincipal() (principal.Principal, error) {
	if c.Subject == "" {
		return principal.Principal{}, errkind.New(errkind.Unauthorized, "auth.Claims.ToPrincipal",
			fmt.Errorf("token carries no subject"))
	}

	role := principal.ParseRole(c.Role)
	if role == principal.RoleUnknown {
		return principal.Principal{}, errkind.New(errkind.Unauthorized, "auth.Claims.ToPrincipal",
			fmt.Errorf("unrecognized role claim %q", c.Role))
	}

	level := principal.DataAccessLevel(c.DataAccessLevel)
	if level < principal.MinDataAccessLevel || level > principal.MaxDataAccessLevel {
		return principal.Principal{}, errkind.New(errkind.Unauthorized, "auth.Claims.ToPrincipal",
			fmt.Errorf("data_access_level %d out of range", c.DataAccessLevel))
	}

	return principal.Principal{
		ID:              c.Subject,
		Role:            role,
		DataAccessLevel: level,
		Department:      c.Department,
	}, nil
}
