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

package rbac

import (
	"context"
	"sync"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// StaticPermissionSource is the PermissionSource a deployment falls back
// to when no relational user/role service is wired: it tracks each
// known user's role in memory (seeded from the principal the auth layer
// already validated) and expands that role into permission slugs via
// the table in RBACConfig. Register(p) should be called once per
// principal the first time a session authenticates as them, typically
// from the same call site that accepts their websocket connection.
type StaticPermissionSource struct {
	mu              sync.RWMutex
	roleByUser      map[string]principal.Role
	rolePermissions map[string][]string
}

// NewStaticPermissionSource builds a source from the role-permission
// table in RBACConfig (see RBACConfig.RolePermissions).
func NewStaticPermissionSource(rolePermissions map[string][]string) *StaticPermissionSource {
	return &StaticPermissionSource{
		roleByUser:      make(map[string]principal.Role),
		rolePermissions: rolePermissions,
	}
}

// Register records p's role so a later LoadPermissions(ctx, p.ID) call
// can resolve it. Safe to call repeatedly for the same user; the role
// recorded by their most recent authentication wins.
func (s *StaticPermissionSource) Register(p principal.Principal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleByUser[p.ID] = p.Role
}

// LoadPermissions expands userID's registered role into its permission
// slug set. A userID never registered (no principal with that ID has
// authenticated yet) yields an empty set rather than an error: the gate
// already fails closed on an empty set, so an unknown user ends up with
// no permissions either way.
func (s *StaticPermissionSource) LoadPermissions(ctx context.Context, userID string) (PermissionSet, error) {
	s.mu.RLock()
	role, known := s.roleByUser[userID]
	s.mu.RUnlock()

	var slugs []string
	if known {
		slugs = s.rolePermissions[role.String()]
	}

	perms := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		perms[slug] = struct{}{}
	}

	roles := []principal.Role{}
	if known {
		roles = append(roles, role)
	}

	return PermissionSet{
		UserID:      userID,
		Permissions: perms,
		Roles:       roles,
		ComputedAt:  time.Now(),
	}, nil
}
