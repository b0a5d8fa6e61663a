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
	"encoding/json"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// wireEntry is the JSON shape PermissionSet is persisted as in the cache:
// user_id mapped to its permission slug set, roles, and computed_at.
type wireEntry struct {
	UserID      string    `json:"user_id"`
	Permissions []string  `json:"permissions"`
	Roles       []string  `json:"roles"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Permissions resolves userID's permission set, preferring the cache
// and falling back to the relational PermissionSource on a miss. On
// cache miss AND source failure, the gate fails closed: it returns an
// empty set and the error, never treating "unknown" as "unrestricted".
func (g *Gate) Permissions(ctx context.Context, userID string) (PermissionSet, error) {
	key := cache.PermissionsKey(userID)

	if raw, err := g.cache.Get(ctx, key); err == nil {
		if set, decodeErr := decodeEntry(raw); decodeErr == nil {
			return set, nil
		}
	}

	set, err := g.source.LoadPermissions(ctx, userID)
	if err != nil {
		return PermissionSet{}, errkind.New(errkind.Unauthorized, "rbac.Permissions", err)
	}
	set.UserID = userID
	set.ComputedAt = time.Now()

	if encoded, encodeErr := encodeEntry(set); encodeErr == nil {
		_ = g.cache.Set(ctx, key, encoded, g.ttl)
	}
	return set, nil
}

// Invalidate drops userID's cached permission set, called when the
// non-goal relational layer delivers a role-change event.
func (g *Gate) Invalidate(ctx context.Context, userID string) error {
	return g.cache.Delete(ctx, cache.PermissionsKey(userID))
}

func encodeEntry(set PermissionSet) (string, error) {
	w := wireEntry{UserID: set.UserID, ComputedAt: set.ComputedAt}
	for slug := range set.Permissions {
		w.Permissions = append(w.Permissions, slug)
	}
	for _, r := range set.Roles {
		w.Roles = append(w.Roles, r.String())
	}
	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEntry(raw string) (PermissionSet, error) {
	var w wireEntry
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return PermissionSet{}, err
	}
	set := PermissionSet{
		UserID:      w.UserID,
		ComputedAt:  w.ComputedAt,
		Permissions: make(map[string]struct{}, len(w.Permissions)),
	}
	for _, slug := range w.Permissions {
		set.Permissions[slug] = struct{}{}
	}
	for _, r := range w.Roles {
		set.Roles = append(set.Roles, principal.ParseRole(r))
	}
	return set, nil
}
