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

// Package rbac answers can(principal, action|data_level) and
// redact(record, principal) with deterministic field-level masking. It
// never talks to the relational permission layer directly, that's an
// external, non-goal collaborator reached only through PermissionSource.
package rbac

import (
	"context"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/cache"
	"github.com/dirkdd/OneVice-sub002/pkg/config"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

// PermissionSet is what the relational layer (non-goal) computes for one
// user: a permission-slug set plus the role list it was derived from.
type PermissionSet struct {
	UserID      string
	Permissions map[string]struct{}
	Roles       []principal.Role
	ComputedAt  time.Time
}

// Has reports whether the set grants a permission slug.
func (p PermissionSet) Has(slug string) bool {
	_, ok := p.Permissions[slug]
	return ok
}

// PermissionSource is the narrow interface onto the external relational
// user/role layer (non-goal). The gate calls this only on a cache miss.
type PermissionSource interface {
	LoadPermissions(ctx context.Context, userID string) (PermissionSet, error)
}

// FieldLevels maps a record's field name to its annotated sensitivity
// level on the 1..6 lattice. Tools populate this once per tool, matching
// their policy annotation.
type FieldLevels map[string]principal.DataAccessLevel

// Gate is the permission/RBAC capability, constructed once and held
// by the tool registry (egress checks) and the agent graph (respond-stage
// redaction).
type Gate struct {
	source PermissionSource
	cache  *cache.Client
	ttl    time.Duration
}

// New builds a Gate. ttl is the permission-cache TTL from RBACConfig
// (15 minutes by default).
func New(source PermissionSource, c *cache.Client, cfg config.RBACConfig) *Gate {
	return &Gate{source: source, cache: c, ttl: time.Duration(cfg.PermissionCacheTTLS) * time.Second}
}

// Can answers whether action is permitted for principal's role, or
// (when dataLevel is non-zero) whether principal's data-access level
// clears the field's sensitivity.
func (g *Gate) Can(p principal.Principal, minRole principal.Role, dataLevel principal.DataAccessLevel) bool {
	if !p.Role.AtLeast(minRole) {
		return false
	}
	if dataLevel > 0 && p.DataAccessLevel < dataLevel {
		return false
	}
	return true
}

const redactedString = "[redacted]"

// Redact returns a copy of record with every field whose annotated
// level exceeds principal's data-access level replaced by a sentinel:
// "[redacted]" for strings, nil for everything else (numbers,
// structured values). Fields absent from levels are never redacted,
// only explicitly annotated sensitive fields are bounded.
func Redact(record map[string]any, p principal.Principal, levels FieldLevels) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		level, annotated := levels[k]
		if !annotated || p.DataAccessLevel >= level {
			out[k] = v
			continue
		}
		switch v.(type) {
		case string:
			out[k] = redactedString
		default:
			out[k] = nil
		}
	}
	return out
}
