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

// Package principal defines the authenticated user model the rest of the
// orchestration core reasons about: a role on a total hierarchy plus an
// independent data-sensitivity bound.
package principal

// Role is the user's position in the total role hierarchy. Higher values
// strictly dominate lower ones for role-gated actions.
type Role int

const (
	RoleUnknown          Role = iota
	RoleCreativeDirector      // 1
	RoleSalesperson           // 2
	RoleDirector              // 3
	RoleLeadership            // 4
)

func (r Role) String() string {
	switch r {
	case RoleCreativeDirector:
		return "creative_director"
	case RoleSalesperson:
		return "salesperson"
	case RoleDirector:
		return "director"
	case RoleLeadership:
		return "leadership"
	default:
		return "unknown"
	}
}

// ParseRole converts the stable string form back into a Role. Unknown
// strings yield RoleUnknown, never an error: callers decide whether an
// unknown role is fatal.
func ParseRole(s string) Role {
	switch s {
	case "creative_director":
		return RoleCreativeDirector
	case "salesperson":
		return RoleSalesperson
	case "director":
		return RoleDirector
	case "leadership":
		return RoleLeadership
	default:
		return RoleUnknown
	}
}

// AtLeast reports whether r dominates or equals other on the role
// hierarchy.
func (r Role) AtLeast(other Role) bool { return r >= other }

// DataAccessLevel is the independent 1..6 sensitivity lattice bounding
// which fields a principal may see, regardless of role.
type DataAccessLevel int

const (
	MinDataAccessLevel DataAccessLevel = 1
	MaxDataAccessLevel DataAccessLevel = 6
)

// Principal is the authenticated caller attached to a session once the
// auth frame validates successfully.
type Principal struct {
	ID              string
	Role            Role
	DataAccessLevel DataAccessLevel
	Department      string
}

// AtLeast reports whether p dominates other on both axes: role hierarchy
// and data-access level. Used to prove RBAC monotonicity: if P1 >= P2 on
// both axes, everything visible to P2 must be visible to P1.
func (p Principal) AtLeast(other Principal) bool {
	return p.Role.AtLeast(other.Role) && p.DataAccessLevel >= other.DataAccessLevel
}
