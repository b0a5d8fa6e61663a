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

package tools

import "github.com/dirkdd/OneVice-sub002/pkg/rbac"

// Field-level sensitivity annotations, one per node kind this package's
// tools project. Every field a tool returns that isn't listed here is
// never redacted; only fields explicitly named are bounded by a
// principal's data-access level.
var (
	FieldLevelsPerson = rbac.FieldLevels{
		"union_status": 3,
	}

	FieldLevelsOrganization = rbac.FieldLevels{}

	FieldLevelsProject = rbac.FieldLevels{
		"budget_band": 4,
		"client_name": 2,
	}

	FieldLevelsDeal = rbac.FieldLevels{
		"value_band": 4,
		"stage":      2,
	}
)
