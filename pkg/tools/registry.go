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

import (
	"context"
	"fmt"
	"time"

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/metrics"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
	"github.com/dirkdd/OneVice-sub002/pkg/rbac"
	"github.com/dirkdd/OneVice-sub002/pkg/registry"
)

// Registry holds the ten canonical tools by name. Construction is the
// composition root's job; agents only ever see this handle, never a
// concrete tool type.
type Registry struct {
	*registry.BaseRegistry[Tool]
	gate    *rbac.Gate
	metrics *metrics.Metrics
}

// NewRegistry builds an empty tool registry. gate enforces each tool's
// minimum role/data-level before Execute runs; metrics records call
// outcomes, matching the dual Redis/OTel accounting pkg/llms already does.
func NewRegistry(gate *rbac.Gate, m *metrics.Metrics) *Registry {
	return &Registry{
		BaseRegistry: registry.NewBaseRegistry[Tool](),
		gate:         gate,
		metrics:      m,
	}
}

// ListTools returns every registered tool's schema, suitable for handing
// an LLM provider as its function-calling catalogue.
func (r *Registry) ListTools() []Info {
	var infos []Info
	for _, name := range r.Keys() {
		tool, ok := r.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, tool.Info())
	}
	return infos
}

// Describe returns one tool's schema by name.
func (r *Registry) Describe(name string) (Info, bool) {
	tool, ok := r.Get(name)
	if !ok {
		return Info{}, false
	}
	return tool.Info(), true
}

// Execute runs a named tool on behalf of p, gating on the tool's policy
// annotation before the call and recording its outcome metric after.
// Unknown tool names and role/data-level denials are both surfaced as
// errkind.Forbidden/errkind.NotFound rather than a zero Result, so a
// caller can't mistake "denied" for "found: false".
func (r *Registry) Execute(ctx context.Context, name string, p principal.Principal, args map[string]any) (Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return Result{}, errkind.New(errkind.NotFound, "tools.Registry.Execute", fmt.Errorf("tool %q not registered", name))
	}

	info := tool.Info()
	if !r.gate.Can(p, info.MinRole, info.MinDataLevel) {
		return Result{}, errkind.New(errkind.Forbidden, "tools.Registry.Execute",
			fmt.Errorf("principal does not meet tool %q's minimum role/data level", name))
	}
	if info.RequiredPermission != "" {
		perms, err := r.gate.Permissions(ctx, p.ID)
		if err != nil {
			return Result{}, errkind.New(errkind.Forbidden, "tools.Registry.Execute",
				fmt.Errorf("resolving permissions for tool %q: %w", name, err))
		}
		if !perms.Has(info.RequiredPermission) {
			return Result{}, errkind.New(errkind.Forbidden, "tools.Registry.Execute",
				fmt.Errorf("principal lacks permission %q required by tool %q", info.RequiredPermission, name))
		}
	}

	start := time.Now()
	result, err := tool.Execute(ctx, p, args)
	if r.metrics != nil {
		r.metrics.RecordToolExecution(ctx, name, err == nil, time.Since(start))
	}
	return result, err
}
