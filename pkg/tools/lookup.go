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

	"github.com/dirkdd/OneVice-sub002/pkg/errkind"
	"github.com/dirkdd/OneVice-sub002/pkg/graph"
	"github.com/dirkdd/OneVice-sub002/pkg/principal"
	"github.com/dirkdd/OneVice-sub002/pkg/rbac"
)

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok && v != ""
}

// recordToMap flattens a graph.Record's single-node projection into the
// plain map[string]any shape rbac.Redact expects.
func recordToMap(rec graph.Record, alias string) (map[string]any, bool) {
	node, ok := rec[alias].(map[string]any)
	return node, ok
}

// personProfileTool backs get_person_profile: a person with their
// projects, roles, and union status.
type personProfileTool struct{ g *graph.Client }

func NewPersonProfileTool(g *graph.Client) Tool { return &personProfileTool{g: g} }

func (t *personProfileTool) Info() Info {
	return Info{
		Name:        "get_person_profile",
		Description: "Look up a person by name or id: their projects, role titles, and union status.",
		Parameters: []Parameter{
			{Name: "name", Type: "string", Description: "person name"},
			{Name: "id", Type: "string", Description: "person id"},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_talent",
		Idempotent:         true,
	}
}

func (t *personProfileTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	id, hasID := stringArg(args, "id")
	name, hasName := stringArg(args, "name")
	if !hasID && !hasName {
		return Result{}, errkind.New(errkind.Validation, "tools.get_person_profile", fmt.Errorf("name or id is required"))
	}

	qb := graph.NewQueryBuilder()
	if hasID {
		qb.Match("(n:Person {id: $id})").Param("id", id)
	} else {
		qb.Match("(n:Person {name: $name})").Param("name", name)
	}
	qb.Return("n")
	cypher, params := qb.Build()

	res, err := t.g.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}
	if len(res.Records) == 0 {
		return Result{Found: false}, nil
	}

	node, ok := recordToMap(res.Records[0], "n")
	if !ok {
		return Result{}, errkind.New(errkind.DataIntegrity, "tools.get_person_profile", fmt.Errorf("unexpected node shape"))
	}
	redacted := rbac.Redact(node, p, FieldLevelsPerson)
	return Result{Found: true, Confidence: 1, Data: redacted}, nil
}

// organizationProfileTool backs get_organization_profile.
type organizationProfileTool struct{ g *graph.Client }

func NewOrganizationProfileTool(g *graph.Client) Tool { return &organizationProfileTool{g: g} }

func (t *organizationProfileTool) Info() Info {
	return Info{
		Name:        "get_organization_profile",
		Description: "Look up an organization by name or id: associated people and recent projects.",
		Parameters: []Parameter{
			{Name: "name", Type: "string", Description: "organization name"},
			{Name: "id", Type: "string", Description: "organization id"},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_clients",
		Idempotent:         true,
	}
}

func (t *organizationProfileTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	id, hasID := stringArg(args, "id")
	name, hasName := stringArg(args, "name")
	if !hasID && !hasName {
		return Result{}, errkind.New(errkind.Validation, "tools.get_organization_profile", fmt.Errorf("name or id is required"))
	}

	qb := graph.NewQueryBuilder()
	if hasID {
		qb.Match("(n:Organization {id: $id})").Param("id", id)
	} else {
		qb.Match("(n:Organization {name: $name})").Param("name", name)
	}
	qb.Return("n")
	cypher, params := qb.Build()

	res, err := t.g.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}
	if len(res.Records) == 0 {
		return Result{Found: false}, nil
	}
	node, ok := recordToMap(res.Records[0], "n")
	if !ok {
		return Result{}, errkind.New(errkind.DataIntegrity, "tools.get_organization_profile", fmt.Errorf("unexpected node shape"))
	}
	return Result{Found: true, Confidence: 1, Data: rbac.Redact(node, p, FieldLevelsOrganization)}, nil
}

// projectDetailsTool backs get_project_details.
type projectDetailsTool struct{ g *graph.Client }

func NewProjectDetailsTool(g *graph.Client) Tool { return &projectDetailsTool{g: g} }

func (t *projectDetailsTool) Info() Info {
	return Info{
		Name:        "get_project_details",
		Description: "Look up a project by name or id: crew list, client, project type, and budget band.",
		Parameters: []Parameter{
			{Name: "name", Type: "string", Description: "project name"},
			{Name: "id", Type: "string", Description: "project id"},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_projects",
		Idempotent:         true,
	}
}

func (t *projectDetailsTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	id, hasID := stringArg(args, "id")
	name, hasName := stringArg(args, "name")
	if !hasID && !hasName {
		return Result{}, errkind.New(errkind.Validation, "tools.get_project_details", fmt.Errorf("name or id is required"))
	}

	qb := graph.NewQueryBuilder()
	if hasID {
		qb.Match("(n:Project {id: $id})").Param("id", id)
	} else {
		qb.Match("(n:Project {name: $name})").Param("name", name)
	}
	qb.Return("n")
	cypher, params := qb.Build()

	res, err := t.g.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}
	if len(res.Records) == 0 {
		return Result{Found: false}, nil
	}
	node, ok := recordToMap(res.Records[0], "n")
	if !ok {
		return Result{}, errkind.New(errkind.DataIntegrity, "tools.get_project_details", fmt.Errorf("unexpected node shape"))
	}
	return Result{Found: true, Confidence: 1, Data: rbac.Redact(node, p, FieldLevelsProject)}, nil
}

// peopleAtOrganizationTool backs find_people_at_organization.
type peopleAtOrganizationTool struct{ g *graph.Client }

func NewPeopleAtOrganizationTool(g *graph.Client) Tool { return &peopleAtOrganizationTool{g: g} }

func (t *peopleAtOrganizationTool) Info() Info {
	return Info{
		Name:        "find_people_at_organization",
		Description: "List people who are members of the named organization.",
		Parameters: []Parameter{
			{Name: "org", Type: "string", Description: "organization name", Required: true},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_talent",
		Idempotent:         true,
	}
}

func (t *peopleAtOrganizationTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	org, ok := stringArg(args, "org")
	if !ok {
		return Result{}, errkind.New(errkind.Validation, "tools.find_people_at_organization", fmt.Errorf("org is required"))
	}

	cypher := fmt.Sprintf("MATCH (n:Person)-[:%s]->(o:Organization {name: $org})\nRETURN n", graph.EdgeMemberOf)
	res, err := t.g.Run(ctx, cypher, map[string]any{"org": org}, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}

	var people []map[string]any
	for _, rec := range res.Records {
		if node, ok := recordToMap(rec, "n"); ok {
			people = append(people, rbac.Redact(node, p, FieldLevelsPerson))
		}
	}
	return Result{Found: len(people) > 0, Confidence: 1, Data: map[string]any{"people": people}}, nil
}

// projectsByConceptTool backs find_projects_by_concept.
type projectsByConceptTool struct{ g *graph.Client }

func NewProjectsByConceptTool(g *graph.Client) Tool { return &projectsByConceptTool{g: g} }

func (t *projectsByConceptTool) Info() Info {
	return Info{
		Name:        "find_projects_by_concept",
		Description: "List projects associated with a named creative concept.",
		Parameters: []Parameter{
			{Name: "concept", Type: "string", Description: "creative concept summary text", Required: true},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_projects",
		Idempotent:         true,
	}
}

func (t *projectsByConceptTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	concept, ok := stringArg(args, "concept")
	if !ok {
		return Result{}, errkind.New(errkind.Validation, "tools.find_projects_by_concept", fmt.Errorf("concept is required"))
	}

	cypher := "MATCH (c:CreativeConcept {summary: $concept})\nMATCH (n:Project)<-[:WORKED_ON]-(c)\nRETURN n"
	res, err := t.g.Run(ctx, cypher, map[string]any{"concept": concept}, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}

	var projects []map[string]any
	for _, rec := range res.Records {
		if node, ok := recordToMap(rec, "n"); ok {
			projects = append(projects, rbac.Redact(node, p, FieldLevelsProject))
		}
	}
	return Result{Found: len(projects) > 0, Confidence: 1, Data: map[string]any{"projects": projects}}, nil
}

// contributorsOnClientProjectsTool backs find_contributors_on_client_projects.
type contributorsOnClientProjectsTool struct{ g *graph.Client }

func NewContributorsOnClientProjectsTool(g *graph.Client) Tool {
	return &contributorsOnClientProjectsTool{g: g}
}

func (t *contributorsOnClientProjectsTool) Info() Info {
	return Info{
		Name:        "find_contributors_on_client_projects",
		Description: "List people who held a given role on projects for a named client.",
		Parameters: []Parameter{
			{Name: "client", Type: "string", Description: "client organization name", Required: true},
			{Name: "role", Type: "string", Description: "role title to filter by"},
		},
		MinRole:            principal.RoleCreativeDirector,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_projects",
		Idempotent:         true,
	}
}

func (t *contributorsOnClientProjectsTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	client, ok := stringArg(args, "client")
	if !ok {
		return Result{}, errkind.New(errkind.Validation, "tools.find_contributors_on_client_projects", fmt.Errorf("client is required"))
	}
	role, hasRole := stringArg(args, "role")

	qb := graph.NewQueryBuilder().
		Match("(proj:Project)-[:FOR_CLIENT]->(:Organization {name: $client})").
		Match("(n:Person)-[:WORKED_ON]->(proj)").
		Param("client", client)
	if hasRole {
		qb.Where("$role IN n.role_titles").Param("role", role)
	}
	qb.Return("DISTINCT n")
	cypher, params := qb.Build()

	res, err := t.g.Run(ctx, cypher, params, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}

	var people []map[string]any
	for _, rec := range res.Records {
		if node, ok := recordToMap(rec, "n"); ok {
			people = append(people, rbac.Redact(node, p, FieldLevelsPerson))
		}
	}
	return Result{Found: len(people) > 0, Confidence: 1, Data: map[string]any{"people": people}}, nil
}

// dealDetailsTool backs get_deal_details.
type dealDetailsTool struct{ g *graph.Client }

func NewDealDetailsTool(g *graph.Client) Tool { return &dealDetailsTool{g: g} }

func (t *dealDetailsTool) Info() Info {
	return Info{
		Name:        "get_deal_details",
		Description: "Look up a deal by id: stage, value band, and sourcer.",
		Parameters: []Parameter{
			{Name: "id", Type: "string", Description: "deal id", Required: true},
		},
		MinRole:            principal.RoleSalesperson,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_deals",
		Idempotent:         true,
	}
}

func (t *dealDetailsTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	id, ok := stringArg(args, "id")
	if !ok {
		return Result{}, errkind.New(errkind.Validation, "tools.get_deal_details", fmt.Errorf("id is required"))
	}

	res, err := t.g.Run(ctx, "MATCH (n:Deal {id: $id})\nRETURN n", map[string]any{"id": id}, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}
	if len(res.Records) == 0 {
		return Result{Found: false}, nil
	}
	node, ok := recordToMap(res.Records[0], "n")
	if !ok {
		return Result{}, errkind.New(errkind.DataIntegrity, "tools.get_deal_details", fmt.Errorf("unexpected node shape"))
	}
	return Result{Found: true, Confidence: 1, Data: rbac.Redact(node, p, FieldLevelsDeal)}, nil
}

// dealSourcerTool backs get_deal_sourcer.
type dealSourcerTool struct{ g *graph.Client }

func NewDealSourcerTool(g *graph.Client) Tool { return &dealSourcerTool{g: g} }

func (t *dealSourcerTool) Info() Info {
	return Info{
		Name:        "get_deal_sourcer",
		Description: "Look up the person who sourced a given deal.",
		Parameters: []Parameter{
			{Name: "id", Type: "string", Description: "deal id", Required: true},
		},
		MinRole:            principal.RoleSalesperson,
		MinDataLevel:       principal.MinDataAccessLevel,
		RequiredPermission: "view_deals",
		Idempotent:         true,
	}
}

func (t *dealSourcerTool) Execute(ctx context.Context, p principal.Principal, args map[string]any) (Result, error) {
	id, ok := stringArg(args, "id")
	if !ok {
		return Result{}, errkind.New(errkind.Validation, "tools.get_deal_sourcer", fmt.Errorf("id is required"))
	}

	cypher := fmt.Sprintf("MATCH (d:Deal {id: $id})<-[:%s]-(n:Person)\nRETURN n", graph.EdgeSourced)
	res, err := t.g.Run(ctx, cypher, map[string]any{"id": id}, graph.RunOptions{Idempotent: true})
	if err != nil {
		return Result{}, err
	}
	if len(res.Records) == 0 {
		return Result{Found: false}, nil
	}
	node, ok := recordToMap(res.Records[0], "n")
	if !ok {
		return Result{}, errkind.New(errkind.DataIntegrity, "tools.get_deal_sourcer", fmt.Errorf("unexpected node shape"))
	}
	return Result{Found: true, Confidence: 1, Data: rbac.Redact(node, p, FieldLevelsPerson)}, nil
}
