package rbac

import (
	"context"
	"testing"

	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

func TestStaticPermissionSourceLoadsRegisteredRole(t *testing.T) {
	table := map[string][]string{
		"salesperson": {"view_projects", "view_deals"},
	}
	s := NewStaticPermissionSource(table)
	s.Register(principal.Principal{ID: "user-1", Role: principal.RoleSalesperson})

	perms, err := s.LoadPermissions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LoadPermissions: %v", err)
	}
	if _, ok := perms.Permissions["view_deals"]; !ok {
		t.Errorf("expected view_deals permission for a registered salesperson")
	}
	if len(perms.Roles) != 1 || perms.Roles[0] != principal.RoleSalesperson {
		t.Errorf("Roles = %v, want [RoleSalesperson]", perms.Roles)
	}
}

func TestStaticPermissionSourceUnknownUser(t *testing.T) {
	s := NewStaticPermissionSource(map[string][]string{
		"director": {"view_financials"},
	})

	perms, err := s.LoadPermissions(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("LoadPermissions: %v", err)
	}
	if len(perms.Permissions) != 0 {
		t.Errorf("expected no permissions for an unregistered user, got %v", perms.Permissions)
	}
	if len(perms.Roles) != 0 {
		t.Errorf("expected no roles for an unregistered user, got %v", perms.Roles)
	}
}

func TestStaticPermissionSourceReRegisterUpdatesRole(t *testing.T) {
	table := map[string][]string{
		"salesperson": {"view_deals"},
		"director":    {"view_deals", "view_financials"},
	}
	s := NewStaticPermissionSource(table)
	s.Register(principal.Principal{ID: "user-1", Role: principal.RoleSalesperson})
	s.Register(principal.Principal{ID: "user-1", Role: principal.RoleDirector})

	perms, err := s.LoadPermissions(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LoadPermissions: %v", err)
	}
	if _, ok := perms.Permissions["view_financials"]; !ok {
		t.Errorf("expected the later registration's role to win")
	}
}
