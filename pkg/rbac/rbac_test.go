package rbac

import (
	"testing"

	"github.com/dirkdd/OneVice-sub002/pkg/principal"
)

func TestCanRoleHierarchy(t *testing.T) {
	g := &Gate{}
	director := principal.Principal{Role: principal.RoleDirector, DataAccessLevel: 6}
	sales := principal.Principal{Role: principal.RoleSalesperson, DataAccessLevel: 6}

	if !g.Can(director, principal.RoleSalesperson, 0) {
		t.Errorf("director should pass a salesperson-gated action")
	}
	if g.Can(sales, principal.RoleDirector, 0) {
		t.Errorf("salesperson should not pass a director-gated action")
	}
}

func TestCanDataAccessLevel(t *testing.T) {
	g := &Gate{}
	low := principal.Principal{Role: principal.RoleLeadership, DataAccessLevel: 1}
	high := principal.Principal{Role: principal.RoleLeadership, DataAccessLevel: 6}

	if g.Can(low, principal.RoleUnknown, 5) {
		t.Errorf("level-1 principal should not clear a level-5 field")
	}
	if !g.Can(high, principal.RoleUnknown, 5) {
		t.Errorf("level-6 principal should clear a level-5 field")
	}
}

func TestRedactStringVsStructured(t *testing.T) {
	record := map[string]any{
		"name":   "Boost Mobile",
		"budget": 2_000_000,
		"notes":  nil,
	}
	levels := FieldLevels{"budget": 5}
	low := principal.Principal{DataAccessLevel: 1}

	out := Redact(record, low, levels)
	if out["budget"] != nil {
		t.Errorf("budget = %v, want nil after redaction", out["budget"])
	}
	if out["name"] != "Boost Mobile" {
		t.Errorf("name should not be redacted, field not annotated")
	}
}

func TestRedactMonotonicity(t *testing.T) {
	record := map[string]any{"budget": "2000000"}
	levels := FieldLevels{"budget": 5}

	low := principal.Principal{DataAccessLevel: 3}
	high := principal.Principal{DataAccessLevel: 6}

	lowOut := Redact(record, low, levels)
	highOut := Redact(record, high, levels)

	if lowOut["budget"] != redactedString {
		t.Fatalf("expected low-access principal to see redacted budget")
	}
	if highOut["budget"] != "2000000" {
		t.Fatalf("expected high-access principal to see the real budget")
	}
}
