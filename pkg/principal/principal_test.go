package principal

import "testing"

func TestRoleHierarchyTotal(t *testing.T) {
	roles := []Role{RoleCreativeDirector, RoleSalesperson, RoleDirector, RoleLeadership}
	for i := range roles {
		for j := range roles {
			if i < j && roles[i].AtLeast(roles[j]) {
				t.Errorf("expected %v to not dominate %v", roles[i], roles[j])
			}
			if i >= j && !roles[i].AtLeast(roles[j]) {
				t.Errorf("expected %v to dominate %v", roles[i], roles[j])
			}
		}
	}
}

func TestParseRoleRoundTrip(t *testing.T) {
	for _, r := range []Role{RoleCreativeDirector, RoleSalesperson, RoleDirector, RoleLeadership} {
		if got := ParseRole(r.String()); got != r {
			t.Errorf("ParseRole(%q) = %v, want %v", r.String(), got, r)
		}
	}
	if got := ParseRole("nonsense"); got != RoleUnknown {
		t.Errorf("ParseRole(nonsense) = %v, want RoleUnknown", got)
	}
}

func TestPrincipalAtLeastBothAxes(t *testing.T) {
	p1 := Principal{ID: "u1", Role: RoleDirector, DataAccessLevel: 5}
	p2 := Principal{ID: "u2", Role: RoleSalesperson, DataAccessLevel: 3}

	if !p1.AtLeast(p2) {
		t.Errorf("expected p1 to dominate p2 on both axes")
	}
	if p2.AtLeast(p1) {
		t.Errorf("expected p2 to not dominate p1")
	}

	// Same role, lower data-access: must not dominate.
	p3 := Principal{ID: "u3", Role: RoleDirector, DataAccessLevel: 2}
	if p3.AtLeast(p1) {
		t.Errorf("expected p3 (lower data-access) to not dominate p1")
	}
}
