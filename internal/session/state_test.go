package session

import (
	"testing"

	"schoolpay/internal/rbac"
)

func TestState_EmptyRequirementsWithAndWithoutUser(t *testing.T) {
	u := teacher()
	for _, st := range []State{{}, {User: &u, AccessToken: "tok"}} {
		if !st.HasAllPermissions() {
			t.Fatalf("HasAllPermissions() must be true")
		}
		if st.HasAnyPermission() {
			t.Fatalf("HasAnyPermission() must be false")
		}
	}
}

func TestState_AbsentUserHasNothing(t *testing.T) {
	var st State
	for _, p := range rbac.AllPermissions() {
		if st.HasPermission(p) {
			t.Fatalf("absent user must not hold %s", p)
		}
	}
	if st.IsSuperAdmin() || st.IsSchoolAdmin() || st.IsTeacher() || st.IsHousemaster() {
		t.Fatalf("absent user must not hold a role")
	}
	if _, ok := st.UserType(); ok {
		t.Fatalf("expected no user type")
	}
}

func TestState_RolePredicatesAreExclusive(t *testing.T) {
	u := teacher()
	st := State{User: &u}
	if !st.IsTeacher() || st.IsSuperAdmin() || st.IsSchoolAdmin() || st.IsHousemaster() {
		t.Fatalf("expected exactly the teacher predicate to hold")
	}
}

func TestState_IsAuthenticatedIsDerived(t *testing.T) {
	u := teacher()
	cases := []struct {
		name string
		st   State
		want bool
	}{
		{"empty", State{}, false},
		{"user only", State{User: &u}, false},
		{"credentials only", State{AccessToken: "tok", RefreshToken: "rtok"}, false},
		{"both", State{User: &u, AccessToken: "tok"}, true},
	}
	for _, tc := range cases {
		if got := tc.st.IsAuthenticated(); got != tc.want {
			t.Fatalf("%s: expected %t, got %t", tc.name, tc.want, got)
		}
	}
}

func TestUser_DisplayNameAndHomeSchool(t *testing.T) {
	u := teacher()
	if u.DisplayName() != "Ama Mensah" {
		t.Fatalf("unexpected display name %q", u.DisplayName())
	}
	if id, name, ok := u.HomeSchool(); !ok || id != 3 || name != "Accra Academy" {
		t.Fatalf("unexpected home school %d %q %t", id, name, ok)
	}

	admin := User{Email: "root@school.test"}
	if admin.DisplayName() != "root@school.test" {
		t.Fatalf("expected email fallback, got %q", admin.DisplayName())
	}
	if _, _, ok := admin.HomeSchool(); ok {
		t.Fatalf("expected no home school")
	}
}
