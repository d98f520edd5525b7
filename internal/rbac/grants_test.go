package rbac

import (
	"errors"
	"testing"
)

func TestGrants_EmptyRequirements(t *testing.T) {
	var absent Grants
	held := NewGrants([]Permission{StudentView})

	for _, g := range []Grants{absent, held} {
		if !g.HasAll() {
			t.Fatalf("HasAll of nothing must be true")
		}
		if g.HasAny() {
			t.Fatalf("HasAny of nothing must be false")
		}
	}
}

func TestGrants_NilIsSafe(t *testing.T) {
	var g Grants
	if g.Has(SchoolView) || g.HasAny(SchoolView) || g.HasAll(SchoolView) {
		t.Fatalf("nil grants must grant nothing")
	}
}

func TestGrants_NoImplication(t *testing.T) {
	g := NewGrants([]Permission{SchoolManage, StudentManage})
	if g.Has(SchoolView) || g.Has(StudentView) {
		t.Fatalf("manage must not imply view")
	}
}

func TestGrants_DuplicatesCollapse(t *testing.T) {
	g := NewGrants([]Permission{POSView, POSView, POSViews})
	if g.Len() != 2 {
		t.Fatalf("expected 2 distinct grants, got %d", g.Len())
	}
	if !g.HasAll(POSView, POSViews) || g.HasAll(POSView, POSCreate) {
		t.Fatalf("unexpected subset result")
	}
	if !g.HasAny(POSCreate, POSViews) {
		t.Fatalf("expected intersection")
	}
}

func TestCatalog(t *testing.T) {
	all := AllPermissions()
	if len(all) != 45 {
		t.Fatalf("expected 45 permissions, got %d", len(all))
	}
	seen := map[Permission]bool{}
	for _, p := range all {
		if seen[p] {
			t.Fatalf("duplicate permission %s", p)
		}
		seen[p] = true
		if !p.Valid() {
			t.Fatalf("catalog entry %s reported invalid", p)
		}
	}
	all[0] = "MUTATED"
	if AllPermissions()[0] != SchoolDelete {
		t.Fatalf("catalog must not be mutable through AllPermissions")
	}
}

func TestParsePermissions(t *testing.T) {
	ps, err := ParsePermissions([]string{"SCHOOL_VIEW", "PROFILE_VIEW"})
	if err != nil || len(ps) != 2 {
		t.Fatalf("unexpected result %v %v", ps, err)
	}
	_, err = ParsePermissions([]string{"SCHOOL_VIEW", "ALL"})
	var upe *UnknownPermissionError
	if !errors.As(err, &upe) || upe.Token != "ALL" {
		t.Fatalf("expected unknown permission error, got %v", err)
	}
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken")
	}
}

func TestParseUserType(t *testing.T) {
	if ut, err := ParseUserType("HOUSEMASTER"); err != nil || ut != Housemaster {
		t.Fatalf("unexpected %v %v", ut, err)
	}
	if _, err := ParseUserType("OWNER"); !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected unknown user type, got %v", err)
	}
}
