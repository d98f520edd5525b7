package session

import "schoolpay/internal/rbac"

// State is a point-in-time copy of the session.
// Its query methods are pure and never fail: an absent user holds no permissions and no role.
type State struct {
	User               *User
	AccessToken        string
	RefreshToken       string
	MustChangePassword bool
}

// IsAuthenticated is derived, never stored: a user and an access credential must both be present.
func (s State) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

func (s State) grants() rbac.Grants {
	if s.User == nil {
		return nil
	}
	return rbac.NewGrants(s.User.Permissions)
}

func (s State) HasPermission(p rbac.Permission) bool {
	if s.User == nil {
		return false
	}
	for _, held := range s.User.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// HasAnyPermission is false for an empty list.
func (s State) HasAnyPermission(ps ...rbac.Permission) bool {
	return s.grants().HasAny(ps...)
}

// HasAllPermissions is true for an empty list, even without a user.
func (s State) HasAllPermissions(ps ...rbac.Permission) bool {
	return s.grants().HasAll(ps...)
}

func (s State) UserType() (rbac.UserType, bool) {
	if s.User == nil {
		return "", false
	}
	return s.User.UserType, true
}

func (s State) is(t rbac.UserType) bool {
	return s.User != nil && s.User.UserType == t
}

func (s State) IsSuperAdmin() bool  { return s.is(rbac.SuperAdmin) }
func (s State) IsSchoolAdmin() bool { return s.is(rbac.SchoolAdmin) }
func (s State) IsTeacher() bool     { return s.is(rbac.Teacher) }
func (s State) IsHousemaster() bool { return s.is(rbac.Housemaster) }

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := s.User.clone()
		out.User = &u
	}
	return out
}
