package session

import (
	"fmt"
	"slices"
	"strings"

	"schoolpay/internal/rbac"
)

// User is the signed-in identity as delivered by the authentication service.
// The session layer stores it verbatim; integrity is the login flow's job.
type User struct {
	ID           int64             `json:"id" validate:"gt=0"`
	Email        string            `json:"email" validate:"required,email"`
	Phone        string            `json:"phone"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	UserType     rbac.UserType     `json:"userType" validate:"user_type"`
	LoginEnabled bool              `json:"loginEnabled"`
	SchoolID     *int64            `json:"schoolId"`
	SchoolName   *string           `json:"schoolName"`
	Roles        []string          `json:"roles"`
	Permissions  []rbac.Permission `json:"permissions" validate:"dive,permission"`
}

// Validate checks a user as delivered by the login endpoint: positive id, email,
// known user type and permissions.
func (u User) Validate() error {
	return validate.Struct(u)
}

// validateGrants checks only what authorization reads: the user type and the
// permission tokens. Restored sessions are held to this.
func (u User) validateGrants() error {
	if err := validate.Var(u.UserType, "user_type"); err != nil {
		return fmt.Errorf("userType %q: %w", u.UserType, err)
	}
	if err := validate.Var(u.Permissions, "dive,permission"); err != nil {
		return fmt.Errorf("permissions: %w", err)
	}
	return nil
}

// DisplayName joins first and last name, falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Email
	}
	return name
}

// HomeSchool returns the school the user belongs to, if any.
func (u User) HomeSchool() (id int64, name string, ok bool) {
	if u.SchoolID == nil {
		return 0, "", false
	}
	if u.SchoolName != nil {
		name = *u.SchoolName
	}
	return *u.SchoolID, name, true
}

func (u User) clone() User {
	out := u
	if u.SchoolID != nil {
		id := *u.SchoolID
		out.SchoolID = &id
	}
	if u.SchoolName != nil {
		name := *u.SchoolName
		out.SchoolName = &name
	}
	out.Roles = slices.Clone(u.Roles)
	out.Permissions = slices.Clone(u.Permissions)
	return out
}
