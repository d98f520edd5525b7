package rbac

// UserType is the single role classification of a user.
// A user holds exactly one; they are not combinable.
type UserType string

const (
	SuperAdmin  UserType = "SUPER_ADMIN"
	SchoolAdmin UserType = "SCHOOL_ADMIN"
	Teacher     UserType = "TEACHER"
	Housemaster UserType = "HOUSEMASTER"
)

func (t UserType) Valid() bool {
	switch t {
	case SuperAdmin, SchoolAdmin, Teacher, Housemaster:
		return true
	default:
		return false
	}
}

func (t UserType) String() string { return string(t) }

func ParseUserType(s string) (UserType, error) {
	t := UserType(s)
	if !t.Valid() {
		return "", &UnknownUserTypeError{Value: s}
	}
	return t, nil
}
