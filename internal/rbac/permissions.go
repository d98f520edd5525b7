package rbac

// Permission is one granted capability. Tokens are independent: no token
// implies another and there is no catch-all token.
type Permission string

// Permission catalog. Keep these stable; they are part of the API contract.
const (
	SchoolDelete Permission = "SCHOOL_DELETE"
	SchoolUpdate Permission = "SCHOOL_UPDATE"
	SchoolView   Permission = "SCHOOL_VIEW"
	SchoolCreate Permission = "SCHOOL_CREATE"
	SchoolManage Permission = "SCHOOL_MANAGE"
	SchoolsView  Permission = "SCHOOLS_VIEW"

	StudentUpdate            Permission = "STUDENT_UPDATE"
	StudentViewAll           Permission = "STUDENT_VIEW_ALL"
	StudentView              Permission = "STUDENT_VIEW"
	StudentDelete            Permission = "STUDENT_DELETE"
	StudentCreate            Permission = "STUDENT_CREATE"
	StudentManage            Permission = "STUDENT_MANAGE"
	StudentBulkCreate        Permission = "STUDENT_BULK_CREATE"
	StudentBulkDelete        Permission = "STUDENT_BULK_DELETE"
	StudentViewBySchool      Permission = "STUDENT_VIEW_BY_SCHOOL"
	StudentViewByParent      Permission = "STUDENT_VIEW_BY_PARENT"
	StudentViewWalletBalance Permission = "STUDENT_VIEW_WALLET_BALANCE"
	StudentViewWallet        Permission = "STUDENT_VIEW_WALLET"
	StudentUpdateStatus      Permission = "STUDENT_UPDATE_STATUS"
	StudentParentReassign    Permission = "STUDENT_PARENT_REASSIGN"

	UserView   Permission = "USER_VIEW"
	UserCreate Permission = "USER_CREATE"
	UserDelete Permission = "USER_DELETE"
	UserUpdate Permission = "USER_UPDATE"
	UserInvite Permission = "USER_INVITE"
	UsersView  Permission = "USERS_VIEW"

	WristbandView   Permission = "WRISTBAND_VIEW"
	WristbandManage Permission = "WRISTBAND_MANAGE"
	WristbandAssign Permission = "WRISTBAND_ASSIGN"
	WristbandDelete Permission = "WRISTBAND_DELETE"
	WristbandCreate Permission = "WRISTBAND_CREATE"
	WristbandsView  Permission = "WRISTBANDS_VIEW"

	POSReassign Permission = "POS_REASSIGN"
	POSCreate   Permission = "POS_CREATE"
	POSUpdate   Permission = "POS_UPDATE"
	POSDelete   Permission = "POS_DELETE"
	POSManage   Permission = "POS_MANAGE"
	POSView     Permission = "POS_VIEW"
	POSViews    Permission = "POS_VIEWS"

	VendorManage     Permission = "VENDOR_MANAGE"
	WalletManage     Permission = "WALLET_MANAGE"
	PermissionManage Permission = "PERMISSION_MANAGE"
	RoleManage       Permission = "ROLE_MANAGE"
	ParentManage     Permission = "PARENT_MANAGE"

	ProfileView Permission = "PROFILE_VIEW"
)

var catalog = []Permission{
	SchoolDelete, SchoolUpdate, SchoolView, SchoolCreate, SchoolManage, SchoolsView,
	StudentUpdate, StudentViewAll, StudentView, StudentDelete, StudentCreate, StudentManage,
	StudentBulkCreate, StudentBulkDelete, StudentViewBySchool, StudentViewByParent,
	StudentViewWalletBalance, StudentViewWallet, StudentUpdateStatus, StudentParentReassign,
	UserView, UserCreate, UserDelete, UserUpdate, UserInvite, UsersView,
	WristbandView, WristbandManage, WristbandAssign, WristbandDelete, WristbandCreate, WristbandsView,
	POSReassign, POSCreate, POSUpdate, POSDelete, POSManage, POSView, POSViews,
	VendorManage, WalletManage, PermissionManage, RoleManage, ParentManage,
	ProfileView,
}

var catalogSet = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(catalog))
	for _, p := range catalog {
		m[p] = struct{}{}
	}
	return m
}()

// AllPermissions returns a copy of the full catalog in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(catalog))
	copy(out, catalog)
	return out
}

// Valid reports whether p belongs to the catalog.
func (p Permission) Valid() bool {
	_, ok := catalogSet[p]
	return ok
}

func (p Permission) String() string { return string(p) }

// ParsePermission converts a raw token, rejecting anything outside the catalog.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", &UnknownPermissionError{Token: s}
	}
	return p, nil
}

// ParsePermissions converts raw tokens; the first unknown token fails the whole list.
func ParsePermissions(raw []string) ([]Permission, error) {
	out := make([]Permission, 0, len(raw))
	for _, s := range raw {
		p, err := ParsePermission(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Strings converts permissions back to raw tokens.
func Strings(ps []Permission) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}
