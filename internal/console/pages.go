package console

import (
	"schoolpay/internal/guard"
	"schoolpay/internal/rbac"
)

// Page is one guarded console route.
type Page struct {
	Path        string
	Title       string
	Requirement guard.Requirement

	// List is the API collection shown by the page; empty for pages without a table.
	List string
}

// Pages returns the guarded routes. Requirements mirror the sidebar entries
// that link to them, so a visible link never leads to the unauthorized page.
func Pages() []Page {
	return []Page{
		{Path: "/schools", Title: "All Schools", Requirement: guard.Any(rbac.SchoolsView), List: "/schools"},
		{Path: "/schools/new", Title: "Add School", Requirement: guard.Any(rbac.SchoolCreate)},
		{Path: "/students", Title: "All Students", Requirement: guard.Any(rbac.StudentViewAll), List: "/students"},
		{Path: "/students/new", Title: "Add Student", Requirement: guard.Any(rbac.StudentCreate)},
		{Path: "/students/import", Title: "Bulk Import", Requirement: guard.Any(rbac.StudentBulkCreate)},
		{Path: "/pos-devices", Title: "All Devices", Requirement: guard.Any(rbac.POSViews), List: "/pos-devices"},
		{Path: "/pos-devices/new", Title: "Add Device", Requirement: guard.Any(rbac.POSCreate)},
		{Path: "/wristbands", Title: "All Wristbands", Requirement: guard.Any(rbac.WristbandsView), List: "/wristbands"},
		{Path: "/wristbands/new", Title: "Add Wristband", Requirement: guard.Any(rbac.WristbandCreate)},
		{Path: "/vendors", Title: "Vendors", Requirement: guard.Any(rbac.VendorManage), List: "/vendors"},
		{Path: "/parents", Title: "Parents", Requirement: guard.Any(rbac.ParentManage), List: "/parents"},
		{Path: "/system/users", Title: "Users", Requirement: guard.Any(rbac.UsersView), List: "/users"},
		{Path: "/system/roles", Title: "Roles & Permissions", Requirement: guard.Any(rbac.RoleManage)},
		{Path: "/analytics", Title: "Analytics"},
		{Path: "/transactions", Title: "Transactions"},
		{Path: "/system/settings", Title: "Settings"},
		{Path: "/system/terms", Title: "Terms & Conditions"},
		{Path: "/assign-students", Title: "Assign Students"},
	}
}

var (
	// any signed-in operator
	dashboardRequirement = guard.Requirement{}

	schoolDetailRequirement = guard.Any(rbac.SchoolsView, rbac.SchoolView)
)
