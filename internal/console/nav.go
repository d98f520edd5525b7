package console

import (
	"schoolpay/internal/rbac"
	"schoolpay/internal/session"
)

// NavItem is one sidebar entry. An item without permissions is always shown;
// otherwise holding any one of them is enough.
type NavItem struct {
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Permissions []rbac.Permission `json:"-"`
	Children    []NavItem         `json:"children,omitempty"`
}

// Navigation returns the full sidebar.
func Navigation() []NavItem {
	return []NavItem{
		{Title: "Dashboard", URL: "/dashboard"},
		{
			Title:       "School Management",
			URL:         "/schools",
			Permissions: []rbac.Permission{rbac.SchoolsView, rbac.SchoolView},
			Children: []NavItem{
				{Title: "All Schools", URL: "/schools", Permissions: []rbac.Permission{rbac.SchoolsView}},
				{Title: "Add School", URL: "/schools/new", Permissions: []rbac.Permission{rbac.SchoolCreate}},
			},
		},
		{
			Title:       "Student Management",
			URL:         "/students",
			Permissions: []rbac.Permission{rbac.StudentViewAll, rbac.StudentView},
			Children: []NavItem{
				{Title: "All Students", URL: "/students", Permissions: []rbac.Permission{rbac.StudentViewAll}},
				{Title: "Add Student", URL: "/students/new", Permissions: []rbac.Permission{rbac.StudentCreate}},
				{Title: "Bulk Import", URL: "/students/import", Permissions: []rbac.Permission{rbac.StudentBulkCreate}},
			},
		},
		{
			Title:       "POS Devices",
			URL:         "/pos-devices",
			Permissions: []rbac.Permission{rbac.POSViews, rbac.POSView},
			Children: []NavItem{
				{Title: "All Devices", URL: "/pos-devices", Permissions: []rbac.Permission{rbac.POSViews}},
				{Title: "Add Device", URL: "/pos-devices/new", Permissions: []rbac.Permission{rbac.POSCreate}},
			},
		},
		{
			Title:       "Wristbands",
			URL:         "/wristbands",
			Permissions: []rbac.Permission{rbac.WristbandsView, rbac.WristbandView},
			Children: []NavItem{
				{Title: "All Wristbands", URL: "/wristbands", Permissions: []rbac.Permission{rbac.WristbandsView}},
				{Title: "Add Wristband", URL: "/wristbands/new", Permissions: []rbac.Permission{rbac.WristbandCreate}},
			},
		},
		{Title: "Vendors", URL: "/vendors", Permissions: []rbac.Permission{rbac.VendorManage}},
		{Title: "Parents", URL: "/parents", Permissions: []rbac.Permission{rbac.ParentManage}},
		{Title: "Analytics", URL: "/analytics"},
		{
			Title: "System",
			URL:   "/system",
			Children: []NavItem{
				{Title: "Users", URL: "/system/users", Permissions: []rbac.Permission{rbac.UsersView}},
				{Title: "Roles & Permissions", URL: "/system/roles", Permissions: []rbac.Permission{rbac.RoleManage}},
				{Title: "Settings", URL: "/system/settings"},
				{Title: "Terms & Conditions", URL: "/system/terms"},
			},
		},
	}
}

// VisibleNavigation keeps the items st may see. A group that passes keeps only
// its passing children; a group left without children is shown as a plain link.
func VisibleNavigation(items []NavItem, st session.State) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, it := range items {
		if !visible(it, st) {
			continue
		}
		kept := it
		kept.Children = nil
		for _, child := range it.Children {
			if visible(child, st) {
				kept.Children = append(kept.Children, child)
			}
		}
		out = append(out, kept)
	}
	return out
}

func visible(it NavItem, st session.State) bool {
	return len(it.Permissions) == 0 || st.HasAnyPermission(it.Permissions...)
}
