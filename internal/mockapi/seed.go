package mockapi

import (
	"time"

	"schoolpay/internal/rbac"
)

// DefaultDemoPassword is the password every seeded account starts with.
const DefaultDemoPassword = "schoolpay123"

func ptr[T any](v T) *T { return &v }

// DemoUser is a seeded account.
type DemoUser struct {
	User           User
	FirstTimeLogin bool
}

var schoolAdminPermissions = []rbac.Permission{
	rbac.SchoolView, rbac.SchoolUpdate,
	rbac.StudentViewAll, rbac.StudentView, rbac.StudentViewBySchool, rbac.StudentCreate,
	rbac.StudentUpdate, rbac.StudentBulkCreate, rbac.StudentViewWalletBalance,
	rbac.WristbandsView, rbac.WristbandView, rbac.WristbandAssign,
	rbac.POSViews, rbac.POSView,
	rbac.VendorManage, rbac.ParentManage, rbac.UsersView, rbac.UserView,
	rbac.ProfileView,
}

// DemoUsers are the seeded accounts, one per interesting session shape.
func DemoUsers() []DemoUser {
	greenwood, riverside := int64(1), int64(2)
	return []DemoUser{
		{
			User: User{
				ID:           1,
				Email:        "admin@schoolpay.test",
				Phone:        "233000000000",
				FirstName:    "John",
				LastName:     "Doe",
				UserType:     rbac.SuperAdmin,
				LoginEnabled: true,
				Roles:        []string{"SUPER_ADMIN"},
				Permissions:  rbac.AllPermissions(),
			},
		},
		{
			User: User{
				ID:           2,
				Email:        "head@greenwood.test",
				Phone:        "233000000001",
				FirstName:    "Ama",
				LastName:     "Mensah",
				UserType:     rbac.SchoolAdmin,
				LoginEnabled: true,
				SchoolID:     ptr(greenwood),
				SchoolName:   ptr("Greenwood Academy"),
				Roles:        []string{"SCHOOL_ADMIN"},
				Permissions:  schoolAdminPermissions,
			},
		},
		{
			User: User{
				ID:           3,
				Email:        "teacher@greenwood.test",
				Phone:        "233000000002",
				FirstName:    "Kwame",
				LastName:     "Asante",
				UserType:     rbac.Teacher,
				LoginEnabled: true,
				SchoolID:     ptr(greenwood),
				SchoolName:   ptr("Greenwood Academy"),
				Roles:        []string{"TEACHER"},
				Permissions:  []rbac.Permission{rbac.StudentView, rbac.ProfileView},
			},
		},
		{
			User: User{
				ID:           4,
				Email:        "housemaster@riverside.test",
				Phone:        "233000000003",
				FirstName:    "Efua",
				LastName:     "Owusu",
				UserType:     rbac.Housemaster,
				LoginEnabled: true,
				SchoolID:     ptr(riverside),
				SchoolName:   ptr("Riverside High School"),
				Roles:        []string{"HOUSEMASTER"},
				Permissions:  []rbac.Permission{rbac.StudentView, rbac.StudentViewWalletBalance, rbac.ProfileView},
			},
			FirstTimeLogin: true,
		},
		{
			User: User{
				ID:           5,
				Email:        "former@riverside.test",
				Phone:        "233000000004",
				FirstName:    "Yaw",
				LastName:     "Boateng",
				UserType:     rbac.Teacher,
				LoginEnabled: false,
				SchoolID:     ptr(riverside),
				SchoolName:   ptr("Riverside High School"),
				Roles:        []string{"TEACHER"},
				Permissions:  []rbac.Permission{rbac.StudentView},
			},
		},
	}
}

// SeedAccounts registers DemoUsers with password.
func SeedAccounts(a *Accounts, password string) error {
	for _, d := range DemoUsers() {
		if err := a.Add(d.User, password, d.FirstTimeLogin); err != nil {
			return err
		}
	}
	return nil
}

// SeedDirectory returns the demo directory data.
func SeedDirectory() *Directory {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 9, 0, 0, 0, time.UTC) }
	greenwood, riverside, mountain := int64(1), int64(2), int64(3)

	return &Directory{
		Schools: []School{
			{ID: 1, Name: "Greenwood Academy", Address: "123 Education Street, City Center", Phone: "+1 (555) 123-4567", Email: "admin@greenwood.edu", Status: StatusActive, CreatedAt: day(1, 15), UpdatedAt: day(3, 20)},
			{ID: 2, Name: "Riverside High School", Address: "456 River Road, Riverside District", Phone: "+1 (555) 987-6543", Email: "contact@riverside.edu", Status: StatusActive, CreatedAt: day(2, 1), UpdatedAt: day(3, 18)},
			{ID: 3, Name: "Mountain View Elementary", Address: "789 Mountain Drive, Highland Area", Phone: "+1 (555) 456-7890", Email: "info@mountainview.edu", Status: StatusInactive, CreatedAt: day(1, 10), UpdatedAt: day(1, 25)},
		},
		Students: []Student{
			{ID: 1, FirstName: "Abena", LastName: "Kyei", StudentID: "GWA-0001", SchoolID: 1, SchoolName: "Greenwood Academy", ParentID: ptr(int64(1)), ParentName: "Kofi Kyei", WristbandSerial: "WB-1001", Status: StatusActive, WalletBalance: 45.5, CreatedAt: day(1, 20), UpdatedAt: day(3, 1)},
			{ID: 2, FirstName: "Kojo", LastName: "Kyei", StudentID: "GWA-0002", SchoolID: 1, SchoolName: "Greenwood Academy", ParentID: ptr(int64(1)), ParentName: "Kofi Kyei", Status: StatusActive, WalletBalance: 12, CreatedAt: day(1, 20), UpdatedAt: day(2, 11)},
			{ID: 3, FirstName: "Esi", LastName: "Appiah", StudentID: "RHS-0001", SchoolID: 2, SchoolName: "Riverside High School", ParentID: ptr(int64(2)), ParentName: "Adwoa Appiah", WristbandSerial: "WB-2001", Status: StatusActive, WalletBalance: 80, CreatedAt: day(2, 3), UpdatedAt: day(3, 5)},
			{ID: 4, FirstName: "Yaa", LastName: "Darko", StudentID: "RHS-0002", SchoolID: 2, SchoolName: "Riverside High School", Status: StatusInactive, CreatedAt: day(2, 3), UpdatedAt: day(2, 28)},
			{ID: 5, FirstName: "Nana", LastName: "Ofori", StudentID: "MVE-0001", SchoolID: 3, SchoolName: "Mountain View Elementary", Status: StatusInactive, CreatedAt: day(1, 12), UpdatedAt: day(1, 25)},
		},
		Vendors: []Vendor{
			{ID: 1, Name: "Greenwood Canteen", Email: "canteen@greenwood.edu", Phone: "+1 (555) 200-0001", SchoolID: 1, SchoolName: "Greenwood Academy", CategoryName: "Food", Status: StatusActive, CreatedAt: day(1, 16), UpdatedAt: day(3, 2)},
			{ID: 2, Name: "Greenwood Bookshop", Email: "books@greenwood.edu", Phone: "+1 (555) 200-0002", SchoolID: 1, SchoolName: "Greenwood Academy", CategoryName: "Stationery", Status: StatusActive, CreatedAt: day(1, 16), UpdatedAt: day(2, 14)},
			{ID: 3, Name: "Riverside Tuck Shop", Email: "tuck@riverside.edu", Phone: "+1 (555) 300-0001", SchoolID: 2, SchoolName: "Riverside High School", CategoryName: "Food", Status: StatusInactive, CreatedAt: day(2, 2), UpdatedAt: day(3, 9)},
		},
		POSDevices: []POSDevice{
			{ID: 1, SerialNumber: "POS-GW-01", Name: "Canteen Till 1", SchoolID: ptr(greenwood), SchoolName: "Greenwood Academy", VendorName: "Greenwood Canteen", Status: StatusActive, IsAssigned: true, CreatedAt: day(1, 18), UpdatedAt: day(3, 3)},
			{ID: 2, SerialNumber: "POS-RS-01", Name: "Tuck Shop Till", SchoolID: ptr(riverside), SchoolName: "Riverside High School", VendorName: "Riverside Tuck Shop", Status: StatusActive, IsAssigned: true, CreatedAt: day(2, 4), UpdatedAt: day(3, 4)},
			{ID: 3, SerialNumber: "POS-SPARE-01", Name: "Spare Device", Status: StatusInactive, CreatedAt: day(2, 20), UpdatedAt: day(2, 20)},
		},
		Wristbands: []Wristband{
			{ID: 1, SerialNumber: "WB-1001", SchoolID: ptr(greenwood), SchoolName: "Greenwood Academy", StudentName: "Abena Kyei", Status: StatusActive, IsAssigned: true, CreatedAt: day(1, 21), UpdatedAt: day(1, 21)},
			{ID: 2, SerialNumber: "WB-2001", SchoolID: ptr(riverside), SchoolName: "Riverside High School", StudentName: "Esi Appiah", Status: StatusActive, IsAssigned: true, CreatedAt: day(2, 5), UpdatedAt: day(2, 5)},
			{ID: 3, SerialNumber: "WB-3001", SchoolID: ptr(mountain), SchoolName: "Mountain View Elementary", Status: StatusInactive, CreatedAt: day(1, 13), UpdatedAt: day(1, 13)},
		},
		Parents: []Parent{
			{ID: 1, FirstName: "Kofi", LastName: "Kyei", Email: "kofi.kyei@mail.test", Phone: "233200000001", SchoolID: 1, SchoolName: "Greenwood Academy", StudentsCount: 2, CreatedAt: day(1, 19), UpdatedAt: day(1, 19)},
			{ID: 2, FirstName: "Adwoa", LastName: "Appiah", Email: "adwoa.appiah@mail.test", Phone: "233200000002", SchoolID: 2, SchoolName: "Riverside High School", StudentsCount: 1, CreatedAt: day(2, 2), UpdatedAt: day(2, 2)},
		},
	}
}
