package mockapi

import (
	"time"

	"schoolpay/internal/rbac"
)

// User is the account profile as returned by /auth/login, /me and /users.
type User struct {
	ID           int64             `json:"id"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	UserType     rbac.UserType     `json:"userType"`
	LoginEnabled bool              `json:"loginEnabled"`
	SchoolID     *int64            `json:"schoolId"`
	SchoolName   *string           `json:"schoolName"`
	Roles        []string          `json:"roles"`
	Permissions  []rbac.Permission `json:"permissions"`
}

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

type School struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Student struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	StudentID       string    `json:"studentId"`
	SchoolID        int64     `json:"schoolId"`
	SchoolName      string    `json:"schoolName"`
	ParentID        *int64    `json:"parentId,omitempty"`
	ParentName      string    `json:"parentName,omitempty"`
	WristbandSerial string    `json:"wristbandSerial,omitempty"`
	Status          Status    `json:"status"`
	WalletBalance   float64   `json:"walletBalance"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Vendor struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	SchoolID     int64     `json:"schoolId"`
	SchoolName   string    `json:"schoolName"`
	CategoryName string    `json:"categoryName"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type POSDevice struct {
	ID           int64     `json:"id"`
	SerialNumber string    `json:"serialNumber"`
	Name         string    `json:"name"`
	SchoolID     *int64    `json:"schoolId,omitempty"`
	SchoolName   string    `json:"schoolName,omitempty"`
	VendorName   string    `json:"vendorName,omitempty"`
	Status       Status    `json:"status"`
	IsAssigned   bool      `json:"isAssigned"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Wristband struct {
	ID           int64     `json:"id"`
	SerialNumber string    `json:"serialNumber"`
	SchoolID     *int64    `json:"schoolId,omitempty"`
	SchoolName   string    `json:"schoolName,omitempty"`
	StudentName  string    `json:"studentName,omitempty"`
	Status       Status    `json:"status"`
	IsAssigned   bool      `json:"isAssigned"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Parent struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	SchoolID      int64     `json:"schoolId"`
	SchoolName    string    `json:"schoolName"`
	StudentsCount int       `json:"studentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}
