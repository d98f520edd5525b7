package mockapi

import "strings"

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Directory is the read-only demo data behind the list endpoints.
type Directory struct {
	Schools    []School
	Students   []Student
	Vendors    []Vendor
	POSDevices []POSDevice
	Wristbands []Wristband
	Parents    []Parent
}

func (d *Directory) School(id int64) (School, bool) {
	for _, s := range d.Schools {
		if s.ID == id {
			return s, true
		}
	}
	return School{}, false
}

// ListQuery holds the table filters shared by every list endpoint.
type ListQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	SchoolID *int64 `form:"schoolId" binding:"omitempty,gt=0"`
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	Limit    int    `form:"limit" binding:"omitempty,gte=1"`
}

func (q *ListQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
}

func (q ListQuery) matchStatus(s Status) bool {
	return q.Status == "" || Status(q.Status) == s
}

func (q ListQuery) matchSchool(id *int64) bool {
	return q.SchoolID == nil || (id != nil && *id == *q.SchoolID)
}

// matchText reports whether the search term occurs in any of fields, case-insensitively.
func (q ListQuery) matchText(fields ...string) bool {
	if q.Search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q.Search) {
			return true
		}
	}
	return false
}

// paginate filters items with keep and cuts out the requested page.
func paginate[T any](items []T, q ListQuery, keep func(T) bool) Page[T] {
	q.normalize()

	matched := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			matched = append(matched, it)
		}
	}

	total := len(matched)
	pages := (total + q.Limit - 1) / q.Limit
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	return Page[T]{
		Data:       matched[start:end],
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: pages,
	}
}

func (d *Directory) ListSchools(q ListQuery) Page[School] {
	q.normalize()
	return paginate(d.Schools, q, func(s School) bool {
		return q.matchStatus(s.Status) && q.matchSchool(&s.ID) && q.matchText(s.Name, s.Email, s.Address)
	})
}

func (d *Directory) ListStudents(q ListQuery) Page[Student] {
	q.normalize()
	return paginate(d.Students, q, func(s Student) bool {
		return q.matchStatus(s.Status) && q.matchSchool(&s.SchoolID) &&
			q.matchText(s.FirstName+" "+s.LastName, s.StudentID, s.ParentName)
	})
}

func (d *Directory) ListVendors(q ListQuery) Page[Vendor] {
	q.normalize()
	return paginate(d.Vendors, q, func(v Vendor) bool {
		return q.matchStatus(v.Status) && q.matchSchool(&v.SchoolID) && q.matchText(v.Name, v.Email, v.CategoryName)
	})
}

func (d *Directory) ListPOSDevices(q ListQuery) Page[POSDevice] {
	q.normalize()
	return paginate(d.POSDevices, q, func(p POSDevice) bool {
		return q.matchStatus(p.Status) && q.matchSchool(p.SchoolID) && q.matchText(p.Name, p.SerialNumber, p.VendorName)
	})
}

func (d *Directory) ListWristbands(q ListQuery) Page[Wristband] {
	q.normalize()
	return paginate(d.Wristbands, q, func(w Wristband) bool {
		return q.matchStatus(w.Status) && q.matchSchool(w.SchoolID) && q.matchText(w.SerialNumber, w.StudentName)
	})
}

// ListParents ignores the status filter; parents carry no status.
func (d *Directory) ListParents(q ListQuery) Page[Parent] {
	q.normalize()
	return paginate(d.Parents, q, func(p Parent) bool {
		return q.matchSchool(&p.SchoolID) && q.matchText(p.FirstName+" "+p.LastName, p.Email, p.Phone)
	})
}

// ListUsers filters account profiles; status maps to whether login is enabled.
func ListUsers(users []User, q ListQuery) Page[User] {
	q.normalize()
	return paginate(users, q, func(u User) bool {
		st := StatusInactive
		if u.LoginEnabled {
			st = StatusActive
		}
		return q.matchStatus(st) && q.matchSchool(u.SchoolID) && q.matchText(u.FirstName+" "+u.LastName, u.Email)
	})
}
