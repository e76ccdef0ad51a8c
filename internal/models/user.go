package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTutor   UserRole = "TUTOR"
	RoleStudent UserRole = "STUDENT"
)

// Valid reports whether the role is one the platform issues.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTutor, RoleStudent:
		return true
	default:
		return false
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page normalises page/limit query values. Zero or negative values fall back
// to page 1 and a limit of 10.
func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// NewPagination builds pagination metadata for a page of results.
func NewPagination(page, limit, total int) *Pagination {
	page, limit = Page(page, limit)
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
