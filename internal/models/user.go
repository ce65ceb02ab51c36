package models

// UserRole represents the portal roles recognised by RBAC.
type UserRole string

const (
	RoleStudent         UserRole = "STUDENT"
	RoleTutor           UserRole = "TUTOR"
	RoleCoordinator     UserRole = "COORDINATOR"
	RoleDepartmentChair UserRole = "DEPARTMENT_CHAIR"
	RoleStudentAffairs  UserRole = "STUDENT_AFFAIRS"
	RoleAdmin           UserRole = "ADMIN"
)

// Valid reports whether the role is one the portal issues.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleCoordinator, RoleDepartmentChair, RoleStudentAffairs, RoleAdmin:
		return true
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}
