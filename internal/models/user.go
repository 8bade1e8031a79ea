package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleFormateur   UserRole = "formateur"
	RoleSurveillant UserRole = "surveillant"
)

// User represents a collaborator stored in the users file. The password
// field on disk holds a bcrypt hash.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Role         UserRole   `json:"role"`
	PasswordHash string     `json:"password"`
	Modules      []string   `json:"modules,omitempty"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

// UserStore is the on-disk shape of the users file.
type UserStore struct {
	Users []User `json:"users"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
