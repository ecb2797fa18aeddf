package domain

import "time"

// Role determines a user's authorization scope.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSupport  Role = "support"
	RoleAdmin    Role = "admin"
)

// ParseRole returns the Role named by s, or false when s is not a role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleSupport, RoleAdmin:
		return r, true
	}
	return "", false
}

// IsStaff reports whether the role can be assigned tickets.
func (r Role) IsStaff() bool {
	return r == RoleSupport || r == RoleAdmin
}

// User is the domain model for every account: customers who file tickets and
// the support engineers and administrators who work them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the subset of a user that is safe to hand to other callers.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Public strips credentials from u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   string
	Role Role
}
