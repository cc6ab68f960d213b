package domain

import "time"

// UserRole distinguishes the two account kinds. A profile's role is fixed at
// creation and never changes afterwards.
type UserRole string

const (
	RoleDeveloper UserRole = "developer"
	RoleCompany   UserRole = "company"
)

// Valid reports whether the role is one of the known kinds.
func (r UserRole) Valid() bool {
	return r == RoleDeveloper || r == RoleCompany
}

// UserProfile is the domain model for registered accounts. CompanyName is
// present only for company accounts; PayoutAddress (a BTC address) only for
// developers.
type UserProfile struct {
	ID            string
	Email         string
	DisplayName   string
	Role          UserRole
	CompanyName   *string
	PayoutAddress *string
	PasswordHash  string
	CreatedAt     time.Time
}
