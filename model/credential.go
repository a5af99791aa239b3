package model

// Credential maps a username to a password hash and a set of roles. The table
// built from these records stands in for a real identity store.
type Credential struct {
	Username     string
	PasswordHash string
	Roles        []string
}

// Role names used in token claims and route gates.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)
