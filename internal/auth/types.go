package auth

import "time"

// User is an identity record held by the credential store. The raw password
// is hashed before it reaches this struct and is never retained.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	ID       string
	Username string
	Roles    []string
}

// HasRole reports whether the identity holds the given role.
func (id *Identity) HasRole(role string) bool {
	if id == nil {
		return false
	}
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}
