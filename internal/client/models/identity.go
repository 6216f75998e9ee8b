// Package models defines client-side data models shared by the state
// containers and the transport.
package models

// Identity describes the signed-in user.
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ProfileID string `json:"profileId,omitempty"`

	// Derived marks an identity decoded from unverified token claims. It is
	// fit for display only.
	Derived bool `json:"derived,omitempty"`
}

// Credentials are exchanged for a bearer token.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is what a successful login yields.
type AuthResult struct {
	Token    string
	Identity *Identity
}
