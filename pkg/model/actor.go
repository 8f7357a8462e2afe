package model

const (
	RoleClient = "client"
	RoleStaff  = "staff"
	RoleAdmin  = "admin"
)

// Actor is the acting principal supplied by the identity collaborator.
// Mutators receive it explicitly; nothing in this core reads a session.
type Actor struct {
	ID   string `json:"id" validate:"required"`
	Role string `json:"role" validate:"required,oneof=client staff admin"`

	// Verified means the identity collaborator has confirmed a contact
	// channel for this actor. Booking requires it unless the actor is staff.
	Verified bool `json:"verified"`
}

// IsStaff reports whether the actor may act on any appointment.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}
