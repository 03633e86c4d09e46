package domain

// Role is the operative role of an actor for a given POI.
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePartner Role = "partner"
)

// RoleSet is the result of resolving an actor against a POI. An actor
// may hold both roles (an admin who also owns a POI), though the
// moderation engine only needs one of them per edge.
type RoleSet struct {
	Admin   bool
	Partner bool
}

// Has reports whether the set grants the given role.
func (s RoleSet) Has(role Role) bool {
	switch role {
	case RoleAdmin:
		return s.Admin
	case RolePartner:
		return s.Partner
	default:
		return false
	}
}

// Empty reports whether the actor holds no role for the POI.
func (s RoleSet) Empty() bool {
	return !s.Admin && !s.Partner
}

// SenderRole returns the role under which the actor writes into the
// conversation. Admins always write as admin; owners write as partner.
func (s RoleSet) SenderRole() Role {
	if s.Admin {
		return RoleAdmin
	}
	return RolePartner
}
