package domain

// Actor is the authenticated caller performing a mutation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorFromUser builds an Actor for u.
func ActorFromUser(u AppUser) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}
