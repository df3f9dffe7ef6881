package domain

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAccountant Role = "accountant"
	RolePlanner    Role = "planner"
	RoleAdmin      Role = "admin"
)

// Actor identifies who performs a transition: a human resolved from a token, or
// the system itself (the timeout sweeper).
type Actor struct {
	ID       int64
	Username string
	Role     Role
	System   bool
}

func SystemActor() Actor {
	return Actor{System: true}
}

// Label is the value persisted in actor columns; empty for the system.
func (a Actor) Label() string {
	if a.System {
		return ""
	}
	return a.Username
}

func (a Actor) IsStaff() bool {
	switch a.Role {
	case RoleAccountant, RolePlanner, RoleAdmin:
		return true
	}
	return false
}
