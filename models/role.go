package models

// Role is the closed set of actor kinds known to the court system
type Role string

// Roles
const (
	RoleRegistrar Role = "registrar"
	RoleJudge     Role = "judge"
	RoleLawyer    Role = "lawyer"
	RoleUser      Role = "user"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleRegistrar, RoleJudge, RoleLawyer, RoleUser:
		return true
	}
	return false
}

// Principal is the authenticated actor performing a request
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}
