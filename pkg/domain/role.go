package domain

// Role identifies which kind of actor an account represents.
type Role string

const (
	RoleIndividual  Role = "individual"
	RoleInstitution Role = "institution"
	RoleEmployer    Role = "employer"
	RoleRegulatory  Role = "regulatory"
)

// IsValid returns true if the role is a known value.
func (r Role) IsValid() bool {
	switch r {
	case RoleIndividual, RoleInstitution, RoleEmployer, RoleRegulatory:
		return true
	}
	return false
}

// ParseRole returns the role for s, defaulting to individual when s is empty.
func ParseRole(s string) (Role, bool) {
	if s == "" {
		return RoleIndividual, true
	}
	r := Role(s)
	return r, r.IsValid()
}

func (r Role) String() string { return string(r) }
