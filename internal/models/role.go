package models

import "strings"

// Role is the closed set of account kinds.
type Role string

const (
	// RoleMentor offers skills and may describe experience.
	RoleMentor Role = "mentor"
	// RoleMentee seeks competencies through interests.
	RoleMentee Role = "mentee"
	// RoleAdmin oversees every user and match and is never recommended.
	RoleAdmin Role = "admin"
)

// ParseRole normalizes s and rejects anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewValidationError("Role must be one of mentor, mentee or admin")
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMentor, RoleMentee, RoleAdmin:
		return true
	}
	return false
}

// SelfRegistrable reports whether the role may be chosen at sign-up.
func (r Role) SelfRegistrable() bool {
	return r == RoleMentor || r == RoleMentee
}

// Opposite returns the role a user is paired with. Admins have none.
func (r Role) Opposite() Role {
	switch r {
	case RoleMentor:
		return RoleMentee
	case RoleMentee:
		return RoleMentor
	}
	return ""
}

// TermField names a user's term set used for matching.
type TermField string

const (
	FieldSkills    TermField = "skills"
	FieldInterests TermField = "interests"
)

// MatchingField is the term set other users are compared on when r is the
// candidate role: mentors are found by skills, mentees by interests.
func (r Role) MatchingField() TermField {
	if r == RoleMentor {
		return FieldSkills
	}
	return FieldInterests
}

func (r Role) String() string {
	return string(r)
}
