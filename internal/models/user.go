// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a mentor, mentee or admin account.
type User struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"_id"`
	Name       string    `gorm:"type:varchar(100);not null" bson:"name" json:"name"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex:idx_users_email;not null" bson:"email" json:"email"`
	Password   string    `gorm:"type:varchar(255);not null" bson:"password" json:"-"`
	Role       Role      `gorm:"type:varchar(20);not null;index:idx_users_role" bson:"role" json:"role"`
	Skills     []string  `gorm:"type:text;serializer:json" bson:"skills" json:"skills"`
	Interests  []string  `gorm:"type:text;serializer:json" bson:"interests" json:"interests"`
	Bio        string    `gorm:"type:text" bson:"bio,omitempty" json:"bio"`
	Experience string    `gorm:"type:text" bson:"experience,omitempty" json:"experience,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave keeps role-gated fields consistent for every GORM write.
func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Prepare()
	return nil
}

// Prepare assigns an id when missing and drops attributes the role cannot carry.
// Stores that bypass GORM hooks call it directly.
func (u *User) Prepare() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role != RoleMentor {
		u.Experience = ""
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	if u.Interests == nil {
		u.Interests = []string{}
	}
}

// SetExperience records mentoring experience. It is ignored for non-mentors.
func (u *User) SetExperience(experience string) {
	if u.Role == RoleMentor {
		u.Experience = experience
	}
}

// Terms returns the user's term set for the given field.
func (u *User) Terms(field TermField) []string {
	if field == FieldSkills {
		return u.Skills
	}
	return u.Interests
}

// SeekingTerms is what the user looks for in a counterpart: a mentee's
// interests, a mentor's skills. Admins seek nothing.
func (u *User) SeekingTerms() []string {
	switch u.Role {
	case RoleMentee:
		return u.Interests
	case RoleMentor:
		return u.Skills
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SharesAny reports whether a and b have at least one term in common.
func SharesAny(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	for _, t := range a {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}
