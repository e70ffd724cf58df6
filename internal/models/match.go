package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatchStatus represents where a mentor/mentee pairing stands.
type MatchStatus string

const (
	// MatchStatusPending is the state every match is created in.
	MatchStatusPending MatchStatus = "pending"
	// MatchStatusAccepted is terminal: the counterpart agreed.
	MatchStatusAccepted MatchStatus = "accepted"
	// MatchStatusDeclined is terminal: the counterpart refused.
	MatchStatusDeclined MatchStatus = "declined"
)

// Terminal reports whether no transition leaves s.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusAccepted || s == MatchStatusDeclined
}

// CanTransitionTo reports whether pending -> accepted|declined applies.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	return s == MatchStatusPending && next.Terminal()
}

// Match pairs exactly one mentor with exactly one mentee.
type Match struct {
	ID            string      `gorm:"type:varchar(36);primaryKey" bson:"_id" json:"_id"`
	MentorID      string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_matches_pair;index:idx_matches_mentor" bson:"mentor_id" json:"mentor"`
	MenteeID      string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_matches_pair;index:idx_matches_mentee" bson:"mentee_id" json:"mentee"`
	RequestedByID string      `gorm:"type:varchar(36);not null" bson:"requested_by" json:"requestedBy"`
	Status        MatchStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_matches_status" bson:"status" json:"status"`
	MatchedSkills []string    `gorm:"type:text;serializer:json" bson:"matched_skills" json:"matchedSkills"`
	CreatedAt     time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `bson:"updated_at" json:"updatedAt"`

	// Relationships
	Mentor *User `gorm:"foreignKey:MentorID" bson:"-" json:"-"`
	Mentee *User `gorm:"foreignKey:MenteeID" bson:"-" json:"-"`
}

// TableName specifies the table name for GORM
func (Match) TableName() string {
	return "matches"
}

// BeforeCreate assigns the id and initial status.
func (m *Match) BeforeCreate(_ *gorm.DB) error {
	m.Prepare()
	return nil
}

// Prepare fills defaults for a new match. Stores that bypass GORM hooks call it directly.
func (m *Match) Prepare() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = MatchStatusPending
	}
	if m.MatchedSkills == nil {
		m.MatchedSkills = []string{}
	}
}

// Transition moves the match to next or returns an INVALID_TRANSITION error.
func (m *Match) Transition(next MatchStatus) error {
	if !m.Status.CanTransitionTo(next) {
		return NewInvalidTransitionError(m.Status, next)
	}
	m.Status = next
	return nil
}

// Involves reports whether userID is the mentor or the mentee.
func (m *Match) Involves(userID string) bool {
	return m.MentorID == userID || m.MenteeID == userID
}

// Counterpart returns the other participant's id.
func (m *Match) Counterpart(userID string) (string, bool) {
	switch userID {
	case m.MentorID:
		return m.MenteeID, true
	case m.MenteeID:
		return m.MentorID, true
	}
	return "", false
}

// CounterpartUser returns the populated other participant, if loaded.
func (m *Match) CounterpartUser(userID string) *User {
	switch userID {
	case m.MentorID:
		return m.Mentee
	case m.MenteeID:
		return m.Mentor
	}
	return nil
}

// Recipient is the participant who did not request the match and decides on it.
func (m *Match) Recipient() string {
	other, _ := m.Counterpart(m.RequestedByID)
	return other
}

// ComputeMatchedSkills returns the mentee's interests that the mentor offers,
// in the mentee's order.
func ComputeMatchedSkills(menteeInterests, mentorSkills []string) []string {
	offered := make(map[string]struct{}, len(mentorSkills))
	for _, s := range mentorSkills {
		offered[s] = struct{}{}
	}
	out := make([]string, 0, len(menteeInterests))
	for _, interest := range menteeInterests {
		if _, ok := offered[interest]; ok {
			out = append(out, interest)
		}
	}
	return out
}
