package service

import (
	"context"
	"strings"

	"mentorbridge/internal/models"
	"mentorbridge/internal/repository"
	"mentorbridge/internal/validation"
)

// ProfilePatch is a merge patch: empty fields keep the stored value.
type ProfilePatch struct {
	Name       string
	Email      string
	Bio        string
	Experience string
	Skills     []string
	Interests  []string
}

// ProfileService reads and edits user profiles.
type ProfileService struct {
	users repository.UserRepository
}

// NewProfileService returns a new ProfileService.
func NewProfileService(users repository.UserRepository) *ProfileService {
	return &ProfileService{users: users}
}

// GetProfile returns the user or NotFound.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns every account, oldest first.
func (s *ProfileService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateProfile applies patch to the stored user and returns the result.
// Experience is silently ignored unless the stored role is mentor.
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(patch.Name); name != "" {
		user.Name = name
	}
	if bio := strings.TrimSpace(patch.Bio); bio != "" {
		user.Bio = bio
	}
	if exp := strings.TrimSpace(patch.Experience); exp != "" {
		user.SetExperience(exp)
	}
	if skills := validation.CleanTerms(patch.Skills); len(skills) > 0 {
		user.Skills = skills
	}
	if interests := validation.CleanTerms(patch.Interests); len(interests) > 0 {
		user.Interests = interests
	}

	if email := validation.NormalizeEmail(patch.Email); email != "" && email != user.Email {
		owner, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if owner != nil && owner.ID != user.ID {
			return nil, models.NewDuplicateEmailError()
		}
		user.Email = email
	}

	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
