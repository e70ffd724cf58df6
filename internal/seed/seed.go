package seed

import (
	"context"
	"fmt"
	"log/slog"

	"mentorbridge/internal/models"
	"mentorbridge/internal/repository"
)

// Summary reports what a seeding run produced.
type Summary struct {
	Mentors  int
	Mentees  int
	Skipped  int
	Pending  int
	Accepted int
	Declined int
}

// Seeder writes factory output through the repositories.
type Seeder struct {
	users   repository.UserRepository
	matches repository.MatchRepository
	factory *Factory
	opts    Options
}

// NewSeeder builds a Seeder over the default skill catalog.
func NewSeeder(users repository.UserRepository, matches repository.MatchRepository, opts Options) (*Seeder, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	return &Seeder{
		users:   users,
		matches: matches,
		factory: NewFactory(catalog, opts),
		opts:    opts,
	}, nil
}

// SeedCommunity creates mentors and mentees, then links every mentee to the
// mentors whose skills overlap its interests. Roughly a third of those
// requests are accepted and a few declined, so dashboards show every state.
func (s *Seeder) SeedCommunity(ctx context.Context) (Summary, error) {
	var sum Summary

	mentors, skipped, err := s.createUsers(ctx, models.RoleMentor, s.opts.Mentors)
	if err != nil {
		return sum, err
	}
	sum.Mentors, sum.Skipped = len(mentors), skipped

	mentees, skipped, err := s.createUsers(ctx, models.RoleMentee, s.opts.Mentees)
	if err != nil {
		return sum, err
	}
	sum.Mentees, sum.Skipped = len(mentees), sum.Skipped+skipped

	n := 0
	for _, mentee := range mentees {
		for _, mentor := range mentors {
			skills := models.ComputeMatchedSkills(mentee.Interests, mentor.Skills)
			if len(skills) == 0 {
				continue
			}
			status, err := s.link(ctx, mentor, mentee, skills, n)
			if err != nil {
				return sum, err
			}
			n++
			switch status {
			case models.MatchStatusAccepted:
				sum.Accepted++
			case models.MatchStatusDeclined:
				sum.Declined++
			default:
				sum.Pending++
			}
		}
	}

	slog.Info("Seeding complete",
		slog.Int("mentors", sum.Mentors),
		slog.Int("mentees", sum.Mentees),
		slog.Int("skipped", sum.Skipped),
		slog.Int("pending", sum.Pending),
		slog.Int("accepted", sum.Accepted),
		slog.Int("declined", sum.Declined),
		slog.Bool("dry_run", s.opts.DryRun),
	)
	return sum, nil
}

func (s *Seeder) createUsers(ctx context.Context, role models.Role, count int) ([]*models.User, int, error) {
	out := make([]*models.User, 0, count)
	skipped := 0
	for i := 0; i < count; i++ {
		u, err := s.factory.BuildUser(role)
		if err != nil {
			return nil, skipped, err
		}
		if s.opts.DryRun {
			u.Prepare()
			out = append(out, u)
			continue
		}
		if err := s.users.Create(ctx, u); err != nil {
			if models.HasCode(err, models.CodeDuplicateEmail) {
				slog.Warn("Skipping seeded user with taken email", slog.String("email", u.Email))
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("seed: create %s: %w", role, err)
		}
		out = append(out, u)
	}
	return out, skipped, nil
}

// link creates a pending request from mentee to mentor and settles some of
// them. n is the running match index and decides the outcome.
func (s *Seeder) link(ctx context.Context, mentor, mentee *models.User, skills []string, n int) (models.MatchStatus, error) {
	target := models.MatchStatusPending
	switch n % 6 {
	case 1, 4:
		target = models.MatchStatusAccepted
	case 5:
		target = models.MatchStatusDeclined
	}
	if s.opts.DryRun {
		return target, nil
	}

	m := &models.Match{
		MentorID:      mentor.ID,
		MenteeID:      mentee.ID,
		RequestedByID: mentee.ID,
		MatchedSkills: skills,
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return "", fmt.Errorf("seed: create match: %w", err)
	}
	if target == models.MatchStatusPending {
		return target, nil
	}
	if _, err := s.matches.UpdateStatus(ctx, m.ID, models.MatchStatusPending, target); err != nil {
		return "", fmt.Errorf("seed: settle match: %w", err)
	}
	return target, nil
}
