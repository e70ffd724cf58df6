package service

import (
	"context"

	"mentorbridge/internal/models"
	"mentorbridge/internal/notifications"
	"mentorbridge/internal/observability"
	"mentorbridge/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// MatchService recommends counterparts and runs the match lifecycle.
type MatchService struct {
	users    repository.UserRepository
	matches  repository.MatchRepository
	notifier *notifications.Notifier
}

// NewMatchService returns a new MatchService. notifier may be nil.
func NewMatchService(users repository.UserRepository, matches repository.MatchRepository, notifier *notifications.Notifier) *MatchService {
	return &MatchService{users: users, matches: matches, notifier: notifier}
}

// Recommend returns users of the opposite role sharing at least one term with
// requester and not yet in any match with them. limit <= 0 means no cap.
func (s *MatchService) Recommend(ctx context.Context, requester *models.User, limit int) (out []models.User, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "MatchService", "Recommend",
		attribute.String("user.id", requester.ID), attribute.Int("limit", limit))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	target := requester.Role.Opposite()
	if target == "" {
		return []models.User{}, nil
	}

	candidates, err := s.users.FindCandidates(ctx, target, target.MatchingField(), requester.SeekingTerms())
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		observability.RecommendationsServed.Observe(0)
		return []models.User{}, nil
	}

	counterparts, err := s.matches.CounterpartIDs(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	paired := make(map[string]struct{}, len(counterparts))
	for _, id := range counterparts {
		paired[id] = struct{}{}
	}

	out = make([]models.User, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := paired[c.ID]; ok || c.ID == requester.ID {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	observability.RecommendationsServed.Observe(float64(len(out)))
	return out, nil
}

// RequestMatch creates a pending match between requester and target.
func (s *MatchService) RequestMatch(ctx context.Context, requesterID, targetID string) (match *models.Match, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "MatchService", "RequestMatch",
		attribute.String("user.id", requesterID), attribute.String("target.id", targetID))
	defer func() {
		span.SetError(err)
		span.End()
		observability.MatchRequests.WithLabelValues(observability.Outcome(err, models.ErrorCode)).Inc()
	}()

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requesterID == targetID {
		return nil, models.NewValidationError("You cannot request a match with yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewTargetNotFoundError()
		}
		return nil, err
	}

	if requester.IsAdmin() || target.IsAdmin() {
		return nil, models.NewValidationError("Admins cannot take part in matches")
	}
	if requester.Role == target.Role {
		return nil, models.NewValidationError("Matches pair a mentor with a mentee")
	}

	mentor, mentee := requester, target
	if requester.Role == models.RoleMentee {
		mentor, mentee = target, requester
	}

	existing, err := s.matches.GetByPair(ctx, mentor.ID, mentee.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateMatchError()
	}

	match = &models.Match{
		MentorID:      mentor.ID,
		MenteeID:      mentee.ID,
		RequestedByID: requester.ID,
		Status:        models.MatchStatusPending,
		MatchedSkills: models.ComputeMatchedSkills(mentee.Interests, mentor.Skills),
	}
	// The unique (mentor, mentee) index turns a concurrent duplicate into DuplicateMatch.
	if err := s.matches.Create(ctx, match); err != nil {
		return nil, err
	}
	match.Mentor, match.Mentee = mentor, mentee
	span.AddAttributes(attribute.String("match.id", match.ID))

	s.notifier.Notify(ctx, target.ID, notifications.NewMatchEvent(notifications.EventMatchRequested, match, requester))
	return match, nil
}

// AcceptMatch lets the recipient accept a pending match.
func (s *MatchService) AcceptMatch(ctx context.Context, actorID, matchID string) (*models.Match, error) {
	return s.decide(ctx, actorID, matchID, models.MatchStatusAccepted)
}

// DeclineMatch lets the recipient decline a pending match.
func (s *MatchService) DeclineMatch(ctx context.Context, actorID, matchID string) (*models.Match, error) {
	return s.decide(ctx, actorID, matchID, models.MatchStatusDeclined)
}

func (s *MatchService) decide(ctx context.Context, actorID, matchID string, to models.MatchStatus) (updated *models.Match, err error) {
	span, ctx := observability.StartServiceSpan(ctx, "MatchService", "Decide",
		attribute.String("user.id", actorID), attribute.String("match.id", matchID), attribute.String("match.to", string(to)))
	defer func() {
		span.SetError(err)
		span.End()
		observability.MatchTransitions.WithLabelValues(string(to), observability.Outcome(err, models.ErrorCode)).Inc()
	}()

	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Involves(actorID) || match.Recipient() != actorID {
		return nil, models.NewForbiddenError("Only the user who received the request can decide on it")
	}
	if !match.Status.CanTransitionTo(to) {
		return nil, models.NewInvalidTransitionError(match.Status, to)
	}

	// Conditional on the status read above, so a racing decision loses.
	updated, err = s.matches.UpdateStatus(ctx, matchID, match.Status, to)
	if err != nil {
		return nil, err
	}

	event := notifications.EventMatchAccepted
	if to == models.MatchStatusDeclined {
		event = notifications.EventMatchDeclined
	}
	s.notifier.Notify(ctx, match.RequestedByID, notifications.NewMatchEvent(event, updated, updated.CounterpartUser(match.RequestedByID)))
	return updated, nil
}

// ListForUser returns the user's matches with both participants populated.
func (s *MatchService) ListForUser(ctx context.Context, userID string) ([]models.Match, error) {
	return s.matches.ListByUser(ctx, userID)
}

// ListAll returns every match for the admin dashboard.
func (s *MatchService) ListAll(ctx context.Context) ([]models.Match, error) {
	return s.matches.ListAll(ctx)
}
