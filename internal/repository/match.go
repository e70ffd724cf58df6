package repository

import (
	"context"
	"errors"

	"mentorbridge/internal/models"
	"mentorbridge/internal/observability"

	"gorm.io/gorm"
)

// MatchRepository defines persistence operations for matches.
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	// GetByPair returns (nil, nil) when the mentor and mentee have no match.
	GetByPair(ctx context.Context, mentorID, menteeID string) (*models.Match, error)
	ListByUser(ctx context.Context, userID string) ([]models.Match, error)
	// CounterpartIDs returns the other participant of every match the user
	// is in, whatever its status, without loading either user.
	CounterpartIDs(ctx context.Context, userID string) ([]string, error)
	ListAll(ctx context.Context) ([]models.Match, error)
	// UpdateStatus moves the match from one status to another only if it is
	// still in from; otherwise it reports NotFound or InvalidTransition.
	UpdateStatus(ctx context.Context, id string, from, to models.MatchStatus) (*models.Match, error)
}

type matchRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db, log: observability.NewRepoLogger("sql", "matches")}
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	defer observability.TrackQuery("create", "matches")()

	if err := r.db.WithContext(ctx).Omit("Mentor", "Mentee").Create(match).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateMatchError()
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{
		"match_id":  match.ID,
		"mentor_id": match.MentorID,
		"mentee_id": match.MenteeID,
	})
	return nil
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	defer observability.TrackQuery("get_by_id", "matches")()

	var match models.Match
	if err := r.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Where("id = ?", id).
		First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Match", id)
		}
		r.log.LogError(ctx, err, "get_by_id")
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *matchRepository) GetByPair(ctx context.Context, mentorID, menteeID string) (*models.Match, error) {
	defer observability.TrackQuery("get_by_pair", "matches")()

	var match models.Match
	if err := r.db.WithContext(ctx).
		Where("mentor_id = ? AND mentee_id = ?", mentorID, menteeID).
		First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.LogError(ctx, err, "get_by_pair")
		return nil, models.NewInternalError(err)
	}
	return &match, nil
}

func (r *matchRepository) ListByUser(ctx context.Context, userID string) ([]models.Match, error) {
	defer observability.TrackQuery("list_by_user", "matches")()

	var matches []models.Match
	if err := readDB(r.db).WithContext(ctx).
		Where("mentor_id = ? OR mentee_id = ?", userID, userID).
		Preload("Mentor").
		Preload("Mentee").
		Order("created_at ASC, id ASC").
		Find(&matches).Error; err != nil {
		r.log.LogError(ctx, err, "list_by_user")
		return nil, models.NewInternalError(err)
	}
	return matches, nil
}

func (r *matchRepository) CounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	defer observability.TrackQuery("counterpart_ids", "matches")()

	var pairs []struct {
		MentorID string
		MenteeID string
	}
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.Match{}).
		Select("mentor_id", "mentee_id").
		Where("mentor_id = ? OR mentee_id = ?", userID, userID).
		Scan(&pairs).Error; err != nil {
		r.log.LogError(ctx, err, "counterpart_ids")
		return nil, models.NewInternalError(err)
	}
	ids := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.MentorID == userID {
			ids = append(ids, p.MenteeID)
		} else {
			ids = append(ids, p.MentorID)
		}
	}
	return ids, nil
}

func (r *matchRepository) ListAll(ctx context.Context) ([]models.Match, error) {
	defer observability.TrackQuery("list_all", "matches")()

	var matches []models.Match
	if err := readDB(r.db).WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Order("created_at ASC, id ASC").
		Find(&matches).Error; err != nil {
		r.log.LogError(ctx, err, "list_all")
		return nil, models.NewInternalError(err)
	}
	return matches, nil
}

func (r *matchRepository) UpdateStatus(ctx context.Context, id string, from, to models.MatchStatus) (*models.Match, error) {
	defer observability.TrackQuery("update_status", "matches")()

	if !from.CanTransitionTo(to) {
		return nil, models.NewInvalidTransitionError(from, to)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update_status")
		return nil, models.NewInternalError(res.Error)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		// Someone else decided first, or the match was never pending.
		return nil, models.NewInvalidTransitionError(current.Status, to)
	}

	r.log.LogUpdate(ctx, map[string]interface{}{"match_id": id, "status": to})
	return current, nil
}
