package mongostore

import (
	"context"
	"errors"
	"time"

	"mentorbridge/internal/models"
	"mentorbridge/internal/observability"
	"mentorbridge/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MatchStore implements repository.MatchRepository on the matches collection.
type MatchStore struct {
	s     *Store
	users *UserStore
	log   *observability.RepoLogger
}

var _ repository.MatchRepository = (*MatchStore)(nil)

// Matches returns the match repository backed by s.
func (s *Store) Matches() *MatchStore {
	return &MatchStore{s: s, users: s.Users(), log: observability.NewRepoLogger("mongo", ColMatches)}
}

func (m *MatchStore) Create(ctx context.Context, match *models.Match) error {
	defer observability.TrackQuery("create", ColMatches)()

	match.Prepare()
	now := time.Now().UTC()
	match.CreatedAt, match.UpdatedAt = now, now

	if err := insertOne(ctx, m.s.col(ColMatches), match); err != nil {
		if errors.Is(err, errDuplicate) {
			return models.NewDuplicateMatchError()
		}
		m.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	m.log.LogCreate(ctx, map[string]interface{}{"match_id": match.ID, "mentor_id": match.MentorID, "mentee_id": match.MenteeID})
	return nil
}

func (m *MatchStore) GetByID(ctx context.Context, id string) (*models.Match, error) {
	defer observability.TrackQuery("get_by_id", ColMatches)()

	match, err := findOne[models.Match](ctx, m.s.col(ColMatches), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		m.log.LogError(ctx, err, "get_by_id")
		return nil, models.NewInternalError(err)
	}
	if match == nil {
		return nil, models.NewNotFoundError("Match", id)
	}
	if err := m.populate(ctx, []*models.Match{match}); err != nil {
		return nil, err
	}
	return match, nil
}

func (m *MatchStore) GetByPair(ctx context.Context, mentorID, menteeID string) (*models.Match, error) {
	defer observability.TrackQuery("get_by_pair", ColMatches)()

	match, err := findOne[models.Match](ctx, m.s.col(ColMatches), bson.D{
		{Key: "mentor_id", Value: mentorID},
		{Key: "mentee_id", Value: menteeID},
	})
	if err != nil {
		m.log.LogError(ctx, err, "get_by_pair")
		return nil, models.NewInternalError(err)
	}
	return match, nil
}

func (m *MatchStore) ListByUser(ctx context.Context, userID string) ([]models.Match, error) {
	defer observability.TrackQuery("list_by_user", ColMatches)()

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "mentor_id", Value: userID}},
		bson.D{{Key: "mentee_id", Value: userID}},
	}}}
	return m.list(ctx, filter, "list_by_user")
}

func (m *MatchStore) CounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	defer observability.TrackQuery("counterpart_ids", ColMatches)()

	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "mentor_id", Value: userID}},
		bson.D{{Key: "mentee_id", Value: userID}},
	}}}
	projection := options.Find().SetProjection(bson.D{
		{Key: "mentor_id", Value: 1},
		{Key: "mentee_id", Value: 1},
	})
	pairs, err := findMany[models.Match](ctx, m.s.col(ColMatches), filter, projection)
	if err != nil {
		m.log.LogError(ctx, err, "counterpart_ids")
		return nil, models.NewInternalError(err)
	}
	ids := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if other, ok := p.Counterpart(userID); ok {
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (m *MatchStore) ListAll(ctx context.Context) ([]models.Match, error) {
	defer observability.TrackQuery("list_all", ColMatches)()

	return m.list(ctx, bson.D{}, "list_all")
}

func (m *MatchStore) list(ctx context.Context, filter bson.D, op string) ([]models.Match, error) {
	matches, err := findMany[models.Match](ctx, m.s.col(ColMatches), filter, oldestFirst())
	if err != nil {
		m.log.LogError(ctx, err, op)
		return nil, models.NewInternalError(err)
	}
	ptrs := make([]*models.Match, len(matches))
	for i := range matches {
		ptrs[i] = &matches[i]
	}
	if err := m.populate(ctx, ptrs); err != nil {
		return nil, err
	}
	return matches, nil
}

// UpdateStatus is a single conditional findAndModify keyed on the expected status.
func (m *MatchStore) UpdateStatus(ctx context.Context, id string, from, to models.MatchStatus) (*models.Match, error) {
	defer observability.TrackQuery("update_status", ColMatches)()

	filter := bson.D{{Key: "_id", Value: id}, {Key: "status", Value: from}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: to},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Match
	err := m.s.col(ColMatches).FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		m.log.LogUpdate(ctx, map[string]interface{}{"match_id": id, "status": to})
		if err := m.populate(ctx, []*models.Match{&updated}); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		m.log.LogError(ctx, err, "update_status")
		return nil, models.NewInternalError(err)
	}

	current, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, models.NewInvalidTransitionError(current.Status, to)
}

func (m *MatchStore) populate(ctx context.Context, matches []*models.Match) error {
	ids := make([]string, 0, len(matches)*2)
	for _, match := range matches {
		ids = append(ids, match.MentorID, match.MenteeID)
	}
	users, err := m.users.byIDs(ctx, ids)
	if err != nil {
		m.log.LogError(ctx, err, "populate")
		return models.NewInternalError(err)
	}
	for _, match := range matches {
		match.Mentor = users[match.MentorID]
		match.Mentee = users[match.MenteeID]
	}
	return nil
}
