package mongostore

import (
	"context"
	"errors"
	"time"

	"mentorbridge/internal/models"
	"mentorbridge/internal/observability"
	"mentorbridge/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserStore implements repository.UserRepository on the users collection.
type UserStore struct {
	s   *Store
	log *observability.RepoLogger
}

var _ repository.UserRepository = (*UserStore)(nil)

// Users returns the user repository backed by s.
func (s *Store) Users() *UserStore {
	return &UserStore{s: s, log: observability.NewRepoLogger("mongo", ColUsers)}
}

func (u *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	defer observability.TrackQuery("get_by_id", ColUsers)()

	user, err := findOne[models.User](ctx, u.s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		u.log.LogError(ctx, err, "get_by_id")
		return nil, models.NewInternalError(err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer observability.TrackQuery("get_by_email", ColUsers)()

	user, err := findOne[models.User](ctx, u.s.col(ColUsers), bson.D{{Key: "email", Value: email}})
	if err != nil {
		u.log.LogError(ctx, err, "get_by_email")
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

func (u *UserStore) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", ColUsers)()

	user.Prepare()
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if err := insertOne(ctx, u.s.col(ColUsers), user); err != nil {
		if errors.Is(err, errDuplicate) {
			return models.NewDuplicateEmailError()
		}
		u.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	u.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return nil
}

func (u *UserStore) Update(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("update", ColUsers)()

	user.Prepare()
	user.UpdatedAt = time.Now().UTC()

	res, err := u.s.col(ColUsers).ReplaceOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, user)
	if err != nil {
		if errors.Is(wrapError(err), errDuplicate) {
			return models.NewDuplicateEmailError()
		}
		u.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	u.log.LogUpdate(ctx, map[string]interface{}{"user_id": user.ID})
	return nil
}

func (u *UserStore) List(ctx context.Context) ([]models.User, error) {
	defer observability.TrackQuery("list", ColUsers)()

	users, err := findMany[models.User](ctx, u.s.col(ColUsers), bson.D{}, oldestFirst())
	if err != nil {
		u.log.LogError(ctx, err, "list")
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// FindCandidates uses the array-membership semantics of $in on the term field.
func (u *UserStore) FindCandidates(ctx context.Context, role models.Role, field models.TermField, terms []string) ([]models.User, error) {
	defer observability.TrackQuery("find_candidates", ColUsers)()

	if len(terms) == 0 {
		return []models.User{}, nil
	}

	filter := bson.D{
		{Key: "role", Value: role},
		{Key: string(field), Value: bson.D{{Key: "$in", Value: terms}}},
	}
	users, err := findMany[models.User](ctx, u.s.col(ColUsers), filter, oldestFirst())
	if err != nil {
		u.log.LogError(ctx, err, "find_candidates")
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// byIDs loads users for populating match participants.
func (u *UserStore) byIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := findMany[models.User](ctx, u.s.col(ColUsers), bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}
