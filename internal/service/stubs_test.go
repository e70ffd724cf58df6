package service

import (
	"context"
	"sort"
	"sync"

	"mentorbridge/internal/models"
)

type userRepoStub struct {
	getByIDFn        func(context.Context, string) (*models.User, error)
	getByEmailFn     func(context.Context, string) (*models.User, error)
	createFn         func(context.Context, *models.User) error
	updateFn         func(context.Context, *models.User) error
	listFn           func(context.Context) ([]models.User, error)
	findCandidatesFn func(context.Context, models.Role, models.TermField, []string) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) List(ctx context.Context) ([]models.User, error) {
	return s.listFn(ctx)
}
func (s *userRepoStub) FindCandidates(ctx context.Context, role models.Role, field models.TermField, terms []string) ([]models.User, error) {
	return s.findCandidatesFn(ctx, role, field, terms)
}

// memUsers backs userRepoStub with a map so services can be exercised end to end.
type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	order []string
}

func newMemUsers(users ...*models.User) (*memUsers, *userRepoStub) {
	m := &memUsers{byID: map[string]*models.User{}}
	for _, u := range users {
		u.Prepare()
		m.byID[u.ID] = u
		m.order = append(m.order, u.ID)
	}
	stub := &userRepoStub{
		getByIDFn: func(_ context.Context, id string) (*models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			u, ok := m.byID[id]
			if !ok {
				return nil, models.NewNotFoundError("User", id)
			}
			cp := *u
			return &cp, nil
		},
		getByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, u := range m.byID {
				if u.Email == email {
					cp := *u
					return &cp, nil
				}
			}
			return nil, nil
		},
		createFn: func(_ context.Context, u *models.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, existing := range m.byID {
				if existing.Email == u.Email {
					return models.NewDuplicateEmailError()
				}
			}
			u.Prepare()
			cp := *u
			m.byID[u.ID] = &cp
			m.order = append(m.order, u.ID)
			return nil
		},
		updateFn: func(_ context.Context, u *models.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			u.Prepare()
			cp := *u
			m.byID[u.ID] = &cp
			return nil
		},
		listFn: func(context.Context) ([]models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			out := make([]models.User, 0, len(m.order))
			for _, id := range m.order {
				out = append(out, *m.byID[id])
			}
			return out, nil
		},
		findCandidatesFn: func(_ context.Context, role models.Role, field models.TermField, terms []string) ([]models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			out := []models.User{}
			for _, id := range m.order {
				u := m.byID[id]
				if u.Role == role && models.SharesAny(u.Terms(field), terms) {
					out = append(out, *u)
				}
			}
			return out, nil
		},
	}
	return m, stub
}

// memMatches is an in-memory MatchRepository with the same compare-and-set semantics as the stores.
type memMatches struct {
	mu    sync.Mutex
	byID  map[string]*models.Match
	users *memUsers

	listByUserCalls  int
	counterpartCalls int
}

func newMemMatches(users *memUsers) *memMatches {
	return &memMatches{byID: map[string]*models.Match{}, users: users}
}

func (m *memMatches) populate(match models.Match) models.Match {
	if m.users != nil {
		m.users.mu.Lock()
		match.Mentor = m.users.byID[match.MentorID]
		match.Mentee = m.users.byID[match.MenteeID]
		m.users.mu.Unlock()
	}
	return match
}

func (m *memMatches) Create(_ context.Context, match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.MentorID == match.MentorID && existing.MenteeID == match.MenteeID {
			return models.NewDuplicateMatchError()
		}
	}
	match.Prepare()
	cp := *match
	m.byID[match.ID] = &cp
	return nil
}

func (m *memMatches) GetByID(_ context.Context, id string) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("Match", id)
	}
	out := m.populate(*match)
	return &out, nil
}

func (m *memMatches) GetByPair(_ context.Context, mentorID, menteeID string) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, match := range m.byID {
		if match.MentorID == mentorID && match.MenteeID == menteeID {
			cp := *match
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memMatches) ListByUser(_ context.Context, userID string) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listByUserCalls++
	out := []models.Match{}
	for _, match := range m.byID {
		if match.Involves(userID) {
			out = append(out, m.populate(*match))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memMatches) CounterpartIDs(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterpartCalls++
	ids := []string{}
	for _, match := range m.byID {
		if other, ok := match.Counterpart(userID); ok {
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (m *memMatches) ListAll(_ context.Context) ([]models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Match{}
	for _, match := range m.byID {
		out = append(out, m.populate(*match))
	}
	return out, nil
}

func (m *memMatches) UpdateStatus(_ context.Context, id string, from, to models.MatchStatus) (*models.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	match, ok := m.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("Match", id)
	}
	if match.Status != from {
		return nil, models.NewInvalidTransitionError(match.Status, to)
	}
	match.Status = to
	out := m.populate(*match)
	return &out, nil
}
