// Package seed creates demo mentors, mentees and matches. It is intended for
// development and testing only.
package seed

import (
	"fmt"
	"strings"
	"sync"

	"mentorbridge/internal/models"
	"mentorbridge/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the login password of every seeded account.
const DefaultPassword = "password123"

// Options controls what the seeder generates.
type Options struct {
	Mentors int
	Mentees int
	// Password is shared by all seeded users; DefaultPassword when empty.
	Password string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// RandSeed makes output reproducible; 0 picks a random seed.
	RandSeed int64
	// DryRun builds users and matches without writing them.
	DryRun bool
}

// Factory builds domain entities with fake but plausible content.
type Factory struct {
	catalog *Catalog
	opts    Options
	faker   *gofakeit.Faker

	hashOnce sync.Once
	hash     string
	hashErr  error
}

// NewFactory returns a Factory drawing skills from catalog.
func NewFactory(catalog *Catalog, opts Options) *Factory {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Factory{catalog: catalog, opts: opts, faker: gofakeit.New(opts.RandSeed)}
}

// passwordHash hashes the shared password once; every seeded user reuses it.
func (f *Factory) passwordHash() (string, error) {
	f.hashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(f.opts.Password), f.opts.BcryptCost)
		f.hash, f.hashErr = string(h), err
	})
	return f.hash, f.hashErr
}

// BuildUser constructs an unsaved user of role. Mentors get skills and
// experience from one track; mentees get interests from one or two tracks.
// Optional overrides run last.
func (f *Factory) BuildUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("seed: hash password: %w", err)
	}

	name := f.faker.Name()
	user := &models.User{
		Name:     name,
		Email:    f.email(name),
		Password: hash,
		Role:     role,
		Bio:      f.faker.Sentence(12),
	}

	track := f.track()
	switch role {
	case models.RoleMentor:
		user.Skills = f.pick(track.Skills, 3, 5)
		user.Interests = f.pick(f.track().Skills, 0, 2)
		user.Experience = fmt.Sprintf("%d years working in %s", f.faker.Number(2, 25), track.Name)
	case models.RoleMentee:
		interests := f.pick(track.Skills, 2, 4)
		if f.faker.Bool() {
			interests = append(interests, f.pick(f.track().Skills, 1, 2)...)
		}
		user.Interests = validation.CleanTerms(interests)
		user.Skills = f.pick(f.track().Skills, 0, 2)
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

func (f *Factory) email(name string) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), "."))
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, local)
	if local == "" {
		local = "user"
	}
	return fmt.Sprintf("%s.%d@example.com", local, f.faker.Number(1000, 99999))
}

func (f *Factory) track() Track {
	return f.catalog.Tracks[f.faker.Number(0, len(f.catalog.Tracks)-1)]
}

// pick returns between lo and hi distinct terms from terms, in random order.
func (f *Factory) pick(terms []string, lo, hi int) []string {
	n := f.faker.Number(lo, hi)
	if n > len(terms) {
		n = len(terms)
	}
	shuffled := append([]string(nil), terms...)
	f.faker.ShuffleStrings(shuffled)
	return shuffled[:n]
}
