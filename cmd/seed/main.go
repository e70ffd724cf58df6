// Command main seeds demo mentors, mentees and matches.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"mentorbridge/internal/bootstrap"
	"mentorbridge/internal/config"
	"mentorbridge/internal/seed"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}

func run(argv []string) error {
	var opts seed.Options
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flags.IntVar(&opts.Mentors, "mentors", 10, "number of mentors to create")
	flags.IntVar(&opts.Mentees, "mentees", 25, "number of mentees to create")
	flags.StringVar(&opts.Password, "password", seed.DefaultPassword, "password shared by every seeded account")
	flags.Int64Var(&opts.RandSeed, "rand-seed", 0, "fixed random seed for reproducible data (0 = random)")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "generate data without writing it")
	if err := flags.Parse(argv); err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed in %q", cfg.Env)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(ctx) }()

	s, err := seed.NewSeeder(rt.Users, rt.Matches, opts)
	if err != nil {
		return err
	}
	sum, err := s.SeedCommunity(ctx)
	if err != nil {
		return err
	}

	log.Printf("Created %d mentors and %d mentees (%d skipped)", sum.Mentors, sum.Mentees, sum.Skipped)
	log.Printf("Matches: %d pending, %d accepted, %d declined", sum.Pending, sum.Accepted, sum.Declined)
	log.Printf("All seeded users share the password: %s", opts.Password)
	return nil
}
