// Package mongostore implements the user and match repositories on MongoDB.
//
// Documents are encoded through the bson tags on the models. Collection
// names and indexes are managed in ensureIndexes.
package mongostore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names
const (
	ColUsers   = "users"
	ColMatches = "matches"
)

// Store holds the MongoDB client and database handle.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to uri, pings it, and ensures indexes on dbName.
func NewStore(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}

	// Uniqueness of emails and pairs depends on these indexes, so failure is fatal.
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.Info("MongoDB store ready", slog.String("database", dbName))
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks server reachability for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		name   string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{ColUsers, "idx_users_email", bson.D{{Key: "email", Value: 1}}, true},
		{ColUsers, "idx_users_role", bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: 1}}, false},

		{ColMatches, "idx_matches_pair", bson.D{{Key: "mentor_id", Value: 1}, {Key: "mentee_id", Value: 1}}, true},
		{ColMatches, "idx_matches_mentor", bson.D{{Key: "mentor_id", Value: 1}}, false},
		{ColMatches, "idx_matches_mentee", bson.D{{Key: "mentee_id", Value: 1}}, false},
		{ColMatches, "idx_matches_status", bson.D{{Key: "status", Value: 1}}, false},
	}

	for _, i := range indexes {
		opts := options.Index().SetName(i.name)
		if i.unique {
			opts.SetUnique(true)
		}
		model := mongo.IndexModel{Keys: i.keys, Options: opts}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("mongostore: create index %s on %s: %w", i.name, i.col, err)
		}
	}
	return nil
}
