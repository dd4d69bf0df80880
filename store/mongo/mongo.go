// Package mongo implements the user record store on MongoDB, the
// canonical document store backend.
package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
)

// DefaultCollection is the collection name used when none is given.
const DefaultCollection = "users"

// Config holds MongoDB store configuration.
type Config struct {
	// URI is the connection string, e.g. mongodb://localhost:27017.
	URI string

	// Database is the database name. Required.
	Database string

	// Collection is the users collection name. Defaults to "users".
	Collection string

	// Hasher runs the pre-persistence password hashing step. Required.
	Hasher password.Hasher
}

// Store is a MongoDB implementation of the store.Store interface.
// Every operation is a single-document read or write; no transactions
// are needed.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	hasher password.Hasher
}

// New connects to MongoDB and returns a store over the users collection.
func New(cfg *Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, errors.New("mongo: database name is required")
	}
	if cfg.Hasher == nil {
		return nil, errors.New("mongo: hasher is required")
	}
	collection := cfg.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(collection),
		hasher: cfg.Hasher,
	}, nil
}

// Create validates and persists a new user. A duplicate email trips
// the unique index and surfaces as a ValidationError.
func (s *Store) Create(ctx context.Context, u *store.User) error {
	if err := store.Prepare(u, s.hasher, true); err != nil {
		return err
	}

	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &store.ValidationError{Field: "email", Message: "email is already taken"}
		}
		return err
	}
	return nil
}

// FindByID retrieves a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (*store.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail retrieves a user by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.findOne(ctx, bson.M{"email": store.NormalizeEmail(email)})
}

// FindByTokenClaim retrieves the user matching both the id and an
// "auth" token list entry. The double condition lives in the query so
// a superseded token cannot resolve to its user.
func (s *Store) FindByTokenClaim(ctx context.Context, userID, tokenValue string) (*store.User, error) {
	return s.findOne(ctx, bson.M{
		"_id": userID,
		"tokens": bson.M{"$elemMatch": bson.M{
			"access": store.AccessAuth,
			"token":  tokenValue,
		}},
	})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*store.User, error) {
	var u store.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// All returns every user.
func (s *Store) All(ctx context.Context) ([]*store.User, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*store.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update persists changes to an existing user.
func (s *Store) Update(ctx context.Context, u *store.User) error {
	if err := store.Prepare(u, s.hasher, false); err != nil {
		return err
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &store.ValidationError{Field: "email", Message: "email is already taken"}
		}
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteAll removes every user.
func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{})
	return err
}

// Ping verifies the MongoDB connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Migrate creates the unique index on email.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Close disconnects from MongoDB.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
