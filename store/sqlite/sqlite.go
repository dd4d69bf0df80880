// Package sqlite implements the user record store on an embedded
// SQLite database. The token and phone lists are stored as JSON
// document columns, keeping the single-document model of the primary
// mongo backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	tokens        TEXT NOT NULL DEFAULT '[]',
	phones        TEXT NOT NULL DEFAULT '[]',
	last_login    INTEGER NOT NULL,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
)`

// Store is a SQLite implementation of the store.Store interface.
type Store struct {
	db     *sqlx.DB
	hasher password.Hasher
}

// New opens (or creates) the database at path. Use ":memory:" for an
// ephemeral store.
func New(path string, hasher password.Hasher) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	return &Store{db: db, hasher: hasher}, nil
}

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Tokens       string `db:"tokens"`
	Phones       string `db:"phones"`
	LastLogin    int64  `db:"last_login"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func toRow(u *store.User) (*userRow, error) {
	tokens, err := json.Marshal(u.Tokens)
	if err != nil {
		return nil, err
	}
	phones, err := json.Marshal(u.Phones)
	if err != nil {
		return nil, err
	}
	return &userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Tokens:       string(tokens),
		Phones:       string(phones),
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (r *userRow) toUser() (*store.User, error) {
	u := &store.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		LastLogin:    r.LastLogin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Tokens), &u.Tokens); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.Phones), &u.Phones); err != nil {
		return nil, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Create validates and persists a new user.
func (s *Store) Create(ctx context.Context, u *store.User) error {
	if err := store.Prepare(u, s.hasher, true); err != nil {
		return err
	}

	row, err := toRow(u)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, tokens, phones, last_login, created_at, updated_at)
		VALUES (:id, :name, :email, :password_hash, :tokens, :phones, :last_login, :created_at, :updated_at)`,
		row)
	if isUniqueViolation(err) {
		return &store.ValidationError{Field: "email", Message: "email is already taken"}
	}
	return err
}

// FindByID retrieves a user by id.
func (s *Store) FindByID(ctx context.Context, id string) (*store.User, error) {
	return s.getOne(ctx, `SELECT * FROM users WHERE id = ?`, id)
}

// FindByEmail retrieves a user by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.getOne(ctx, `SELECT * FROM users WHERE email = ?`, store.NormalizeEmail(email))
}

// FindByTokenClaim retrieves the user matching both the id and an
// "auth" token list entry. The token list is a JSON document column,
// so membership is checked after the row fetch.
func (s *Store) FindByTokenClaim(ctx context.Context, userID, tokenValue string) (*store.User, error) {
	u, err := s.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.HasAuthToken(tokenValue) {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) getOne(ctx context.Context, query string, arg any) (*store.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toUser()
}

// All returns every user.
func (s *Store) All(ctx context.Context) ([]*store.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM users ORDER BY rowid`); err != nil {
		return nil, err
	}

	users := make([]*store.User, 0, len(rows))
	for i := range rows {
		u, err := rows[i].toUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Update persists changes to an existing user.
func (s *Store) Update(ctx context.Context, u *store.User) error {
	if err := store.Prepare(u, s.hasher, false); err != nil {
		return err
	}

	row, err := toRow(u)
	if err != nil {
		return err
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE users
		SET name = :name, email = :email, password_hash = :password_hash,
		    tokens = :tokens, phones = :phones, last_login = :last_login,
		    updated_at = :updated_at
		WHERE id = :id`,
		row)
	if isUniqueViolation(err) {
		return &store.ValidationError{Field: "email", Message: "email is already taken"}
	}
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteAll removes every user.
func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users`)
	return err
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the users table.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
