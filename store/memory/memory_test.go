package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
)

func newTestStore() *Store {
	return New(password.NewBcryptHasher(4))
}

func seedUser(t *testing.T, s *Store) *store.User {
	t.Helper()
	u := &store.User{Name: "User 1", Email: "user1@email.com", Password: "123456"}
	require.NoError(t, s.Create(context.Background(), u))
	return u
}

func TestCreateAndFind(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	u := seedUser(t, s)

	byID, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)

	byEmail, err := s.FindByEmail(ctx, "  USER1@email.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID, "email lookup must normalize its input")

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindByEmail(ctx, "missing@email.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seedUser(t, s)

	dup := &store.User{Name: "User 2", Email: "user1@email.com", Password: "123456"}
	err := s.Create(ctx, dup)

	var ve *store.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestFindByTokenClaim(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	u := seedUser(t, s)

	u.Tokens = []store.Token{{Access: store.AccessAuth, Token: "tok-1"}}
	require.NoError(t, s.Update(ctx, u))

	got, err := s.FindByTokenClaim(ctx, u.ID, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.FindByTokenClaim(ctx, u.ID, "tok-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindByTokenClaim(ctx, "other-id", "tok-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindByTokenClaim_SupersededToken(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	u := seedUser(t, s)

	u.Tokens = []store.Token{{Access: store.AccessAuth, Token: "tok-old"}}
	require.NoError(t, s.Update(ctx, u))

	// A later login replaces the token list; the old token must stop
	// resolving even though nothing about it changed cryptographically.
	u.Tokens = []store.Token{{Access: store.AccessAuth, Token: "tok-new"}}
	require.NoError(t, s.Update(ctx, u))

	_, err := s.FindByTokenClaim(ctx, u.ID, "tok-old")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindByTokenClaim(ctx, u.ID, "tok-new")
	assert.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	u := seedUser(t, s)

	u.Name = "Renamed"
	require.NoError(t, s.Update(ctx, u))

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	missing := &store.User{ID: "missing", Name: "X", Email: "x@email.com"}
	assert.ErrorIs(t, s.Update(ctx, missing), store.ErrNotFound)
}

func TestAllAndDeleteAll(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	seedUser(t, s)
	require.NoError(t, s.Create(ctx, &store.User{Name: "User 2", Email: "user2@email.com", Password: "123456"}))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteAll(ctx))

	all, err = s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStoredStateIsIsolated(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()
	u := seedUser(t, s)

	u.Tokens = []store.Token{{Access: store.AccessAuth, Token: "tok-1"}}
	require.NoError(t, s.Update(ctx, u))

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	got.Tokens[0].Token = "mutated"

	again, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again.Tokens[0].Token)
}
