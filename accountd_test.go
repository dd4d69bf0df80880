package accountd

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avictor/accountd/password"
	"github.com/avictor/accountd/store"
	"github.com/avictor/accountd/store/memory"
)

const testSecret = "this-is-a-32-character-secret!!!"

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	hasher := password.NewBcryptHasher(4)
	s := memory.New(hasher)
	svc, err := New(s,
		WithSecret(testSecret),
		WithHasher(hasher),
	)
	require.NoError(t, err)
	return svc, s
}

func TestNew_Validation(t *testing.T) {
	hasher := password.NewBcryptHasher(4)

	_, err := New(nil, WithSecret(testSecret))
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = New(memory.New(hasher))
	assert.ErrorIs(t, err, ErrSecretRequired)

	_, err = New(memory.New(hasher), WithSecret(testSecret), WithSessionWindow(-1))
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, CodeConfigInvalid, cfgErr.Code)
}

func TestSignup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, tok, err := svc.Signup(ctx, SignupRequest{
		Name:     "User 1",
		Email:    "user1@email.com",
		Password: "123456",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, tok)
	require.Len(t, user.Tokens, 1)
	assert.Equal(t, store.AccessAuth, user.Tokens[0].Access)
	assert.Equal(t, tok, user.Tokens[0].Token)
	assert.NotZero(t, user.LastLogin, "signup counts as an authentication event")

	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "user1@email.com", Password: "123456"})
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, SignupRequest{Name: "User 2", Email: "user1@email.com", Password: "123456"})
	var ve *store.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestSignup_InvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "nope", Password: "123456"})
	var ve *store.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, signupTok, err := svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "user1@email.com", Password: "123456"})
	require.NoError(t, err)

	user, loginTok, err := svc.Login(ctx, "user1@email.com", "123456")
	require.NoError(t, err)

	require.Len(t, user.Tokens, 1, "login must leave exactly one active token")
	assert.Equal(t, loginTok, user.Tokens[0].Token)
	assert.NotEqual(t, signupTok, loginTok, "login must rotate the token")
}

func TestLogin_InvalidatesPriorTokens(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	pub, firstTok, err := svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "user1@email.com", Password: "123456"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "user1@email.com", "123456")
	require.NoError(t, err)

	_, err = s.FindByTokenClaim(ctx, pub.ID, firstTok)
	assert.ErrorIs(t, err, store.ErrNotFound, "superseded token must stop resolving")
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Login(context.Background(), "nobody@email.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CodeNotFound, serr.Code)
	assert.Equal(t, "Invalid credentials", serr.Message)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "user1@email.com", Password: "123456"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "user1@email.com", "wrong")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CodeUnauthorized, serr.Code)
	assert.Equal(t, "Not authorized", serr.Message)
}

func TestList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, _, err = svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "user1@email.com", Password: "123456"})
	require.NoError(t, err)
	_, _, err = svc.Signup(ctx, SignupRequest{Name: "User 2", Email: "user2@email.com", Password: "123456"})
	require.NoError(t, err)

	users, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	body, err := json.Marshal(users)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
}

func TestGuardAdmitsFreshLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pub, tok, err := svc.Signup(ctx, SignupRequest{Name: "User 1", Email: "user1@email.com", Password: "123456"})
	require.NoError(t, err)

	res, err := svc.Guard().Check(ctx, "Bearer "+tok, svc.now())
	require.NoError(t, err)
	assert.Equal(t, pub.ID, res.User.ID)
}
