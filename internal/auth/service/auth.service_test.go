package service

import (
	"context"
	"errors"
	"notevault/internal/auth/model"
	"notevault/internal/auth/repository"
	"notevault/internal/session"
	"notevault/pkg/apperror"
	"notevault/pkg/password"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingUsers struct {
	err error
}

func (f failingUsers) Create(context.Context, model.User) error { return f.err }

func (f failingUsers) GetByEmail(context.Context, string) (model.User, error) {
	return model.User{}, f.err
}

type countingHasher struct {
	*password.Argon2
	compares int
}

func (c *countingHasher) Compare(encoded, pw string) (bool, error) {
	c.compares++
	return c.Argon2.Compare(encoded, pw)
}

func newTestService() (*AuthService, *repository.MemoryUserRepository, *countingHasher, *session.Issuer) {
	users := repository.NewMemoryUserRepository()
	hasher := &countingHasher{Argon2: &password.Argon2{Time: 1, Memory: 1024, Parallelism: 1, SaltLength: 16, KeyLength: 32}}
	issuer := session.NewIssuer("secret", "notevault", time.Hour)
	return NewAuthService(users, hasher, issuer), users, hasher, issuer
}

func TestRegisterThenLogin(t *testing.T) {
	svc, users, _, issuer := newTestService()
	ctx := context.Background()

	id, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	stored, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	resp, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)

	identity, err := issuer.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", identity.Email)
	assert.Equal(t, id, identity.UserID)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, users, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "  A@X.com ", "pw1")
	require.NoError(t, err)
	_, err = users.GetByEmail(ctx, "a@x.com")
	assert.NoError(t, err)

	_, err = svc.Register(ctx, "a@x.COM", "other")
	assert.True(t, apperror.Is(err, apperror.AlreadyExists))

	_, err = svc.Login(ctx, "A@x.com", "pw1")
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	for _, tc := range []struct{ email, pw string }{
		{"", "pw"},
		{"   ", "pw"},
		{"a@x.com", ""},
	} {
		_, err := svc.Register(ctx, tc.email, tc.pw)
		assert.True(t, apperror.Is(err, apperror.InvalidInput), "%q/%q", tc.email, tc.pw)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "a@x.com", "pw2")
	assert.True(t, apperror.Is(err, apperror.AlreadyExists))
}

func TestVerifyFailuresLookIdentical(t *testing.T) {
	svc, _, hasher, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw1")
	require.NoError(t, err)

	_, wrongPw := svc.Verify(ctx, "a@x.com", "nope")
	before := hasher.compares
	_, unknown := svc.Verify(ctx, "ghost@x.com", "pw1")

	assert.True(t, apperror.Is(wrongPw, apperror.InvalidCredentials))
	assert.True(t, apperror.Is(unknown, apperror.InvalidCredentials))
	assert.Equal(t, wrongPw.Error(), unknown.Error())
	assert.Equal(t, before+1, hasher.compares, "unknown email still runs a hash comparison")
}

func TestLoginStoreFailureIsInternal(t *testing.T) {
	_, _, hasher, issuer := newTestService()
	svc := NewAuthService(failingUsers{err: errors.New("db down")}, hasher, issuer)

	_, err := svc.Login(context.Background(), "a@x.com", "pw1")
	require.Error(t, err)
	assert.Equal(t, apperror.Internal, apperror.KindOf(err))
}
