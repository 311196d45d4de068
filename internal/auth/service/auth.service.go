package service

import (
	"context"
	"errors"
	"fmt"
	"notevault/internal/auth/model"
	"notevault/internal/auth/repository"
	"notevault/internal/session"
	"notevault/pkg/apperror"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(encoded, password string) (bool, error)
}

type TokenIssuer interface {
	Issue(id session.Identity) (string, time.Time, error)
}

var errInvalidCredentials = apperror.New(apperror.InvalidCredentials, "Invalid credentials")

type AuthService struct {
	Users  UserStore
	Hasher PasswordHasher
	Tokens TokenIssuer

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{Users: users, Hasher: hasher, Tokens: tokens}
}

// NormalizeEmail trims and lower-cases an address; accounts are keyed on
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", apperror.New(apperror.InvalidInput, "Missing email or password")
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := model.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return "", apperror.New(apperror.AlreadyExists, "User already exists")
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

// Verify checks a login attempt. Unknown emails and wrong passwords return
// the same error, and unknown emails still pay for one hash comparison.
func (s *AuthService) Verify(ctx context.Context, email, password string) (model.User, error) {
	email = NormalizeEmail(email)

	user, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.Hasher.Compare(s.dummy(), password)
		return model.User{}, errInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.Hasher.Compare(user.PasswordHash, password)
	if err != nil || !ok {
		return model.User{}, errInvalidCredentials
	}
	return user, nil
}

// Login verifies the credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.LoginResponse, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		return model.LoginResponse{}, err
	}
	token, exp, err := s.Tokens.Issue(session.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("issue token: %w", err)
	}
	return model.LoginResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.Hasher.Hash("timing-equalizer")
	})
	return s.dummyHash
}
