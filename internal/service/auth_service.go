package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"poketeams/internal/auth"
	apperrors "poketeams/internal/errors"
	"poketeams/internal/logging"
	"poketeams/internal/model"
	"poketeams/internal/repository"
)

// AuthService handles registration, login and token authentication.
//
// Credential failures are reported as apperrors.ErrUnauthorized whatever
// the cause (unknown user, wrong password, bad or expired token). Store
// failures are returned as wrapped internal errors and never as
// ErrUnauthorized.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (accessToken string, err error)
	Login(ctx context.Context, username, password string) (accessToken string, err error)
	Logout(ctx context.Context) error
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	codec    *auth.TokenCodec
	log      logging.Logger

	dummyMu     sync.Mutex
	dummyDigest string
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, codec *auth.TokenCodec, log logging.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		codec:    codec,
		log:      log.With("component", "auth"),
	}
}

// Register creates a user with a hashed password and returns a token for
// the new session. The existing record is left untouched on conflict.
func (s *authService) Register(ctx context.Context, username, email, password string) (string, error) {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return "", apperrors.ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check username: %w", err)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return "", apperrors.ErrConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("check email: %w", err)
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: digest,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", apperrors.ErrConflict
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.codec.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return token, nil
}

// Login verifies the credentials and returns a fresh access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("find user: %w", err)
		}
		// Spend the same work as a real check so response time does not
		// reveal whether the username exists.
		digest, err := s.dummy(ctx)
		if err != nil {
			return "", fmt.Errorf("dummy digest: %w", err)
		}
		if _, err := s.hasher.Verify(ctx, password, digest); err != nil {
			return "", fmt.Errorf("verify password: %w", err)
		}
		return "", apperrors.ErrUnauthorized
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", apperrors.ErrUnauthorized
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}

	token, err := s.codec.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Logout acknowledges the request. Tokens are stateless and stay valid
// until they expire; there is no server-side revocation.
func (s *authService) Logout(ctx context.Context) error {
	return nil
}

// Authenticate resolves the user a bearer token was issued to.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.codec.Parse(accessToken)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "reason", err.Error())
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	return s.resolve(ctx, claims.Subject)
}

func (s *authService) resolve(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}
	return user, nil
}

func (s *authService) rehash(ctx context.Context, user *model.User, password string) {
	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err.Error())
		return
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, user.ID, digest); err != nil {
		s.log.Warn(ctx, "password rehash not stored", "user_id", user.ID, "error", err.Error())
		return
	}
	user.PasswordHash = digest
}

// dummy returns the digest unknown-user logins are verified against. It is
// only kept once hashing succeeds, so a failure is retried by the next call.
func (s *authService) dummy(ctx context.Context) (string, error) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyDigest != "" {
		return s.dummyDigest, nil
	}
	digest, err := s.hasher.Hash(ctx, "not-a-real-password")
	if err != nil {
		return "", err
	}
	s.dummyDigest = digest
	return digest, nil
}
