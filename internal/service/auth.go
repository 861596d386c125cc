package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/gamelog/internal/apperror"
	"github.com/sakif/gamelog/internal/auth"
	"github.com/sakif/gamelog/internal/model"
	"github.com/sakif/gamelog/internal/repository"
)

const (
	MinPasswordLength = 6

	// msgInvalidLogin is shown for an unknown email and a wrong password
	// alike, so the login form never reveals which accounts exist.
	msgInvalidLogin = "Invalid email or password."
)

// AuthService registers accounts and turns credentials into an auth.Identity.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ PasswordService (bcrypt)
//
// It never touches cookies; the handler hands the returned identity to the
// SessionManager.
type AuthService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// Register validates the form and creates the account.
//
// Rules are checked in form order and the first failure is returned, matching
// how the register page shows one message at a time. The email check against
// existing accounts is a courtesy; the UNIQUE constraint in storage is what
// actually prevents duplicates.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if !validEmail(email) {
		return nil, apperror.ValidationFailed("email", "Please enter a valid email.")
	}
	_, err := s.users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.ValidationFailed("email", "E-mail already in use.")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength))
	}
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Please enter your name.")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "Password is too long.")
	}

	user := &model.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same address.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "E-mail already in use.")
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userID", user.ID))
	return user, nil
}

// Login verifies the credential and returns the identity to store in the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (auth.Identity, error) {
	user, err := s.users.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return auth.Identity{}, apperror.ValidationFailed("email", msgInvalidLogin)
		}
		return auth.Identity{}, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	ok, err := s.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.logger.Info("login rejected", slog.Int64("userID", user.ID))
		return auth.Identity{}, apperror.ValidationFailed("password", msgInvalidLogin)
	}

	return identityOf(user), nil
}

// LoginGitHub links or creates the account behind a GitHub profile.
func (s *AuthService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (auth.Identity, error) {
	if gh == nil {
		return auth.Identity{}, errors.New("service/auth: GitHub user must not be nil")
	}
	if !validEmail(gh.Email) {
		return auth.Identity{}, apperror.ValidationFailed("email", "Your GitHub account has no usable email address.")
	}

	ghID := gh.ID
	user := &model.User{
		Email:    normalizeEmail(gh.Email),
		Name:     gh.DisplayName(),
		GitHubID: &ghID,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return auth.Identity{}, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", gh.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", gh.Login),
	)
	return identityOf(user), nil
}

func identityOf(u *model.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validEmail accepts a bare address only: "Ada <ada@example.com>" parses
// with net/mail but is not something a user types into an email field.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(domain, ".")
}
