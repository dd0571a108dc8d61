package auth

import (
	"context"
	"errors"
	"strings"

	"hourtrim/core/errs"
	"hourtrim/logger"
	"hourtrim/metrics"
	"hourtrim/model"
	"hourtrim/repository"
)

// Messages shared with the HTTP layer.
const (
	MsgMissingFields      = "Missing fields"
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgPasswordTooLong    = "Password too long"
)

// CredentialStore is the signup/login contract of the application.
type CredentialStore interface {
	Signup(ctx context.Context, username, password string) error
	// Login verifies the credentials and returns a signed session token.
	Login(ctx context.Context, username, password string) (string, error)
}

// Service implements CredentialStore on a UserRepository.
type Service struct {
	users  repository.UserRepository
	tokens *TokenManager
}

// NewService creates a credential Service.
func NewService(users repository.UserRepository, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens}
}

// Tokens returns the manager used to sign session tokens.
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}

// Signup stores (username, bcrypt(password)) if the username is free.
func (s *Service) Signup(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.ObserveSignup(metrics.ResultInvalid)
		return errs.Validation(MsgMissingFields)
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		metrics.ObserveSignup(metrics.ResultFailed)
		return errs.Execution("Signup failed", err)
	}
	if exists {
		logger.Warn("[Signup] user already exists", logger.String("username", username))
		metrics.ObserveSignup(metrics.ResultRejected)
		return errs.Validation(MsgUserExists)
	}

	hash, err := HashPassword(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			metrics.ObserveSignup(metrics.ResultInvalid)
			return errs.Validation(MsgPasswordTooLong)
		}
		metrics.ObserveSignup(metrics.ResultFailed)
		return errs.Execution("Signup failed", err)
	}

	if _, err := s.users.CreateUser(ctx, &model.User{Username: username, PasswordHash: hash}); err != nil {
		// lost a race with a concurrent signup for the same name
		if errors.Is(err, repository.ErrDuplicateUser) {
			metrics.ObserveSignup(metrics.ResultRejected)
			return errs.Validation(MsgUserExists)
		}
		metrics.ObserveSignup(metrics.ResultFailed)
		return errs.Execution("Signup failed", err)
	}

	logger.Info("[Signup] user created", logger.String("username", username))
	metrics.ObserveSignup(metrics.ResultSuccess)
	return nil
}

// Login returns a session token for valid credentials. Unknown users and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		metrics.ObserveLogin(metrics.ResultFailed)
		return "", errs.Execution("Login failed", err)
	}
	if user == nil {
		logger.Warn("[Login] user not found", logger.String("username", username))
		metrics.ObserveLogin(metrics.ResultRejected)
		return "", errs.Auth(MsgInvalidCredentials)
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("[Login] password mismatch", logger.String("username", username))
		metrics.ObserveLogin(metrics.ResultRejected)
		return "", errs.Auth(MsgInvalidCredentials)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		metrics.ObserveLogin(metrics.ResultFailed)
		return "", errs.Execution("Login failed", err)
	}

	logger.Info("[Login] login succeeded", logger.String("username", user.Username))
	metrics.ObserveLogin(metrics.ResultSuccess)
	return token, nil
}
