//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	goerrors "errors"
	"log/slog"

	"chatline/auth"
	"chatline/errors"
	"chatline/repositories"
)

// ICredentialService is the credential store capability consumed by the
// session handler: registration yields a success flag plus a human-readable
// info string, verification yields a bare boolean. Authentication failures
// are values, never errors.
type ICredentialService interface {
	Create(username, password string) (bool, string)
	Verify(username, password string) bool
}

type CredentialService struct {
	users repositories.IUserRepository
	log   *slog.Logger
}

func NewCredentialService(users repositories.IUserRepository, log *slog.Logger) *CredentialService {
	return &CredentialService{users: users, log: log}
}

// Create validates, hashes and persists a new account. A duplicate username
// is a normal failure reported through the info string, not an error: the
// session stays alive and the caller may retry with another name.
func (s *CredentialService) Create(username, password string) (bool, string) {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
	}

	// Business rules are checked before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		s.log.Debug("Registration rejected", "username", username, "reason", err)
		return false, "Username must be at least 3 characters and password at least 8"
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		s.log.Error("Password hashing failed", "error", err)
		return false, "Registration failed, please try again"
	}

	if _, err := s.users.CreateUser(username, hashed); err != nil {
		if goerrors.Is(err, errors.ErrUserAlreadyExists) {
			return false, "Username already exists"
		}
		s.log.Error("User persistence failed", "username", username, "error", err)
		return false, "Registration failed, please try again"
	}

	return true, "User created successfully"
}

// Verify reports whether the password matches the stored hash. Unknown user
// and wrong password are indistinguishable to the caller, which prevents
// username enumeration.
func (s *CredentialService) Verify(username, password string) bool {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		return false
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error("Stored hash unreadable", "username", username, "error", err)
		return false
	}
	return match
}
