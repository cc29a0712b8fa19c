package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/librarian/internal/config"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

var (
	ErrInvalidCredentials = &domainerrors.Error{
		Code:    domainerrors.CodeUnauthorized,
		Reason:  domainerrors.ReasonInvalidCredentials,
		Message: "invalid email or password",
	}
	ErrAccountLocked = &domainerrors.Error{
		Code:    domainerrors.CodeUnauthorized,
		Reason:  domainerrors.ReasonAccountLocked,
		Message: "account is locked due to too many failed login attempts",
	}
	ErrInvalidToken = domainerrors.Unauthorized("could not validate credentials")
	ErrAuthRequired = domainerrors.Unauthorized("authentication required")
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 30 * time.Minute
)

// LibrarianRepository is the account storage the service needs.
type LibrarianRepository interface {
	GetByID(ctx context.Context, id uint) (*entities.Librarian, error)
	GetByEmail(ctx context.Context, email string) (*entities.Librarian, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) error
	RecordLoginSuccess(ctx context.Context, id uint, at time.Time) error
	RecordLoginFailure(ctx context.Context, id uint, failedCount int, lockedUntil *time.Time) error
}

// Service authenticates librarians and resolves access tokens.
type Service struct {
	librarians LibrarianRepository
	tokens     *TokenService
	hasher     *Hasher
	config     config.Auth
	now        func() time.Time
}

// NewService creates a new authentication service.
func NewService(librarians LibrarianRepository, tokens *TokenService, cfg config.Auth) *Service {
	return &Service{
		librarians: librarians,
		tokens:     tokens,
		hasher:     NewHasher(cfg.BcryptCost),
		config:     cfg,
		now:        time.Now,
	}
}

// SetClock replaces the time source used for lockouts.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// HashPassword hashes with the configured bcrypt cost and reports length
// problems as validation errors.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	switch {
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		return "", domainerrors.ValidationWithDetails("validation failed", map[string]string{"password": err.Error()})
	case err != nil:
		return "", domainerrors.Internal("failed to hash password", err)
	}
	return hash, nil
}

// Authenticate validates credentials and returns the librarian.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.Librarian, error) {
	librarian, err := s.librarians.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find librarian: %w", err)
	}

	if librarian.IsLocked(s.now()) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, librarian.PasswordHash); err != nil {
		s.recordFailedLogin(ctx, librarian)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, domainerrors.Internal("failed to verify password", err)
	}

	now := s.now()
	if err := s.librarians.RecordLoginSuccess(ctx, librarian.ID, now); err != nil {
		log.Printf("Auth: failed to record login for librarian %d: %v", librarian.ID, err)
	}
	librarian.LastLoginAt = &now
	librarian.FailedLoginCount = 0
	librarian.LockedUntil = nil

	if s.hasher.NeedsRehash(librarian.PasswordHash) {
		s.upgradeHash(ctx, librarian, password)
	}

	return librarian, nil
}

// upgradeHash re-hashes a verified password at the configured cost.
// Failures are logged; the old hash stays valid.
func (s *Service) upgradeHash(ctx context.Context, librarian *entities.Librarian, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Printf("Auth: failed to rehash password for librarian %d: %v", librarian.ID, err)
		return
	}
	if err := s.librarians.UpdatePasswordHash(ctx, librarian.ID, hash); err != nil {
		log.Printf("Auth: failed to store rehashed password for librarian %d: %v", librarian.ID, err)
		return
	}
	librarian.PasswordHash = hash
	log.Printf("Auth: upgraded password hash for librarian %d to cost %d", librarian.ID, s.hasher.Cost())
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(ctx context.Context, librarian *entities.Librarian) {
	librarian.FailedLoginCount++

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxLoginAttempts
	}

	var lockedUntil *time.Time
	if librarian.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration <= 0 {
			lockoutDuration = defaultLockoutDuration
		}
		until := s.now().Add(lockoutDuration)
		lockedUntil = &until
	}

	if err := s.librarians.RecordLoginFailure(ctx, librarian.ID, librarian.FailedLoginCount, lockedUntil); err != nil {
		log.Printf("Auth: failed to record failed login for librarian %d: %v", librarian.ID, err)
	}
}

// Login authenticates and issues an access token in one step.
func (s *Service) Login(ctx context.Context, email, password string) (*entities.Librarian, string, time.Time, error) {
	librarian, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Issue(librarian)
	if err != nil {
		return nil, "", time.Time{}, domainerrors.Internal("failed to issue token", err)
	}
	return librarian, token, expiresAt, nil
}

// ResolveToken verifies an access token and loads the librarian it names.
// The account must still exist and still own the email in the token.
func (s *Service) ResolveToken(ctx context.Context, token string) (*entities.Librarian, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	librarian, err := s.librarians.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if claims.LibrarianID != 0 && claims.LibrarianID != librarian.ID {
		return nil, ErrInvalidToken
	}

	return librarian, nil
}

// ResolveSession loads the librarian of a cookie session. Like a token, a
// session stops working once the librarian is deleted or changes email.
func (s *Service) ResolveSession(ctx context.Context, session SessionData) (*entities.Librarian, error) {
	librarian, err := s.librarians.GetByID(ctx, session.LibrarianID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, ErrAuthRequired
		}
		return nil, err
	}
	if session.Email != "" && session.Email != librarian.Email() {
		return nil, ErrAuthRequired
	}
	return librarian, nil
}

// GetLibrarian loads a librarian by ID.
func (s *Service) GetLibrarian(ctx context.Context, id uint) (*entities.Librarian, error) {
	return s.librarians.GetByID(ctx, id)
}

// ChangePassword updates a librarian's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, librarianID uint, currentPassword, newPassword string) error {
	librarian, err := s.librarians.GetByID(ctx, librarianID)
	if err != nil {
		return err
	}

	if err := CheckPassword(currentPassword, librarian.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return domainerrors.Validation("current password is incorrect")
		}
		return domainerrors.Internal("failed to verify password", err)
	}

	newHash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.librarians.UpdatePasswordHash(ctx, librarian.ID, newHash)
}

// TokenExpiry returns the access token lifetime.
func (s *Service) TokenExpiry() time.Duration {
	return s.tokens.Expiry()
}
