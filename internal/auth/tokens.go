package auth

import (
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/mrlokans/librarian/internal/entities"
)

const (
	tokenIssuer   = "librarian"
	tokenAudience = "librarian-api"

	// PASETO v4 symmetric key requirements.
	keyBytesSize = 32
	keyHexSize   = 64

	claimLibrarianID = "librarian_id"
)

// AccessClaims is what a verified access token says about its bearer.
type AccessClaims struct {
	Email       string
	LibrarianID uint
	ExpiresAt   time.Time
}

// TokenService issues and verifies PASETO v4.local access tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	expiry       time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service. An empty keyHex generates a random
// key, which invalidates all tokens on restart.
func NewTokenService(keyHex string, expiry time.Duration) (*TokenService, error) {
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}

	if keyHex == "" {
		log.Println("Warning: AUTH_TOKEN_KEY is not set, generated an ephemeral token key")
		return &TokenService{symmetricKey: paseto.NewV4SymmetricKey(), expiry: expiry, now: time.Now}, nil
	}

	if len(keyHex) != keyHexSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters (%d bytes), got %d", keyHexSize, keyBytesSize, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{symmetricKey: key, expiry: expiry, now: time.Now}, nil
}

// Issue creates an access token whose subject is the librarian's email.
func (s *TokenService) Issue(librarian *entities.Librarian) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(librarian.Email())
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expiresAt)
	if err := token.Set(claimLibrarianID, librarian.ID); err != nil {
		return "", time.Time{}, fmt.Errorf("set token claims: %w", err)
	}

	return token.V4Encrypt(s.symmetricKey, nil), expiresAt, nil
}

// Verify decrypts a token and checks issuer, audience and validity window.
func (s *TokenService) Verify(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("invalid token: missing subject")
	}

	var librarianID uint
	if err := token.Get(claimLibrarianID, &librarianID); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	return &AccessClaims{Email: subject, LibrarianID: librarianID, ExpiresAt: expiresAt}, nil
}

// SetClock replaces the time source used to stamp and check tokens.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

// Expiry returns the configured access token lifetime.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}
