package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
	"github.com/mrlokans/librarian/internal/database/librarians"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
)

const testPassword = "correct-horse"

type testEnv struct {
	db         *database.Database
	librarians *librarians.Repository
	tokens     *TokenService
	service    *Service
	cfg        config.Auth
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Auth{
		TokenExpiry:      30 * time.Minute,
		BcryptCost:       4, // Low cost for faster tests
		SessionLifetime:  time.Hour,
		SecureCookies:    false,
		MaxLoginAttempts: 3,
		LockoutDuration:  10 * time.Minute,
	}

	tokens, err := NewTokenService("", cfg.TokenExpiry)
	if err != nil {
		t.Fatalf("failed to create token service: %v", err)
	}

	repo := librarians.NewRepository(db.DB)
	return &testEnv{
		db:         db,
		librarians: repo,
		tokens:     tokens,
		service:    NewService(repo, tokens, cfg),
		cfg:        cfg,
	}
}

func (e *testEnv) createLibrarian(t *testing.T, email string) *entities.Librarian {
	t.Helper()

	hash, err := e.service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	librarian := &entities.Librarian{
		Person:       entities.Person{FirstName: "Grace", LastName: "Hopper", Email: email},
		PasswordHash: hash,
	}
	if err := e.librarians.Create(context.Background(), librarian); err != nil {
		t.Fatalf("failed to create librarian: %v", err)
	}
	return librarian
}

func TestService_HashPassword(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := env.service.HashPassword("short"); !errors.Is(err, domainerrors.ErrValidation) {
		t.Errorf("HashPassword(short) error = %v, want validation error", err)
	}

	hash, err := env.service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := CheckPassword(testPassword, hash); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
}

func TestService_Authenticate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	created := env.createLibrarian(t, "grace@library.test")

	t.Run("valid credentials", func(t *testing.T) {
		librarian, err := env.service.Authenticate(ctx, "grace@library.test", testPassword)
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if librarian.ID != created.ID {
			t.Errorf("Authenticate() librarian = %d, want %d", librarian.ID, created.ID)
		}
		if librarian.LastLoginAt == nil {
			t.Error("LastLoginAt should be set after login")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := env.service.Authenticate(ctx, "grace@library.test", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := env.service.Authenticate(ctx, "nobody@library.test", testPassword)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("success resets failed attempts", func(t *testing.T) {
		stored, err := env.librarians.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if stored.FailedLoginCount != 1 {
			t.Fatalf("FailedLoginCount = %d, want 1", stored.FailedLoginCount)
		}

		if _, err := env.service.Authenticate(ctx, "grace@library.test", testPassword); err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		stored, _ = env.librarians.GetByID(ctx, created.ID)
		if stored.FailedLoginCount != 0 {
			t.Errorf("FailedLoginCount = %d, want 0", stored.FailedLoginCount)
		}
	})
}

func TestService_AccountLockout(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createLibrarian(t, "locked@library.test")

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	env.service.SetClock(func() time.Time { return now })

	for i := 0; i < env.cfg.MaxLoginAttempts; i++ {
		_, err := env.service.Authenticate(ctx, "locked@library.test", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: error = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	_, err := env.service.Authenticate(ctx, "locked@library.test", testPassword)
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("Authenticate() with correct password while locked: error = %v, want ErrAccountLocked", err)
	}

	now = now.Add(env.cfg.LockoutDuration + time.Second)
	if _, err := env.service.Authenticate(ctx, "locked@library.test", testPassword); err != nil {
		t.Errorf("Authenticate() after lockout expired: error = %v", err)
	}
}

func TestService_LoginAndResolveToken(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	created := env.createLibrarian(t, "ada@library.test")

	librarian, token, expiresAt, err := env.service.Login(ctx, "ada@library.test", testPassword)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if librarian.ID != created.ID {
		t.Errorf("Login() librarian = %d, want %d", librarian.ID, created.ID)
	}
	if token == "" {
		t.Fatal("Login() returned an empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiresAt = %v, want a future time", expiresAt)
	}

	resolved, err := env.service.ResolveToken(ctx, token)
	if err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("ResolveToken() librarian = %d, want %d", resolved.ID, created.ID)
	}

	t.Run("garbage token", func(t *testing.T) {
		if _, err := env.service.ResolveToken(ctx, "v4.local.garbage"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ResolveToken() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := env.service.ResolveToken(ctx, ""); !errors.Is(err, domainerrors.ErrUnauthorized) {
			t.Errorf("ResolveToken() error = %v, want unauthorized", err)
		}
	})

	t.Run("deleted librarian", func(t *testing.T) {
		other := env.createLibrarian(t, "gone@library.test")
		otherToken, _, err := env.tokens.Issue(other)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if err := env.librarians.Delete(ctx, other.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := env.service.ResolveToken(ctx, otherToken); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ResolveToken() error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestService_ChangePassword(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	librarian := env.createLibrarian(t, "change@library.test")

	t.Run("wrong current password", func(t *testing.T) {
		err := env.service.ChangePassword(ctx, librarian.ID, "not-the-password", "new-password-1")
		if !errors.Is(err, domainerrors.ErrValidation) {
			t.Errorf("ChangePassword() error = %v, want validation error", err)
		}
	})

	t.Run("new password too short", func(t *testing.T) {
		err := env.service.ChangePassword(ctx, librarian.ID, testPassword, "short")
		if !errors.Is(err, domainerrors.ErrValidation) {
			t.Errorf("ChangePassword() error = %v, want validation error", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		if err := env.service.ChangePassword(ctx, librarian.ID, testPassword, "new-password-1"); err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}
		if _, err := env.service.Authenticate(ctx, "change@library.test", "new-password-1"); err != nil {
			t.Errorf("Authenticate() with new password: error = %v", err)
		}
		if _, err := env.service.Authenticate(ctx, "change@library.test", testPassword); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate() with old password: error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown librarian", func(t *testing.T) {
		err := env.service.ChangePassword(ctx, 9999, testPassword, "new-password-1")
		if !errors.Is(err, domainerrors.ErrNotFound) {
			t.Errorf("ChangePassword() error = %v, want not found", err)
		}
	})
}

func TestService_AuthenticateUpgradesHashCost(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	oldHash, err := NewHasher(env.cfg.BcryptCost + 1).Hash(testPassword)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	librarian := &entities.Librarian{
		Person:       entities.Person{FirstName: "Ada", LastName: "Lovelace", Email: "ada@library.test"},
		PasswordHash: oldHash,
	}
	if err := env.librarians.Create(ctx, librarian); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := env.service.Authenticate(ctx, "ada@library.test", testPassword); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	stored, err := env.librarians.GetByID(ctx, librarian.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.PasswordHash == oldHash {
		t.Fatal("password hash was not upgraded")
	}
	if NewHasher(env.cfg.BcryptCost).NeedsRehash(stored.PasswordHash) {
		t.Error("upgraded hash does not use the configured cost")
	}
	if _, err := env.service.Authenticate(ctx, "ada@library.test", testPassword); err != nil {
		t.Errorf("Authenticate() with upgraded hash error = %v", err)
	}
}
