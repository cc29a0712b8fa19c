package auth

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

const (
	sessionCookieName  = "session"
	sessionKeyID       = "librarian_id"
	sessionKeyEmail    = "email"
	sessionKeyLoginAt  = "login_at"
	defaultSessionLife = 12 * time.Hour
)

const sqliteSessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(time.Time{})
}

// SessionManager keeps cookie sessions for librarians using a browser.
type SessionManager struct {
	*scs.SessionManager
}

// SessionData is what a librarian session remembers between requests.
type SessionData struct {
	LibrarianID uint      `json:"librarian_id"`
	Email       string    `json:"email"`
	LoginAt     time.Time `json:"login_at"`
}

// NewSessionManager creates a session manager. On SQLite the sessions table
// lives in the library database behind sqlDB; on PostgreSQL sessions are
// held in memory and do not survive a restart.
func NewSessionManager(sqlDB *sql.DB, driver config.DatabaseDriver, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	switch driver {
	case config.DatabaseDriverSQLite, "":
		if _, err := sqlDB.Exec(sqliteSessionsSchema); err != nil {
			return nil, fmt.Errorf("create sessions table: %w", err)
		}
		sm.Store = sqlite3store.New(sqlDB)
	default:
		sm.Store = memstore.New()
	}

	sm.Lifetime = cfg.SessionLifetime
	if sm.Lifetime <= 0 {
		sm.Lifetime = defaultSessionLife
	}
	sm.IdleTimeout = sm.Lifetime / 2

	sm.Cookie.Name = sessionCookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession starts a session for an authenticated librarian. The token
// is renewed first so a pre-login cookie cannot be fixed onto the session.
func (sm *SessionManager) CreateSession(r *http.Request, librarian *entities.Librarian) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	// scs stores ints; GetInt reads them back.
	sm.Put(ctx, sessionKeyID, int(librarian.ID))
	sm.Put(ctx, sessionKeyEmail, librarian.Email())
	sm.Put(ctx, sessionKeyLoginAt, time.Now().UTC())
	return nil
}

// DestroySession ends the current session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetLibrarianID returns the librarian of the current session, or 0.
func (sm *SessionManager) GetLibrarianID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), sessionKeyID))
}

// Current returns the session data of the request, if a librarian is
// logged in.
func (sm *SessionManager) Current(r *http.Request) (SessionData, bool) {
	id := sm.GetLibrarianID(r)
	if id == 0 {
		return SessionData{}, false
	}

	loginAt, _ := sm.Get(r.Context(), sessionKeyLoginAt).(time.Time)
	return SessionData{
		LibrarianID: id,
		Email:       sm.GetString(r.Context(), sessionKeyEmail),
		LoginAt:     loginAt,
	}, true
}
