package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

// sqliteParams makes every write transaction take the database lock up front
// (BEGIN IMMEDIATE) and wait for it instead of failing straight away.
const sqliteParams = "_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=1"

type Database struct {
	DB     *gorm.DB
	Driver config.DatabaseDriver
}

// Open connects to the configured driver and migrates the schema.
func Open(cfg config.Database) (*Database, error) {
	switch cfg.Driver {
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		return open(postgres.Open(cfg.DSN), config.DatabaseDriverPostgres, cfg.Debug, cfg.DSN)
	case config.DatabaseDriverSQLite, "":
		return open(sqlite.Open(sqliteDSN(cfg.Path)), config.DatabaseDriverSQLite, cfg.Debug, cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDatabase opens (or creates) a SQLite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(config.Database{Driver: config.DatabaseDriverSQLite, Path: dbPath})
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + sqliteParams
	}
	return path + "?" + sqliteParams
}

// loggerConfig logs slow queries and failures, or every statement in debug
// mode. Lookups that find nothing are expected and stay quiet.
func loggerConfig(debug bool) logger.Config {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  true,
	}
}

func open(dialector gorm.Dialector, driver config.DatabaseDriver, debug bool, target string) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), loggerConfig(debug)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Person{},
		&entities.Book{},
		&entities.Reader{},
		&entities.Librarian{},
		&entities.Loan{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if driver == config.DatabaseDriverSQLite {
		log.Printf("Database initialized successfully at %s", target)
	} else {
		log.Printf("Database initialized successfully (%s)", driver)
	}

	return &Database{DB: db, Driver: driver}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity to the underlying database.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
