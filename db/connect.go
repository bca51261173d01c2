package db

import (
	"fmt"
	"net/url"
	"strings"

	"warbler/confs"
	"warbler/entities"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the database named by cfg.DatabaseURL and migrates the schema.
func Connect(cfg confs.Config) (Database, error) {
	gdb, err := Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if sqlDB, err := gdb.DB(); err == nil && isPostgres(cfg.DatabaseURL) {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(0)
	}

	logrus.Info("Running database migrations...")
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	logrus.Info("Database migrations completed successfully!")

	return &GormDatabase{DB: gdb}, nil
}

// Open picks a gorm dialector from the URL scheme. postgres:// and
// postgresql:// go to Postgres; sqlite:// and bare paths go to SQLite with
// foreign keys enforced.
func Open(databaseURL string) (*gorm.DB, error) {
	dialector, err := dialectorFor(databaseURL)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return gdb, nil
}

// Migrate creates or updates the users, messages, follows and likes tables.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&entities.User{}, &entities.Message{}, &entities.Follow{}, &entities.Like{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func dialectorFor(databaseURL string) (gorm.Dialector, error) {
	switch {
	case databaseURL == "":
		return nil, fmt.Errorf("missing required database configuration: DATABASE_URL")
	case isPostgres(databaseURL):
		dsn, err := postgresDSN(databaseURL)
		if err != nil {
			return nil, err
		}
		logrus.Info("Connecting to postgres database...")
		return postgres.Open(dsn), nil
	default:
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		logrus.WithField("path", path).Info("Connecting to sqlite database...")
		return sqlite.Open(sqliteDSN(path)), nil
	}
}

func isPostgres(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// postgresDSN requires TLS for remote hosts unless the URL already says otherwise.
func postgresDSN(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		switch u.Hostname() {
		case "", "localhost", "127.0.0.1":
			q.Set("sslmode", "disable")
		default:
			q.Set("sslmode", "require")
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
