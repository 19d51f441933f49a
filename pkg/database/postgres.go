package database

import (
	"database/sql"
	"fmt"
	"time"

	"guestbook/pkg/database/migrations"
	"guestbook/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// Connect opens and pings a Postgres pool sized for a small serverless
// database.
func Connect(connStr string) (*sql.DB, error) {
	if connStr == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.For("db").Info("postgres connection established")
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	logger.For("db").Info("schema initialized")
	return nil
}

// Migrations lists the embedded migration files in version order.
func Migrations() ([]string, error) {
	goose.SetBaseFS(migrations.FS)
	found, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}
	out := make([]string, 0, len(found))
	for _, m := range found {
		out = append(out, m.Source)
	}
	return out, nil
}
