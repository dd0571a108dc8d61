package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hourtrim/config"
	"hourtrim/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// authTableDDL is the credential table. The username is unique so concurrent
// signups for the same name cannot both succeed.
const authTableDDL = `
CREATE TABLE IF NOT EXISTS auth (
	id INT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(191) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
) DEFAULT CHARSET=utf8mb4;
`

// Connect opens the MySQL connection pool described by cfg and pings it.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	conn, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(50)
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database.")
	return conn, nil
}

// InitDB creates the credential table if it does not exist.
func InitDB(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, authTableDDL); err != nil {
		return fmt.Errorf("failed to create auth table: %w", err)
	}
	logger.Info("Auth table initialized successfully (or already exists).")
	return nil
}
