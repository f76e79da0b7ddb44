package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Conn wraps a raw database/sql connection. It is used for the startup
// reachability check: the batch run must fail before processing begins if
// the analytical store cannot be reached at all, and a plain Ping through
// lib/pq answers that without pulling GORM into the startup path.
type Conn struct {
	conn *sql.DB
}

// ConnConfig holds raw connection configuration
type ConnConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewConnection opens a raw database connection and verifies it
func NewConnection(cfg ConnConfig) (*Conn, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The batch pipeline is strictly sequential; a small pool is plenty.
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")

	return &Conn{conn: conn}, nil
}

// Close closes the database connection
func (c *Conn) Close() error {
	if c.conn != nil {
		log.Println("📡 Closing database connection...")
		return c.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (c *Conn) Ping() error {
	return c.conn.Ping()
}
