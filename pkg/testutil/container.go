// Package testutil provides testing utilities for the RxReturn backend:
// a PostgreSQL testcontainer with the application schema, sqlmock wrappers
// and fixture factories.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "rxreturn_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "rxreturn_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema creates the full application schema in the container.
// Kept in sync with migrations/001_init.sql.
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS pharmacies (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'pharmacy',
			dea_number VARCHAR(20),
			phone VARCHAR(30),
			address VARCHAR(255),
			city VARCHAR(100),
			state VARCHAR(2),
			zip VARCHAR(10),
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
			refresh_token_hash VARCHAR(64) UNIQUE NOT NULL,
			user_agent VARCHAR(255),
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			ndc VARCHAR(13) UNIQUE NOT NULL,
			proprietary_name VARCHAR(255) NOT NULL,
			non_proprietary_name VARCHAR(255),
			manufacturer VARCHAR(255),
			wac_unit_price NUMERIC(12,4) NOT NULL DEFAULT 0,
			dea_schedule VARCHAR(10),
			return_window_days INT NOT NULL DEFAULT 365,
			base_credit_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
			destruction_required BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS reverse_distributors (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			contact_email VARCHAR(255),
			contact_phone VARCHAR(30),
			address VARCHAR(255),
			city VARCHAR(100),
			state VARCHAR(2),
			zip VARCHAR(10),
			supported_formats TEXT[] NOT NULL DEFAULT '{}',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS distributor_fee_schedules (
			id UUID PRIMARY KEY,
			distributor_id UUID NOT NULL REFERENCES reverse_distributors(id) ON DELETE CASCADE,
			duration_days INT NOT NULL,
			percentage NUMERIC(5,2) NOT NULL,
			effective_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS return_report_records (
			id UUID PRIMARY KEY,
			distributor_id UUID NOT NULL REFERENCES reverse_distributors(id) ON DELETE CASCADE,
			ndc VARCHAR(13) NOT NULL,
			unit_type VARCHAR(10) NOT NULL,
			price_per_unit NUMERIC(12,4) NOT NULL,
			report_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT return_report_records_unit_type_valid CHECK (unit_type IN ('full', 'partial'))
		);
		CREATE INDEX IF NOT EXISTS idx_report_records_ndc ON return_report_records (ndc, report_date);

		CREATE TABLE IF NOT EXISTS inventory_items (
			id UUID PRIMARY KEY,
			pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
			ndc VARCHAR(13) NOT NULL,
			lot_number VARCHAR(50) NOT NULL,
			expiration_date DATE NOT NULL,
			quantity INT NOT NULL,
			location VARCHAR(100),
			wac_unit_price NUMERIC(12,4) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT inventory_items_quantity_positive CHECK (quantity > 0)
		);

		CREATE TABLE IF NOT EXISTS returns (
			id UUID PRIMARY KEY,
			pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'draft',
			total_estimated_credit NUMERIC(12,2) NOT NULL DEFAULT 0,
			shipment_id VARCHAR(100),
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT returns_return_status_valid CHECK (status IN ('draft', 'ready_to_ship', 'in_transit', 'processing', 'completed', 'cancelled'))
		);

		CREATE TABLE IF NOT EXISTS return_items (
			id UUID PRIMARY KEY,
			return_id UUID NOT NULL REFERENCES returns(id) ON DELETE CASCADE,
			ndc VARCHAR(13) NOT NULL,
			lot_number VARCHAR(50) NOT NULL,
			expiration_date DATE NOT NULL,
			quantity INT NOT NULL,
			condition VARCHAR(10) NOT NULL DEFAULT 'UNOPENED',
			estimated_credit NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT return_items_condition_valid CHECK (condition IN ('UNOPENED', 'OPENED', 'DAMAGED')),
			CONSTRAINT return_items_quantity_positive CHECK (quantity > 0)
		);

		CREATE TABLE IF NOT EXISTS custom_packages (
			id UUID PRIMARY KEY,
			package_number VARCHAR(30) UNIQUE NOT NULL,
			pharmacy_id UUID NOT NULL REFERENCES pharmacies(id) ON DELETE CASCADE,
			distributor_id UUID NOT NULL REFERENCES reverse_distributors(id),
			total_items INT NOT NULL DEFAULT 0,
			total_estimated_value NUMERIC(12,2) NOT NULL DEFAULT 0,
			delivered BOOLEAN NOT NULL DEFAULT false,
			delivery_date DATE,
			received_by VARCHAR(100),
			delivery_condition VARCHAR(50),
			tracking_number VARCHAR(100),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		-- at most one open package per pharmacy/distributor pair
		CREATE UNIQUE INDEX IF NOT EXISTS idx_custom_packages_open
			ON custom_packages (pharmacy_id, distributor_id) WHERE NOT delivered;

		CREATE TABLE IF NOT EXISTS custom_package_items (
			id UUID PRIMARY KEY,
			package_id UUID NOT NULL REFERENCES custom_packages(id) ON DELETE CASCADE,
			ndc VARCHAR(13) NOT NULL,
			product_name VARCHAR(255),
			full_count INT NOT NULL DEFAULT 0,
			partial_count INT NOT NULL DEFAULT 0,
			estimated_value NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
