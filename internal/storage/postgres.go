package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// PostgresRequestStore persists access request records in Postgres.
type PostgresRequestStore struct {
	db *sql.DB
}

// NewPostgresRequestStore opens a Postgres-backed request store.
func NewPostgresRequestStore(connectionString string) (*PostgresRequestStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Set connection pool limits for cloud stability
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresRequestStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgresRequestStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS access_requests (
		id VARCHAR(255) PRIMARY KEY,
		requester_user_id VARCHAR(255) NOT NULL,
		requester_email VARCHAR(255),
		requested_for_user_id VARCHAR(255) NOT NULL,
		catalog_item_id VARCHAR(255) NOT NULL,
		catalog_item_label VARCHAR(500) NOT NULL,
		status VARCHAR(100) NOT NULL,
		justification TEXT,
		requested_at VARCHAR(100) NOT NULL,
		last_synced_at VARCHAR(100),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_requester_user_id ON access_requests(requester_user_id);
	`

	_, err := s.db.Exec(query)
	return err
}

// Put upserts a record by request id.
func (s *PostgresRequestStore) Put(ctx context.Context, record models.AccessRequestRecord) error {
	query := `
		INSERT INTO access_requests
			(id, requester_user_id, requester_email, requested_for_user_id, catalog_item_id, catalog_item_label, status, justification, requested_at, last_synced_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (id)
		DO UPDATE SET
			requester_user_id = EXCLUDED.requester_user_id,
			requester_email = EXCLUDED.requester_email,
			requested_for_user_id = EXCLUDED.requested_for_user_id,
			catalog_item_id = EXCLUDED.catalog_item_id,
			catalog_item_label = EXCLUDED.catalog_item_label,
			status = EXCLUDED.status,
			justification = EXCLUDED.justification,
			requested_at = EXCLUDED.requested_at,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.RequesterUserID,
		nullableString(record.RequesterEmail),
		record.RequestedForUserID,
		record.CatalogItemID,
		record.CatalogItemLabel,
		record.Status,
		nullableString(record.Justification),
		record.RequestedAt,
		nullableString(record.LastSyncedAt),
	)

	return err
}

// Query returns up to limit records. Requester filtering happens in the
// caller, mirroring the platform datastore contract.
func (s *PostgresRequestStore) Query(ctx context.Context, limit int) ([]models.AccessRequestRecord, error) {
	query := `
		SELECT id, requester_user_id, requester_email, requested_for_user_id, catalog_item_id, catalog_item_label, status, justification, requested_at, last_synced_at
		FROM access_requests
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AccessRequestRecord
	for rows.Next() {
		var record models.AccessRequestRecord
		var email, justification, lastSynced sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.RequesterUserID,
			&email,
			&record.RequestedForUserID,
			&record.CatalogItemID,
			&record.CatalogItemLabel,
			&record.Status,
			&justification,
			&record.RequestedAt,
			&lastSynced,
		)
		if err != nil {
			return nil, err
		}
		record.RequesterEmail = email.String
		record.Justification = justification.String
		record.LastSyncedAt = lastSynced.String
		records = append(records, record)
	}

	return records, rows.Err()
}

// Ping tests the database connection
func (s *PostgresRequestStore) Ping() error {
	return s.db.Ping()
}

// Close closes the database connection
func (s *PostgresRequestStore) Close() error {
	return s.db.Close()
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
