package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

// SQLiteMetadataRepo stores one JSON-encoded row per (case, key).
type SQLiteMetadataRepo struct {
	db db.DBTX
}

func NewSQLiteMetadataRepo(conn db.DBTX) *SQLiteMetadataRepo {
	return &SQLiteMetadataRepo{db: conn}
}

func (r *SQLiteMetadataRepo) Get(ctx context.Context, caseID string) (domain.Metadata, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM case_metadata WHERE case_id = ?`, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading case metadata: %w", err)
	}
	defer rows.Close()

	md := domain.Metadata{}
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning case metadata: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decoding metadata %q: %w", key, err)
		}
		md[key] = v
	}
	return md, rows.Err()
}

func (r *SQLiteMetadataRepo) Update(ctx context.Context, caseID string, patch domain.Metadata) error {
	now := formatTime(nowUTC())
	for key, v := range patch {
		if v == nil {
			if _, err := r.db.ExecContext(ctx,
				`DELETE FROM case_metadata WHERE case_id = ? AND key = ?`, caseID, key); err != nil {
				return fmt.Errorf("deleting metadata %q: %w", key, err)
			}
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding metadata %q: %w", key, err)
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO case_metadata (case_id, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(case_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			caseID, key, string(raw), now)
		if err != nil {
			return fmt.Errorf("writing metadata %q: %w", key, err)
		}
	}
	return nil
}
