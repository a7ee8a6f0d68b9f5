package repository

import (
	"context"
	"fmt"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

// SQLiteMessageRepo implements MessageRepo using a SQLite database.
type SQLiteMessageRepo struct {
	db db.DBTX
}

func NewSQLiteMessageRepo(conn db.DBTX) *SQLiteMessageRepo {
	return &SQLiteMessageRepo{db: conn}
}

func (r *SQLiteMessageRepo) Append(ctx context.Context, m *domain.Message) error {
	query := `INSERT INTO case_messages (id, case_id, seq, role, content, source, created_at)
		SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
		FROM case_messages WHERE case_id = ?`
	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.CaseID,
		string(m.Role),
		m.Content,
		string(m.Source),
		formatTime(m.CreatedAt),
		m.CaseID,
	)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// ListByCase returns the conversation oldest first.
func (r *SQLiteMessageRepo) ListByCase(ctx context.Context, caseID string) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, case_id, role, content, source, created_at
		FROM case_messages WHERE case_id = ? ORDER BY seq`, caseID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []*domain.Message
	for rows.Next() {
		var m domain.Message
		var role, source, createdAt string
		if err := rows.Scan(&m.ID, &m.CaseID, &role, &m.Content, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		m.Role = domain.MessageRole(role)
		m.Source = domain.TurnSource(source)
		m.CreatedAt = parseTime(createdAt)
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}
