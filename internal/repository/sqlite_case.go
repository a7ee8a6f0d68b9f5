package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/db"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

// SQLiteCaseRepo implements CaseRepo using a SQLite database.
type SQLiteCaseRepo struct {
	db db.DBTX
}

func NewSQLiteCaseRepo(conn db.DBTX) *SQLiteCaseRepo {
	return &SQLiteCaseRepo{db: conn}
}

const caseColumns = `id, title, unit, status, created_at, updated_at`

func (r *SQLiteCaseRepo) Create(ctx context.Context, c *domain.Case) error {
	query := `INSERT INTO cases (` + caseColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Title,
		c.Unit,
		string(c.Status),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting case: %w", err)
	}
	return nil
}

func (r *SQLiteCaseRepo) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	return r.scanCase(row)
}

func (r *SQLiteCaseRepo) GetByIDPrefix(ctx context.Context, prefix string) (*domain.Case, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("case: %w", ErrNotFound)
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases WHERE id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		escaped+"%")
	if err != nil {
		return nil, fmt.Errorf("resolving case prefix: %w", err)
	}
	defer rows.Close()

	cases, err := r.scanCases(rows)
	if err != nil {
		return nil, err
	}
	switch len(cases) {
	case 0:
		return nil, fmt.Errorf("case %q: %w", prefix, ErrNotFound)
	case 1:
		return cases[0], nil
	default:
		for _, c := range cases {
			if c.ID == prefix {
				return c, nil
			}
		}
		return nil, fmt.Errorf("case %q: %w", prefix, ErrAmbiguousID)
	}
}

// List returns cases, most recently updated first. An empty status lists all.
func (r *SQLiteCaseRepo) List(ctx context.Context, status domain.CaseStatus) ([]*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()
	return r.scanCases(rows)
}

func (r *SQLiteCaseRepo) Update(ctx context.Context, c *domain.Case) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET title = ?, unit = ?, status = ?, updated_at = ? WHERE id = ?`,
		c.Title, c.Unit, string(c.Status), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("updating case: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("case: %w", ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteCaseRepo) scanCase(row *sql.Row) (*domain.Case, error) {
	c, err := r.populateCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("case: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning case: %w", err)
	}
	return c, nil
}

func (r *SQLiteCaseRepo) scanCases(rows *sql.Rows) ([]*domain.Case, error) {
	var cases []*domain.Case
	for rows.Next() {
		c, err := r.populateCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning case row: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (r *SQLiteCaseRepo) populateCase(s rowScanner) (*domain.Case, error) {
	var c domain.Case
	var status, createdAt, updatedAt string
	if err := s.Scan(&c.ID, &c.Title, &c.Unit, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.CaseStatus(status)
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}
