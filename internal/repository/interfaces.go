package repository

import (
	"context"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

type CaseRepo interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	// GetByIDPrefix resolves a unique id prefix as typed on the command line.
	GetByIDPrefix(ctx context.Context, prefix string) (*domain.Case, error)
	List(ctx context.Context, status domain.CaseStatus) ([]*domain.Case, error)
	Update(ctx context.Context, c *domain.Case) error
}

type MessageRepo interface {
	// Append assigns the next per-case sequence number.
	Append(ctx context.Context, m *domain.Message) error
	ListByCase(ctx context.Context, caseID string) ([]*domain.Message, error)
}

// MetadataRepo stores the opaque per-case metadata mapping.
type MetadataRepo interface {
	// Get returns an empty Metadata for a case with nothing stored.
	Get(ctx context.Context, caseID string) (domain.Metadata, error)
	// Update shallow-merges patch into the stored mapping; nil values delete keys.
	Update(ctx context.Context, caseID string, patch domain.Metadata) error
}
