package testutil

import (
	"time"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/google/uuid"
)

// Case options
type CaseOption func(*domain.Case)

func WithUnit(unit string) CaseOption {
	return func(c *domain.Case) {
		c.Unit = unit
	}
}

func WithCaseStatus(s domain.CaseStatus) CaseOption {
	return func(c *domain.Case) {
		c.Status = s
	}
}

func WithUpdatedAt(t time.Time) CaseOption {
	return func(c *domain.Case) {
		c.UpdatedAt = t
	}
}

func NewTestCase(title string, opts ...CaseOption) *domain.Case {
	now := time.Now().UTC()
	c := &domain.Case{
		ID:        uuid.New().String(),
		Title:     title,
		Status:    domain.CaseOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Message options
type MessageOption func(*domain.Message)

func WithSource(s domain.TurnSource) MessageOption {
	return func(m *domain.Message) {
		m.Source = s
	}
}

func NewTestMessage(caseID string, role domain.MessageRole, content string, opts ...MessageOption) *domain.Message {
	m := &domain.Message{
		ID:        uuid.New().String(),
		CaseID:    caseID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
