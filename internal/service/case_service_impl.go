package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/repository"
	"github.com/google/uuid"
)

type caseService struct {
	cases    repository.CaseRepo
	messages repository.MessageRepo
	observer UseCaseObserver
}

func NewCaseService(cases repository.CaseRepo, messages repository.MessageRepo, observers ...UseCaseObserver) CaseService {
	return &caseService{cases: cases, messages: messages, observer: useCaseObserverOrNoop(observers)}
}

func (s *caseService) Create(ctx context.Context, title, unit string) (c *domain.Case, err error) {
	title = strings.TrimSpace(title)
	done := observe(ctx, s.observer, "create-case", "", map[string]any{"title": title})
	defer func() { done(err) }()

	if title == "" {
		return nil, fmt.Errorf("case title is required")
	}
	now := time.Now().UTC()
	c = &domain.Case{
		ID:        uuid.New().String(),
		Title:     title,
		Unit:      strings.TrimSpace(unit),
		Status:    domain.CaseOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *caseService) Resolve(ctx context.Context, ref string) (*domain.Case, error) {
	return s.cases.GetByIDPrefix(ctx, ref)
}

func (s *caseService) List(ctx context.Context, status domain.CaseStatus) ([]*domain.Case, error) {
	return s.cases.List(ctx, status)
}

func (s *caseService) Transcript(ctx context.Context, caseID string) ([]*domain.Message, error) {
	if _, err := s.cases.GetByID(ctx, caseID); err != nil {
		return nil, err
	}
	return s.messages.ListByCase(ctx, caseID)
}
