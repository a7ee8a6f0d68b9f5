package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/repository"
)

// resolveCase accepts a full case id or a unique prefix of one.
func resolveCase(ctx context.Context, app *App, ref string) (*domain.Case, error) {
	c, err := app.Cases.Resolve(ctx, ref)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("no case matches %q (see 'rvdesk case list')", ref)
	case errors.Is(err, repository.ErrAmbiguousID):
		return nil, fmt.Errorf("%q matches more than one case, use more characters", ref)
	case err != nil:
		return nil, err
	}
	return c, nil
}
