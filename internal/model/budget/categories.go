package budget

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

const maxCategoryNameLen = 64

func (s *Service) ListCategories(ctx context.Context, id user.Identity, kind *ledger.Kind) ([]ledger.Category, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "listCategories")
	defer span.Finish()

	if !id.Valid() {
		return nil, &customerr.UnauthenticatedError{}
	}
	if kind != nil && !kind.Valid() {
		return nil, customerr.Validation("unknown category type %q", *kind)
	}

	cats, err := s.storage.ListCategories(ctx, id.ID, kind)
	return cats, errors.Wrap(err, "list categories")
}

func (s *Service) CreateCategory(ctx context.Context, id user.Identity, name, icon string, kind ledger.Kind) (ledger.Category, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "createCategory")
	defer span.Finish()

	if !id.Valid() {
		return ledger.Category{}, &customerr.UnauthenticatedError{}
	}

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ledger.Category{}, customerr.Validation("category name is required")
	case len(name) > maxCategoryNameLen:
		return ledger.Category{}, customerr.Validation("category name is longer than %d", maxCategoryNameLen)
	case !kind.Valid():
		return ledger.Category{}, customerr.Validation("unknown category type %q", kind)
	}

	cat := ledger.Category{
		UserID:    id.ID,
		Name:      name,
		Icon:      strings.TrimSpace(icon),
		Kind:      kind,
		CreatedAt: s.now().UTC(),
	}
	if err := s.storage.CreateCategory(ctx, cat); err != nil {
		return ledger.Category{}, errors.Wrap(err, "create category")
	}
	return cat, nil
}

// DeleteCategory removes the category only. Transactions keep their snapshot of it.
func (s *Service) DeleteCategory(ctx context.Context, id user.Identity, name string, kind ledger.Kind) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "deleteCategory")
	defer span.Finish()

	if !id.Valid() {
		return &customerr.UnauthenticatedError{}
	}
	if !kind.Valid() {
		return customerr.Validation("unknown category type %q", kind)
	}

	return errors.Wrap(s.storage.DeleteCategory(ctx, id.ID, name, kind), "delete category")
}
