package budget

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/currency"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

// GetSettings returns the user's settings, creating them with the default
// currency on first access.
func (s *Service) GetSettings(ctx context.Context, id user.Identity) (user.Settings, error) {
	if !id.Valid() {
		return user.Settings{}, &customerr.UnauthenticatedError{}
	}

	settings, err := s.storage.GetOrCreateSettings(ctx, id.ID, s.defaultCurrency)
	return settings, errors.Wrap(err, "get settings")
}

func (s *Service) UpdateCurrency(ctx context.Context, id user.Identity, code string) (user.Settings, error) {
	if !id.Valid() {
		return user.Settings{}, &customerr.UnauthenticatedError{}
	}
	if _, ok := currency.Lookup(code); !ok {
		return user.Settings{}, customerr.Validation("invalid currency %s", code)
	}

	settings := user.Settings{UserID: id.ID, Currency: code}
	if err := s.storage.SaveSettings(ctx, settings); err != nil {
		return user.Settings{}, errors.Wrap(err, "update currency")
	}

	logger.Info("currency updated", zap.String("userID", id.ID), zap.String("currency", code))
	return settings, nil
}
