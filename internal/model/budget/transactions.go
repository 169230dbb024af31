package budget

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/customerr"
)

// CreateTransaction records a transaction and folds its amount into the day and
// month aggregates of its UTC date. The three writes commit together.
func (s *Service) CreateTransaction(ctx context.Context, id user.Identity, req ledger.NewTransaction) (t ledger.Transaction, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "createTransaction")
	defer span.Finish()
	defer func() {
		observeWrite("create", err)
		if err != nil {
			ext.Error.Set(span, true)
		}
	}()

	if !id.Valid() {
		return ledger.Transaction{}, &customerr.UnauthenticatedError{}
	}
	if err = validateNewTransaction(req); err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "create transaction")
	}

	category, err := s.storage.FindCategory(ctx, id.ID, req.Category)
	if err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "create transaction")
	}

	t = ledger.Transaction{
		ID:           uuid.New(),
		UserID:       id.ID,
		Amount:       req.Amount,
		Kind:         req.Kind,
		Date:         req.Date.UTC(),
		Description:  strings.TrimSpace(req.Description),
		Category:     category.Name,
		CategoryIcon: category.Icon,
		CreatedAt:    s.now().UTC(),
	}
	if err = s.storage.CreateTransaction(ctx, t); err != nil {
		return ledger.Transaction{}, errors.Wrap(err, "create transaction")
	}

	logger.Info("transaction created",
		zap.String("userID", id.ID),
		zap.String("transactionID", t.ID.String()),
		zap.String("type", string(t.Kind)),
		zap.String("amount", t.Amount.String()))

	s.notify(ctx, ledger.Change{UserID: id.ID, Kind: ledger.ChangeCreated, TransactionID: t.ID, At: t.CreatedAt})
	return t, nil
}

// DeleteTransaction removes a transaction and subtracts it from both aggregates.
func (s *Service) DeleteTransaction(ctx context.Context, id user.Identity, transactionID uuid.UUID) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "deleteTransaction")
	defer span.Finish()
	defer func() {
		observeWrite("delete", err)
		if err != nil {
			ext.Error.Set(span, true)
		}
	}()

	if !id.Valid() {
		return &customerr.UnauthenticatedError{}
	}

	deleted, err := s.storage.DeleteTransaction(ctx, id.ID, transactionID)
	if err != nil {
		return errors.Wrap(err, "delete transaction")
	}

	logger.Info("transaction deleted",
		zap.String("userID", id.ID),
		zap.String("transactionID", transactionID.String()),
		zap.String("amount", deleted.Amount.String()))

	s.notify(ctx, ledger.Change{UserID: id.ID, Kind: ledger.ChangeDeleted, TransactionID: transactionID, At: s.now().UTC()})
	return nil
}

// notify runs after commit, so a failure here is logged and not returned.
func (s *Service) notify(ctx context.Context, change ledger.Change) {
	if err := s.notifier.TransactionsChanged(ctx, change); err != nil {
		logger.Error("failed to signal ledger change",
			zap.String("userID", change.UserID),
			zap.String("kind", string(change.Kind)),
			zap.Error(err))
	}
}

func validateNewTransaction(req ledger.NewTransaction) error {
	if req.Amount.IsNegative() {
		return customerr.Validation("amount must not be negative")
	}
	if !ledger.AmountFits(req.Amount) {
		return customerr.Validation("amount must be below %s with at most %d decimal places",
			ledger.MaxAmount, ledger.AmountScale)
	}
	if !req.Kind.Valid() {
		return customerr.Validation("unknown transaction type %q", req.Kind)
	}
	if req.Date.IsZero() {
		return customerr.Validation("date is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return customerr.Validation("category is required")
	}
	return nil
}
