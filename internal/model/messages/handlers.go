package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"max.ks1230/budget-tracker/internal/entity/currency"
	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/entity/user"
	"max.ks1230/budget-tracker/internal/model/customerr"
	"max.ks1230/budget-tracker/internal/model/reports"
)

const (
	dontUnderstandMessage = "I don't understand you :("
	helloMessage          = "Hello! I am your budget tracker bot 🤖"
	loveToTalkMessage     = "I would love to talk about it more!"
	okMessage             = "Gotcha!"
	sorryMessage          = "Sorry, something wrong happened..."
	noTransactionsMessage = "You have no transactions in this period yet"
	noCategoriesMessage   = "You have no categories yet. Add one with /category"

	helpMessage = "/income <category> <amount> [dd.mm.yyyy]\n" +
		"/expense <category> <amount> [dd.mm.yyyy]\n" +
		"/category <income|expense> <name> [icon]\n" +
		"/balance [week|month|year]\n" +
		"/currency [code]"

	incorrectUsageMessage    = "That is an incorrect command usage"
	incorrectAmountMessage   = "Your amount is incorrect"
	incorrectDateMessage     = "The date is incorrect. Should be dd.mm.yyyy"
	incorrectKindMessage     = "Category type should be income or expense"
	incorrectPeriodMessage   = "Period should be one of: "
	unknownCurrencyMessage   = "Supported currencies: "
	categoryNotFoundMessage  = "There is no category %q. Add it with /category"
	categoryExistsMessage    = "Category %q already exists"
	cannotSaveMessage        = "Can't save it atm. Try later"
	cannotGetBalanceMessage  = "Can't get your balance atm. Try later"
	cannotGetSettingsMessage = "Can't get your settings atm. Try later"
)

const (
	startCommand    = "/start"
	helpCommand     = "/help"
	incomeCommand   = "/income"
	expenseCommand  = "/expense"
	categoryCommand = "/category"
	balanceCommand  = "/balance"
	currencyCommand = "/currency"
)

type ledgerService interface {
	CreateTransaction(ctx context.Context, id user.Identity, req ledger.NewTransaction) (ledger.Transaction, error)
	ListCategories(ctx context.Context, id user.Identity, kind *ledger.Kind) ([]ledger.Category, error)
	CreateCategory(ctx context.Context, id user.Identity, name, icon string, kind ledger.Kind) (ledger.Category, error)
	GetSettings(ctx context.Context, id user.Identity) (user.Settings, error)
	UpdateCurrency(ctx context.Context, id user.Identity, code string) (user.Settings, error)
}

type reportGenerator interface {
	GenerateReport(ctx context.Context, id user.Identity, period string) (reports.Report, error)
}

type handler func(ctx context.Context, arg string, id user.Identity) (string, error)

type handlerMap map[string]handler

type HandlerService struct {
	handlersMap handlerMap
	ledger      ledgerService
	reporter    reportGenerator
	now         func() time.Time
}

func newHandler(ledger ledgerService, reporter reportGenerator) *HandlerService {
	res := &HandlerService{
		ledger:   ledger,
		reporter: reporter,
		now:      time.Now,
	}
	res.handlersMap = newMap(res)
	return res
}

func newMap(s *HandlerService) handlerMap {
	m := make(handlerMap)
	m[startCommand] = s.handleStart
	m[helpCommand] = s.handleHelp
	m[incomeCommand] = s.transactionHandler(ledger.Income)
	m[expenseCommand] = s.transactionHandler(ledger.Expense)
	m[categoryCommand] = s.handleCategory
	m[balanceCommand] = s.handleBalance
	m[currencyCommand] = s.handleCurrency

	m[""] = s.handleNoCommand

	return m
}

func (s *HandlerService) HandleMessage(ctx context.Context, text string, id user.Identity) (string, error) {
	cmd, arg := parseCommand(text)

	h, ok := s.handlersMap[cmd]
	if !ok {
		return dontUnderstandMessage, nil
	}
	observeCommand(cmd)
	return h(ctx, arg, id)
}

func (s *HandlerService) handleStart(_ context.Context, _ string, _ user.Identity) (string, error) {
	return helloMessage + "\n\n" + helpMessage, nil
}

func (s *HandlerService) handleHelp(_ context.Context, _ string, _ user.Identity) (string, error) {
	return helpMessage, nil
}

func (s *HandlerService) handleNoCommand(_ context.Context, _ string, _ user.Identity) (string, error) {
	return loveToTalkMessage, nil
}

func (s *HandlerService) transactionHandler(kind ledger.Kind) handler {
	return func(ctx context.Context, arg string, id user.Identity) (string, error) {
		args := strings.Fields(arg)
		if len(args) < 2 {
			return incorrectUsageMessage, nil
		}
		amount, ok := parseAmount(args[1])
		if !ok {
			return incorrectAmountMessage, nil
		}
		date := s.now().UTC()
		if len(args) > 2 {
			if date, ok = parseDate(args[2]); !ok {
				return incorrectDateMessage, nil
			}
		}

		_, err := s.ledger.CreateTransaction(ctx, id, ledger.NewTransaction{
			Amount:      amount,
			Kind:        kind,
			Date:        date,
			Category:    args[0],
			Description: strings.Join(args[min(3, len(args)):], " "),
		})
		switch {
		case err == nil:
			return okMessage, nil
		case customerr.IsNotFound(err):
			return fmt.Sprintf(categoryNotFoundMessage, args[0]), nil
		case customerr.IsValidation(err):
			return err.Error(), nil
		default:
			return cannotSaveMessage, errors.Wrap(err, "handle "+string(kind))
		}
	}
}

func (s *HandlerService) handleCategory(ctx context.Context, arg string, id user.Identity) (string, error) {
	args := strings.Fields(arg)
	if len(args) == 0 {
		return s.listCategories(ctx, id)
	}
	if len(args) < 2 {
		return incorrectUsageMessage, nil
	}
	kind, ok := ledger.ParseKind(args[0])
	if !ok {
		return incorrectKindMessage, nil
	}
	icon := ""
	if len(args) > 2 {
		icon = args[2]
	}

	_, err := s.ledger.CreateCategory(ctx, id, args[1], icon, kind)
	switch {
	case err == nil:
		return okMessage, nil
	case customerr.IsConflict(err):
		return fmt.Sprintf(categoryExistsMessage, args[1]), nil
	case customerr.IsValidation(err):
		return err.Error(), nil
	default:
		return cannotSaveMessage, errors.Wrap(err, "handle category")
	}
}

func (s *HandlerService) listCategories(ctx context.Context, id user.Identity) (string, error) {
	cats, err := s.ledger.ListCategories(ctx, id, nil)
	if err != nil {
		return cannotGetSettingsMessage, errors.Wrap(err, "list categories")
	}
	if len(cats) == 0 {
		return noCategoriesMessage, nil
	}
	res := make([]string, 0, len(cats))
	for _, c := range cats {
		res = append(res, strings.TrimSpace(fmt.Sprintf("%s %s (%s)", c.Icon, c.Name, c.Kind)))
	}
	return strings.Join(res, "\n"), nil
}

func (s *HandlerService) handleBalance(ctx context.Context, arg string, id user.Identity) (string, error) {
	period := strings.TrimSpace(arg)
	if period == "" {
		period = reports.PeriodMonth
	}

	report, err := s.reporter.GenerateReport(ctx, id, period)
	switch {
	case customerr.IsValidation(err):
		return incorrectPeriodMessage + strings.Join(reports.ReportPeriods(), ", "), nil
	case err != nil:
		return cannotGetBalanceMessage, errors.Wrap(err, "handle balance")
	case report.IsEmpty():
		return noTransactionsMessage, nil
	}
	return reports.Format(report), nil
}

func (s *HandlerService) handleCurrency(ctx context.Context, arg string, id user.Identity) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(arg))
	if code == "" {
		settings, err := s.ledger.GetSettings(ctx, id)
		if err != nil {
			return cannotGetSettingsMessage, errors.Wrap(err, "handle currency")
		}
		return fmt.Sprintf("Your currency is %s\n%s%s",
			settings.Currency, unknownCurrencyMessage, strings.Join(currency.Codes(), ", ")), nil
	}

	_, err := s.ledger.UpdateCurrency(ctx, id, code)
	switch {
	case err == nil:
		return okMessage, nil
	case customerr.IsValidation(err):
		return unknownCurrencyMessage + strings.Join(currency.Codes(), ", "), nil
	default:
		return cannotSaveMessage, errors.Wrap(err, "handle currency")
	}
}
