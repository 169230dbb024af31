package messages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gojuno/minimock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/model/budget"
	"max.ks1230/budget-tracker/internal/model/messages/mock"
	"max.ks1230/budget-tracker/internal/model/reports"
	"max.ks1230/budget-tracker/internal/model/storage"
)

const chatUser = int64(123)

type testConfig struct{}

func (testConfig) DefaultCurrency() string { return "USD" }

func newTestModel(t *testing.T) (*Service, *mock.MessageSenderMock, *budget.Service) {
	m := minimock.NewController(t)
	t.Cleanup(m.Finish)

	sender := mock.NewMessageSenderMock(m)
	svc := budget.NewService(testConfig{}, storage.NewInMemStorage(), nil, nil)
	return NewService(sender, svc, reports.NewGenerator(testConfig{}, svc)), sender, svc
}

func send(t *testing.T, model *Service, text string) {
	err := model.HandleIncomingMessage(context.Background(), Message{Text: text, UserID: chatUser})
	require.NoError(t, err)
}

func Test_OnStartCommand_ShouldAnswerWithIntroMessage(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(helloMessage+"\n\n"+helpMessage, chatUser).
		Return(nil)

	send(t, model, "/start")
}

func Test_OnUnknownCommand_ShouldAnswerWithHelpMessage(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(dontUnderstandMessage, chatUser).
		Return(nil)

	send(t, model, "/none")
}

func Test_OnPlainText_ShouldAnswerPolitely(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(loveToTalkMessage, chatUser).
		Return(nil)

	send(t, model, "how are you")
}

func Test_OnExpenseWithoutCategory_ShouldSuggestCreatingIt(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(`There is no category "Food". Add it with /category`, chatUser).
		Return(nil)

	send(t, model, "/expense Food 12.50")
}

func Test_OnExpenseWithBadAmount_ShouldRejectIt(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(incorrectAmountMessage, chatUser).
		Return(nil)

	send(t, model, "/expense Food -5")
}

func Test_OnExpenseWithBadDate_ShouldRejectIt(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(incorrectDateMessage, chatUser).
		Return(nil)

	send(t, model, "/expense Food 5 2024-03-01")
}

func Test_OnCategoryThenIncome_ShouldRecordTransactionForTelegramUser(t *testing.T) {
	model, sender, svc := newTestModel(t)

	sender.SendMessageMock.
		Expect(okMessage, chatUser).
		Return(nil)

	send(t, model, "/category income Salary 💰")
	send(t, model, "/income Salary 1000,50 15.03.2024 march bonus")

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	history, err := svc.GetTransactionHistory(context.Background(), Identity(chatUser), from, to)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "1000.5", history[0].Amount.String())
	assert.Equal(t, ledger.Income, history[0].Kind)
	assert.Equal(t, "💰", history[0].CategoryIcon)
	assert.Equal(t, "march bonus", history[0].Description)
	assert.Equal(t, "tg:123", history[0].UserID)
}

func Test_OnDuplicateCategory_ShouldSayItExists(t *testing.T) {
	model, sender, _ := newTestModel(t)

	replies := make([]string, 0, 2)
	sender.SendMessageMock.Set(func(text string, _ int64) error {
		replies = append(replies, text)
		return nil
	})

	send(t, model, "/category expense Food")
	send(t, model, "/category expense Food")

	assert.Equal(t, []string{okMessage, `Category "Food" already exists`}, replies)
}

func Test_OnCategoryList_ShouldShowUsersCategories(t *testing.T) {
	model, sender, svc := newTestModel(t)

	_, err := svc.CreateCategory(context.Background(), Identity(chatUser), "Food", "🍕", ledger.Expense)
	require.NoError(t, err)

	sender.SendMessageMock.
		Expect("🍕 Food (expense)", chatUser).
		Return(nil)

	send(t, model, "/category")
}

func Test_OnBalanceWithoutTransactions_ShouldSayNothingRecorded(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(noTransactionsMessage, chatUser).
		Return(nil)

	send(t, model, "/balance week")
}

func Test_OnBalanceWithUnknownPeriod_ShouldListPeriods(t *testing.T) {
	model, sender, _ := newTestModel(t)

	sender.SendMessageMock.
		Expect(incorrectPeriodMessage+"month, week, year", chatUser).
		Return(nil)

	send(t, model, "/balance decade")
}

func Test_OnBalance_ShouldReportCurrentMonth(t *testing.T) {
	model, sender, svc := newTestModel(t)
	ctx := context.Background()
	id := Identity(chatUser)

	_, err := svc.CreateCategory(ctx, id, "Food", "🍕", ledger.Expense)
	require.NoError(t, err)

	var reply string
	sender.SendMessageMock.Set(func(text string, _ int64) error {
		reply = text
		return nil
	})

	send(t, model, "/expense Food 42")
	send(t, model, "/balance")

	assert.True(t, strings.HasPrefix(reply, "🍕 Food: "), reply)
	assert.Contains(t, reply, "Expense: ")
}

func Test_OnCurrency_ShouldShowAndUpdateSettings(t *testing.T) {
	model, sender, svc := newTestModel(t)

	replies := make([]string, 0, 3)
	sender.SendMessageMock.Set(func(text string, _ int64) error {
		replies = append(replies, text)
		return nil
	})

	send(t, model, "/currency")
	send(t, model, "/currency eur")
	send(t, model, "/currency XYZ")

	require.Len(t, replies, 3)
	assert.True(t, strings.HasPrefix(replies[0], "Your currency is USD"))
	assert.Equal(t, okMessage, replies[1])
	assert.True(t, strings.HasPrefix(replies[2], unknownCurrencyMessage))

	settings, err := svc.GetSettings(context.Background(), Identity(chatUser))
	require.NoError(t, err)
	assert.Equal(t, "EUR", settings.Currency)
}

func Test_OnParseCommand_ShouldStripBotMention(t *testing.T) {
	cmd, arg := parseCommand("/balance@budget_bot  year ")
	assert.Equal(t, "/balance", cmd)
	assert.Equal(t, "year", arg)
}
