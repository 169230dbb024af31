package messages

import (
	"context"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"max.ks1230/budget-tracker/internal/entity/user"
)

//go:generate minimock -i messageSender -o ./mock/ -s _mock.go

const telegramIDPrefix = "tg:"

type messageSender interface {
	SendMessage(text string, userID int64) error
}

type MessageHandler interface {
	HandleMessage(ctx context.Context, text string, id user.Identity) (string, error)
}

type Service struct {
	tgClient messageSender
	handler  MessageHandler
}

func NewService(tgClient messageSender, ledger ledgerService, reporter reportGenerator) *Service {
	return &Service{
		tgClient: tgClient,
		handler:  newHandler(ledger, reporter),
	}
}

type Message struct {
	Text   string
	UserID int64
}

// Identity maps a telegram account onto a ledger owner.
func Identity(telegramID int64) user.Identity {
	return user.Identity{ID: telegramIDPrefix + strconv.FormatInt(telegramID, 10)}
}

func (s *Service) HandleIncomingMessage(ctx context.Context, msg Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "handleMessage")
	defer span.Finish()

	start := time.Now()
	err := s.handle(ctx, msg)
	elapsed := time.Since(start)

	observeResponse(elapsed, err != nil)
	if err != nil {
		ext.Error.Set(span, true)
	}
	return err
}

func (s *Service) handle(ctx context.Context, msg Message) error {
	resp, err := s.handler.HandleMessage(ctx, msg.Text, Identity(msg.UserID))
	if err != nil {
		_ = s.tgClient.SendMessage(sorryMessage+"\n"+resp, msg.UserID)
		return err
	}
	return s.tgClient.SendMessage(resp, msg.UserID)
}
