package tg

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/messages"
)

const (
	defaultUpdateOffset = 0
	updateTimeout       = 60
	handleTimeout       = 5 * time.Second

	// maxMessageRunes is the Bot API limit for one text message.
	maxMessageRunes = 4096
)

type tokenGetter interface {
	Token() string
}

type messageHandler interface {
	HandleIncomingMessage(ctx context.Context, msg messages.Message) error
}

// bot is the part of *tgbotapi.BotAPI the client talks to.
type bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Client struct {
	bot bot
}

func New(tokenGetter tokenGetter) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(tokenGetter.Token())
	if err != nil {
		return nil, errors.Wrap(err, "cannot NewBotApi")
	}
	logger.Info("authorized on telegram", zap.String("bot", api.Self.UserName))
	return &Client{bot: api}, nil
}

// SendMessage delivers text to the user. Reports can outgrow the Bot API limit,
// so long texts go out as several messages cut at line breaks.
func (c *Client) SendMessage(text string, userID int64) error {
	for _, part := range splitMessage(text, maxMessageRunes) {
		if _, err := c.bot.Send(tgbotapi.NewMessage(userID, part)); err != nil {
			return errors.Wrap(err, "client.Send")
		}
	}
	return nil
}

// ListenUpdates feeds incoming messages to the handler until ctx is done or the
// updates channel is closed.
func (c *Client) ListenUpdates(ctx context.Context, handler messageHandler) {
	u := tgbotapi.NewUpdate(defaultUpdateOffset)
	u.Timeout = updateTimeout

	updates := c.bot.GetUpdatesChan(u)

	logger.Info("Start listening for messages")
	defer logger.Info("Stop listening for messages")

	for {
		select {
		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.handleUpdate(ctx, update, handler)
		}
	}
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update, handler messageHandler) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	// message text carries amounts, so only the command is logged
	logger.Info("incoming message",
		zap.Int64("telegramID", msg.From.ID),
		zap.String("command", msg.Command()))

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	err := handler.HandleIncomingMessage(ctx, messages.Message{
		Text:   msg.Text,
		UserID: msg.From.ID,
	})
	if err != nil {
		logger.Error("error processing message", zap.Int64("telegramID", msg.From.ID), zap.Error(err))
	}
}

func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentRunes := 0
	flush := func() {
		if currentRunes > 0 {
			parts = append(parts, current.String())
			current.Reset()
			currentRunes = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		for utf8.RuneCountInString(line) > limit {
			flush()
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
		}
		n := utf8.RuneCountInString(line)
		if currentRunes+n > limit {
			flush()
		}
		current.WriteString(line)
		currentRunes += n
	}
	flush()
	return parts
}
