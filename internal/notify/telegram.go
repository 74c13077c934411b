package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"careercraft/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the part of *tgbotapi.BotAPI the sender needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts operations notices to a fixed set of chats.
// Message.To is ignored.
type TelegramSender struct {
	bot     BotAPI
	chatIDs []int64
}

func NewTelegramSender(bot BotAPI, chatIDs []int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatIDs: chatIDs}
}

// NewTelegramBot logs in with the token.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func (s *TelegramSender) Send(ctx context.Context, msg domain.Message) (string, error) {
	if len(s.chatIDs) == 0 {
		return "", errors.New("telegram: no chat ids configured")
	}

	text := msg.Text
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + msg.Text
	}

	var (
		lastID int
		errs   []error
	)
	for _, chatID := range s.chatIDs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		sent, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
		if err != nil {
			errs = append(errs, fmt.Errorf("telegram chat %d: %w", chatID, err))
			continue
		}
		lastID = sent.MessageID
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return strconv.Itoa(lastID), nil
}
