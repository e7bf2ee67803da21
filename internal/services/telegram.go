package services

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService pushes plain messages to a chat through the Bot API
type TelegramService struct {
	api *tgbotapi.BotAPI
}

func NewTelegramService(token string) (*TelegramService, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramService{api: api}, nil
}

func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chatID == 0 {
		return fmt.Errorf("telegram chat id not set")
	}
	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
