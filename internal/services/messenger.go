package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// ErrNoChannel means the user opted out of external delivery; the in-app
// notification is all they get.
var ErrNoChannel = errors.New("no delivery channel")

// Messenger delivers a message to a user over whatever channel they prefer
type Messenger interface {
	Send(ctx context.Context, userID uint, subject, body string) error
}

type WhatsappSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ChannelMessenger looks up the user's notification preference and hands the
// message to the matching transport. Unconfigured transports are nil.
type ChannelMessenger struct {
	users    store.UserStore
	email    EmailSender
	whatsapp WhatsappSender
	telegram TelegramSender
	log      *slog.Logger
}

func NewChannelMessenger(users store.UserStore, email EmailSender, whatsapp WhatsappSender, telegram TelegramSender, log *slog.Logger) *ChannelMessenger {
	return &ChannelMessenger{
		users:    users,
		email:    email,
		whatsapp: whatsapp,
		telegram: telegram,
		log:      log,
	}
}

func (m *ChannelMessenger) preference(ctx context.Context, userID uint) (models.UserNotifPreference, error) {
	pref, err := m.users.GetNotifPreference(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultNotifPreference(userID), nil
	}
	if err != nil {
		return models.UserNotifPreference{}, err
	}
	return *pref, nil
}

func (m *ChannelMessenger) Send(ctx context.Context, userID uint, subject, body string) error {
	user, err := m.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	pref, err := m.preference(ctx, userID)
	if err != nil {
		return fmt.Errorf("load preference for user %d: %w", userID, err)
	}

	m.log.Debug("dispatching message", "user_id", userID, "channel", pref.Channel)

	switch pref.Channel {
	case models.NotificationChannelEmail, "":
		if m.email == nil {
			return fmt.Errorf("email transport not configured")
		}
		return m.email.SendEmail(ctx, []string{user.Email}, subject, body)
	case models.NotificationChannelWhatsapp:
		if m.whatsapp == nil {
			return fmt.Errorf("whatsapp transport not configured")
		}
		chatID := user.Phone
		if pref.WhatsappTargetType == models.WhatsappTargetTypeGroup {
			chatID = GroupChatID(pref.WhatsappGroupID)
		}
		if chatID == "" {
			return fmt.Errorf("no whatsapp target for user %d", userID)
		}
		return m.whatsapp.SendMessage(ctx, chatID, formatChatMessage(subject, body))
	case models.NotificationChannelTelegram:
		if m.telegram == nil {
			return fmt.Errorf("telegram transport not configured")
		}
		return m.telegram.SendMessage(ctx, pref.TelegramChatID, formatChatMessage(subject, body))
	case models.NotificationChannelNone:
		return ErrNoChannel
	default:
		return fmt.Errorf("unsupported notification channel %q", pref.Channel)
	}
}

func formatChatMessage(subject, body string) string {
	if subject == "" {
		return body
	}
	return "*" + subject + "*\n\n" + body
}
