package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymtrack_app_echo/internal/auth"
	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

// VerificationTTL is how long an email verification link stays valid
const VerificationTTL = 24 * time.Hour

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func (in *RegisterInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	}
	if !auth.ValidPassword(in.Password) {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, auth.MinPasswordLength)
	}
	return nil
}

type PreferenceInput struct {
	Channel            models.NotificationChannel
	WhatsappTargetType string
	WhatsappGroupID    string
	TelegramChatID     int64
}

// UserService covers accounts: registration, verification, login and settings
type UserService struct {
	store  store.UserStore
	email  EmailSender
	clock  clock.Clock
	appURL string
	log    *slog.Logger
}

func NewUserService(s store.UserStore, email EmailSender, c clock.Clock, appURL string, log *slog.Logger) *UserService {
	return &UserService{store: s, email: email, clock: c, appURL: strings.TrimRight(appURL, "/"), log: log}
}

// Register creates an unverified account and mails a verification link.
// Registering again with an unverified email refreshes the pending account
// and sends a new link. The first account of an empty database becomes an
// already verified admin.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.store.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil && existing.EmailVerified:
		return nil, ErrDuplicate
	case err == nil:
		existing.Name = in.Name
		existing.Phone = in.Phone
		existing.PasswordHash = hash
		s.armVerification(existing)
		if err := s.store.UpdateUser(ctx, existing); err != nil {
			return nil, translate(err)
		}
		s.sendVerification(ctx, existing)
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         models.UserRoleMember,
		IsActive:     true,
	}
	if count == 0 {
		user.Role = models.UserRoleAdmin
		user.EmailVerified = true
	} else {
		s.armVerification(user)
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, translate(err)
	}
	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)

	if !user.EmailVerified {
		s.sendVerification(ctx, user)
	}
	return user, nil
}

func (s *UserService) armVerification(u *models.User) {
	token := uuid.NewString()
	expires := s.clock.Now().Add(VerificationTTL)
	u.VerificationToken = &token
	u.VerificationExpiresAt = &expires
}

func (s *UserService) sendVerification(ctx context.Context, u *models.User) {
	if s.email == nil || u.VerificationToken == nil {
		return
	}
	link := fmt.Sprintf("%s/verify/%s", s.appURL, *u.VerificationToken)
	body := fmt.Sprintf("Hi %s,\n\nConfirm your email address to activate your gym account:\n%s\n\nThe link expires in 24 hours.", u.Name, link)
	if err := s.email.SendEmail(ctx, []string{u.Email}, "Confirm your email", body); err != nil {
		s.log.Warn("verification email failed", "user_id", u.ID, "err", err)
	}
}

// Verify marks the email behind the token as confirmed
func (s *UserService) Verify(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNotFound
	}
	user, err := s.store.GetUserByVerificationToken(ctx, token)
	if err != nil {
		return nil, translate(err)
	}
	if user.VerificationExpiresAt != nil && s.clock.Now().After(*user.VerificationExpiresAt) {
		return nil, ErrTokenExpired
	}
	user.EmailVerified = true
	user.VerificationToken = nil
	user.VerificationExpiresAt = nil
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// Login checks credentials and account state
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	return user, translate(err)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// SetActive deactivates or reactivates an account. Deactivated users cannot
// log in and receive no reminders.
func (s *UserService) SetActive(ctx context.Context, id uint, active bool) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	user.IsActive = active
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, translate(err)
	}
	s.log.Info("user active flag changed", "user_id", id, "active", active)
	return user, nil
}

// Preference returns the saved notification preference or the default one
func (s *UserService) Preference(ctx context.Context, userID uint) (models.UserNotifPreference, error) {
	pref, err := s.store.GetNotifPreference(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultNotifPreference(userID), nil
	}
	if err != nil {
		return models.UserNotifPreference{}, err
	}
	return *pref, nil
}

func (s *UserService) SavePreference(ctx context.Context, userID uint, in PreferenceInput) (models.UserNotifPreference, error) {
	switch in.Channel {
	case models.NotificationChannelEmail, models.NotificationChannelWhatsapp,
		models.NotificationChannelTelegram, models.NotificationChannelNone:
	default:
		return models.UserNotifPreference{}, fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, in.Channel)
	}
	if in.WhatsappTargetType == "" {
		in.WhatsappTargetType = models.WhatsappTargetTypePersonal
	}
	if in.WhatsappTargetType != models.WhatsappTargetTypePersonal && in.WhatsappTargetType != models.WhatsappTargetTypeGroup {
		return models.UserNotifPreference{}, fmt.Errorf("%w: unknown whatsapp target %q", ErrInvalidInput, in.WhatsappTargetType)
	}
	if in.Channel == models.NotificationChannelWhatsapp && in.WhatsappTargetType == models.WhatsappTargetTypeGroup && strings.TrimSpace(in.WhatsappGroupID) == "" {
		return models.UserNotifPreference{}, fmt.Errorf("%w: group id is required for group delivery", ErrInvalidInput)
	}
	if in.Channel == models.NotificationChannelTelegram && in.TelegramChatID == 0 {
		return models.UserNotifPreference{}, fmt.Errorf("%w: telegram chat id is required", ErrInvalidInput)
	}

	pref, err := s.Preference(ctx, userID)
	if err != nil {
		return models.UserNotifPreference{}, err
	}
	pref.Channel = in.Channel
	pref.WhatsappTargetType = in.WhatsappTargetType
	pref.WhatsappGroupID = strings.TrimSpace(in.WhatsappGroupID)
	pref.TelegramChatID = in.TelegramChatID
	if err := s.store.SaveNotifPreference(ctx, &pref); err != nil {
		return models.UserNotifPreference{}, err
	}
	return pref, nil
}
