package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/logger"
	"gymtrack_app_echo/internal/models"
)

func TestRegisterVerifyLogin(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	st := newTestStore(c)
	mail := &fakeEmail{}
	svc := NewUserService(st, mail, c, "https://gym.example.com/", logger.Discard())
	ctx := context.Background()

	admin, err := svc.Register(ctx, RegisterInput{Name: "Owner", Email: "Owner@Example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("Register owner: %v", err)
	}
	if admin.Role != models.UserRoleAdmin || !admin.EmailVerified {
		t.Errorf("first user = role %s verified %v; want verified admin", admin.Role, admin.EmailVerified)
	}
	if len(mail.sent) != 0 {
		t.Errorf("owner got %d emails; want none", len(mail.sent))
	}

	member, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatalf("Register member: %v", err)
	}
	if member.Role != models.UserRoleMember || member.EmailVerified {
		t.Errorf("second user = role %s verified %v; want unverified member", member.Role, member.EmailVerified)
	}
	if len(mail.sent) != 1 || !strings.Contains(mail.sent[0].Body, "https://gym.example.com/verify/"+*member.VerificationToken) {
		t.Fatalf("verification email missing link: %+v", mail.sent)
	}

	if _, err := svc.Login(ctx, "ann@example.com", "supersecret"); !errors.Is(err, ErrEmailNotVerified) {
		t.Errorf("login before verify: err = %v; want ErrEmailNotVerified", err)
	}

	if _, err := svc.Verify(ctx, *member.VerificationToken); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, err := svc.Login(ctx, "ANN@example.com ", "supersecret"); err != nil {
		t.Errorf("login after verify: %v", err)
	}
	if _, err := svc.Login(ctx, "ann@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v; want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v; want ErrInvalidCredentials", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "supersecret"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("re-register verified: err = %v; want ErrDuplicate", err)
	}

	if _, err := svc.SetActive(ctx, member.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, "ann@example.com", "supersecret"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("deactivated login: err = %v; want ErrUserInactive", err)
	}
}

func TestVerifyExpiredAndResend(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	st := newTestStore(c)
	seedUser(t, st, "owner")
	mail := &fakeEmail{}
	svc := NewUserService(st, mail, c, "http://localhost:8080", logger.Discard())
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatal(err)
	}
	oldToken := *u.VerificationToken

	c.Advance(VerificationTTL + time.Minute)
	if _, err := svc.Verify(ctx, oldToken); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: err = %v; want ErrTokenExpired", err)
	}

	again, err := svc.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "newsecret1"})
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if again.ID != u.ID || *again.VerificationToken == oldToken {
		t.Fatalf("re-register did not refresh the pending account")
	}
	if len(mail.sent) != 2 {
		t.Errorf("emails sent = %d; want 2", len(mail.sent))
	}
	if _, err := svc.Verify(ctx, *again.VerificationToken); err != nil {
		t.Errorf("fresh token: %v", err)
	}
	if _, err := svc.Login(ctx, "ann@example.com", "newsecret1"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	svc := NewUserService(newTestStore(c), nil, c, "", logger.Discard())

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "longenough"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v; want ErrInvalidInput", err)
			}
		})
	}
}

func TestSavePreference(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	st := newTestStore(c)
	u := seedUser(t, st, "ann")
	svc := NewUserService(st, nil, c, "", logger.Discard())
	ctx := context.Background()

	pref, err := svc.Preference(ctx, u.ID)
	if err != nil || pref.Channel != models.NotificationChannelEmail {
		t.Fatalf("default preference = %+v, %v", pref, err)
	}

	tests := []struct {
		name string
		in   PreferenceInput
		want error
	}{
		{"whatsapp personal", PreferenceInput{Channel: models.NotificationChannelWhatsapp}, nil},
		{"whatsapp group without id", PreferenceInput{Channel: models.NotificationChannelWhatsapp, WhatsappTargetType: models.WhatsappTargetTypeGroup}, ErrInvalidInput},
		{"telegram without chat", PreferenceInput{Channel: models.NotificationChannelTelegram}, ErrInvalidInput},
		{"telegram", PreferenceInput{Channel: models.NotificationChannelTelegram, TelegramChatID: 42}, nil},
		{"unknown", PreferenceInput{Channel: "pigeon"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SavePreference(ctx, u.ID, tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v; want %v", err, tt.want)
			}
		})
	}

	pref, _ = svc.Preference(ctx, u.ID)
	if pref.Channel != models.NotificationChannelTelegram || pref.TelegramChatID != 42 {
		t.Errorf("saved preference = %+v", pref)
	}
}

func TestSetActive(t *testing.T) {
	c := clock.NewFixed(day(2024, 3, 10, 9, 0))
	st := newTestStore(c)
	svc := NewUserService(st, nil, c, "https://gym.example.com", logger.Discard())
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Name: "Owner", Email: "owner@example.com", Password: "supersecret"})
	if err != nil {
		t.Fatal(err)
	}
	owner, err := svc.SetActive(ctx, registered.ID, false)
	if err != nil {
		t.Fatalf("SetActive(false): %v", err)
	}
	if owner.IsActive {
		t.Fatal("user should be inactive")
	}
	if _, err := svc.Login(ctx, "owner@example.com", "supersecret"); !errors.Is(err, ErrUserInactive) {
		t.Errorf("Login while inactive: error = %v; want ErrUserInactive", err)
	}

	if _, err := svc.SetActive(ctx, owner.ID, true); err != nil {
		t.Fatalf("SetActive(true): %v", err)
	}
	if _, err := svc.Login(ctx, "owner@example.com", "supersecret"); err != nil {
		t.Errorf("Login after reactivation: %v", err)
	}
	if _, err := svc.SetActive(ctx, 999, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive unknown user: error = %v; want ErrNotFound", err)
	}
}
