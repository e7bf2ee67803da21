package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gymtrack_app_echo/internal/auth"
	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

func TestMain(m *testing.M) {
	auth.HashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func day(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func newTestStore(c clock.Clock) *store.MemoryStore {
	st := store.NewMemoryStore()
	st.SetNow(c.Now)
	return st
}

func seedUser(t *testing.T, st store.Store, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:          name,
		Email:         name + "@example.com",
		Phone:         "0812000" + name,
		Role:          models.UserRoleMember,
		IsActive:      true,
		EmailVerified: true,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func seedPlan(t *testing.T, st store.Store, name string, days int) *models.MembershipPlan {
	t.Helper()
	p := &models.MembershipPlan{Name: name, DurationDays: days, Price: 25}
	if err := st.CreatePlan(context.Background(), p); err != nil {
		t.Fatalf("seed plan %s: %v", name, err)
	}
	return p
}

func seedMembership(t *testing.T, st store.Store, userID, planID uint, start, end time.Time, status models.MembershipStatus) *models.Membership {
	t.Helper()
	m := &models.Membership{
		UserID:    userID,
		PlanID:    planID,
		StartDate: clock.Today(start),
		EndDate:   clock.Today(end),
		Status:    status,
	}
	if err := st.CreateMembership(context.Background(), m); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return m
}

type sentMessage struct {
	UserID  uint
	Subject string
	Body    string
}

// fakeMessenger records messages and fails with err when set
type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, userID uint, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{UserID: userID, Subject: subject, Body: body})
	return f.err
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type sentEmail struct {
	To      []string
	Subject string
	Body    string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to []string, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: body})
	return f.err
}
