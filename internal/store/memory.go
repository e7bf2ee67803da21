package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"gymtrack_app_echo/internal/models"
)

// MemoryStore is a map-backed Store. Dates are compared by calendar day the
// same way the DATE columns compare them.
type MemoryStore struct {
	mu sync.RWMutex

	nextID        uint
	users         map[uint]models.User
	prefs         map[uint]models.UserNotifPreference // keyed by user id
	plans         map[uint]models.MembershipPlan
	memberships   map[uint]models.Membership
	attendance    map[uint]models.AttendanceEntry
	health        map[uint]models.HealthMetric
	notifications map[uint]models.Notification
	jobRuns       map[uint]models.JobRun

	// now stamps CreatedAt/UpdatedAt; tests swap it for a fixed clock
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[uint]models.User),
		prefs:         make(map[uint]models.UserNotifPreference),
		plans:         make(map[uint]models.MembershipPlan),
		memberships:   make(map[uint]models.Membership),
		attendance:    make(map[uint]models.AttendanceEntry),
		health:        make(map[uint]models.HealthMetric),
		notifications: make(map[uint]models.Notification),
		jobRuns:       make(map[uint]models.JobRun),
		now:           time.Now,
	}
}

// SetNow replaces the timestamp source used for CreatedAt/UpdatedAt
func (s *MemoryStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) id() uint {
	s.nextID++
	return s.nextID
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// --- users ---

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
		if user.VerificationToken != nil && u.VerificationToken != nil && *u.VerificationToken == *user.VerificationToken {
			return ErrDuplicate
		}
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	for id, u := range s.users {
		if id != user.ID && strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	user.UpdatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CountUsers(ctx context.Context) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) ListActiveMembers(ctx context.Context) ([]models.User, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.Role == models.UserRoleMember && u.IsActive {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetNotifPreference(ctx context.Context, userID uint) (*models.UserNotifPreference, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) SaveNotifPreference(ctx context.Context, pref *models.UserNotifPreference) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.prefs[pref.UserID]; ok {
		pref.ID = existing.ID
		pref.CreatedAt = existing.CreatedAt
	} else {
		pref.ID = s.id()
		pref.CreatedAt = s.now()
	}
	pref.UpdatedAt = s.now()
	s.prefs[pref.UserID] = *pref
	return nil
}

// --- plans ---

func (s *MemoryStore) CreatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if !p.DeletedAt.Valid && p.Name == plan.Name {
			return ErrDuplicate
		}
	}
	plan.ID = s.id()
	plan.CreatedAt = s.now()
	plan.UpdatedAt = plan.CreatedAt
	s.plans[plan.ID] = *plan
	return nil
}

func (s *MemoryStore) GetPlan(ctx context.Context, id uint) (*models.MembershipPlan, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok || p.DeletedAt.Valid {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) UpdatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[plan.ID]; !ok || p.DeletedAt.Valid {
		return ErrNotFound
	}
	for id, p := range s.plans {
		if id != plan.ID && !p.DeletedAt.Valid && p.Name == plan.Name {
			return ErrDuplicate
		}
	}
	plan.UpdatedAt = s.now()
	s.plans[plan.ID] = *plan
	return nil
}

// DeletePlan soft-deletes the plan. Memberships still resolve it and its
// name becomes free for a new plan.
func (s *MemoryStore) DeletePlan(ctx context.Context, id uint) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok || p.DeletedAt.Valid {
		return ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: s.now(), Valid: true}
	s.plans[id] = p
	return nil
}

func (s *MemoryStore) ListPlans(ctx context.Context) ([]models.MembershipPlan, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MembershipPlan, 0, len(s.plans))
	for _, p := range s.plans {
		if !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DurationDays != out[j].DurationDays {
			return out[i].DurationDays < out[j].DurationDays
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// --- memberships ---

// withRelations fills Plan and User the way the unscoped Preload does, so
// deleted plans still show; caller holds the lock
func (s *MemoryStore) withRelations(m models.Membership) models.Membership {
	m.Plan = s.plans[m.PlanID]
	m.User = s.users[m.UserID]
	return m
}

func (s *MemoryStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[m.UserID]; !ok {
		return ErrNotFound
	}
	m.ID = s.id()
	m.CreatedAt = s.now()
	m.UpdatedAt = m.CreatedAt
	stored := *m
	stored.User = models.User{}
	stored.Plan = models.MembershipPlan{}
	s.memberships[m.ID] = stored
	return nil
}

// GetMembership is a test helper returning the stored row
func (s *MemoryStore) GetMembership(id uint) (models.Membership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[id]
	return m, ok
}

func (s *MemoryStore) ListMembershipsByUser(ctx context.Context, userID uint) ([]models.Membership, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			m = s.withRelations(m)
			m.User = models.User{}
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) LatestActiveMembership(ctx context.Context, userID uint, onOrAfter time.Time) (*models.Membership, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Membership
	for _, m := range s.memberships {
		if m.UserID != userID || m.Status != models.MembershipStatusActive || dayKey(m.EndDate) < dayKey(onOrAfter) {
			continue
		}
		if best == nil || dayKey(m.EndDate) > dayKey(best.EndDate) {
			found := s.withRelations(m)
			best = &found
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (s *MemoryStore) ActivatePending(ctx context.Context, today time.Time) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.memberships {
		if m.Status == models.MembershipStatusPending && dayKey(m.StartDate) <= dayKey(today) {
			m.Status = models.MembershipStatusActive
			m.UpdatedAt = s.now()
			s.memberships[id] = m
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ExpireActive(ctx context.Context, today time.Time) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.memberships {
		if m.Status == models.MembershipStatusActive && dayKey(m.EndDate) < dayKey(today) {
			m.Status = models.MembershipStatusExpired
			m.UpdatedAt = s.now()
			s.memberships[id] = m
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListActiveEndingOn(ctx context.Context, days []time.Time) ([]models.Membership, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(days))
	for _, k := range dayKeys(days) {
		wanted[k] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Membership
	for _, m := range s.memberships {
		if m.Status != models.MembershipStatusActive || !wanted[dayKey(m.EndDate)] {
			continue
		}
		user, ok := s.users[m.UserID]
		if !ok || !user.IsActive {
			continue
		}
		out = append(out, s.withRelations(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if dayKey(out[i].EndDate) != dayKey(out[j].EndDate) {
			return dayKey(out[i].EndDate) < dayKey(out[j].EndDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CountMembershipsByStatus(ctx context.Context) (map[models.MembershipStatus]int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.MembershipStatus]int64)
	for _, m := range s.memberships {
		out[m.Status]++
	}
	return out, nil
}

// --- attendance ---

func (s *MemoryStore) CreateAttendance(ctx context.Context, entry *models.AttendanceEntry) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[entry.UserID]; !ok {
		return ErrNotFound
	}
	entry.ID = s.id()
	entry.CreatedAt = s.now()
	entry.UpdatedAt = entry.CreatedAt
	stored := *entry
	stored.User = models.User{}
	s.attendance[entry.ID] = stored
	return nil
}

func (s *MemoryStore) GetOpenAttendance(ctx context.Context, userID uint) (*models.AttendanceEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var open *models.AttendanceEntry
	for _, a := range s.attendance {
		if a.UserID == userID && a.CheckOut == nil {
			if open == nil || a.CheckIn.After(open.CheckIn) {
				found := a
				open = &found
			}
		}
	}
	if open == nil {
		return nil, ErrNotFound
	}
	return open, nil
}

func (s *MemoryStore) CloseAttendance(ctx context.Context, id uint, checkOut time.Time) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attendance[id]
	if !ok || a.CheckOut != nil {
		return ErrNotFound
	}
	a.CheckOut = &checkOut
	a.UpdatedAt = s.now()
	s.attendance[id] = a
	return nil
}

func (s *MemoryStore) ListAttendanceByUser(ctx context.Context, userID uint, limit int) ([]models.AttendanceEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AttendanceEntry
	for _, a := range s.attendance {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListAttendanceBetween(ctx context.Context, from, to time.Time) ([]models.AttendanceEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AttendanceEntry
	for _, a := range s.attendance {
		if !a.CheckIn.Before(from) && a.CheckIn.Before(to) {
			a.User = s.users[a.UserID]
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (s *MemoryStore) CountAttendanceSince(ctx context.Context, since time.Time) (map[uint]int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint]int64)
	for _, a := range s.attendance {
		if !a.CheckIn.Before(since) {
			out[a.UserID]++
		}
	}
	return out, nil
}

// --- health ---

func (s *MemoryStore) UpsertHealthMetric(ctx context.Context, metric *models.HealthMetric) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.health {
		if h.UserID == metric.UserID && dayKey(h.EntryDate) == dayKey(metric.EntryDate) {
			metric.ID = id
			metric.CreatedAt = h.CreatedAt
			metric.UpdatedAt = s.now()
			stored := *metric
			stored.User = models.User{}
			s.health[id] = stored
			return nil
		}
	}
	metric.ID = s.id()
	metric.CreatedAt = s.now()
	metric.UpdatedAt = metric.CreatedAt
	stored := *metric
	stored.User = models.User{}
	s.health[metric.ID] = stored
	return nil
}

func (s *MemoryStore) LatestHeight(ctx context.Context, userID uint, onOrBefore time.Time) (*float64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.HealthMetric
	for _, h := range s.health {
		if h.UserID != userID || h.HeightCm == nil || dayKey(h.EntryDate) > dayKey(onOrBefore) {
			continue
		}
		if best == nil || dayKey(h.EntryDate) > dayKey(best.EntryDate) {
			found := h
			best = &found
		}
	}
	if best == nil {
		return nil, nil
	}
	height := *best.HeightCm
	return &height, nil
}

func (s *MemoryStore) ListHealthMetrics(ctx context.Context, userID uint, limit int) ([]models.HealthMetric, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HealthMetric
	for _, h := range s.health {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return dayKey(out[i].EntryDate) > dayKey(out[j].EntryDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- notifications ---

func (s *MemoryStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	stored := *n
	stored.User = models.User{}
	s.notifications[n.ID] = stored
	return nil
}

func (s *MemoryStore) HasNotificationSince(ctx context.Context, userID uint, typ models.NotificationType, since time.Time) (bool, error) {
	if err := checkCtx(ctx); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notifications {
		if n.UserID == userID && n.Type == typ && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, userID uint) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, notif := range s.notifications {
		if notif.UserID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, notif := range s.notifications {
		if notif.UserID == userID && !notif.IsRead {
			notif.IsRead = true
			s.notifications[id] = notif
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountNotificationsSince(ctx context.Context, since time.Time) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, notif := range s.notifications {
		if !notif.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- job runs ---

func (s *MemoryStore) CreateJobRun(ctx context.Context, run *models.JobRun) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = s.id()
	run.CreatedAt = s.now()
	s.jobRuns[run.ID] = *run
	return nil
}

func (s *MemoryStore) ListJobRuns(ctx context.Context, limit int) ([]models.JobRun, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.JobRun, 0, len(s.jobRuns))
	for _, r := range s.jobRuns {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RunAt.Equal(out[j].RunAt) {
			return out[i].RunAt.After(out[j].RunAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*GormStore)(nil)
)
