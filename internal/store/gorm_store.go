package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gymtrack_app_echo/internal/models"
)

// GormStore implements Store on top of gorm. The DB must be opened with
// TranslateError enabled so duplicate keys surface as ErrDuplicate.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for health checks
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// --- users ---

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return mapErr(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("verification_token = ?", token).First(&user).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	return mapErr(s.db.WithContext(ctx).Save(user).Error)
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("name asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

func (s *GormStore) ListActiveMembers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.UserRoleMember, true).
		Order("id asc").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) GetNotifPreference(ctx context.Context, userID uint) (*models.UserNotifPreference, error) {
	var pref models.UserNotifPreference
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error; err != nil {
		return nil, mapErr(err)
	}
	return &pref, nil
}

func (s *GormStore) SaveNotifPreference(ctx context.Context, pref *models.UserNotifPreference) error {
	return mapErr(s.db.WithContext(ctx).Save(pref).Error)
}

// --- plans ---

// planNameTaken looks for a live plan other than exceptID using name
func (s *GormStore) planNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.MembershipPlan{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	taken, err := s.planNameTaken(ctx, plan.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}
	return mapErr(s.db.WithContext(ctx).Create(plan).Error)
}

func (s *GormStore) GetPlan(ctx context.Context, id uint) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &plan, nil
}

func (s *GormStore) UpdatePlan(ctx context.Context, plan *models.MembershipPlan) error {
	taken, err := s.planNameTaken(ctx, plan.Name, plan.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}
	return mapErr(s.db.WithContext(ctx).Save(plan).Error)
}

// DeletePlan soft-deletes the plan; memberships still preload it unscoped
func (s *GormStore) DeletePlan(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MembershipPlan{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListPlans(ctx context.Context) ([]models.MembershipPlan, error) {
	var plans []models.MembershipPlan
	if err := s.db.WithContext(ctx).Order("duration_days asc, name asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// --- memberships ---

// unscopedPlan keeps soft-deleted plans visible on old memberships
func unscopedPlan(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func (s *GormStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	return mapErr(s.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (s *GormStore) ListMembershipsByUser(ctx context.Context, userID uint) ([]models.Membership, error) {
	var list []models.Membership
	err := s.db.WithContext(ctx).
		Preload("Plan", unscopedPlan).
		Where("user_id = ?", userID).
		Order("start_date desc, id desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) LatestActiveMembership(ctx context.Context, userID uint, onOrAfter time.Time) (*models.Membership, error) {
	var m models.Membership
	err := s.db.WithContext(ctx).
		Preload("Plan", unscopedPlan).
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, models.MembershipStatusActive, onOrAfter.Format("2006-01-02")).
		Order("end_date desc").
		First(&m).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (s *GormStore) ActivatePending(ctx context.Context, today time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("status = ? AND start_date <= ?", models.MembershipStatusPending, today.Format("2006-01-02")).
		Update("status", models.MembershipStatusActive)
	return res.RowsAffected, res.Error
}

func (s *GormStore) ExpireActive(ctx context.Context, today time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("status = ? AND end_date < ?", models.MembershipStatusActive, today.Format("2006-01-02")).
		Update("status", models.MembershipStatusExpired)
	return res.RowsAffected, res.Error
}

func (s *GormStore) ListActiveEndingOn(ctx context.Context, days []time.Time) ([]models.Membership, error) {
	var list []models.Membership
	if len(days) == 0 {
		return list, nil
	}
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = memberships.user_id AND users.deleted_at IS NULL").
		Preload("User").
		Preload("Plan", unscopedPlan).
		Where("memberships.status = ? AND memberships.end_date IN ?", models.MembershipStatusActive, dayKeys(days)).
		Where("users.is_active = ?", true).
		Order("memberships.end_date asc, memberships.id asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) CountMembershipsByStatus(ctx context.Context) (map[models.MembershipStatus]int64, error) {
	var rows []struct {
		Status models.MembershipStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.MembershipStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// --- attendance ---

func (s *GormStore) CreateAttendance(ctx context.Context, entry *models.AttendanceEntry) error {
	return mapErr(s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error)
}

func (s *GormStore) GetOpenAttendance(ctx context.Context, userID uint) (*models.AttendanceEntry, error) {
	var entry models.AttendanceEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND check_out IS NULL", userID).
		Order("check_in desc").
		First(&entry).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &entry, nil
}

func (s *GormStore) CloseAttendance(ctx context.Context, id uint, checkOut time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.AttendanceEntry{}).
		Where("id = ? AND check_out IS NULL", id).
		Update("check_out", checkOut)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListAttendanceByUser(ctx context.Context, userID uint, limit int) ([]models.AttendanceEntry, error) {
	var list []models.AttendanceEntry
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("check_in desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) ListAttendanceBetween(ctx context.Context, from, to time.Time) ([]models.AttendanceEntry, error) {
	var list []models.AttendanceEntry
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("check_in >= ? AND check_in < ?", from, to).
		Order("check_in asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) CountAttendanceSince(ctx context.Context, since time.Time) (map[uint]int64, error) {
	var rows []struct {
		UserID uint
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.AttendanceEntry{}).
		Select("user_id, count(*) as count").
		Where("check_in >= ?", since).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.Count
	}
	return out, nil
}

// --- health ---

func (s *GormStore) UpsertHealthMetric(ctx context.Context, metric *models.HealthMetric) error {
	err := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "entry_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"weight_kg", "height_cm", "bmi", "heart_rate", "calorie_intake", "updated_at",
			}),
		}).
		Create(metric).Error
	return mapErr(err)
}

func (s *GormStore) LatestHeight(ctx context.Context, userID uint, onOrBefore time.Time) (*float64, error) {
	var metric models.HealthMetric
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND height_cm IS NOT NULL AND entry_date <= ?", userID, onOrBefore.Format("2006-01-02")).
		Order("entry_date desc").
		First(&metric).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return metric.HeightCm, nil
}

func (s *GormStore) ListHealthMetrics(ctx context.Context, userID uint, limit int) ([]models.HealthMetric, error) {
	var list []models.HealthMetric
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("entry_date desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// --- notifications ---

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return mapErr(s.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error)
}

func (s *GormStore) HasNotificationSince(ctx context.Context, userID uint, typ models.NotificationType, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, typ, since).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) ListNotifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var list []models.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *GormStore) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *GormStore) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *GormStore) CountNotificationsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// --- job runs ---

func (s *GormStore) CreateJobRun(ctx context.Context, run *models.JobRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}

func (s *GormStore) ListJobRuns(ctx context.Context, limit int) ([]models.JobRun, error) {
	var runs []models.JobRun
	q := s.db.WithContext(ctx).Order("run_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
