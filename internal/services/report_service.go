package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"gymtrack_app_echo/internal/clock"
	"gymtrack_app_echo/internal/models"
	"gymtrack_app_echo/internal/store"
)

const reportCacheTTL = 5 * time.Minute

// AdminReport is the headline numbers of the admin dashboard
type AdminReport struct {
	Day                 string                            `json:"day"`
	TotalUsers          int64                             `json:"total_users"`
	ActiveMembers       int64                             `json:"active_members"`
	MembershipsByStatus map[models.MembershipStatus]int64 `json:"memberships_by_status"`
	CheckInsToday       int64                             `json:"check_ins_today"`
	NotificationsToday  int64                             `json:"notifications_today"`
	GeneratedAt         time.Time                         `json:"generated_at"`
}

type ReportService struct {
	store store.Store
	cache *RedisCache
	clock clock.Clock
}

// NewReportService builds the report service; cache may be nil
func NewReportService(s store.Store, cache *RedisCache, c clock.Clock) *ReportService {
	return &ReportService{store: s, cache: cache, clock: c}
}

func reportCacheKey(today time.Time) string {
	return "report:admin:" + clock.DayKey(today)
}

// AdminReport gathers the dashboard numbers concurrently, cached for a few minutes
func (s *ReportService) AdminReport(ctx context.Context) (AdminReport, error) {
	now := s.clock.Now()
	today := clock.Today(now)

	return GetOrSet(s.cache, ctx, reportCacheKey(today), reportCacheTTL, func() (AdminReport, error) {
		report := AdminReport{Day: clock.DayKey(today), GeneratedAt: now}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			n, err := s.store.CountUsers(gctx)
			report.TotalUsers = n
			return err
		})
		g.Go(func() error {
			members, err := s.store.ListActiveMembers(gctx)
			report.ActiveMembers = int64(len(members))
			return err
		})
		g.Go(func() error {
			byStatus, err := s.store.CountMembershipsByStatus(gctx)
			report.MembershipsByStatus = byStatus
			return err
		})
		g.Go(func() error {
			perUser, err := s.store.CountAttendanceSince(gctx, today)
			for _, n := range perUser {
				report.CheckInsToday += n
			}
			return err
		})
		g.Go(func() error {
			n, err := s.store.CountNotificationsSince(gctx, today)
			report.NotificationsToday = n
			return err
		})

		if err := g.Wait(); err != nil {
			return AdminReport{}, err
		}
		return report, nil
	})
}

// InvalidateReport drops today's cached report
func (s *ReportService) InvalidateReport(ctx context.Context) error {
	return s.cache.Delete(ctx, reportCacheKey(clock.Today(s.clock.Now())))
}
