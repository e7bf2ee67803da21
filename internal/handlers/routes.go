package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"gymtrack_app_echo/internal/auth"
	"gymtrack_app_echo/internal/clock"
	authMiddleware "gymtrack_app_echo/internal/middleware"
	"gymtrack_app_echo/internal/services"
	"gymtrack_app_echo/internal/store"
	"gymtrack_app_echo/internal/tasks"
)

// Deps carries everything the HTTP layer needs
type Deps struct {
	Users         *services.UserService
	Memberships   *services.MembershipService
	Attendance    *services.AttendanceService
	Health        *services.HealthService
	Notifications *services.NotificationService
	Reports       *services.ReportService
	Runner        *tasks.Runner
	JobRuns       store.JobRunStore
	Tokens        *auth.TokenManager
	Clock         clock.Clock
	Location      *time.Location
	SecureCookies bool
}

// RegisterRoutes mounts every page on e
func RegisterRoutes(e *echo.Echo, d Deps) {
	authHandler := NewAuthHandler(d.Users, d.Tokens, d.SecureCookies)
	dashboardHandler := NewDashboardHandler(d.Memberships, d.Attendance, d.Notifications)
	planHandler := NewPlanHandler(d.Memberships, d.Reports)
	membershipHandler := NewMembershipHandler(d.Memberships)
	attendanceHandler := NewAttendanceHandler(d.Attendance, d.Reports, d.Clock, d.Location)
	healthHandler := NewHealthHandler(d.Health, d.Clock, d.Location)
	notificationHandler := NewNotificationHandler(d.Notifications)
	prefHandler := NewUserPreferenceHandler(d.Users)
	userHandler := NewUserHandler(d.Users, d.Reports)
	adminHandler := NewAdminHandler(d.Reports, d.Runner, d.JobRuns)

	// Public routes
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	})
	e.GET("/login", authHandler.LoginPage)
	e.POST("/login", authHandler.HandleLogin)
	e.GET("/register", authHandler.RegisterPage)
	e.POST("/register", authHandler.HandleRegister)
	e.GET("/verify/:token", authHandler.Verify)
	e.POST("/logout", authHandler.HandleLogout)

	// Protected routes
	protected := e.Group("")
	protected.Use(authMiddleware.RequireAuth(d.Tokens, d.Users))

	protected.GET("/dashboard", dashboardHandler.Dashboard)
	protected.GET("/plans", planHandler.ListPlans)
	protected.POST("/plans/:id/subscribe", planHandler.Subscribe)
	protected.GET("/memberships", membershipHandler.ListMemberships)
	protected.GET("/attendance", attendanceHandler.MyAttendance)
	protected.POST("/attendance/check-in", attendanceHandler.CheckIn)
	protected.POST("/attendance/check-out", attendanceHandler.CheckOut)
	protected.GET("/health-metrics", healthHandler.HealthPage)
	protected.POST("/health-metrics", healthHandler.RecordHealth)
	protected.GET("/notifications", notificationHandler.ListNotifications)
	protected.POST("/notifications/read", notificationHandler.MarkAllRead)
	protected.GET("/preferences", prefHandler.GetUserPreference)
	protected.POST("/preferences", prefHandler.UpdateUserPreference)

	// Admin routes
	admin := protected.Group("/admin", authMiddleware.RequireAdmin)

	admin.GET("", adminHandler.Report)
	admin.GET("/jobs", adminHandler.Jobs)
	admin.POST("/jobs/run", adminHandler.RunJobs)

	admin.GET("/plans", planHandler.AdminListPlans)
	admin.GET("/plans/new", planHandler.CreatePlanPage)
	admin.POST("/plans", planHandler.StorePlan)
	admin.GET("/plans/:id/edit", planHandler.EditPlanPage)
	admin.POST("/plans/:id/update", planHandler.UpdatePlan)
	admin.POST("/plans/:id/delete", planHandler.DeletePlan)

	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/users/:id/activate", userHandler.Activate)
	admin.POST("/users/:id/deactivate", userHandler.Deactivate)

	admin.GET("/attendance", attendanceHandler.AdminAttendance)
	admin.GET("/attendance/export.csv", attendanceHandler.ExportCSV)
	admin.GET("/attendance/export.xlsx", attendanceHandler.ExportXLSX)
}
