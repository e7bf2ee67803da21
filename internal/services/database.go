package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gymtrack_app_echo/internal/models"
)

// InitDB initializes the database connection with connection pooling
func InitDB(driver, dsn string, debug bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Printf("Database connection established (%s)", dialector.Name())
	return db, nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.UserNotifPreference{},
		&models.MembershipPlan{},
		&models.Membership{},
		&models.AttendanceEntry{},
		&models.HealthMetric{},
		&models.Notification{},
		&models.JobRun{},
	)
	if err != nil {
		return err
	}

	if err := migratePlanNameIndex(db); err != nil {
		return err
	}

	log.Println("Database migrations completed")
	return nil
}

// migratePlanNameIndex keeps plan names unique among live rows only, so a
// soft-deleted plan does not block its name. MySQL has no partial indexes;
// there the store checks live names before writing.
func migratePlanNameIndex(db *gorm.DB) error {
	m := db.Migrator()
	if m.HasIndex(&models.MembershipPlan{}, "idx_membership_plans_name") {
		if err := m.DropIndex(&models.MembershipPlan{}, "idx_membership_plans_name"); err != nil {
			return fmt.Errorf("drop plan name index: %w", err)
		}
	}
	if db.Dialector.Name() == "mysql" {
		return nil
	}
	err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_plans_name ON membership_plans (name) WHERE deleted_at IS NULL").Error
	if err != nil {
		return fmt.Errorf("create plan name index: %w", err)
	}
	return nil
}
