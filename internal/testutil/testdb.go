// Package testutil - общие помощники для тестов с in-memory SQLite.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"dronemarket_backend/database"
	"dronemarket_backend/internal/auth"
	"dronemarket_backend/internal/models"
)

// NewTestDB создает изолированную in-memory базу с полной миграцией.
// Одно соединение: in-memory SQLite живет внутри соединения.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", strings.ReplaceAll(uuid.NewString(), "-", ""))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// TestPassword - пароль всех фикстурных пользователей
const TestPassword = "password123"

var cachedHash string

func passwordHash(t testing.TB) string {
	if cachedHash == "" {
		h, err := auth.HashPassword(TestPassword)
		require.NoError(t, err)
		cachedHash = h
	}
	return cachedHash
}

// CreateUser создает активного пользователя с ролью
func CreateUser(t testing.TB, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	u := &models.User{
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: passwordHash(t),
		FirstName:    "Test",
		LastName:     string(role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateEligiblePilot создает пилота, которому разрешено делать ставки
func CreateEligiblePilot(t testing.TB, db *gorm.DB) (*models.User, *models.Pilot) {
	t.Helper()
	u := CreateUser(t, db, models.UserRolePilot)
	expiry := time.Now().UTC().AddDate(1, 0, 0)
	p := &models.Pilot{
		UserID:              u.ID,
		BusinessName:        "Sky Clean " + u.ID[:4],
		IsCertified:         true,
		CertificationExpiry: &expiry,
		MembershipStatus:    models.MembershipFree,
		IsAvailable:         true,
		Status:              models.PilotStatusActive,
		ServicesOffered:     datatypes.JSON(`["window_cleaning"]`),
	}
	require.NoError(t, db.Create(p).Error)
	return u, p
}

// CreateJob создает работу в статусе bidding
func CreateJob(t testing.TB, db *gorm.DB, managerID string) *models.Job {
	t.Helper()
	j := &models.Job{
		Title:             "Clean office windows",
		Description:       "Twelve floors of glass facade",
		PropertyManagerID: managerID,
		PropertyType:      models.PropertyCommercial,
		CleaningType:      models.CleaningWindow,
		Urgency:           models.UrgencyMedium,
		Address:           "1 Main St",
		City:              "Austin",
		State:             "TX",
		ZipCode:           "73301",
		BudgetType:        models.BudgetFixed,
		Budget:            100000,
		Status:            models.JobStatusBidding,
		IsPublic:          true,
	}
	require.NoError(t, db.Create(j).Error)
	return j
}
