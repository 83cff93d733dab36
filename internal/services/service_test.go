package services

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"loyalty_engine/internal/migrations"
	"loyalty_engine/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Use a per-test in-memory database to avoid cross-test interference
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, migrations.RunMigrations(db))
	return db
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fixture struct {
	db       *gorm.DB
	tenantID string
	customer models.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	f := &fixture{db: db, tenantID: uuid.NewString()}
	f.customer = models.Customer{TenantID: f.tenantID, Name: "Alice", Phone: "0911111111"}
	require.NoError(t, db.Create(&f.customer).Error)
	return f
}

func (f *fixture) createProgram(t *testing.T, programType models.ProgramType, earnRule string) models.RewardProgram {
	t.Helper()
	program := models.RewardProgram{
		TenantID:    f.tenantID,
		Name:        string(programType) + " program",
		ProgramType: programType,
		EarnRule:    datatypes.JSON(earnRule),
		IsActive:    true,
	}
	require.NoError(t, f.db.Create(&program).Error)
	return program
}

func (f *fixture) createClosedOrder(t *testing.T, number string, subtotal, tax, service int64) models.Order {
	t.Helper()
	now := time.Now()
	order := models.Order{
		TenantID:      f.tenantID,
		BranchID:      1,
		OrderNumber:   number,
		CustomerID:    &f.customer.ID,
		CustomerPhone: f.customer.Phone,
		Subtotal:      decimal.NewFromInt(subtotal),
		Tax:           decimal.NewFromInt(tax),
		Service:       decimal.NewFromInt(service),
		Status:        string(models.OrderClosed),
		ClosedAt:      &now,
	}
	require.NoError(t, f.db.Create(&order).Error)
	return order
}

func (f *fixture) rewardService() RewardService {
	return NewRewardService(f.db, nil, 0, testLogger())
}

func (f *fixture) ledgerEntries(t *testing.T) []models.LedgerEntry {
	t.Helper()
	var entries []models.LedgerEntry
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenantID).Order("id asc").Find(&entries).Error)
	return entries
}

func (f *fixture) account(t *testing.T) *models.LoyaltyAccount {
	t.Helper()
	var account models.LoyaltyAccount
	err := f.db.Where("tenant_id = ? AND customer_id = ?", f.tenantID, f.customer.ID).First(&account).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	require.NoError(t, err)
	return &account
}

func (f *fixture) enrollment(t *testing.T, programID uint) *models.Enrollment {
	t.Helper()
	var enrollment models.Enrollment
	err := f.db.Where("tenant_id = ? AND program_id = ? AND customer_id = ?", f.tenantID, programID, f.customer.ID).
		First(&enrollment).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	require.NoError(t, err)
	return &enrollment
}

func decimalFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(value)
}

func requireDecimalEqual(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, actual.Equal(decimal.RequireFromString(expected)),
		"expected %s, got %s", expected, actual.String())
}
