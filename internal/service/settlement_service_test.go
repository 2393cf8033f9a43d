package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/fenxiao-api/internal/constants"
	"github.com/fenxiao-api/internal/models"
	"github.com/fenxiao-api/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newSettlementTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:settlement_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.CommissionRecord{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func seedCommissionRecord(t *testing.T, db *gorm.DB, orderID uint, status string) *models.CommissionRecord {
	t.Helper()
	primaryID := uint(1)
	record := &models.CommissionRecord{
		OrderID:              orderID,
		PrimaryID:            &primaryID,
		OrderAmount:          models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		PrimaryCommission:    models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
		NetPrimaryCommission: models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
		Status:               status,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed commission record failed: %v", err)
	}
	return record
}

func TestSettleSkipsAlreadySettled(t *testing.T) {
	db := newSettlementTestDB(t)
	commissionRepo := repository.NewCommissionRecordRepository(db)
	ledger := NewSettlementLedger(commissionRepo, nil)

	pending := seedCommissionRecord(t, db, 1, constants.CommissionStatusPending)
	settled := seedCommissionRecord(t, db, 2, constants.CommissionStatusSettled)

	originalAt := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	if err := db.Model(&models.CommissionRecord{}).
		Where("id = ?", settled.ID).
		Updates(map[string]interface{}{"settled_at": originalAt, "settled_by": "alice"}).Error; err != nil {
		t.Fatalf("mark record settled failed: %v", err)
	}

	count, err := ledger.Settle([]uint{pending.ID, settled.ID}, "bob")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 settled record, got %d", count)
	}

	var got models.CommissionRecord
	if err := db.First(&got, pending.ID).Error; err != nil {
		t.Fatalf("reload pending record failed: %v", err)
	}
	if got.Status != constants.CommissionStatusSettled {
		t.Fatalf("expected settled status, got %s", got.Status)
	}
	if got.SettledBy != "bob" || got.SettledAt == nil {
		t.Fatalf("missing settlement audit fields: %+v", got)
	}

	// 已结算的记录不被重复结算覆盖
	got = models.CommissionRecord{}
	if err := db.First(&got, settled.ID).Error; err != nil {
		t.Fatalf("reload settled record failed: %v", err)
	}
	if got.SettledBy != "alice" {
		t.Fatalf("settled_by must be untouched, got %s", got.SettledBy)
	}
	if got.SettledAt == nil || !got.SettledAt.Equal(originalAt) {
		t.Fatalf("settled_at must be untouched, got %v", got.SettledAt)
	}
}

func TestSettleRepeatIsIdempotent(t *testing.T) {
	db := newSettlementTestDB(t)
	ledger := NewSettlementLedger(repository.NewCommissionRecordRepository(db), nil)

	record := seedCommissionRecord(t, db, 1, constants.CommissionStatusPending)

	first, err := ledger.Settle([]uint{record.ID}, "admin")
	if err != nil {
		t.Fatalf("first settle failed: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected 1 settled, got %d", first)
	}

	second, err := ledger.Settle([]uint{record.ID}, "admin")
	if err != nil {
		t.Fatalf("second settle failed: %v", err)
	}
	if second != 0 {
		t.Fatalf("repeat settle must be a no-op, got %d", second)
	}
}

func TestSettleEmptyIDs(t *testing.T) {
	db := newSettlementTestDB(t)
	ledger := NewSettlementLedger(repository.NewCommissionRecordRepository(db), nil)

	count, err := ledger.Settle(nil, "admin")
	if err != nil {
		t.Fatalf("settle with empty ids failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 settled, got %d", count)
	}
}

func TestSettleIgnoresUnknownIDs(t *testing.T) {
	db := newSettlementTestDB(t)
	ledger := NewSettlementLedger(repository.NewCommissionRecordRepository(db), nil)

	record := seedCommissionRecord(t, db, 1, constants.CommissionStatusPending)

	count, err := ledger.Settle([]uint{record.ID, 9999}, "admin")
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("unknown ids must be skipped, got %d", count)
	}
}
