package services

import (
	"context"
	"testing"
	"time"

	"loyalty_engine/internal/models"

	"github.com/stretchr/testify/require"
)

func TestApplyOnOrderClosed_FirstVisitEarnsLadderCashback(t *testing.T) {
	f := newFixture(t)
	program := f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 5}]}`)
	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.True(t, result.Applied.Cashback)
	require.False(t, result.Applied.Points)
	require.False(t, result.Applied.Stamp)

	// basis = 100 - 10 - 5 = 85, earn = 85 * 5% = 4.25
	entries := f.ledgerEntries(t)
	require.Len(t, entries, 1)
	require.Equal(t, models.EntryCashbackEarn, entries[0].EntryType)
	requireDecimalEqual(t, "4.25", entries[0].CashDelta)
	require.Equal(t, order.ID, entries[0].OrderID)

	enrollment := f.enrollment(t, program.ID)
	require.NotNil(t, enrollment)
	require.Equal(t, 1, enrollment.QualifyingVisitCount)
	require.NotNil(t, enrollment.LastQualifyingAt)

	account := f.account(t)
	require.NotNil(t, account)
	requireDecimalEqual(t, "4.25", account.CashBalance)
}

func TestApplyOnOrderClosed_SecondVisitRedeemsThenEarns(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 5}]}`)
	svc := f.rewardService()

	order1 := f.createClosedOrder(t, "ORD-1", 100, 10, 5)
	_, err := svc.ApplyOnOrderClosed(context.Background(), f.tenantID, order1.ID)
	require.NoError(t, err)

	order2 := f.createClosedOrder(t, "ORD-2", 100, 10, 5)
	result, err := svc.ApplyOnOrderClosed(context.Background(), f.tenantID, order2.ID)
	require.NoError(t, err)
	require.True(t, result.Applied.Cashback)

	// Prior earn 4.25 redeems in full, shrinking the basis to 80.75. Visit 2
	// has no rung of its own, so the last rung's 5% applies: 4.0375.
	entries := f.ledgerEntries(t)
	require.Len(t, entries, 3)
	require.Equal(t, models.EntryCashbackRedeem, entries[1].EntryType)
	requireDecimalEqual(t, "-4.25", entries[1].CashDelta)
	require.Equal(t, models.EntryCashbackEarn, entries[2].EntryType)
	requireDecimalEqual(t, "4.0375", entries[2].CashDelta)

	// 4.25 - 4.25 + 4.0375
	account := f.account(t)
	requireDecimalEqual(t, "4.0375", account.CashBalance)
}

func TestApplyOnOrderClosed_ExpiredCashbackOnlyWritesExpireEntry(t *testing.T) {
	f := newFixture(t)
	program := f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 2, "ladder": [{"visit": 1, "earn_percent": 5}]}`)

	// A prior earn from well outside the redemption window.
	stale := models.LedgerEntry{
		TenantID:   f.tenantID,
		ProgramID:  program.ID,
		CustomerID: f.customer.ID,
		OrderID:    999,
		EntryType:  models.EntryCashbackEarn,
		CashDelta:  decimalFromString(t, "3.5"),
	}
	require.NoError(t, f.db.Create(&stale).Error)
	require.NoError(t, f.db.Model(&models.LedgerEntry{}).Where("id = ?", stale.ID).
		Update("created_at", time.Now().AddDate(0, 0, -10)).Error)

	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)
	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)

	entries := f.ledgerEntries(t)
	require.Len(t, entries, 3)
	require.Equal(t, models.EntryCashbackExpire, entries[1].EntryType)
	require.True(t, entries[1].CashDelta.IsZero())

	// No redemption happened, so the full 85 basis earned 4.25.
	require.Equal(t, models.EntryCashbackEarn, entries[2].EntryType)
	requireDecimalEqual(t, "4.25", entries[2].CashDelta)
	require.True(t, result.Applied.Cashback)
}

func TestApplyOnOrderClosed_ZeroWindowNeverExpires(t *testing.T) {
	f := newFixture(t)
	program := f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 0, "ladder": [{"visit": 1, "earn_percent": 5}]}`)

	old := models.LedgerEntry{
		TenantID:   f.tenantID,
		ProgramID:  program.ID,
		CustomerID: f.customer.ID,
		OrderID:    999,
		EntryType:  models.EntryCashbackEarn,
		CashDelta:  decimalFromString(t, "2"),
	}
	require.NoError(t, f.db.Create(&old).Error)
	require.NoError(t, f.db.Model(&models.LedgerEntry{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().AddDate(-1, 0, 0)).Error)

	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)
	_, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)

	entries := f.ledgerEntries(t)
	require.Equal(t, models.EntryCashbackRedeem, entries[1].EntryType)
	requireDecimalEqual(t, "-2", entries[1].CashDelta)
}

func TestApplyOnOrderClosed_RedemptionCappedByBasis(t *testing.T) {
	f := newFixture(t)
	program := f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 0}]}`)

	big := models.LedgerEntry{
		TenantID:   f.tenantID,
		ProgramID:  program.ID,
		CustomerID: f.customer.ID,
		OrderID:    999,
		EntryType:  models.EntryCashbackEarn,
		CashDelta:  decimalFromString(t, "500"),
	}
	require.NoError(t, f.db.Create(&big).Error)

	// basis = 10 - 0 - 0 = 10; redemption must not exceed it.
	order := f.createClosedOrder(t, "ORD-1", 10, 0, 0)
	_, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)

	entries := f.ledgerEntries(t)
	require.Len(t, entries, 2)
	require.Equal(t, models.EntryCashbackRedeem, entries[1].EntryType)
	requireDecimalEqual(t, "-10", entries[1].CashDelta)
}

func TestApplyOnOrderClosed_VisitCountIncrementsWithoutRewards(t *testing.T) {
	f := newFixture(t)
	program := f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 0}]}`)
	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.False(t, result.Applied.Cashback)

	// A visit is any closed order, not any reward event.
	enrollment := f.enrollment(t, program.ID)
	require.Equal(t, 1, enrollment.QualifyingVisitCount)
	require.Empty(t, f.ledgerEntries(t))
}

func TestApplyOnOrderClosed_PointsUseReducedBasisAndFloor(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 5}]}`)
	f.createProgram(t, models.ProgramPoints, `{"earn_percent": 2}`)
	svc := f.rewardService()

	order1 := f.createClosedOrder(t, "ORD-1", 100, 10, 5)
	result, err := svc.ApplyOnOrderClosed(context.Background(), f.tenantID, order1.ID)
	require.NoError(t, err)
	require.True(t, result.Applied.Points)

	// First visit: nothing to redeem, so points see the full 85 basis:
	// floor(85 * 2%) = 1.
	account := f.account(t)
	require.Equal(t, int64(1), account.PointsBalance)

	order2 := f.createClosedOrder(t, "ORD-2", 100, 10, 5)
	_, err = svc.ApplyOnOrderClosed(context.Background(), f.tenantID, order2.ID)
	require.NoError(t, err)

	// Second visit: redemption shrinks the basis to 80.75 before points run:
	// floor(80.75 * 2%) = 1 again.
	account = f.account(t)
	require.Equal(t, int64(2), account.PointsBalance)
}

func TestApplyOnOrderClosed_ZeroPercentPointsEarnsNothing(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramPoints, `{"earn_percent": 0}`)
	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.False(t, result.Applied.Points)
	require.Empty(t, f.ledgerEntries(t))
	require.Nil(t, f.account(t))
}

func TestApplyOnOrderClosed_StampMilestoneRewardsAndResets(t *testing.T) {
	f := newFixture(t)
	program := f.createProgram(t, models.ProgramStamp, `{"target_stamps": 3, "reward_cash": 5}`)
	svc := f.rewardService()

	// Two closes bring the card to 2/3.
	for _, number := range []string{"ORD-1", "ORD-2"} {
		order := f.createClosedOrder(t, number, 50, 0, 0)
		result, err := svc.ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
		require.NoError(t, err)
		require.True(t, result.Applied.Stamp)
	}

	var card models.StampCard
	require.NoError(t, f.db.Where("tenant_id = ? AND program_id = ?", f.tenantID, program.ID).First(&card).Error)
	require.Equal(t, 2, card.CurrentStamps)

	// Third close reaches the target: reward issued, card reset to 0, all in
	// the same call.
	order := f.createClosedOrder(t, "ORD-3", 50, 0, 0)
	result, err := svc.ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.True(t, result.Applied.Stamp)

	require.NoError(t, f.db.First(&card, card.ID).Error)
	require.Equal(t, 0, card.CurrentStamps)

	entries := f.ledgerEntries(t)
	require.Len(t, entries, 1)
	require.Equal(t, models.EntryStampRewardCash, entries[0].EntryType)
	requireDecimalEqual(t, "5", entries[0].CashDelta)

	var stampEntries []models.StampLedgerEntry
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenantID).Order("id asc").Find(&stampEntries).Error)
	require.Len(t, stampEntries, 4) // 3 earns + 1 reset
	require.Equal(t, models.StampReset, stampEntries[3].Reason)
	require.Equal(t, -3, stampEntries[3].StampsDelta)

	account := f.account(t)
	requireDecimalEqual(t, "5", account.CashBalance)
}

func TestApplyOnOrderClosed_StampWithoutRewardStillResets(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramStamp, `{"target_stamps": 1}`)
	order := f.createClosedOrder(t, "ORD-1", 50, 0, 0)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.True(t, result.Applied.Stamp)

	// No reward_cash configured: reset happens, no cash ledger entry.
	require.Empty(t, f.ledgerEntries(t))

	var card models.StampCard
	require.NoError(t, f.db.Where("tenant_id = ?", f.tenantID).First(&card).Error)
	require.Equal(t, 0, card.CurrentStamps)
}

func TestApplyOnOrderClosed_MissingOrderIsReportedNoOp(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramCashback,
		`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 5}]}`)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, 12345)
	require.NoError(t, err)
	require.False(t, result.Applied.Cashback)
	require.False(t, result.Applied.Points)
	require.False(t, result.Applied.Stamp)
	require.NotEmpty(t, result.Notes)
	require.Empty(t, f.ledgerEntries(t))
}

func TestApplyOnOrderClosed_OpenOrderIsReportedNoOp(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramStamp, `{"target_stamps": 3}`)

	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", string(models.OrderOpen)).Error)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.False(t, result.Applied.Stamp)
	require.NotEmpty(t, result.Notes)

	var count int64
	require.NoError(t, f.db.Model(&models.StampLedgerEntry{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestApplyOnOrderClosed_AnonymousOrderSkipsRewards(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramPoints, `{"earn_percent": 10}`)

	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Updates(map[string]interface{}{"customer_id": nil, "customer_phone": ""}).Error)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), f.tenantID, order.ID)
	require.NoError(t, err)
	require.False(t, result.Applied.Points)
	require.NotEmpty(t, result.Notes)
	require.Empty(t, f.ledgerEntries(t))
}

func TestApplyOnOrderClosed_WrongTenantSeesNothing(t *testing.T) {
	f := newFixture(t)
	f.createProgram(t, models.ProgramPoints, `{"earn_percent": 10}`)
	order := f.createClosedOrder(t, "ORD-1", 100, 10, 5)

	result, err := f.rewardService().ApplyOnOrderClosed(context.Background(), "other-tenant", order.ID)
	require.NoError(t, err)
	require.False(t, result.Applied.Points)
	require.Empty(t, f.ledgerEntries(t))
}
