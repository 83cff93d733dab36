package services

import (
	"time"

	"loyalty_engine/internal/models"
	"loyalty_engine/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var oneHundred = decimal.NewFromInt(100)

// applyCashback redeems the customer's most recent unexpired earn against the
// bill, then earns new cashback per the visit ladder. Returns the working
// basis after redemption, which the points engine consumes.
//
// The visit count increments unconditionally at the end: a qualifying visit
// is any closed order, not any reward event.
func (s *rewardService) applyCashback(tx *gorm.DB, prog *ResolvedProgram, order *models.Order, customerID uint, basis decimal.Decimal, now time.Time, result *ApplicationResult) (decimal.Decimal, error) {
	rule := prog.Cashback
	programID := prog.Program.ID

	enrollmentRepo := repository.NewEnrollmentRepository(tx)
	ledgerRepo := repository.NewLedgerRepository(tx)

	enrollment, err := enrollmentRepo.FirstOrCreate(order.TenantID, programID, customerID)
	if err != nil {
		return basis, err
	}

	// Latest earn by id descending; insertion order breaks same-second ties.
	lastEarn, err := ledgerRepo.GetLatestByType(order.TenantID, programID, customerID, models.EntryCashbackEarn)
	if err != nil {
		return basis, err
	}

	if lastEarn != nil {
		valid := rule.VisitWindowDays == 0 ||
			!now.After(lastEarn.CreatedAt.AddDate(0, 0, rule.VisitWindowDays))

		if valid {
			// Redemption can never push the basis negative.
			redeem := decimal.Min(lastEarn.CashDelta, basis)
			if redeem.IsPositive() {
				entry := &models.LedgerEntry{
					TenantID:   order.TenantID,
					ProgramID:  programID,
					CustomerID: customerID,
					OrderID:    order.ID,
					EntryType:  models.EntryCashbackRedeem,
					CashDelta:  redeem.Neg(),
					Meta:       metaJSON(map[string]interface{}{"redeems_entry_id": lastEarn.ID}),
				}
				if err := ledgerRepo.CreateEntry(entry); err != nil {
					return basis, err
				}
				if err := ledgerRepo.ApplyToAccount(order.TenantID, customerID, 0, redeem.Neg()); err != nil {
					return basis, err
				}
				basis = basis.Sub(redeem)
				result.Applied.Cashback = true
				result.note("cashback redeemed: %s", redeem.String())
			}
		} else {
			entry := &models.LedgerEntry{
				TenantID:   order.TenantID,
				ProgramID:  programID,
				CustomerID: customerID,
				OrderID:    order.ID,
				EntryType:  models.EntryCashbackExpire,
				CashDelta:  decimal.Zero,
				Meta:       metaJSON(map[string]interface{}{"expired_entry_id": lastEarn.ID}),
			}
			if err := ledgerRepo.CreateEntry(entry); err != nil {
				return basis, err
			}
			result.note("cashback of %s expired, not redeemed", lastEarn.CashDelta.String())
		}
	}

	currentVisit := enrollment.QualifyingVisitCount + 1
	if rung, ok := rule.MatchRung(currentVisit); ok && rung.EarnPercent.IsPositive() && basis.IsPositive() {
		earned := basis.Mul(rung.EarnPercent).Div(oneHundred).Round(3)
		if earned.IsPositive() {
			entry := &models.LedgerEntry{
				TenantID:   order.TenantID,
				ProgramID:  programID,
				CustomerID: customerID,
				OrderID:    order.ID,
				EntryType:  models.EntryCashbackEarn,
				CashDelta:  earned,
				Meta:       metaJSON(map[string]interface{}{"visit": currentVisit, "earn_percent": rung.EarnPercent}),
			}
			if err := ledgerRepo.CreateEntry(entry); err != nil {
				return basis, err
			}
			if err := ledgerRepo.ApplyToAccount(order.TenantID, customerID, 0, earned); err != nil {
				return basis, err
			}
			result.Applied.Cashback = true
			result.note("cashback earned: %s (visit %d)", earned.String(), currentVisit)
		}
	}

	if err := enrollmentRepo.IncrementVisit(enrollment.ID, now); err != nil {
		return basis, err
	}

	return basis, nil
}
