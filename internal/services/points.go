package services

import (
	"loyalty_engine/internal/models"
	"loyalty_engine/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// applyPoints earns floor(basis * percent / 100) points on the basis left
// after cashback redemption. Redemption is a separate customer-initiated
// action and never part of the order-close path.
func (s *rewardService) applyPoints(tx *gorm.DB, prog *ResolvedProgram, order *models.Order, customerID uint, basis decimal.Decimal, result *ApplicationResult) error {
	rule := prog.Points
	if !rule.EarnPercent.IsPositive() || !basis.IsPositive() {
		return nil
	}

	points := basis.Mul(rule.EarnPercent).Div(oneHundred).Floor().IntPart()
	if points <= 0 {
		return nil
	}

	ledgerRepo := repository.NewLedgerRepository(tx)

	entry := &models.LedgerEntry{
		TenantID:    order.TenantID,
		ProgramID:   prog.Program.ID,
		CustomerID:  customerID,
		OrderID:     order.ID,
		EntryType:   models.EntryPointsEarn,
		PointsDelta: points,
		Meta:        metaJSON(map[string]interface{}{"basis": basis, "earn_percent": rule.EarnPercent}),
	}
	if err := ledgerRepo.CreateEntry(entry); err != nil {
		return err
	}
	if err := ledgerRepo.ApplyToAccount(order.TenantID, customerID, points, decimal.Zero); err != nil {
		return err
	}

	result.Applied.Points = true
	result.note("points earned: %d", points)
	return nil
}
