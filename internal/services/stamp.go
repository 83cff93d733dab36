package services

import (
	"loyalty_engine/internal/models"
	"loyalty_engine/internal/repository"

	"gorm.io/gorm"
)

// applyStamp adds one stamp per closed order, ignoring the bill basis. When
// the card reaches its target the configured cash reward is written first and
// the card resets to zero, all inside the caller's transaction.
func (s *rewardService) applyStamp(tx *gorm.DB, prog *ResolvedProgram, order *models.Order, customerID uint, result *ApplicationResult) error {
	rule := prog.Stamp
	programID := prog.Program.ID

	stampRepo := repository.NewStampRepository(tx)
	ledgerRepo := repository.NewLedgerRepository(tx)

	card, err := stampRepo.GetOrCreateActiveCard(order.TenantID, programID, customerID, rule.TargetStamps)
	if err != nil {
		return err
	}

	earnEntry := &models.StampLedgerEntry{
		TenantID:    order.TenantID,
		ProgramID:   programID,
		CustomerID:  customerID,
		OrderID:     order.ID,
		StampsDelta: 1,
		Reason:      models.StampEarn,
	}
	if err := stampRepo.CreateEntry(earnEntry); err != nil {
		return err
	}
	if err := stampRepo.AddStamps(card.ID, 1); err != nil {
		return err
	}

	// Re-read so the milestone check sees the incremented count.
	card, err = stampRepo.GetCardByID(card.ID)
	if err != nil {
		return err
	}

	if card.CurrentStamps >= card.TargetStamps {
		if rule.RewardCash.IsPositive() {
			rewardEntry := &models.LedgerEntry{
				TenantID:   order.TenantID,
				ProgramID:  programID,
				CustomerID: customerID,
				OrderID:    order.ID,
				EntryType:  models.EntryStampRewardCash,
				CashDelta:  rule.RewardCash,
				Meta:       metaJSON(map[string]interface{}{"completed_target": card.TargetStamps}),
			}
			if err := ledgerRepo.CreateEntry(rewardEntry); err != nil {
				return err
			}
			if err := ledgerRepo.ApplyToAccount(order.TenantID, customerID, 0, rule.RewardCash); err != nil {
				return err
			}
			result.note("stamp reward issued: %s", rule.RewardCash.String())
		}

		resetEntry := &models.StampLedgerEntry{
			TenantID:    order.TenantID,
			ProgramID:   programID,
			CustomerID:  customerID,
			OrderID:     order.ID,
			StampsDelta: -card.CurrentStamps,
			Reason:      models.StampReset,
		}
		if err := stampRepo.CreateEntry(resetEntry); err != nil {
			return err
		}
		if err := stampRepo.ResetCard(card.ID); err != nil {
			return err
		}
		result.note("stamp card completed (%d/%d), card reset", card.CurrentStamps, card.TargetStamps)
	} else {
		result.note("stamp added (%d/%d)", card.CurrentStamps, card.TargetStamps)
	}

	result.Applied.Stamp = true
	return nil
}
