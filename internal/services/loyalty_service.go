package services

import (
	"loyalty_engine/internal/models"
	"loyalty_engine/internal/repository"

	"github.com/shopspring/decimal"
)

type AccountSummary struct {
	CustomerID    uint                 `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	PointsBalance int64                `json:"points_balance"`
	CashBalance   decimal.Decimal      `json:"cash_balance"`
	RecentEntries []models.LedgerEntry `json:"recent_entries"`
}

type LoyaltyService interface {
	GetAccountSummary(tenantID string, customerID uint) (*AccountSummary, error)
}

type loyaltyService struct {
	customerRepo repository.CustomerRepository
	ledgerRepo   repository.LedgerRepository
}

func NewLoyaltyService(customerRepo repository.CustomerRepository, ledgerRepo repository.LedgerRepository) LoyaltyService {
	return &loyaltyService{customerRepo: customerRepo, ledgerRepo: ledgerRepo}
}

// GetAccountSummary reads the cached balance row; a customer with no ledger
// history yet gets zero balances, not an error. Returns nil when the customer
// does not exist for the tenant.
func (s *loyaltyService) GetAccountSummary(tenantID string, customerID uint) (*AccountSummary, error) {
	customer, err := s.customerRepo.GetByID(tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, nil
	}

	summary := &AccountSummary{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		CashBalance:  decimal.Zero,
	}

	account, err := s.ledgerRepo.GetAccount(tenantID, customerID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		summary.PointsBalance = account.PointsBalance
		summary.CashBalance = account.CashBalance
	}

	entries, err := s.ledgerRepo.GetRecentEntries(tenantID, customerID, 20)
	if err != nil {
		return nil, err
	}
	summary.RecentEntries = entries

	return summary, nil
}
