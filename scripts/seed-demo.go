package main

import (
	"fmt"
	"log"
	"time"

	"loyalty_engine/internal/config"
	"loyalty_engine/internal/database"
	"loyalty_engine/internal/migrations"
	"loyalty_engine/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func main() {
	fmt.Println("Seeding demo tenant...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	tenantID := uuid.NewString()
	branchID := uint(1)

	customer := models.Customer{
		TenantID: tenantID,
		Name:     "Demo Customer",
		Phone:    "0912345678",
	}
	if err := db.Create(&customer).Error; err != nil {
		log.Fatal("Failed to create customer:", err)
	}

	coffee := models.Product{
		TenantID:           tenantID,
		Name:               "House Blend Beans 250g",
		SKU:                "BEAN-250",
		IsInventoryTracked: true,
		IsActive:           true,
		ReorderLevel:       decimal.NewFromInt(10),
	}
	if err := db.Create(&coffee).Error; err != nil {
		log.Fatal("Failed to create product:", err)
	}

	if err := db.Create(&models.StockLevel{
		TenantID:     tenantID,
		BranchID:     branchID,
		ProductID:    coffee.ID,
		CurrentStock: decimal.NewFromInt(25),
	}).Error; err != nil {
		log.Fatal("Failed to create stock level:", err)
	}

	// One active program per type
	programs := []models.RewardProgram{
		{
			TenantID:    tenantID,
			Name:        "Visit Cashback",
			ProgramType: models.ProgramCashback,
			EarnRule:    datatypes.JSON(`{"visit_window_days": 15, "ladder": [{"visit": 1, "earn_percent": 5}, {"visit": 2, "earn_percent": 7}, {"visit": 3, "earn_percent": 10}]}`),
			IsActive:    true,
		},
		{
			TenantID:    tenantID,
			Name:        "Base Points",
			ProgramType: models.ProgramPoints,
			EarnRule:    datatypes.JSON(`{"earn_percent": 2}`),
			IsActive:    true,
		},
		{
			TenantID:    tenantID,
			Name:        "Coffee Card",
			ProgramType: models.ProgramStamp,
			EarnRule:    datatypes.JSON(`{"target_stamps": 10, "reward_cash": 5}`),
			IsActive:    true,
		},
	}
	for i := range programs {
		if err := db.Create(&programs[i]).Error; err != nil {
			log.Fatal("Failed to create program:", err)
		}
	}

	now := time.Now()
	order := models.Order{
		TenantID:      tenantID,
		BranchID:      branchID,
		OrderNumber:   "DEMO-0001",
		CustomerID:    &customer.ID,
		CustomerPhone: customer.Phone,
		Subtotal:      decimal.NewFromInt(100),
		Tax:           decimal.NewFromInt(10),
		Service:       decimal.NewFromInt(5),
		Status:        string(models.OrderClosed),
		ClosedAt:      &now,
		LineItems: []models.OrderLineItem{
			{
				ProductID: coffee.ID,
				ItemName:  coffee.Name,
				Quantity:  decimal.NewFromInt(2),
				UnitPrice: decimal.NewFromInt(50),
			},
		},
	}
	if err := db.Create(&order).Error; err != nil {
		log.Fatal("Failed to create order:", err)
	}

	fmt.Println("Demo data created successfully!")
	fmt.Printf("  Tenant ID: %s\n", tenantID)
	fmt.Printf("  Customer ID: %d\n", customer.ID)
	fmt.Printf("  Order ID: %d (%s)\n", order.ID, order.OrderNumber)
	fmt.Println("Close-event call:")
	fmt.Printf("  curl -X POST -H 'X-Tenant-ID: %s' localhost:8080/api/orders/%d/apply-rewards\n", tenantID, order.ID)
}
