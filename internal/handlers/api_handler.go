package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"loyalty_engine/internal/redis"
	"loyalty_engine/internal/services"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	rewardService    services.RewardService
	inventoryService services.InventoryService
	loyaltyService   services.LoyaltyService
	redisClient      *redis.Client
	workerQueue      string
}

func NewAPIHandler(
	rewardService services.RewardService,
	inventoryService services.InventoryService,
	loyaltyService services.LoyaltyService,
	redisClient *redis.Client,
	workerQueue string,
) *APIHandler {
	return &APIHandler{
		rewardService:    rewardService,
		inventoryService: inventoryService,
		loyaltyService:   loyaltyService,
		redisClient:      redisClient,
		workerQueue:      workerQueue,
	}
}

// Tenant scope is explicit on every request; there is no ambient session
// state in this engine.
func tenantID(c *gin.Context) (string, bool) {
	tenant := c.GetHeader("X-Tenant-ID")
	if tenant == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header is required"})
		return "", false
	}
	return tenant, true
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// ApplyRewards is the order-close hook. Precondition misses come back as 200
// with all-false applied flags and a note; only processing failures are 5xx.
func (h *APIHandler) ApplyRewards(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.rewardService.ApplyOnOrderClosed(c.Request.Context(), tenant, orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderCloseInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) DeductStock(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var userID uint
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	result, err := h.inventoryService.ApplyStockDeduction(c.Request.Context(), tenant, orderID, userID)
	if err != nil {
		if errors.Is(err, services.ErrStockDeductionInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *APIHandler) LowStockAlerts(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	alerts, err := h.inventoryService.GetLowStockAlerts(tenant, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *APIHandler) LoyaltySummary(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	customerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.loyaltyService.GetAccountSummary(tenant, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// EnqueueProcessOrder stands in for the order subsystem's queue dispatcher:
// it pushes a close event for the background worker to pick up.
func (h *APIHandler) EnqueueProcessOrder(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}

	var req struct {
		OrderID uint `json:"order_id" binding:"required"`
		UserID  uint `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if h.redisClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "job queue is not available"})
		return
	}

	job := &redis.ProcessOrderJob{
		TenantID: tenant,
		OrderID:  req.OrderID,
		UserID:   req.UserID,
		QueuedAt: time.Now(),
	}
	if err := h.redisClient.EnqueueProcessOrder(c.Request.Context(), h.workerQueue, job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
