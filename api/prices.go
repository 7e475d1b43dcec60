package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vkazmir/flightdesk/internal/service/pricing"
)

type PriceHandler struct {
	service pricing.PricingUseCase
}

type setPriceRequest struct {
	NewPriceCents int64 `json:"new_price_cents"`
}

func NewPriceHandler(service pricing.PricingUseCase) *PriceHandler {
	return &PriceHandler{service: service}
}

func (h *PriceHandler) Register(router *gin.RouterGroup) {
	router.PUT("/:id/price", h.setPrice)
	router.GET("/:id/price-audit", h.auditTrail)
}

func (h *PriceHandler) setPrice(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// The acting identity travels in a header until the service grows an
	// auth layer; it is recorded verbatim in the audit trail.
	actor := c.GetHeader("X-Actor")

	if err := h.service.SetPrice(c.Request.Context(), id, req.NewPriceCents, actor); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PriceHandler) auditTrail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	records, err := h.service.AuditTrail(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
