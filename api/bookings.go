package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vkazmir/flightdesk/internal/domain"
	"github.com/vkazmir/flightdesk/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	PassengerID int64  `json:"passenger_id"`
	FlightID    int64  `json:"flight_id"`
	SeatNumber  string `json:"seat_number"`
}

type bookingResponse struct {
	Ref             string `json:"ref"`
	PassengerID     int64  `json:"passenger_id"`
	FlightID        int64  `json:"flight_id"`
	SeatNumber      string `json:"seat_number"`
	Status          string `json:"status"`
	TotalPriceCents int64  `json:"total_price_cents"`
	CreatedAt       string `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Ref:             b.Ref,
		PassengerID:     b.PassengerID,
		FlightID:        b.FlightID,
		SeatNumber:      b.SeatNumber,
		Status:          string(b.Status),
		TotalPriceCents: b.TotalPriceCents,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.DELETE("/:ref", h.cancel)
	router.POST("/:ref/checkin", h.checkIn)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.Book(c.Request.Context(), booking.BookInput{
		PassengerID: req.PassengerID,
		FlightID:    req.FlightID,
		SeatNumber:  req.SeatNumber,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) checkIn(c *gin.Context) {
	b, err := h.service.CheckIn(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}
