package admin

import (
	"errors"
	"net/http"
	"strconv"

	"mixlab/internal/modules/booking"
	"mixlab/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts booking management under rg. Callers attach the
// admin guard to rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	bookings.GET("", h.ListBookings)
	bookings.POST("", h.CreateBooking)
	bookings.GET("/slots", h.Slots)
	bookings.PUT("/:id", h.UpdateBooking)
	bookings.DELETE("/:id", h.DeleteBooking)
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}

	out, err := h.service.ListBookings(c.Request.Context(), q)
	if err != nil {
		booking.WriteError(c, err, "Failed to fetch bookings")
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		booking.WriteError(c, err, "Failed to create booking")
		return
	}
	response.SuccessWithMessage(c, http.StatusCreated, "Booking created successfully", b)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.UpdateBooking(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, ErrNothingToUpdate) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "No fields to update")
			return
		}
		booking.WriteError(c, err, "Failed to update booking")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Booking updated successfully", b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		booking.WriteError(c, err, "Failed to delete booking")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Booking deleted successfully", gin.H{"id": id})
}

func (h *Handler) Slots(c *gin.Context) {
	out, err := h.service.Slots(c.Request.Context(), c.Query("date"))
	if err != nil {
		booking.WriteError(c, err, "Failed to fetch time slots")
		return
	}
	response.Success(c, http.StatusOK, out)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking id")
		return 0, false
	}
	return id, true
}
