package booking

import (
	"errors"
	"net/http"
	"strconv"

	"mixlab/internal/middleware"
	"mixlab/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the public booking API on rg (usually /api/bookings).
// optionalAuth attaches a caller when a token is sent; requireAuth rejects
// anonymous calls; createLimit throttles submissions.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, optionalAuth, requireAuth, createLimit gin.HandlerFunc) {
	rg.GET("/available-slots", h.AvailableSlots)
	rg.POST("/create", createLimit, optionalAuth, h.Create)
	rg.POST("/initial", h.Initial)
	rg.GET("/my", requireAuth, h.MyBookings)
	rg.GET("/:bookingId", requireAuth, h.Get)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var userID *int64
	if id, ok := middleware.UserID(c); ok {
		userID = &id
	}

	res, err := h.service.Create(c.Request.Context(), req, userID)
	if err != nil {
		WriteError(c, err, "Failed to create booking")
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Booking created successfully", gin.H{
		"booking":    toSummary(res.Booking),
		"paymentUrl": res.PaymentURL,
	})
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Date is required")
		return
	}
	// Missing, unparseable and zero hours all mean a one-hour slot.
	hours := 1
	if n, err := strconv.Atoi(c.Query("hours")); err == nil && n != 0 {
		hours = n
	}

	slots, err := h.service.AvailableSlots(c.Request.Context(), date, hours)
	if err != nil {
		WriteError(c, err, "Failed to load available slots")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"date":           date,
		"availableSlots": slots,
		"hours":          hours,
	})
}

func (h *Handler) Initial(c *gin.Context) {
	var req InitialBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	data, err := h.service.InitialIntake(req)
	if err != nil {
		WriteError(c, err, "Failed to save booking data")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Booking data saved", data)
}

func (h *Handler) MyBookings(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	bookings, err := h.service.MyBookings(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	b, err := h.service.Get(c.Request.Context(), c.Param("bookingId"), userID)
	if err != nil {
		WriteError(c, err, "Failed to fetch booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

// WriteError maps booking errors onto the response envelope.
func WriteError(c *gin.Context, err error, fallback string) {
	var fields FieldErrors
	var conflict *ConflictError

	switch {
	case errors.As(err, &fields):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request", map[string]string(fields))
	case errors.Is(err, ErrOutsideHours):
		response.Error(c, http.StatusBadRequest, "OUTSIDE_OPERATING_HOURS", "Bookings must start and end between 09:00 and 21:00")
	case errors.As(err, &conflict), errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "This time slot is already booked. Please choose another time.")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrGateway):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "PAYMENT_INIT_FAILED", "Failed to create payment invoice")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
