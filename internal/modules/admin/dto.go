package admin

import "mixlab/internal/domain"

type ListBookingsQuery struct {
	Date          string `form:"date"`
	ServiceType   string `form:"service_type"`
	PaymentStatus string `form:"payment_status"`
	CheckInStatus string `form:"check_in_status"`
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type BookingListResponse struct {
	Bookings   []domain.Booking `json:"bookings"`
	Pagination Pagination       `json:"pagination"`
}

// CreateBookingRequest is a walk-in or phone booking entered by staff.
type CreateBookingRequest struct {
	UserID      *int64 `json:"user_id"`
	Name        string `json:"name" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	Contact     string `json:"contact" validate:"max=64"`
	BookingDate string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	BookingTime string `json:"booking_time" validate:"required"`
	ServiceType string `json:"service_type" validate:"omitempty,oneof=music_lesson recording rehearsal dance arrangement voiceover"`
	Hours       int    `json:"hours" validate:"omitempty,min=1,max=8"`
	Members     int    `json:"members" validate:"omitempty,min=1"`
	Notes       string `json:"notes"`
}

// UpdateBookingRequest changes only the fields that are present.
type UpdateBookingRequest struct {
	BookingDate   *string `json:"booking_date" validate:"omitempty,datetime=2006-01-02"`
	BookingTime   *string `json:"booking_time" validate:"omitempty"`
	Hours         *int    `json:"hours" validate:"omitempty,min=1,max=8"`
	ServiceType   *string `json:"service_type" validate:"omitempty,oneof=music_lesson recording rehearsal dance arrangement voiceover"`
	CheckInStatus *string `json:"check_in_status" validate:"omitempty,oneof=pending checked_in cancelled"`
	Notes         *string `json:"notes"`
}

func (r UpdateBookingRequest) empty() bool {
	return r.BookingDate == nil && r.BookingTime == nil && r.Hours == nil &&
		r.ServiceType == nil && r.CheckInStatus == nil && r.Notes == nil
}

func (r UpdateBookingRequest) touchesSchedule() bool {
	return r.BookingDate != nil || r.BookingTime != nil || r.Hours != nil || r.CheckInStatus != nil
}

type SlotsResponse struct {
	AvailableSlots []string `json:"availableSlots"`
	BookedTimes    []string `json:"bookedTimes"`
}
