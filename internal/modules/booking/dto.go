package booking

import "mixlab/internal/domain"

type CreateBookingRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Birthday      string `json:"birthday" validate:"max=32"`
	Email         string `json:"email" validate:"required,email"`
	Contact       string `json:"contact" validate:"required,max=50"`
	HomeAddress   string `json:"homeAddress" validate:"max=500"`
	ServiceType   string `json:"serviceType" validate:"required"`
	BookingDate   string `json:"bookingDate" validate:"required,datetime=2006-01-02"`
	BookingTime   string `json:"bookingTime" validate:"required"`
	Hours         int    `json:"hours" validate:"omitempty,min=1,max=12"`
	Members       int    `json:"members" validate:"omitempty,min=1,max=50"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cash gcash credit_card"`
}

type InitialBookingRequest struct {
	Name     string `json:"name" validate:"required"`
	Birthday string `json:"birthday" validate:"required"`
	Hours    int    `json:"hours" validate:"required,min=1,max=8"`
}

type CreateResult struct {
	Booking    *domain.Booking
	PaymentURL *string
}

type BookingSummary struct {
	BookingID     string               `json:"booking_id"`
	ID            int64                `json:"id"`
	Status        domain.PaymentStatus `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	TotalPrice    int64                `json:"total_price"`
	ServiceType   domain.ServiceType   `json:"service_type"`
	BookingDate   string               `json:"booking_date"`
	BookingTime   string               `json:"booking_time"`
}

func toSummary(b *domain.Booking) BookingSummary {
	return BookingSummary{
		BookingID:     b.BookingID,
		ID:            b.ID,
		Status:        b.PaymentStatus,
		PaymentStatus: b.PaymentStatus,
		TotalPrice:    b.TotalPrice,
		ServiceType:   b.ServiceType,
		BookingDate:   b.BookingDate,
		BookingTime:   b.BookingTime,
	}
}
