package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mixlab/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateBookingID is returned when the generated public booking id
// already exists. Callers regenerate the id and retry.
var ErrDuplicateBookingID = errors.New("booking id already exists")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID              int64     `gorm:"column:id;primaryKey"`
	BookingID       string    `gorm:"column:booking_id;size:32;uniqueIndex;not null"`
	UserID          *int64    `gorm:"column:user_id;index"`
	Name            string    `gorm:"column:name"`
	Birthday        string    `gorm:"column:birthday"`
	Email           string    `gorm:"column:email"`
	Contact         string    `gorm:"column:contact"`
	HomeAddress     string    `gorm:"column:home_address"`
	ServiceType     string    `gorm:"column:service_type;size:32"`
	BookingDate     string    `gorm:"column:booking_date;size:10;index"`
	BookingTime     string    `gorm:"column:booking_time;size:5"`
	Hours           int       `gorm:"column:hours"`
	Members         int       `gorm:"column:members"`
	PaymentMethod   string    `gorm:"column:payment_method;size:16"`
	TotalPrice      int64     `gorm:"column:total_price"`
	PaymentStatus   string    `gorm:"column:payment_status;size:16;index"`
	CheckInStatus   string    `gorm:"column:check_in_status;size:16"`
	XenditInvoiceID *string   `gorm:"column:xendit_invoice_id"`
	XenditPaymentID *string   `gorm:"column:xendit_payment_id"`
	Notes           *string   `gorm:"column:notes;type:text"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

// bookingDayModel is the per-date lock row. Every schedule write locks it
// before reading the day's bookings.
type bookingDayModel struct {
	BookingDate string `gorm:"column:booking_date;primaryKey;size:10"`
	Version     int64  `gorm:"column:version;not null"`
}

func (bookingDayModel) TableName() string { return "booking_day_locks" }

// Migrate creates or updates the booking tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&bookingModel{}, &bookingDayModel{})
}

func toDomainBooking(m bookingModel) *domain.Booking {
	var notes string
	if m.Notes != nil {
		notes = *m.Notes
	}

	return &domain.Booking{
		ID:              m.ID,
		BookingID:       m.BookingID,
		UserID:          m.UserID,
		Name:            m.Name,
		Birthday:        m.Birthday,
		Email:           m.Email,
		Contact:         m.Contact,
		HomeAddress:     m.HomeAddress,
		ServiceType:     domain.ServiceType(m.ServiceType),
		BookingDate:     m.BookingDate,
		BookingTime:     m.BookingTime,
		Hours:           m.Hours,
		Members:         m.Members,
		PaymentMethod:   domain.PaymentMethod(m.PaymentMethod),
		TotalPrice:      m.TotalPrice,
		PaymentStatus:   domain.PaymentStatus(m.PaymentStatus),
		CheckInStatus:   domain.CheckInStatus(m.CheckInStatus),
		XenditInvoiceID: m.XenditInvoiceID,
		XenditPaymentID: m.XenditPaymentID,
		Notes:           notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func toBookingModel(b *domain.Booking) bookingModel {
	var notes *string
	if b.Notes != "" {
		v := b.Notes
		notes = &v
	}

	return bookingModel{
		ID:              b.ID,
		BookingID:       b.BookingID,
		UserID:          b.UserID,
		Name:            b.Name,
		Birthday:        b.Birthday,
		Email:           b.Email,
		Contact:         b.Contact,
		HomeAddress:     b.HomeAddress,
		ServiceType:     string(b.ServiceType),
		BookingDate:     b.BookingDate,
		BookingTime:     b.BookingTime,
		Hours:           b.Hours,
		Members:         b.Members,
		PaymentMethod:   string(b.PaymentMethod),
		TotalPrice:      b.TotalPrice,
		PaymentStatus:   string(b.PaymentStatus),
		CheckInStatus:   string(b.CheckInStatus),
		XenditInvoiceID: b.XenditInvoiceID,
		XenditPaymentID: b.XenditPaymentID,
		Notes:           notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toDomainBookings(ms []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, *toDomainBooking(m))
	}
	return out
}

// lockDay takes the per-date lock row inside tx and returns the countable
// bookings for that date. The row is created on first use.
func lockDay(tx *gorm.DB, date string) ([]domain.Booking, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&bookingDayModel{BookingDate: date}).Error; err != nil {
		return nil, fmt.Errorf("ensure day lock %s: %w", date, err)
	}

	var day bookingDayModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_date = ?", date).
		First(&day).Error; err != nil {
		return nil, fmt.Errorf("lock day %s: %w", date, err)
	}
	// sqlite ignores FOR UPDATE; the write below takes its database lock instead.
	if err := tx.Model(&bookingDayModel{}).
		Where("booking_date = ?", date).
		UpdateColumn("version", gorm.Expr("version + 1")).Error; err != nil {
		return nil, fmt.Errorf("bump day %s: %w", date, err)
	}

	return countableByDate(tx, date)
}

func countableByDate(tx *gorm.DB, date string) ([]domain.Booking, error) {
	var ms []bookingModel
	err := tx.Where("booking_date = ?", date).
		Where("payment_status IN ?", countableStatuses()).
		Where("check_in_status <> ?", string(domain.CheckInCancelled)).
		Order("booking_time ASC").
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("load bookings for %s: %w", date, err)
	}
	return toDomainBookings(ms), nil
}

// CreateExclusive inserts b after check accepts the date's current bookings.
// Check and insert share one transaction holding the date lock.
func (r *BookingRepository) CreateExclusive(ctx context.Context, b *domain.Booking, check domain.ConflictCheck) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := lockDay(tx, b.BookingDate)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(existing); err != nil {
				return err
			}
		}

		m := toBookingModel(b)
		if err := tx.Create(&m).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateBookingID
			}
			return err
		}
		*b = *toDomainBooking(m)
		return nil
	})
}

// UpdateExclusive applies mutate to the stored booking. When check is non-nil
// the target date is locked and check sees its countable bookings before the
// row is saved.
func (r *BookingRepository) UpdateExclusive(ctx context.Context, id int64, mutate func(b *domain.Booking) error, check domain.ConflictCheck) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error; err != nil {
			return err
		}
		b := toDomainBooking(m)
		if err := mutate(b); err != nil {
			return err
		}

		if check != nil {
			existing, err := lockDay(tx, b.BookingDate)
			if err != nil {
				return err
			}
			if err := check(existing); err != nil {
				return err
			}
		}

		updated := toBookingModel(b)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = toDomainBooking(updated)
		return nil
	})
	return out, err
}

func (r *BookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) SetInvoice(ctx context.Context, id int64, invoiceID string) error {
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"xendit_invoice_id": invoiceID,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransitionPaymentStatus moves a booking's payment status under a row lock.
// The returned flag is false when the current status does not allow the move;
// the booking is then returned unchanged.
func (r *BookingRepository) TransitionPaymentStatus(ctx context.Context, bookingID string, to domain.PaymentStatus, paymentID *string) (*domain.Booking, bool, error) {
	var (
		out     *domain.Booking
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m bookingModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("booking_id = ?", bookingID).
			First(&m).Error; err != nil {
			return err
		}
		if !domain.CanTransition(domain.PaymentStatus(m.PaymentStatus), to) {
			out = toDomainBooking(m)
			return nil
		}

		now := time.Now()
		updates := map[string]interface{}{
			"payment_status": string(to),
			"updated_at":     now,
		}
		if paymentID != nil && *paymentID != "" {
			updates["xendit_payment_id"] = *paymentID
			m.XenditPaymentID = paymentID
		}
		res := tx.Model(&bookingModel{}).
			Where("id = ? AND payment_status = ?", m.ID, string(domain.PaymentPending)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("booking row not updated")
		}

		m.PaymentStatus = string(to)
		m.UpdatedAt = now
		out = toDomainBooking(m)
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

func (r *BookingRepository) ListCountableByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	return countableByDate(r.db.WithContext(ctx), date)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

type BookingFilter struct {
	Date          string
	ServiceType   string
	PaymentStatus string
	CheckInStatus string
	Limit         int
	Offset        int
}

// List returns one page of bookings matching f plus the total match count.
func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.Date != "" {
		q = q.Where("booking_date = ?", f.Date)
	}
	if f.ServiceType != "" {
		q = q.Where("service_type = ?", f.ServiceType)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.CheckInStatus != "" {
		q = q.Where("check_in_status = ?", f.CheckInStatus)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []bookingModel
	if err := q.Order("booking_date DESC").
		Order("booking_time DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toDomainBookings(ms), total, nil
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&bookingModel{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingWithInvoice returns pending bookings that already carry a gateway
// invoice, oldest first.
func (r *BookingRepository) ListPendingWithInvoice(ctx context.Context, limit int) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("payment_status = ?", string(domain.PaymentPending)).
		Where("xendit_invoice_id IS NOT NULL AND xendit_invoice_id <> ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

// ListDanglingOnline returns online-payment bookings created before cutoff
// that are still pending without an invoice.
func (r *BookingRepository) ListDanglingOnline(ctx context.Context, cutoff time.Time) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.db.WithContext(ctx).
		Where("payment_status = ?", string(domain.PaymentPending)).
		Where("payment_method IN ?", []string{string(domain.PaymentGCash), string(domain.PaymentCreditCard)}).
		Where("(xendit_invoice_id IS NULL OR xendit_invoice_id = '')").
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func countableStatuses() []string {
	out := make([]string, 0, len(domain.CountablePaymentStatuses))
	for _, s := range domain.CountablePaymentStatuses {
		out = append(out, string(s))
	}
	return out
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
