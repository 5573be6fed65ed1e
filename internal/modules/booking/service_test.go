package booking

import (
	"context"
	"errors"
	"testing"

	"mixlab/internal/domain"
	"mixlab/internal/pkg/xendit"
	"mixlab/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type MockBookingRepository struct {
	mock.Mock
	existing []domain.Booking
}

func (m *MockBookingRepository) CreateExclusive(ctx context.Context, b *domain.Booking, check domain.ConflictCheck) error {
	if err := check(m.existing); err != nil {
		return err
	}
	args := m.Called(ctx, b)
	if args.Error(0) == nil {
		b.ID = 999 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockBookingRepository) SetInvoice(ctx context.Context, id int64, invoiceID string) error {
	args := m.Called(ctx, id, invoiceID)
	return args.Error(0)
}

func (m *MockBookingRepository) ListCountableByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockInvoiceCreator struct {
	mock.Mock
}

func (m *MockInvoiceCreator) CreateInvoice(ctx context.Context, in xendit.InvoiceRequest) (*xendit.Invoice, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*xendit.Invoice), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBookingCreated(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		Name:          "Ana Reyes",
		Email:         "ana@example.com",
		Contact:       "09171234567",
		ServiceType:   "recording",
		BookingDate:   "2025-12-01",
		BookingTime:   "12:00",
		Hours:         2,
		PaymentMethod: "cash",
	}
}

func TestCreate_CashSuccess(t *testing.T) {
	repo := new(MockBookingRepository)
	notifier := new(MockNotifier)
	repo.On("CreateExclusive", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)
	notifier.On("NotifyBookingCreated", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, nil, notifier, zap.NewNop())
	res, err := svc.Create(context.Background(), validRequest(), nil)

	require.NoError(t, err)
	assert.Nil(t, res.PaymentURL)
	assert.Equal(t, int64(999), res.Booking.ID)
	assert.Equal(t, int64(3000), res.Booking.TotalPrice)
	assert.Equal(t, domain.PaymentPending, res.Booking.PaymentStatus)
	assert.Equal(t, domain.CheckInPending, res.Booking.CheckInStatus)
	assert.Equal(t, 1, res.Booking.Members)
	assert.Regexp(t, `^MIX-[0-9A-Z]+-[0-9A-F]{8}$`, res.Booking.BookingID)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCreate_DefaultsHoursAndFallsBackPrice(t *testing.T) {
	repo := new(MockBookingRepository)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil)

	req := validRequest()
	req.Hours = 0
	req.ServiceType = "karaoke"

	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(repo, nil, nil, zap.New(core))
	res, err := svc.Create(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Booking.Hours)
	assert.Equal(t, int64(800), res.Booking.TotalPrice)

	warned := logs.FilterMessage("unknown service type, using fallback rate").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "karaoke", warned[0].ContextMap()["service_type"])
}

func TestCreate_KnownServiceDoesNotWarn(t *testing.T) {
	repo := new(MockBookingRepository)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil)

	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(repo, nil, nil, zap.New(core))
	_, err := svc.Create(context.Background(), validRequest(), nil)

	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc := NewService(new(MockBookingRepository), nil, nil, nil)

	cases := map[string]func(r *CreateBookingRequest){
		"missing name":   func(r *CreateBookingRequest) { r.Name = "" },
		"bad email":      func(r *CreateBookingRequest) { r.Email = "nope" },
		"hours too many": func(r *CreateBookingRequest) { r.Hours = 13 },
		"bad method":     func(r *CreateBookingRequest) { r.PaymentMethod = "bitcoin" },
		"bad date":       func(r *CreateBookingRequest) { r.BookingDate = "12/01/2025" },
		"bad time":       func(r *CreateBookingRequest) { r.BookingTime = "noon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Create(context.Background(), req, nil)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreate_FieldMessagesUseJSONNames(t *testing.T) {
	svc := NewService(new(MockBookingRepository), nil, nil, nil)
	req := validRequest()
	req.Email = ""
	req.PaymentMethod = ""

	_, err := svc.Create(context.Background(), req, nil)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "paymentMethod")
}

func TestCreate_OutsideOperatingHours(t *testing.T) {
	svc := NewService(new(MockBookingRepository), nil, nil, nil)

	req := validRequest()
	req.BookingTime = "20:00"
	req.Hours = 2
	_, err := svc.Create(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrOutsideHours)

	req.BookingTime = "08:30"
	req.Hours = 1
	_, err = svc.Create(context.Background(), req, nil)
	assert.ErrorIs(t, err, ErrOutsideHours)
}

func TestCreate_ConflictRejected(t *testing.T) {
	repo := &MockBookingRepository{existing: []domain.Booking{countable("MIX-A", "10:00", 2)}}
	svc := NewService(repo, nil, nil, nil)

	req := validRequest()
	req.BookingTime = "11:00"
	req.Hours = 1
	_, err := svc.Create(context.Background(), req, nil)

	assert.ErrorIs(t, err, ErrConflict)
	repo.AssertNotCalled(t, "CreateExclusive", mock.Anything, mock.Anything)
}

func TestCreate_RetriesDuplicateID(t *testing.T) {
	repo := new(MockBookingRepository)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(repository.ErrDuplicateBookingID).Once()
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewService(repo, nil, nil, nil)
	_, err := svc.Create(context.Background(), validRequest(), nil)

	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "CreateExclusive", 2)
}

func TestCreate_GivesUpAfterRepeatedDuplicates(t *testing.T) {
	repo := new(MockBookingRepository)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(repository.ErrDuplicateBookingID)

	svc := NewService(repo, nil, nil, nil)
	_, err := svc.Create(context.Background(), validRequest(), nil)

	assert.ErrorIs(t, err, ErrIDExhausted)
	repo.AssertNumberOfCalls(t, "CreateExclusive", maxIDAttempts)
}

func TestCreate_StorageFailureIsNotAConflict(t *testing.T) {
	repo := new(MockBookingRepository)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	svc := NewService(repo, nil, nil, nil)
	_, err := svc.Create(context.Background(), validRequest(), nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
}

func TestCreate_OnlinePaymentOpensInvoice(t *testing.T) {
	repo := new(MockBookingRepository)
	invoices := new(MockInvoiceCreator)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil)
	repo.On("SetInvoice", mock.Anything, int64(999), "inv_1").Return(nil)
	invoices.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(in xendit.InvoiceRequest) bool {
		return in.Amount == 3000 &&
			in.PayerEmail == "ana@example.com" &&
			in.Description == "MixLab Studio - Recording Studio Booking" &&
			in.Metadata["booking_date"] == "2025-12-01"
	})).Return(&xendit.Invoice{ID: "inv_1", InvoiceURL: "https://pay.example/inv_1"}, nil)

	req := validRequest()
	req.PaymentMethod = "gcash"
	userID := int64(5)

	svc := NewService(repo, invoices, nil, nil)
	res, err := svc.Create(context.Background(), req, &userID)

	require.NoError(t, err)
	require.NotNil(t, res.PaymentURL)
	assert.Equal(t, "https://pay.example/inv_1", *res.PaymentURL)
	require.NotNil(t, res.Booking.XenditInvoiceID)
	assert.Equal(t, "inv_1", *res.Booking.XenditInvoiceID)
	assert.Equal(t, &userID, res.Booking.UserID)
	invoices.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestCreate_GatewayFailure(t *testing.T) {
	repo := new(MockBookingRepository)
	invoices := new(MockInvoiceCreator)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil)
	invoices.On("CreateInvoice", mock.Anything, mock.Anything).Return(nil, errors.New("503"))

	req := validRequest()
	req.PaymentMethod = "credit_card"

	svc := NewService(repo, invoices, nil, nil)
	_, err := svc.Create(context.Background(), req, nil)

	assert.ErrorIs(t, err, ErrGateway)
	repo.AssertNotCalled(t, "SetInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_NotifierFailureIgnored(t *testing.T) {
	repo := new(MockBookingRepository)
	notifier := new(MockNotifier)
	repo.On("CreateExclusive", mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyBookingCreated", mock.Anything, mock.Anything).Return(errors.New("hub closed"))

	svc := NewService(repo, nil, notifier, nil)
	_, err := svc.Create(context.Background(), validRequest(), nil)

	assert.NoError(t, err)
}

func TestAvailableSlots(t *testing.T) {
	repo := new(MockBookingRepository)
	repo.On("ListCountableByDate", mock.Anything, "2025-12-01").
		Return([]domain.Booking{countable("MIX-A", "10:00", 2)}, nil)

	svc := NewService(repo, nil, nil, nil)
	slots, err := svc.AvailableSlots(context.Background(), "2025-12-01", 1)

	require.NoError(t, err)
	assert.Contains(t, slots, "12:00")
	assert.NotContains(t, slots, "11:00")

	_, err = svc.AvailableSlots(context.Background(), "2025-12-01", 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.AvailableSlots(context.Background(), "tomorrow", 1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInitialIntake(t *testing.T) {
	svc := NewService(new(MockBookingRepository), nil, nil, nil)

	out, err := svc.InitialIntake(InitialBookingRequest{Name: " Ana ", Birthday: "2000-01-01", Hours: 8})
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.Name)

	_, err = svc.InitialIntake(InitialBookingRequest{Name: "Ana", Birthday: "2000-01-01", Hours: 9})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.InitialIntake(InitialBookingRequest{Name: "Ana", Hours: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGet_OnlyOwner(t *testing.T) {
	owner := int64(5)
	repo := new(MockBookingRepository)
	repo.On("GetByBookingID", mock.Anything, "MIX-A").Return(&domain.Booking{BookingID: "MIX-A", UserID: &owner}, nil)
	repo.On("GetByBookingID", mock.Anything, "MIX-X").Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(repo, nil, nil, nil)

	b, err := svc.Get(context.Background(), "MIX-A", 5)
	require.NoError(t, err)
	assert.Equal(t, "MIX-A", b.BookingID)

	_, err = svc.Get(context.Background(), "MIX-A", 6)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(context.Background(), "MIX-X", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
