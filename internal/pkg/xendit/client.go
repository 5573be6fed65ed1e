package xendit

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	sdk "github.com/xendit/xendit-go/v6"
	"github.com/xendit/xendit-go/v6/common"
	"github.com/xendit/xendit-go/v6/invoice"
)

const DefaultBaseURL = "https://api.xendit.co"

// Invoice statuses reported by the gateway.
const (
	StatusPending = "PENDING"
	StatusPaid    = "PAID"
	StatusSettled = "SETTLED"
	StatusExpired = "EXPIRED"
	StatusFailed  = "FAILED"
)

var ErrNotConfigured = errors.New("xendit secret key is not configured")

type InvoiceRequest struct {
	ExternalID         string
	Amount             int64
	PayerEmail         string
	Description        string
	Currency           string
	InvoiceDuration    int // seconds
	SuccessRedirectURL string
	FailureRedirectURL string
	Metadata           map[string]string
}

// Invoice is the part of a gateway invoice the booking flow reads.
// Amount stays fractional; the gateway reports decimals for some currencies.
type Invoice struct {
	ID         string
	ExternalID string
	Status     string
	InvoiceURL string
	Amount     float64
}

// APIError is a gateway error reported through the SDK.
type APIError struct {
	Status  string
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("xendit: %s %s: %s", e.Status, e.Code, e.Message)
}

type Config struct {
	SecretKey          string
	CallbackToken      string
	BaseURL            string
	Currency           string
	InvoiceDuration    time.Duration
	SuccessRedirectURL string
	FailureRedirectURL string
}

// Client adapts the Xendit Invoice API to the booking flow.
type Client struct {
	cfg Config
	api *sdk.APIClient
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Currency == "" {
		cfg.Currency = "PHP"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	api := sdk.NewClient(cfg.SecretKey)
	conf := api.GetConfig().(*sdk.Configuration)
	conf.HTTPClient = httpClient
	conf.Servers[0].URL = cfg.BaseURL
	return &Client{cfg: cfg, api: api}
}

// CreateInvoice creates a hosted invoice. Currency, duration and redirect
// URLs default from the client config.
func (c *Client) CreateInvoice(ctx context.Context, in InvoiceRequest) (*Invoice, error) {
	if c.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	req := invoice.NewCreateInvoiceRequest(in.ExternalID, float64(in.Amount))
	req.SetDescription(in.Description)
	if in.PayerEmail != "" {
		req.SetPayerEmail(in.PayerEmail)
	}
	currency := in.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}
	req.SetCurrency(currency)

	duration := in.InvoiceDuration
	if duration == 0 && c.cfg.InvoiceDuration > 0 {
		duration = int(c.cfg.InvoiceDuration / time.Second)
	}
	if duration > 0 {
		req.SetInvoiceDuration(strconv.Itoa(duration))
	}
	if success := firstNonEmpty(in.SuccessRedirectURL, c.cfg.SuccessRedirectURL); success != "" {
		req.SetSuccessRedirectUrl(success)
	}
	if failure := firstNonEmpty(in.FailureRedirectURL, c.cfg.FailureRedirectURL); failure != "" {
		req.SetFailureRedirectUrl(failure)
	}
	if len(in.Metadata) > 0 {
		md := make(map[string]interface{}, len(in.Metadata))
		for k, v := range in.Metadata {
			md[k] = v
		}
		req.SetMetadata(md)
	}

	inv, _, xerr := c.api.InvoiceApi.CreateInvoice(ctx).CreateInvoiceRequest(*req).Execute()
	if xerr != nil {
		return nil, fmt.Errorf("create invoice %s: %w", in.ExternalID, apiError(xerr))
	}
	return fromSDK(inv), nil
}

func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	if c.cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	inv, _, xerr := c.api.InvoiceApi.GetInvoiceById(ctx, invoiceID).Execute()
	if xerr != nil {
		return nil, fmt.Errorf("get invoice %s: %w", invoiceID, apiError(xerr))
	}
	return fromSDK(inv), nil
}

// VerifyCallbackToken compares the webhook header with the configured token
// in constant time. An unset token never verifies.
func (c *Client) VerifyCallbackToken(token string) bool {
	if c.cfg.CallbackToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(c.cfg.CallbackToken)) == 1
}

func fromSDK(inv *invoice.Invoice) *Invoice {
	if inv == nil {
		return &Invoice{}
	}
	return &Invoice{
		ID:         inv.GetId(),
		ExternalID: inv.GetExternalId(),
		Status:     string(inv.GetStatus()),
		InvoiceURL: inv.GetInvoiceUrl(),
		Amount:     float64(inv.GetAmount()),
	}
}

func apiError(xerr *common.XenditSdkError) *APIError {
	return &APIError{
		Status:  xerr.Status(),
		Code:    xerr.ErrorCode(),
		Message: xerr.Error(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
