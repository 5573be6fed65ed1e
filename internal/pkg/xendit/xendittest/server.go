// Package xendittest runs an in-process Xendit Invoice API for tests.
// Point xendit.Config.BaseURL at Server.URL.
package xendittest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const CheckoutBaseURL = "https://checkout.xendit.test/"

// Invoice is a stored invoice. Amount is sent back verbatim, decimals
// included.
type Invoice struct {
	ID         string
	ExternalID string
	Status     string
	Amount     float64
	Currency   string
}

// Request is one call received by the server.
type Request struct {
	Method string
	Path   string
	User   string
	Body   map[string]any
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	invoices map[string]Invoice
	requests []Request
}

// NewServer starts a gateway that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{invoices: map[string]Invoice{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Put stores or replaces an invoice.
func (s *Server) Put(inv Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = inv
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path}
	req.User, _, _ = r.BasicAuth()
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req.Body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	path := strings.TrimRight(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodPost && path == "/v2/invoices":
		s.create(w, req.Body)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v2/invoices/"):
		s.get(w, strings.TrimPrefix(path, "/v2/invoices/"))
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	}
}

func (s *Server) create(w http.ResponseWriter, body map[string]any) {
	externalID, _ := body["external_id"].(string)
	amount, _ := body["amount"].(float64)
	currency, _ := body["currency"].(string)
	if externalID == "" || amount <= 0 {
		writeError(w, http.StatusBadRequest, "API_VALIDATION_ERROR", "external_id and amount are required")
		return
	}

	inv := Invoice{
		ID:         "inv_" + externalID,
		ExternalID: externalID,
		Status:     "PENDING",
		Amount:     amount,
		Currency:   currency,
	}
	s.Put(inv)
	writeInvoice(w, inv)
}

func (s *Server) get(w http.ResponseWriter, id string) {
	s.mu.Lock()
	inv, ok := s.invoices[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "INVOICE_NOT_FOUND_ERROR", "Invoice not found")
		return
	}
	writeInvoice(w, inv)
}

// writeInvoice renders every property the Invoice API marks as required.
func writeInvoice(w http.ResponseWriter, inv Invoice) {
	now := time.Now().UTC()
	currency := inv.Currency
	if currency == "" {
		currency = "PHP"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":                           inv.ID,
		"external_id":                  inv.ExternalID,
		"user_id":                      "user_test",
		"status":                       inv.Status,
		"merchant_name":                "MixLab Studio",
		"merchant_profile_picture_url": "https://checkout.xendit.test/logo.png",
		"amount":                       inv.Amount,
		"expiry_date":                  now.Add(24 * time.Hour),
		"invoice_url":                  CheckoutBaseURL + inv.ExternalID,
		"available_banks":              []any{},
		"available_retail_outlets":     []any{},
		"available_ewallets":           []any{},
		"available_qr_codes":           []any{},
		"available_direct_debits":      []any{},
		"available_paylaters":          []any{},
		"should_exclude_credit_card":   false,
		"should_send_email":            false,
		"created":                      now,
		"updated":                      now,
		"currency":                     currency,
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error_code": code, "message": message})
}
