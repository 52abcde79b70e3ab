package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"

	bonusdomain "banya/internal/service/bonus/domain"
	"banya/internal/service/booking/application"
	bookingdomain "banya/internal/service/booking/domain"
	catalogdomain "banya/internal/service/catalog/domain"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"booking not found", bookingdomain.ErrBookingNotFound, http.StatusNotFound},
		{"room not found", catalogdomain.ErrRoomNotFound, http.StatusNotFound},
		{"slot taken", bookingdomain.ErrSlotTaken, http.StatusConflict},
		{"active booking exists", bookingdomain.ErrActiveBookingExist, http.StatusConflict},
		{"already paid", bookingdomain.ErrAlreadyPaid, http.StatusConflict},
		{"wrong code", bookingdomain.ErrWrongCode, http.StatusForbidden},
		{"not confirmed", bookingdomain.ErrNotConfirmed, http.StatusForbidden},
		{"past start", bookingdomain.ErrPastStart, http.StatusBadRequest},
		{"too far ahead", bookingdomain.ErrTooFarAhead, http.StatusBadRequest},
		{"outside work window", bookingdomain.ErrOutsideWorkWindow, http.StatusBadRequest},
		{"invalid phone", application.ErrInvalidPhone, http.StatusBadRequest},
		{"insufficient balance", bonusdomain.ErrInsufficientBalance, http.StatusBadRequest},
		{"wrapped error keeps mapping", errors.Wrap(bookingdomain.ErrSlotTaken, "create failed"), http.StatusConflict},
		{"unknown error is 500", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Fatal("internal error details must not leak to the client")
	}
}

type stubBonusQueries struct {
	balance float64
	txs     []bonusdomain.Transaction
}

func (s *stubBonusQueries) Balance(_ context.Context, _ uint, _ string) (float64, error) {
	return s.balance, nil
}

func (s *stubBonusQueries) Transactions(_ context.Context, _ uint, _ string) ([]bonusdomain.Transaction, error) {
	return s.txs, nil
}

func TestBonusBalanceHandler(t *testing.T) {
	h := NewBookingHandler(nil, &stubBonusQueries{balance: 150.50})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/bonus_balance?bathhouse_id=1&phone=%2B77010000001", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["balance"] != 150.50 {
		t.Fatalf("balance = %.2f, want 150.50", body["balance"])
	}
}

func TestBonusBalanceHandlerRequiresParams(t *testing.T) {
	h := NewBookingHandler(nil, &stubBonusQueries{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	tests := []struct {
		name string
		url  string
	}{
		{"missing bathhouse_id", "/bonus_balance?phone=%2B77010000001"},
		{"missing phone", "/bonus_balance?bathhouse_id=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandlersRejectMalformedBody(t *testing.T) {
	h := NewBookingHandler(nil, &stubBonusQueries{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	routes := []string{
		"/create_booking",
		"/confirm_booking_sms",
		"/confirm_booking_admin",
		"/request_cancel_booking",
		"/cancel_booking_sms",
		"/pay_booking",
	}
	for _, route := range routes {
		t.Run(route, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, route, strings.NewReader("{not json"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRoomBookingsHandlerValidation(t *testing.T) {
	h := NewBookingHandler(nil, &stubBonusQueries{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	tests := []struct {
		name string
		url  string
	}{
		{"missing room_id", "/room_bookings"},
		{"bad from", "/room_bookings?room_id=7&from=yesterday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	h := NewBookingHandler(nil, &stubBonusQueries{})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
