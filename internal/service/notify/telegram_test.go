package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"

	"banya/internal/pkg/httpclient"
	"banya/internal/service/booking/domain"
)

func TestTelegramSend(t *testing.T) {
	var got sendMessagePayload
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sender := NewTelegramSender(httpclient.NewClient(otel.Tracer("test")), "TOKEN123", "-100500", "PROD")
	sender.apiBase = server.URL

	if err := sender.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/botTOKEN123/sendMessage" {
		t.Fatalf("path = %q", path)
	}
	if got.ChatID != "-100500" || got.Text != "hello" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestTelegramSendSkipsInDev(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	sender := NewTelegramSender(httpclient.NewClient(otel.Tracer("test")), "TOKEN123", "-100500", "DEV")
	sender.apiBase = server.URL

	if err := sender.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if called {
		t.Fatal("DEV stage must not hit the Telegram API")
	}
}

func TestTelegramSendPropagatesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewTelegramSender(httpclient.NewClient(otel.Tracer("test")), "TOKEN123", "-100500", "PROD")
	sender.apiBase = server.URL

	if err := sender.Send(context.Background(), "hello"); err == nil {
		t.Fatal("non-2xx response must surface as an error")
	}
}

func TestFormatEvent(t *testing.T) {
	price := 2000.00
	start := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	base := domain.BookingEvent{
		BookingID: "b1",
		RoomID:    7,
		Name:      "Aigerim",
		Phone:     "+77010000001",
		Start:     start,
		Hours:     2,
	}

	tests := []struct {
		name     string
		typ      string
		price    *float64
		contains []string
	}{
		{"created", domain.EventBookingCreated, &price, []string{"New booking", "room 7", "11.03 12:00", "2000.00"}},
		{"confirmed", domain.EventBookingConfirmed, nil, []string{"Confirmed", "room 7"}},
		{"cancelled", domain.EventBookingCancelled, nil, []string{"Cancelled"}},
		{"expired", domain.EventBookingExpired, nil, []string{"Expired"}},
		{"paid", domain.EventBookingPaid, &price, []string{"Paid", "2000.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := base
			event.Type = tt.typ
			event.FinalPrice = tt.price
			text := FormatEvent(&event)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Fatalf("FormatEvent() = %q, want substring %q", text, want)
				}
			}
		})
	}

	unknown := base
	unknown.Type = "SOMETHING_ELSE"
	if got := FormatEvent(&unknown); got != "" {
		t.Fatalf("unknown event type must render empty, got %q", got)
	}
}
