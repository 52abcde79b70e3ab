package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	bonusdomain "banya/internal/service/bonus/domain"
	"banya/internal/service/booking/application"
	bookingdomain "banya/internal/service/booking/domain"
	catalogdomain "banya/internal/service/catalog/domain"
)

const serviceName = "booking-service"

// BookingHandler 封装了 booking 服务的 HTTP 处理器。
type BookingHandler struct {
	service  *application.BookingService
	bonusSvc BonusQueries
}

// BonusQueries 是积分查询接口的只读子集。
type BonusQueries interface {
	Balance(ctx context.Context, bathhouseID uint, phone string) (float64, error)
	Transactions(ctx context.Context, bathhouseID uint, phone string) ([]bonusdomain.Transaction, error)
}

// NewBookingHandler 创建一个新的 HTTP 处理器实例。
func NewBookingHandler(service *application.BookingService, bonusSvc BonusQueries) *BookingHandler {
	return &BookingHandler{service: service, bonusSvc: bonusSvc}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *BookingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/create_booking", h.createBookingHandler)
	mux.HandleFunc("/confirm_booking_sms", h.confirmBySMSHandler)
	mux.HandleFunc("/confirm_booking_admin", h.confirmByAdminHandler)
	mux.HandleFunc("/request_cancel_booking", h.requestCancellationHandler)
	mux.HandleFunc("/cancel_booking_sms", h.confirmCancellationHandler)
	mux.HandleFunc("/pay_booking", h.payBookingHandler)
	mux.HandleFunc("/room_bookings", h.roomBookingsHandler)
	mux.HandleFunc("/my_bookings", h.myBookingsHandler)
	mux.HandleFunc("/bonus_balance", h.bonusBalanceHandler)
	mux.HandleFunc("/bonus_transactions", h.bonusTransactionsHandler)
}

func (h *BookingHandler) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.CreateBookingHandler")
	defer span.End()

	var req application.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Create(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *BookingHandler) confirmBySMSHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.ConfirmBySMSHandler")
	defer span.End()

	var req struct {
		BookingID string `json:"bookingId"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmBySMS(ctx, req.BookingID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *BookingHandler) confirmByAdminHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.ConfirmByAdminHandler")
	defer span.End()

	var req struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmByAdmin(ctx, req.BookingID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (h *BookingHandler) requestCancellationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.RequestCancellationHandler")
	defer span.End()

	var req struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.RequestCancellation(ctx, req.BookingID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "code_sent"})
}

func (h *BookingHandler) confirmCancellationHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.ConfirmCancellationHandler")
	defer span.End()

	var req struct {
		BookingID string `json:"bookingId"`
		Code      string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmCancellation(ctx, req.BookingID, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *BookingHandler) payBookingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.PayBookingHandler")
	defer span.End()

	var req application.PayBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Pay(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) roomBookingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.RoomBookingsHandler")
	defer span.End()

	roomID, err := strconv.ParseUint(r.URL.Query().Get("room_id"), 10, 32)
	if err != nil {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}
	from := time.Now()
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "from must be RFC3339", http.StatusBadRequest)
			return
		}
		from = parsed
	}

	views, err := h.service.RoomBookings(ctx, uint(roomID), from)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *BookingHandler) myBookingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.MyBookingsHandler")
	defer span.End()

	phone := r.URL.Query().Get("phone")
	if phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	views, err := h.service.MyBookings(ctx, phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *BookingHandler) bonusBalanceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.BonusBalanceHandler")
	defer span.End()

	bathhouseID, phone, ok := bonusQueryParams(w, r)
	if !ok {
		return
	}

	balance, err := h.bonusSvc.Balance(ctx, bathhouseID, phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

func (h *BookingHandler) bonusTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.startSpan(r, "booking.BonusTransactionsHandler")
	defer span.End()

	bathhouseID, phone, ok := bonusQueryParams(w, r)
	if !ok {
		return
	}

	txs, err := h.bonusSvc.Transactions(ctx, bathhouseID, phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *BookingHandler) startSpan(r *http.Request, name string) (context.Context, trace.Span) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return otel.Tracer(serviceName).Start(ctx, name)
}

func bonusQueryParams(w http.ResponseWriter, r *http.Request) (uint, string, bool) {
	bathhouseID, err := strconv.ParseUint(r.URL.Query().Get("bathhouse_id"), 10, 32)
	if err != nil {
		http.Error(w, "bathhouse_id is required", http.StatusBadRequest)
		return 0, "", false
	}
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return 0, "", false
	}
	return uint(bathhouseID), phone, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError 把领域错误映射到 HTTP 状态码。
// 未识别的错误一律 500，避免把内部细节泄露给客户端。
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, bookingdomain.ErrBookingNotFound),
		errors.Is(err, catalogdomain.ErrRoomNotFound),
		errors.Is(err, catalogdomain.ErrBathhouseNotFound):
		status = http.StatusNotFound
	case errors.Is(err, bookingdomain.ErrSlotTaken),
		errors.Is(err, bookingdomain.ErrActiveBookingExist),
		errors.Is(err, bookingdomain.ErrAlreadyPaid):
		status = http.StatusConflict
	case errors.Is(err, bookingdomain.ErrWrongCode),
		errors.Is(err, bookingdomain.ErrNotConfirmed):
		status = http.StatusForbidden
	case errors.Is(err, bookingdomain.ErrPastStart),
		errors.Is(err, bookingdomain.ErrTooFarAhead),
		errors.Is(err, bookingdomain.ErrNonPositiveHours),
		errors.Is(err, bookingdomain.ErrOutsideWorkWindow),
		errors.Is(err, bookingdomain.ErrItemNotAvailable),
		errors.Is(err, catalogdomain.ErrItemNotFound),
		errors.Is(err, application.ErrInvalidName),
		errors.Is(err, application.ErrInvalidPhone),
		errors.Is(err, bonusdomain.ErrNegativeAmount),
		errors.Is(err, bonusdomain.ErrInsufficientBalance),
		errors.Is(err, bonusdomain.ErrRedemptionExceedsPrice),
		errors.Is(err, bonusdomain.ErrAccountNotFound):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		http.Error(w, "Internal server error", status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
