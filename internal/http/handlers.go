package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gabrielpaulo/atrium-booking/internal/adapters/postgres"
	"github.com/gabrielpaulo/atrium-booking/internal/adapters/rabbit"
	redisadapter "github.com/gabrielpaulo/atrium-booking/internal/adapters/redis"
	"github.com/gabrielpaulo/atrium-booking/internal/booking"
	"github.com/gabrielpaulo/atrium-booking/internal/config"
	"github.com/gabrielpaulo/atrium-booking/internal/domain"
	"github.com/gabrielpaulo/atrium-booking/internal/observability"
)

const idempotencyTTL = time.Hour

type Handlers struct {
	cfg         *config.Config
	coordinator *booking.Coordinator
	status      *booking.StatusService
	store       *postgres.Store
	cache       *redisadapter.Cache
	idemp       *redisadapter.Idempotency
	rabbitPub   *rabbit.Publisher
}

func NewHandlers(cfg *config.Config, coordinator *booking.Coordinator, status *booking.StatusService, store *postgres.Store, cache *redisadapter.Cache, idemp *redisadapter.Idempotency, rabbitPub *rabbit.Publisher) *Handlers {
	return &Handlers{
		cfg:         cfg,
		coordinator: coordinator,
		status:      status,
		store:       store,
		cache:       cache,
		idemp:       idemp,
		rabbitPub:   rabbitPub,
	}
}

type intervalRequest struct {
	ResourceID uuid.UUID `json:"resource_id"`
	Date       string    `json:"date"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	HolderID   uuid.UUID `json:"holder_id"`
}

func (req intervalRequest) interval() (domain.Interval, error) {
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return domain.Interval{}, domain.ErrInvalidInput
	}
	start, err := domain.ParseClock(req.Start)
	if err != nil {
		return domain.Interval{}, err
	}
	end, err := domain.ParseClock(req.End)
	if err != nil {
		return domain.Interval{}, err
	}
	return domain.NewInterval(day, start, end)
}

func (h *Handlers) GetSlotStatus(w http.ResponseWriter, r *http.Request) {
	resourceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid resource id", http.StatusBadRequest)
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.status.SlotStatus(r.Context(), resourceID, day)
	if err != nil {
		writeDomainError(w, err, "slot_status")
		return
	}

	type slotResp struct {
		Start    string `json:"start"`
		End      string `json:"end"`
		Status   string `json:"status"`
		HolderID string `json:"holder_id,omitempty"`
	}
	out := make([]slotResp, 0, len(slots))
	for _, s := range slots {
		sr := slotResp{
			Start:  domain.FormatClock(s.Interval.Start),
			End:    domain.FormatClock(s.Interval.End),
			Status: string(s.Status),
		}
		if s.HolderID != uuid.Nil {
			sr.HolderID = s.HolderID.String()
		}
		out = append(out, sr)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource_id": resourceID,
		"date":        day.Format("2006-01-02"),
		"slots":       out,
	})
}

func (h *Handlers) CreateHold(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.replayIdempotent(w, r, key) {
		return
	}

	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	iv, err := req.interval()
	if err != nil {
		writeDomainError(w, err, "request_hold")
		return
	}

	// Advisory fast-fail: competing hold requests on the same slot bounce on
	// redis before touching the database. Never the correctness mechanism.
	ok, err := h.cache.AcquireSlotLock(r.Context(), req.ResourceID.String(), iv, req.HolderID.String(), h.coordinator.HoldTTL())
	if err == nil && !ok {
		holder, herr := h.cache.SlotLockHolder(r.Context(), req.ResourceID.String(), iv)
		if herr == nil && holder != req.HolderID.String() {
			observability.SlotConflictsTotal.WithLabelValues("request_hold").Inc()
			http.Error(w, "slot is being claimed", http.StatusConflict)
			return
		}
	}

	hold, err := h.coordinator.RequestHold(r.Context(), req.ResourceID, iv, req.HolderID)
	if err != nil {
		_ = h.cache.ReleaseSlotLock(r.Context(), req.ResourceID.String(), iv)
		writeDomainError(w, err, "request_hold")
		return
	}

	data := h.writeJSONRecorded(w, http.StatusCreated, map[string]interface{}{
		"hold_id":    hold.ID,
		"expires_at": hold.ExpiresAt.Format(time.RFC3339),
	})
	h.storeIdempotent(r, key, http.StatusCreated, data)
}

func (h *Handlers) ConfirmHold(w http.ResponseWriter, r *http.Request) {
	holdID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid hold id", http.StatusBadRequest)
		return
	}
	var req struct {
		HolderID uuid.UUID `json:"holder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.coordinator.Confirm(r.Context(), holdID, req.HolderID)
	if err != nil {
		writeDomainError(w, err, "confirm")
		return
	}
	_ = h.cache.ReleaseSlotLock(r.Context(), res.ResourceID.String(), res.Interval)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"reservation_id": res.ID,
		"price":          res.Price,
	})
}

func (h *Handlers) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	holdID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid hold id", http.StatusBadRequest)
		return
	}
	var req struct {
		HolderID uuid.UUID `json:"holder_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.coordinator.Release(r.Context(), holdID, req.HolderID); err != nil {
		writeDomainError(w, err, "release")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateReservation(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if h.replayIdempotent(w, r, key) {
		return
	}

	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	iv, err := req.interval()
	if err != nil {
		writeDomainError(w, err, "direct_confirm")
		return
	}

	res, err := h.coordinator.DirectConfirm(r.Context(), req.ResourceID, iv, req.HolderID)
	if err != nil {
		writeDomainError(w, err, "direct_confirm")
		return
	}

	data := h.writeJSONRecorded(w, http.StatusCreated, map[string]interface{}{
		"reservation_id": res.ID,
		"price":          res.Price,
	})
	h.storeIdempotent(r, key, http.StatusCreated, data)
}

func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReservationID uuid.UUID `json:"reservation_id"`
		Status        string    `json:"status"`
		TransactionID string    `json:"transaction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Status != "SUCCEEDED" {
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.store.MarkPaid(r.Context(), req.ReservationID); err != nil {
		writeDomainError(w, err, "payment_callback")
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"reservation_id": req.ReservationID,
		"transaction_id": req.TransactionID,
	})
	msg := amqp.Publishing{
		MessageId:   uuid.New().String(),
		ContentType: "application/json",
		Body:        payload,
	}
	// Fire-and-forget: a broker hiccup must not fail the billing update.
	_ = h.rabbitPub.Publish(r.Context(), booking.EventReservationPaid, msg)

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResourceID uuid.UUID `json:"resource_id"`
		Weekday    int       `json:"weekday"`
		Start      string    `json:"start"`
		End        string    `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, err := domain.ParseClock(req.Start)
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	end, err := domain.ParseClock(req.End)
	if err != nil || end <= start || req.Weekday < 0 || req.Weekday > 6 {
		http.Error(w, "invalid block window", http.StatusBadRequest)
		return
	}

	block := domain.RecurringBlock{
		ID:         uuid.New(),
		ResourceID: req.ResourceID,
		Weekday:    time.Weekday(req.Weekday),
		Start:      start,
		End:        end,
	}
	if err := h.store.CreateBlock(r.Context(), block); err != nil {
		writeDomainError(w, err, "create_block")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"block_id": block.ID})
}

func (h *Handlers) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	blockID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid block id", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteBlock(r.Context(), blockID); err != nil {
		writeDomainError(w, err, "delete_block")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func (h *Handlers) replayIdempotent(w http.ResponseWriter, r *http.Request, key string) bool {
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return true
	}
	if existing != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(existing.Status)
		w.Write(existing.Result)
		return true
	}
	return false
}

func (h *Handlers) storeIdempotent(r *http.Request, key string, status int, data []byte) {
	_ = h.idemp.Set(r.Context(), key, redisadapter.IdempResponse{Status: status, Result: data}, idempotencyTTL)
}

func (h *Handlers) writeJSONRecorded(w http.ResponseWriter, status int, body interface{}) []byte {
	data, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	return data
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeDomainError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, domain.ErrHoldExpired):
		observability.SlotConflictsTotal.WithLabelValues(operation).Inc()
		http.Error(w, "hold expired", http.StatusConflict)
	case errors.Is(err, domain.ErrConflict):
		observability.SlotConflictsTotal.WithLabelValues(operation).Inc()
		http.Error(w, "slot unavailable", http.StatusConflict)
	case errors.Is(err, domain.ErrSerializationFailure):
		observability.SlotConflictsTotal.WithLabelValues(operation).Inc()
		http.Error(w, "conflict, try again", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
