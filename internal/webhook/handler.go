package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ticketsync/internal/logger"
)

// SyncService is the slice of the reconciliation service webhooks drive.
type SyncService interface {
	RefreshEvent(ctx context.Context, eventID int64) (bool, error)
	RemoveEvent(ctx context.Context, eventID int64) error
	RefreshOrder(ctx context.Context, orderID int64) (bool, error)
}

// Deduper shields the upstream retry storm: replayed deliveries inside the
// window are acknowledged without re-fetching.
type Deduper interface {
	MarkWebhook(ctx context.Context, deliveryKey string) (bool, error)
}

type Handler struct {
	Service SyncService
	Dedupe  Deduper
	Logger  *logger.Logger
}

func NewHandler(service SyncService, dedupe Deduper, log *logger.Logger) *Handler {
	return &Handler{Service: service, Dedupe: dedupe, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/event", h.HandleEvent)
	r.Post("/webhooks/order", h.HandleOrder)
}

type eventPayload struct {
	EventID int64  `json:"event_id"`
	Action  string `json:"action"`
}

type orderPayload struct {
	OrderID         int64  `json:"order_id"`
	TransactionType string `json:"transaction_type"`
}

// HandleEvent processes an event callback. UNPUBLISH/REMOVED deletes the
// stored event; anything else triggers a re-fetch-and-upsert. Payloads with
// a missing identifier are acknowledged with 200 so the upstream stops
// retrying them.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.Logger.Warn("WEBHOOK", fmt.Sprintf("event: bad payload: %v", err))
		writeReject(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	if payload.EventID == 0 {
		h.Logger.Warn("WEBHOOK", "event: missing event_id, acknowledging")
		writeAck(w, http.StatusOK, "ignored")
		return
	}

	h.Logger.Info("WEBHOOK", fmt.Sprintf("event %d action=%s", payload.EventID, payload.Action))

	if !h.firstDelivery(r.Context(), fmt.Sprintf("event:%d:%s", payload.EventID, payload.Action)) {
		writeAck(w, http.StatusOK, "duplicate delivery")
		return
	}

	switch payload.Action {
	case "UNPUBLISH", "REMOVED":
		if err := h.Service.RemoveEvent(r.Context(), payload.EventID); err != nil {
			h.Logger.Error("WEBHOOK", fmt.Sprintf("remove event %d: %v", payload.EventID, err))
			writeReject(w, http.StatusInternalServerError, "remove failed", err.Error())
			return
		}
		writeAck(w, http.StatusOK, "event removed")
	default:
		found, err := h.Service.RefreshEvent(r.Context(), payload.EventID)
		if err != nil {
			h.Logger.Error("WEBHOOK", fmt.Sprintf("refresh event %d: %v", payload.EventID, err))
			writeReject(w, http.StatusInternalServerError, "refresh failed", err.Error())
			return
		}
		if !found {
			writeReject(w, http.StatusNotFound, "event not found upstream", "")
			return
		}
		writeAck(w, http.StatusOK, "event refreshed")
	}
}

// HandleOrder processes an order callback: any transaction type triggers a
// re-fetch-and-upsert of the order's rows.
func (h *Handler) HandleOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.Logger.Warn("WEBHOOK", fmt.Sprintf("order: bad payload: %v", err))
		writeReject(w, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	if payload.OrderID == 0 {
		h.Logger.Warn("WEBHOOK", "order: missing order_id, acknowledging")
		writeAck(w, http.StatusOK, "ignored")
		return
	}

	h.Logger.Info("WEBHOOK", fmt.Sprintf("order %d type=%s", payload.OrderID, payload.TransactionType))

	if !h.firstDelivery(r.Context(), fmt.Sprintf("order:%d:%s", payload.OrderID, payload.TransactionType)) {
		writeAck(w, http.StatusOK, "duplicate delivery")
		return
	}

	found, err := h.Service.RefreshOrder(r.Context(), payload.OrderID)
	if err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("refresh order %d: %v", payload.OrderID, err))
		writeReject(w, http.StatusInternalServerError, "refresh failed", err.Error())
		return
	}
	if !found {
		writeReject(w, http.StatusNotFound, "order not found upstream", "")
		return
	}
	writeAck(w, http.StatusOK, "order refreshed")
}

// firstDelivery reports whether this delivery key was seen for the first
// time. Dedupe failures err on the side of processing.
func (h *Handler) firstDelivery(ctx context.Context, key string) bool {
	if h.Dedupe == nil {
		return true
	}
	first, err := h.Dedupe.MarkWebhook(ctx, key)
	if err != nil {
		h.Logger.Warn("WEBHOOK", fmt.Sprintf("dedupe %s: %v", key, err))
		return true
	}
	if !first {
		h.Logger.Info("WEBHOOK", fmt.Sprintf("duplicate delivery %s", key))
	}
	return first
}
