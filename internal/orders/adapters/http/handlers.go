package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dejobratic/checkout/internal/orders/app"
	"github.com/dejobratic/checkout/internal/orders/ports"
	"github.com/dejobratic/checkout/internal/validation"
)

const idempotencyHeader = "Idempotency-Key"

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

// Register binds the order handlers to r. The purchase route is registered
// before the {order_id} routes so it is not captured as an id.
func (h *Handler) Register(r *mux.Router) {
	orders := r.PathPrefix("/v1/orders").Subrouter()

	orders.HandleFunc("/purchase", h.purchaseOrders).Methods(http.MethodPost)
	orders.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	orders.HandleFunc("", h.createOrder).Methods(http.MethodPost)
	orders.HandleFunc("/{order_id}", h.getOrder).Methods(http.MethodGet)
	orders.HandleFunc("/{order_id}", h.updateOrder).Methods(http.MethodPut)
	orders.HandleFunc("/{order_id}", h.archiveOrder).Methods(http.MethodDelete)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))

	if idemKey != "" {
		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	var payload app.CreateOrderInput
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}

	order, err := h.service.CreateOrder(ctx, payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	body, err := json.Marshal(order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode: http.StatusOK,
			Body:       body,
			OrderID:    order.ID,
		}
		// The order already exists; a lost key only means a retry is not deduplicated.
		_ = h.service.SaveIdempotentResponse(ctx, idemKey, stored)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var payload app.UpdateOrderInput
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}
	payload.OrderID = mux.Vars(r)["order_id"]

	ack, err := h.service.UpdateOrder(r.Context(), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

func (h *Handler) archiveOrder(w http.ResponseWriter, r *http.Request) {
	ack, err := h.service.ArchiveOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ack)
}

type purchaseRequest struct {
	Email string `json:"email"`
}

func (h *Handler) purchaseOrders(w http.ResponseWriter, r *http.Request) {
	var payload purchaseRequest
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, decodeErrorMessage(err))
		return
	}

	results, err := h.service.PurchaseOrders(r.Context(), payload.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched
// so that missing fields are reported by validation rather than as bad JSON.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeErrorMessage names the offending field when the JSON is well formed
// but a value has the wrong type.
func decodeErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be %s", typeErr.Field, jsonKind(typeErr.Type))
	}
	return "invalid JSON payload"
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, verr.Verdict)
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
