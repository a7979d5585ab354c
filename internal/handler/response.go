package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/urbanharvest/vending-api/internal/service"
)

// Error codes returned in the "code" field of error bodies.
const (
	codeValidation          = "VALIDATION_ERROR"
	codeMachineNotFound     = "MACHINE_NOT_FOUND"
	codeMachineUnavailable  = "MACHINE_UNAVAILABLE"
	codeItemNotFound        = "ITEM_NOT_FOUND"
	codeConstraintViolation = "CONSTRAINT_VIOLATION"
	codeInsufficientStock   = "INSUFFICIENT_STOCK"
	codeOrderNotFound       = "ORDER_NOT_FOUND"
	codeInvalidTransition   = "INVALID_TRANSITION"
	codeNotFound            = "NOT_FOUND"
	codeInternal            = "INTERNAL_ERROR"
)

type errorResponse struct {
	Error   string        `json:"error"`
	Code    string        `json:"code"`
	Details *stockDetails `json:"details,omitempty"`
}

type stockDetails struct {
	ItemID    uuid.UUID `json:"item_id"`
	ItemType  string    `json:"item_type"`
	Name      string    `json:"name"`
	Available int32     `json:"available"`
	Requested int32     `json:"requested"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, codeValidation, msg)
}

func internalError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	logger.Error(op, "err", err)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}

// isValidationError checks if the error is a request shape error from the
// service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrInvalidMachineID) ||
		errors.Is(err, service.ErrInvalidUserID) ||
		errors.Is(err, service.ErrInvalidItemID) ||
		errors.Is(err, service.ErrNoIngredients) ||
		errors.Is(err, service.ErrTooManyIngredients) ||
		errors.Is(err, service.ErrTooManyAddons) ||
		errors.Is(err, service.ErrInvalidGrams) ||
		errors.Is(err, service.ErrInvalidQtyMl) ||
		errors.Is(err, service.ErrInvalidAddonQty) ||
		errors.Is(err, service.ErrInvalidCalories) ||
		errors.Is(err, service.ErrTooManyCalories) ||
		errors.Is(err, service.ErrInvalidTotalPrice) ||
		errors.Is(err, service.ErrInvalidSessionID) ||
		errors.Is(err, service.ErrInvalidStatus)
}

// writeServiceError maps an error returned by the order service to a status
// code and error body. Anything unclassified is logged and reported as 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var stockErr *service.StockError
	switch {
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
	case errors.Is(err, service.ErrItemNotFound):
		writeError(w, http.StatusBadRequest, codeItemNotFound, err.Error())
	case errors.Is(err, service.ErrConstraintViolation):
		writeError(w, http.StatusBadRequest, codeConstraintViolation, err.Error())
	case errors.Is(err, service.ErrMachineNotFound):
		writeError(w, http.StatusNotFound, codeMachineNotFound, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, service.ErrMachineUnavailable):
		writeError(w, http.StatusConflict, codeMachineUnavailable, err.Error())
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: err.Error(),
			Code:  codeInsufficientStock,
			Details: &stockDetails{
				ItemID:    stockErr.ItemID,
				ItemType:  stockErr.ItemType,
				Name:      stockErr.Name,
				Available: stockErr.Available,
				Requested: stockErr.Requested,
			},
		})
	case errors.Is(err, service.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	default:
		internalError(w, logger, op, err)
	}
}

// parsePagination reads limit (default 20, capped at 100) and offset
// (capped at the int32 range of the OFFSET parameter).
func parsePagination(r *http.Request) (limit, offset int32) {
	limit = 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			limit = int32(min(v, 100))
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v >= 0 {
			offset = int32(min(v, math.MaxInt32))
		}
	}
	return limit, offset
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

// numericExact renders a numeric without forcing two decimal places, for
// per-gram rates.
func numericExact(n pgtype.Numeric) string {
	if !n.Valid {
		return "0"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0"
	}
	return d.String()
}
