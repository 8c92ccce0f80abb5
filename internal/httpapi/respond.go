package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/metrics"
)

// Единый конверт ответа: {success, message, data}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

var (
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

// ValidationError — 422 с пофилдовыми сообщениями.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation failed" }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// respondErr — маппинг таксономии ошибок на HTTP-статусы:
// not-found -> 404, authorization -> 403, validation -> 422, остальное -> 500.
func respondErr(w http.ResponseWriter, err error) {
	metrics.HandlerErrors.Inc()

	var ve *ValidationError
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Message: "данные не найдены"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, envelope{Message: "доступ запрещён"})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Message: "некорректный запрос", Data: ve.Fields})
	case errors.Is(err, ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, envelope{Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "внутренняя ошибка"})
	}
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, envelope{Message: message})
}

var validate = validator.New()

// decodeValid — JSON-декодирование плюс валидация тегов struct-а.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ValidationError{Fields: map[string]string{"body": "malformed json"}}
	}
	if err := validate.Struct(dst); err != nil {
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			fields := make(map[string]string, len(verr))
			for _, fe := range verr {
				fields[fe.Field()] = fe.Tag()
			}
			return &ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}
