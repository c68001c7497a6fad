package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/BennettSmith/insurance-intake-api/internal/app/applications"
)

type errorBody struct {
	Code      string                             `json:"code"`
	Message   string                             `json:"message"`
	Details   nullable.Nullable[map[string]any]  `json:"details,omitempty"`
	RequestID nullable.Nullable[string]          `json:"requestId,omitempty"`
	Fields    nullable.Nullable[[]fieldErrorDTO] `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type fieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any, fields []applications.FieldError) {
	var er errorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	if len(fields) > 0 {
		out := make([]fieldErrorDTO, 0, len(fields))
		for _, f := range fields {
			out = append(out, fieldErrorDTO{Field: f.Field, Message: f.Message})
		}
		er.Error.Fields = nullable.NewNullableWithValue(out)
	}
	writeJSON(w, status, er)
}

// writeServiceError maps service errors onto the envelope. Anything that is
// not an *applications.Error is logged and reported as a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *applications.Error
	if !errors.As(err, &ae) {
		ae = &applications.Error{Status: http.StatusInternalServerError, Code: applications.CodeInternal, Message: "Unknown Error occurred", Err: err}
	}
	if ae.Status >= http.StatusInternalServerError {
		s.logger().ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("requestId", middleware.GetReqID(r.Context())),
			slog.Any("err", err),
		)
	}
	writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details, ae.Fields)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
