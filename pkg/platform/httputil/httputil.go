// Package httputil holds the JSON response helpers shared by every handler and
// the mapping from classified errors to the wire error body.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
)

// ErrorCode is the closed set of machine-readable codes returned to clients.
type ErrorCode string

const (
	ErrorCodeAuthenticationFailure ErrorCode = "AUTHENTICATION_FAILURE"
	ErrorCodeAccessDenied          ErrorCode = "ACCESS_DENIED"
	ErrorCodeInvalidRequest        ErrorCode = "INVALID_REQUEST"
	ErrorCodeFeatureDisabled       ErrorCode = "FEATURE_DISABLED"
	ErrorCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrorCodeConflict              ErrorCode = "CONFLICT"
	ErrorCodeServiceUnavailable    ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeInternalError         ErrorCode = "INTERNAL_ERROR"
)

// ErrorInfo is the error body: {"errorCode": "...", "errorDetails": [...]}.
type ErrorInfo struct {
	ErrorCode    ErrorCode `json:"errorCode"`
	ErrorDetails []string  `json:"errorDetails,omitempty"`
}

// Classify maps a failure to its wire code and HTTP status. Anything without a
// known classification is an internal error.
func Classify(err error) (int, ErrorCode) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized, ErrorCodeAuthenticationFailure
	case dErrors.CodeForbidden:
		return http.StatusForbidden, ErrorCodeAccessDenied
	case dErrors.CodeFeatureDisabled:
		return http.StatusForbidden, ErrorCodeFeatureDisabled
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput,
		dErrors.CodeInvalidRequest, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest, ErrorCodeInvalidRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound, ErrorCodeNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict, ErrorCodeConflict
	case dErrors.CodeUnavailable, dErrors.CodeTimeout:
		return http.StatusServiceUnavailable, ErrorCodeServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrorCodeInternalError
	}
}

// ErrorInfoFor builds the body for err. Details are only exposed for client
// errors; server-side failures carry the code alone.
func ErrorInfoFor(err error) (int, ErrorInfo) {
	status, code := Classify(err)
	info := ErrorInfo{ErrorCode: code}
	if status >= http.StatusInternalServerError {
		return status, info
	}
	if de, ok := dErrors.As(err); ok {
		if len(de.Details) > 0 {
			info.ErrorDetails = de.Details
		} else if de.Message != "" {
			info.ErrorDetails = []string{de.Message}
		}
	}
	return status, info
}

// WriteError classifies err and writes the error body.
func WriteError(w http.ResponseWriter, err error) {
	status, info := ErrorInfoFor(err)
	WriteJSON(w, status, info)
}

// WriteErrorStatus writes an error body with an explicit status. Used where the
// status is fixed by the gate rather than by the classification.
func WriteErrorStatus(w http.ResponseWriter, status int, code ErrorCode) {
	WriteJSON(w, status, ErrorInfo{ErrorCode: code})
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Validatable is implemented by request DTOs that normalize and check
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// DecodeAndPrepare decodes a JSON body into T and runs its Validate method when
// present. On failure it writes the error response and returns false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		var de *dErrors.Error
		if errors.As(err, &de) {
			WriteError(w, err)
			return nil, false
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err,
			)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}

// ParsePageRequest binds ?sivu and ?koko, applying the defaults for absent
// parameters, and validates the result against maxSize. It never touches a
// store, so oversized pages are refused before any data access.
func ParsePageRequest(r *http.Request, maxSize int) (domain.PageRequest, error) {
	req := domain.PageRequest{Sivu: 0, Koko: domain.DefaultPageSize}
	q := r.URL.Query()
	var details []string
	if raw := q.Get("sivu"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, "sivu: must be an integer")
		}
		req.Sivu = n
	}
	if raw := q.Get("koko"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, "koko: must be an integer")
		}
		req.Koko = n
	}
	if len(details) > 0 {
		return domain.PageRequest{}, dErrors.WithDetails(dErrors.CodeValidation, "invalid page request", details...)
	}
	if err := req.Validate(maxSize); err != nil {
		return domain.PageRequest{}, err
	}
	return req, nil
}
