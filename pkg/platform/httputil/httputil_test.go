package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   ErrorCode
	}{
		{dErrors.New(dErrors.CodeUnauthorized, "x"), http.StatusUnauthorized, ErrorCodeAuthenticationFailure},
		{dErrors.New(dErrors.CodeForbidden, "x"), http.StatusForbidden, ErrorCodeAccessDenied},
		{dErrors.New(dErrors.CodeFeatureDisabled, "x"), http.StatusForbidden, ErrorCodeFeatureDisabled},
		{dErrors.New(dErrors.CodeValidation, "x"), http.StatusBadRequest, ErrorCodeInvalidRequest},
		{dErrors.New(dErrors.CodeInvariantViolation, "x"), http.StatusBadRequest, ErrorCodeInvalidRequest},
		{dErrors.New(dErrors.CodeNotFound, "x"), http.StatusNotFound, ErrorCodeNotFound},
		{dErrors.New(dErrors.CodeConflict, "x"), http.StatusConflict, ErrorCodeConflict},
		{dErrors.New(dErrors.CodeUnavailable, "x"), http.StatusServiceUnavailable, ErrorCodeServiceUnavailable},
		{errors.New("pq: relation does not exist"), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		status, code := Classify(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestWriteErrorNeverLeaksInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.Wrap(errors.New("dial tcp 10.0.0.1:5432: refused"), dErrors.CodeInternal, "failed to load profile"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"errorCode":"INTERNAL_ERROR"}`, rec.Body.String())
}

func TestWriteErrorIncludesClientDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.WithDetails(dErrors.CodeValidation, "invalid page request", "koko: must be no greater than 1000"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var info ErrorInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, ErrorCodeInvalidRequest, info.ErrorCode)
	assert.Equal(t, []string{"koko: must be no greater than 1000"}, info.ErrorDetails)
}

type sampleRequest struct {
	Name string `json:"name"`
}

func (r *sampleRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and validates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"  Aino "}`))
		rec := httptest.NewRecorder()
		out, ok := DecodeAndPrepare[sampleRequest](rec, req, logger, context.Background(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "Aino", out.Name)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{`))
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](rec, req, logger, context.Background(), "req-2")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"a","admin":true}`))
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](rec, req, logger, context.Background(), "req-3")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reports validation failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":" "}`))
		rec := httptest.NewRecorder()
		_, ok := DecodeAndPrepare[sampleRequest](rec, req, logger, context.Background(), "req-4")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
	})
}

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		want     domain.PageRequest
		wantCode bool
	}{
		{name: "defaults", query: "", want: domain.PageRequest{Sivu: 0, Koko: domain.DefaultPageSize}},
		{name: "explicit", query: "?sivu=2&koko=50", want: domain.PageRequest{Sivu: 2, Koko: 50}},
		{name: "at max", query: "?koko=1000", want: domain.PageRequest{Koko: 1000}},
		{name: "over max", query: "?koko=5000", wantCode: true},
		{name: "zero size", query: "?koko=0", wantCode: true},
		{name: "negative page", query: "?sivu=-1", wantCode: true},
		{name: "not a number", query: "?koko=lots", wantCode: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
			got, err := ParsePageRequest(r, domain.DefaultMaxPageSize)
			if tc.wantCode {
				require.Error(t, err)
				status, code := Classify(err)
				assert.Equal(t, http.StatusBadRequest, status)
				assert.Equal(t, ErrorCodeInvalidRequest, code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
