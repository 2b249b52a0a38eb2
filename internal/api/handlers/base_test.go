package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pryve/pryve-admin/internal/apiclient"
	apperrors "github.com/pryve/pryve-admin/pkg/errors"
	"github.com/pryve/pryve-admin/pkg/logger"
)

func TestFailureStatus(t *testing.T) {
	tests := []struct {
		name     string
		upstream int
		message  string
		want     int
	}{
		{"upstream error status is kept", http.StatusNotFound, "User not found", http.StatusNotFound},
		{"upstream 5xx is kept", http.StatusServiceUnavailable, "busy", http.StatusServiceUnavailable},
		{"no response", 0, apiclient.NetworkErrorMessage, http.StatusBadGateway},
		{"timeout", 0, apiclient.TimeoutMessage, http.StatusGatewayTimeout},
		{"rejected before sending", 0, "Email is required", http.StatusUnprocessableEntity},
		{"html page", http.StatusOK, apiclient.NonJSONMessage, http.StatusBadGateway},
		{"broken json", http.StatusOK, apiclient.InvalidJSONMessage, http.StatusBadGateway},
		{"success false in 2xx", http.StatusOK, "Invalid OTP", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureStatus(tt.upstream, tt.message))
		})
	}
}

func TestParseJSON_LimitsAndErrors(t *testing.T) {
	h := NewBaseHandler(logger.Nop())

	var dst map[string]string
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"b"}`))
	require.NoError(t, h.ParseJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "b", dst["a"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, h.ParseJSON(httptest.NewRecorder(), req, &dst), apperrors.ErrBadRequest)

	huge := `{"a":"` + strings.Repeat("x", maxRequestBody) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	assert.ErrorIs(t, h.ParseJSON(httptest.NewRecorder(), req, &dst), apperrors.ErrBadRequest)
}

func TestDecode_RespondsBadRequest(t *testing.T) {
	h := NewBaseHandler(logger.Nop())
	rec := httptest.NewRecorder()

	var dst map[string]string
	ok := h.decode(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":`)), &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid request format","error":"bad_request"}`, rec.Body.String())
}

func TestFailureError_Codes(t *testing.T) {
	assert.Equal(t, "timeout", failureError(0, apiclient.TimeoutMessage).Code)
	assert.Equal(t, "upstream_unavailable", failureError(http.StatusOK, apiclient.NonJSONMessage).Code)
	assert.Equal(t, "validation_error", failureError(0, "Email is required").Code)
	assert.Equal(t, "Email is required", failureError(0, "Email is required").Message)
}

func TestGetPaginationParams(t *testing.T) {
	h := NewBaseHandler(logger.Nop())

	page, limit := h.GetPaginationParams(httptest.NewRequest(http.MethodGet, "/?page=3&limit=25", nil))
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	page, limit = h.GetPaginationParams(httptest.NewRequest(http.MethodGet, "/?page=abc", nil))
	assert.Zero(t, page)
	assert.Zero(t, limit)
}
