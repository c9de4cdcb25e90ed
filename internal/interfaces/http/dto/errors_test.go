package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehub/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodePaymentProvider, http.StatusBadGateway},
		{ErrCodeInvalidSignature, http.StatusBadRequest},
		{"INSUFFICIENT_STOCK", http.StatusUnprocessableEntity},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	for domainCode, apiCode := range domainCodes {
		assert.Equal(t, apiCode, NormalizeErrorCode(domainCode))
		_, mapped := httpStatusByCode[apiCode]
		assert.True(t, mapped, "%s has no HTTP status", apiCode)
	}
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(shared.ErrNotFound.Code))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode(ErrCodeValidation))
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}

func TestErrorCodeFormat(t *testing.T) {
	for code := range httpStatusByCode {
		assert.True(t, strings.HasPrefix(code, "ERR_"), code)
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponseWithRequestID("INSUFFICIENT_STOCK", "Only 2 left", "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.IsZero())

	body, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "Product not found"))
	require.NoError(t, err)
	assert.NotContains(t, string(body), `"data"`)
	assert.NotContains(t, string(body), `"request_id"`)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "price", Message: "must be greater than 0"}}
	resp := NewValidationErrorResponse("Invalid request", "req-2", details)

	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)

	withHelp := NewErrorResponseWithHelp(ErrCodeForbidden, "Admins only", "req-3", "https://docs.example.com/roles")
	assert.Equal(t, "https://docs.example.com/roles", withHelp.Error.Help)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantSize  int
		wantPages int
	}{
		{"exact", 40, 20, 20, 2},
		{"remainder", 41, 20, 20, 3},
		{"empty", 0, 10, 10, 0},
		{"default page size", 45, 0, defaultPageSize, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]int{}, tt.total, 1, tt.pageSize)
			require.NotNil(t, resp.Meta)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantSize, resp.Meta.PageSize)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse(&shared.Paginated[string]{Total: 0, Page: 1, PageSize: 20})

	assert.Equal(t, []string{}, resp.Data)
	assert.Equal(t, int64(0), resp.Meta.Total)

	resp = NewPageResponse(&shared.Paginated[string]{Items: []string{"a"}, Total: 1, Page: 1, PageSize: 20})
	assert.Equal(t, []string{"a"}, resp.Data)
	assert.Equal(t, 1, resp.Meta.TotalPages)
}
