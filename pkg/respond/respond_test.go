package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     interface{}
		wantCode int
		wantData string
	}{
		{
			name:     "success response",
			code:     http.StatusOK,
			data:     map[string]string{"message": "success"},
			wantCode: http.StatusOK,
			wantData: `{"message":"success"}`,
		},
		{
			name:     "created response",
			code:     http.StatusCreated,
			data:     map[string]int{"id": 123},
			wantCode: http.StatusCreated,
			wantData: `{"id":123}`,
		},
		{
			name:     "empty object",
			code:     http.StatusOK,
			data:     map[string]string{},
			wantCode: http.StatusOK,
			wantData: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			JSON(w, r, tt.code, tt.data)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var got Envelope
			err := json.NewDecoder(w.Body).Decode(&got)
			require.NoError(t, err)
			assert.True(t, got.Success)
			assert.Nil(t, got.Error)
			assert.JSONEq(t, tt.wantData, string(got.Data))
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		errCode  string
		message  string
		wantCode int
	}{
		{name: "bad request", code: http.StatusBadRequest, errCode: "VALIDATION_ERROR", message: "invalid input", wantCode: http.StatusBadRequest},
		{name: "not found", code: http.StatusNotFound, errCode: "NOT_FOUND", message: "resource not found", wantCode: http.StatusNotFound},
		{name: "internal error", code: http.StatusInternalServerError, errCode: "INTERNAL_ERROR", message: "something went wrong", wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(w, r, tt.code, tt.errCode, tt.message)

			assert.Equal(t, tt.wantCode, w.Code)

			var got Envelope
			err := json.NewDecoder(w.Body).Decode(&got)
			require.NoError(t, err)
			assert.False(t, got.Success)
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.errCode, got.Error.Code)
			assert.Equal(t, tt.message, got.Error.Message)
			assert.Equal(t, tt.code, got.Error.StatusCode)
			assert.False(t, got.Error.Timestamp.IsZero())
		})
	}
}

func TestPaginated(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Paginated(w, r, []int{1, 2}, NewPagination(2, 2, 5))

	var got Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.NotNil(t, got.Pagination)
	assert.Equal(t, Pagination{Page: 2, PageSize: 2, Total: 5, Pages: 3, HasNext: true, HasPrev: true}, *got.Pagination)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, PageSize: 20, Total: 0, Pages: 0}, NewPagination(1, 20, 0))
	assert.Equal(t, Pagination{Page: 1, PageSize: 20, Total: 20, Pages: 1}, NewPagination(1, 20, 20))
	assert.Equal(t, Pagination{Page: 3, PageSize: 10, Total: 21, Pages: 3, HasPrev: true}, NewPagination(3, 10, 21))
}
