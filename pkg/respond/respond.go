package respond

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      *ErrorBody      `json:"error,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

type ErrorBody struct {
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	Timestamp  time.Time `json:"timestamp"`
}

type Pagination struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Total    int  `json:"total"`
	Pages    int  `json:"pages"`
	HasNext  bool `json:"hasNext"`
	HasPrev  bool `json:"hasPrev"`
}

func NewPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
		HasNext:  page < pages,
		HasPrev:  page > 1,
	}
}

type envelopeOut struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func write(w http.ResponseWriter, code int, body envelopeOut) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	write(w, code, envelopeOut{Success: true, Data: data})
}

func Paginated(w http.ResponseWriter, r *http.Request, data interface{}, p Pagination) {
	write(w, http.StatusOK, envelopeOut{Success: true, Data: data, Pagination: &p})
}

func Error(w http.ResponseWriter, r *http.Request, code int, errCode, message string) {
	write(w, code, envelopeOut{
		Success: false,
		Error: &ErrorBody{
			Code:       errCode,
			Message:    message,
			StatusCode: code,
			Timestamp:  time.Now().UTC(),
		},
	})
}
