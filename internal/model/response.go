package model

// Response is the standard envelope for successful responses.
type Response struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
}

// PageMeta contains pagination information for list responses.
type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	Limit    int   `json:"limit"`
	LastPage int   `json:"last_page"`
}

// NewPageMeta computes the last page for total items split into pages of limit.
func NewPageMeta(total int64, page, limit int) *PageMeta {
	last := 0
	if limit > 0 {
		last = int((total + int64(limit) - 1) / int64(limit))
	}
	return &PageMeta{Total: total, Page: page, Limit: limit, LastPage: last}
}

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}
