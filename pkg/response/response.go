package response

import (
	"errors"
	"net/http"

	"inventory/pkg/apperror"
)

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Kind       apperror.Kind     `json:"kind,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Retryable  bool              `json:"retryable,omitempty"`
}

// Paginated wraps a page of results with its totals
type Paginated struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError builds the error response for err. Errors without a kind are
// reported as internal and their message is not exposed.
func FromError(err error) Response {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		resp := Error(http.StatusInternalServerError, "internal server error")
		resp.Kind = apperror.KindInternal
		return resp
	}

	resp := Error(appErr.Kind.HTTPStatus(), appErr.Message)
	if appErr.Kind == apperror.KindInternal {
		resp.Error = "internal server error"
	}
	resp.Kind = appErr.Kind
	resp.Details = appErr.Metadata
	resp.Retryable = appErr.Kind.Retryable()
	return resp
}

// Page builds a Paginated payload
func Page(items interface{}, total int64, page, limit int) Paginated {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Paginated{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
