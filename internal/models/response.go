package models

// Response is the envelope every successful endpoint answers with.
type Response struct {
	Status  int    `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// ErrorResponse is the envelope for failures.
type ErrorResponse struct {
	Status  int      `json:"status"`
	Data    any      `json:"data"`
	Message string   `json:"message"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// NewResponse wraps a successful payload.
func NewResponse(status int, data any, message string) Response {
	return Response{Status: status, Data: data, Message: message, Success: status < 400}
}

// NewErrorResponse renders an APIError. Errors is always an array so clients
// can iterate it without a nil check.
func NewErrorResponse(e *APIError) ErrorResponse {
	errs := e.Errors
	if errs == nil {
		errs = []string{}
	}
	return ErrorResponse{Status: e.Status, Message: e.Message, Errors: errs}
}
