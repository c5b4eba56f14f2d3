package dto

import "time"

// APIResponse wraps every successful payload. Failures use ErrorResponse.
type APIResponse struct {
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewAPIResponse wraps data with the current timestamp.
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{Data: data, Timestamp: time.Now()}
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// DeleteResponse reports whether a delete removed a record.
type DeleteResponse struct {
	Success bool `json:"success" example:"true"`
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"up"`
}
