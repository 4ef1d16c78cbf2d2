package rest

// ErrorResponse is the JSON error body returned by API handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
