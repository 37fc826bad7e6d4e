package res

// ErrorResponse carries the stable error kind plus the failing path so
// clients can tell retry-safe failures from permanent ones.
type ErrorResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	Path       string `json:"path,omitempty"`
}
