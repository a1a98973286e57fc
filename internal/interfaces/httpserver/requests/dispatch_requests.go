package requests

// CancelJobRequest represents a request to cancel a scheduled dispatch job.
type CancelJobRequest struct {
	Reason string `json:"reason,omitempty"`
}
