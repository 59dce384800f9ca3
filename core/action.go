package core

// Action is one operation exposed on the auth route, selected by the
// action query parameter. Adapters supply the framework-specific handler.
type Action struct {
	Name     string
	Metadata ActionMetadata
}

type ActionMetadata struct {
	OperationID string
	Description string
	RequestBody interface{} // nil when the action takes no body
	Responses   map[int]interface{}
}

// ErrorResponse represents an error response structure
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// CallbackRequest is the body accepted by the callback action
type CallbackRequest struct {
	Code string `json:"code"`
}

// RefreshRequest is the body accepted by the refresh and logout actions
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
