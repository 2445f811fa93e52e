package types

// SuccessEnvelope wraps every successful JSON response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed JSON response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds an error body. Details are dropped unless allowed.
func NewErrorEnvelope(code, message string, details any, detailsAllowed bool) ErrorEnvelope {
	out := ErrorEnvelope{Error: APIError{Code: code, Message: message}}
	if detailsAllowed && details != nil {
		out.Error.Details = details
	}
	return out
}
