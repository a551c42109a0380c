package models

import "encoding/json"

// Every endpoint responds with exactly one of the two envelope shapes:
// {"success": true, "data": ...} or
// {"success": false, "error": {"message", "code", "details?"}}.

const (
	CodeAuthError         = "AUTH_ERROR"
	CodeTierError         = "TIER_ERROR"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeAIError           = "AI_ERROR"
	CodeParseError        = "PARSE_ERROR"
	CodeRateLimit         = "RATE_LIMIT" // upstream provider's own limit
	CodeServerError       = "SERVER_ERROR"
)

type ErrorBody struct {
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func OK(data interface{}) Envelope {
	return Envelope{Success: true, Data: data}
}

// OKNull is the success shape whose data is an explicit JSON null, used when
// a non-critical provider produced nothing.
func OKNull() Envelope {
	return Envelope{Success: true, Data: json.RawMessage("null")}
}

func Fail(code, message string) Envelope {
	return Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}}
}

func FailWithDetails(code, message string, details interface{}) Envelope {
	return Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message, Details: details}}
}
