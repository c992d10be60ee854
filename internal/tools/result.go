package tools

// Status indicates whether a tool invocation succeeded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Error codes returned to the model. The model can correct and retry
// validation and not-found failures; execution failures are terminal for
// that call only.
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION"
	ErrCodeExecution  = "EXECUTION"
)

// Result is the envelope every tool returns to the model. Business failures
// live in Error with Status set to StatusError; a Go error from a handler is
// reserved for infrastructure faults such as context cancellation.
type Result struct {
	Status Status `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// Error is a structured, model-readable failure description.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func success(data any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

func failure(code, message string) Result {
	return Result{Status: StatusError, Error: &Error{Code: code, Message: message}}
}
