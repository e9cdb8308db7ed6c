package log

// Field names shared by the request logging middleware and error responders,
// so the same attribute never appears under two spellings.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
)

// Component names for the two binaries.
const (
	ComponentApp    = "app"
	ComponentWorker = "worker"
)
