package log

// Common field names for structured logging
const (
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOwnerID    = "owner_id"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldRecordID   = "record_id"
	FieldSheetsRef  = "sheets_ref"
)
