package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldMonthOffset = "month_offset"
	FieldAmountCents = "amount_cents"
	FieldFlowType    = "flow_type"
	FieldFrequency   = "frequency"
	FieldRuleID      = "rule_id"
	FieldCardID      = "card_id"
	FieldTrials      = "trials"
	FieldPeriods     = "periods"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
)
