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
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldOwnerID     = "owner_id"
	FieldGoalID      = "goal_id"
	FieldGoalName    = "goal_name"
	FieldAmountCents = "amount_cents"
	FieldFrequency   = "frequency"
	FieldGoalStatus  = "goal_status"
	FieldNextDue     = "next_contribution"
	FieldKind        = "kind"
	FieldProcessed   = "processed"
	FieldFailed      = "failed"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentGoal    = "goal"
	ComponentEngine  = "engine"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpContribute = "contribute"
	OpToggle     = "toggle"
	OpTick       = "tick"
	OpSync       = "sync"
	OpValidate   = "validate"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)
