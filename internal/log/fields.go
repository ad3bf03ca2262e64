package log

// Standard field names used across the codebase.
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldDate      = "date"
	FieldCount     = "count"
	FieldInserted  = "inserted"
	FieldSkipped   = "skipped"
	FieldBalance   = "balance"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldRemote    = "remote_addr"
	FieldQueue     = "queue"
	FieldMsgType   = "message_type"
)

// Component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentLedger   = "ledger"
	ComponentParser   = "parser"
	ComponentForecast = "forecast"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
)
