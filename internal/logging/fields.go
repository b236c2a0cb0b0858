package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRumorID is the standardized structured logging key for rumor identifiers.
	FieldRumorID = "rumor_id"
	// FieldDispatchID is the standardized structured logging key for print dispatch identifiers.
	FieldDispatchID = "dispatch_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator guidance on failures.
	FieldErrorHint = "error_hint"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
