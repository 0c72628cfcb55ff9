package logging

// Standardized attribute keys. Every component logs item identity and
// event classification under the same names.
const (
	FieldComponent = "component"
	FieldItemID    = "item_id"
	FieldItemTitle = "item_title"
	FieldRequestID = "request_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldSource    = "source"
)
