package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ScheduleData accompanies schedule lifecycle events
type ScheduleData struct {
	Type        EventType `json:"-"`
	ProductID   string    `json:"product_id"`
	Periods     int       `json:"periods"`
	State       string    `json:"state"`
	Locked      bool      `json:"locked"`
	Trigger     string    `json:"trigger,omitempty"`
	PeriodIndex int       `json:"period_index,omitempty"`
}

// EventType returns the event type for ScheduleData
func (d *ScheduleData) EventType() EventType {
	return d.Type
}

// VariantSwitchedData contains data for VariantSwitched events
type VariantSwitchedData struct {
	ProductID   string   `json:"product_id"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	DroppedKeys []string `json:"dropped_keys,omitempty"`
}

// EventType returns the event type for VariantSwitchedData
func (d *VariantSwitchedData) EventType() EventType {
	return VariantSwitched
}

// ProductData contains data for ProductSaved and ProductDeleted events
type ProductData struct {
	Type      EventType `json:"-"`
	ProductID string    `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Variant   string    `json:"variant,omitempty"`
}

// EventType returns the event type for ProductData
func (d *ProductData) EventType() EventType {
	return d.Type
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"size_bytes"`
	Pruned    int    `json:"pruned"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string            `json:"error"`
	Context map[string]string `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
