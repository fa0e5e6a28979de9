// Package events provides event management functionality.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	// Schedule lifecycle
	ScheduleGenerated      EventType = "SCHEDULE_GENERATED"
	ScheduleRegenerated    EventType = "SCHEDULE_REGENERATED"
	RegenerationSuppressed EventType = "REGENERATION_SUPPRESSED"
	ScheduleCleared        EventType = "SCHEDULE_CLEARED"
	ScheduleEdited         EventType = "SCHEDULE_EDITED"
	ScheduleLoaded         EventType = "SCHEDULE_LOADED"

	// Product drafts
	VariantSwitched EventType = "VARIANT_SWITCHED"
	ProductSaved    EventType = "PRODUCT_SAVED"
	ProductDeleted  EventType = "PRODUCT_DELETED"

	// System
	BackupCompleted EventType = "BACKUP_COMPLETED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, for subscribers that want everything.
func AllTypes() []EventType {
	return []EventType{
		ScheduleGenerated, ScheduleRegenerated, RegenerationSuppressed, ScheduleCleared,
		ScheduleEdited, ScheduleLoaded, VariantSwitched, ProductSaved, ProductDeleted,
		BackupCompleted, ErrorOccurred,
	}
}

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}
