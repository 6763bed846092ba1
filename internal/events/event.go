// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"crm_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCaptured is published when a new lead is stored.
type LeadCaptured struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	TenantID uuid.UUID `json:"tenantId"`
	Source   string    `json:"source,omitempty"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadStageChanged is published when a lead moves to a new pipeline stage.
type LeadStageChanged struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	TenantID   uuid.UUID  `json:"tenantId"`
	PipelineID uuid.UUID  `json:"pipelineId"`
	OldStageID *uuid.UUID `json:"oldStageId,omitempty"`
	NewStageID uuid.UUID  `json:"newStageId"`
	MovedByID  *uuid.UUID `json:"movedById,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// =============================================================================
// Activities Domain Events
// =============================================================================

// MeetingParticipant carries the resolved contact info for an invitee.
type MeetingParticipant struct {
	UserID *uuid.UUID `json:"userId,omitempty"`
	Email  string     `json:"email,omitempty"`
	Role   string     `json:"role"`
}

// MeetingScheduled is published when a meeting activity is created.
// Subscribers send invitation emails to the participants.
type MeetingScheduled struct {
	BaseEvent
	ActivityID   uuid.UUID            `json:"activityId"`
	LeadID       uuid.UUID            `json:"leadId"`
	TenantID     uuid.UUID            `json:"tenantId"`
	Title        string               `json:"title"`
	StartTime    time.Time            `json:"startTime"`
	EndTime      time.Time            `json:"endTime"`
	MeetingKind  string               `json:"meetingKind"`
	Address      string               `json:"address,omitempty"`
	MeetingLink  string               `json:"meetingLink,omitempty"`
	Participants []MeetingParticipant `json:"participants"`
}

func (e MeetingScheduled) EventName() string { return "activities.meeting.scheduled" }

// ActivityReminderDue is published when a scheduled reminder fires
// for an activity that is still pending.
type ActivityReminderDue struct {
	BaseEvent
	ActivityID   uuid.UUID `json:"activityId"`
	LeadID       uuid.UUID `json:"leadId"`
	TenantID     uuid.UUID `json:"tenantId"`
	OwnerID      uuid.UUID `json:"ownerId"`
	ActivityType string    `json:"activityType"`
	Title        string    `json:"title"`
	DueDate      time.Time `json:"dueDate"`
}

func (e ActivityReminderDue) EventName() string { return "activities.reminder.due" }
