package transport

import (
	"time"

	"github.com/google/uuid"
)

// ParticipantInput is one invitee submitted with an activity. Exactly
// one of UserID and Email must be set; the service enforces the
// exclusivity.
type ParticipantInput struct {
	UserID *uuid.UUID `json:"userId,omitempty"`
	Email  *string    `json:"email,omitempty" validate:"omitempty,email,max=320"`
	Role   string     `json:"role,omitempty" validate:"omitempty,max=100"`
}

// MeetingDetailsInput is the scheduling block for MEETING activities.
type MeetingDetailsInput struct {
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required"`
	Kind        string    `json:"kind" validate:"required,oneof=ONLINE HYBRID PRESENTIAL"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,max=500"`
	MeetingLink *string   `json:"meetingLink,omitempty" validate:"omitempty,max=2000"`
}

// CreateActivityRequest is the payload for creating an activity.
// SendNotification defaults to true when omitted.
type CreateActivityRequest struct {
	LeadID           uuid.UUID            `json:"leadId" validate:"required"`
	Type             string               `json:"type" validate:"required,oneof=COMMENT CALL MEETING TASK NOTE"`
	Title            string               `json:"title" validate:"required,min=1,max=300"`
	Description      *string              `json:"description,omitempty" validate:"omitempty,max=4000"`
	DueDate          *time.Time           `json:"dueDate,omitempty"`
	SendNotification *bool                `json:"sendNotification,omitempty"`
	Participants     []ParticipantInput   `json:"participants,omitempty" validate:"omitempty,dive"`
	MeetingDetails   *MeetingDetailsInput `json:"meetingDetails,omitempty"`
}

// ParticipantResponse is the API representation of a participant.
type ParticipantResponse struct {
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"userId,omitempty"`
	Email  *string    `json:"email,omitempty"`
	Role   string     `json:"role"`
}

// MeetingDetailsResponse is the API representation of meeting details.
type MeetingDetailsResponse struct {
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	Kind        string  `json:"kind"`
	Address     *string `json:"address,omitempty"`
	MeetingLink *string `json:"meetingLink,omitempty"`
}

// ActivityResponse is the API representation of an activity.
type ActivityResponse struct {
	ID               uuid.UUID               `json:"id"`
	LeadID           uuid.UUID               `json:"leadId"`
	OwnerID          uuid.UUID               `json:"ownerId"`
	Type             string                  `json:"type"`
	Title            string                  `json:"title"`
	Description      *string                 `json:"description,omitempty"`
	DueDate          *string                 `json:"dueDate,omitempty"`
	DoneAt           *string                 `json:"doneAt,omitempty"`
	SendNotification bool                    `json:"sendNotification"`
	CreatedAt        string                  `json:"createdAt"`
	UpdatedAt        string                  `json:"updatedAt"`
	Participants     []ParticipantResponse   `json:"participants"`
	MeetingDetails   *MeetingDetailsResponse `json:"meetingDetails,omitempty"`
}

// ActivityListResponse wraps a lead's activities, newest first.
type ActivityListResponse struct {
	LeadID uuid.UUID          `json:"leadId"`
	Items  []ActivityResponse `json:"items"`
}
