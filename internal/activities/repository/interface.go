package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Activity types.
const (
	TypeComment = "COMMENT"
	TypeCall    = "CALL"
	TypeMeeting = "MEETING"
	TypeTask    = "TASK"
	TypeNote    = "NOTE"
)

// Meeting kinds.
const (
	KindOnline     = "ONLINE"
	KindHybrid     = "HYBRID"
	KindPresential = "PRESENTIAL"
)

// DefaultParticipantRole is assigned when a participant carries no role.
const DefaultParticipantRole = "participant"

// Activity is a follow-up item attached to a lead. TenantID is
// denormalized from the owning lead on reads.
type Activity struct {
	ID               uuid.UUID  `db:"id"`
	LeadID           uuid.UUID  `db:"lead_id"`
	TenantID         uuid.UUID  `db:"tenant_id"`
	OwnerID          uuid.UUID  `db:"owner_id"`
	Type             string     `db:"type"`
	Title            string     `db:"title"`
	Description      *string    `db:"description"`
	DueDate          *time.Time `db:"due_date"`
	DoneAt           *time.Time `db:"done_at"`
	SendNotification bool       `db:"send_notification"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`

	Participants []Participant
	Meeting      *MeetingDetails
}

// Participant is one invitee on an activity. Exactly one of UserID and
// Email is set.
type Participant struct {
	ID         uuid.UUID  `db:"id"`
	ActivityID uuid.UUID  `db:"activity_id"`
	UserID     *uuid.UUID `db:"user_id"`
	Email      *string    `db:"email"`
	Role       string     `db:"role"`
}

// MeetingDetails holds the scheduling block of a MEETING activity.
type MeetingDetails struct {
	ActivityID  uuid.UUID `db:"activity_id"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	Kind        string    `db:"kind"`
	Address     *string   `db:"address"`
	MeetingLink *string   `db:"meeting_link"`
}

// ParticipantInput is one participant in a create request.
type ParticipantInput struct {
	UserID *uuid.UUID
	Email  *string
	Role   string
}

// MeetingInput is the meeting block in a create request.
type MeetingInput struct {
	StartTime   time.Time
	EndTime     time.Time
	Kind        string
	Address     *string
	MeetingLink *string
}

// CreateActivityParams contains parameters for creating an activity
// together with its participants and optional meeting details.
type CreateActivityParams struct {
	LeadID           uuid.UUID
	OwnerID          uuid.UUID
	Type             string
	Title            string
	Description      *string
	DueDate          *time.Time
	SendNotification bool
	Participants     []ParticipantInput
	Meeting          *MeetingInput
}

// ActivityReader provides read operations for activities.
type ActivityReader interface {
	GetActivity(ctx context.Context, id uuid.UUID) (Activity, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error)
	// ListDueForNotification returns pending notifiable activities
	// (MEETING, CALL, TASK; not done; notification still on) whose due
	// date falls at or before the given horizon.
	ListDueForNotification(ctx context.Context, horizon time.Time) ([]Activity, error)
}

// ActivityWriter provides write operations for activities.
type ActivityWriter interface {
	CreateActivity(ctx context.Context, params CreateActivityParams) (Activity, error)
	MarkDone(ctx context.Context, id uuid.UUID, doneAt time.Time) error
	// SuppressNotification flips send_notification to false. The flag
	// is one-way; nothing sets it back to true.
	SuppressNotification(ctx context.Context, id uuid.UUID) error
	DeleteActivity(ctx context.Context, id uuid.UUID) error
}

// Repository combines all activity repository operations.
type Repository interface {
	ActivityReader
	ActivityWriter
}
