package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_portal_backend/platform/apperr"
)

const activityNotFoundMessage = "activity not found"

const activitySelect = `
	SELECT a.id, a.lead_id, l.tenant_id, a.owner_id, a.type, a.title, a.description,
		a.due_date, a.done_at, a.send_notification, a.created_at, a.updated_at
	FROM activities a
	JOIN leads l ON l.id = a.lead_id`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new activities repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// CreateActivity inserts an activity with its participants and optional
// meeting details in one transaction. A partially created activity is
// never visible.
func (r *Repo) CreateActivity(ctx context.Context, params CreateActivityParams) (Activity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Activity{}, fmt.Errorf("begin create activity: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO activities (lead_id, owner_id, type, title, description, due_date, send_notification)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	var activity Activity
	err = tx.QueryRow(ctx, query,
		params.LeadID, params.OwnerID, params.Type, params.Title,
		params.Description, params.DueDate, params.SendNotification,
	).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt)
	if err != nil {
		return Activity{}, fmt.Errorf("create activity: %w", err)
	}

	for _, p := range params.Participants {
		participantQuery := `
			INSERT INTO activity_participants (activity_id, user_id, email, role)
			VALUES ($1, $2, $3, $4)`
		if _, err := tx.Exec(ctx, participantQuery, activity.ID, p.UserID, p.Email, p.Role); err != nil {
			return Activity{}, fmt.Errorf("create activity participant: %w", err)
		}
	}

	if params.Meeting != nil {
		meetingQuery := `
			INSERT INTO meeting_details (activity_id, start_time, end_time, kind, address, meeting_link)
			VALUES ($1, $2, $3, $4, $5, $6)`
		_, err := tx.Exec(ctx, meetingQuery,
			activity.ID, params.Meeting.StartTime, params.Meeting.EndTime,
			params.Meeting.Kind, params.Meeting.Address, params.Meeting.MeetingLink,
		)
		if err != nil {
			return Activity{}, fmt.Errorf("create meeting details: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Activity{}, fmt.Errorf("commit create activity: %w", err)
	}

	return r.GetActivity(ctx, activity.ID)
}

// GetActivity retrieves an activity with its participants and meeting
// details.
func (r *Repo) GetActivity(ctx context.Context, id uuid.UUID) (Activity, error) {
	query := activitySelect + ` WHERE a.id = $1`

	var activity Activity
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&activity.ID, &activity.LeadID, &activity.TenantID, &activity.OwnerID,
		&activity.Type, &activity.Title, &activity.Description,
		&activity.DueDate, &activity.DoneAt, &activity.SendNotification,
		&activity.CreatedAt, &activity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, apperr.NotFound(activityNotFoundMessage)
		}
		return Activity{}, fmt.Errorf("get activity: %w", err)
	}

	results := []Activity{activity}
	if err := r.attachRelations(ctx, results); err != nil {
		return Activity{}, err
	}

	return results[0], nil
}

// ListByLead retrieves a lead's activities, newest first.
func (r *Repo) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	query := activitySelect + `
		WHERE a.lead_id = $1
		ORDER BY a.created_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	results, err := scanActivities(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachRelations(ctx, results); err != nil {
		return nil, err
	}

	return results, nil
}

// ListDueForNotification retrieves notifiable pending activities whose
// due date is at or before the horizon.
func (r *Repo) ListDueForNotification(ctx context.Context, horizon time.Time) ([]Activity, error) {
	query := activitySelect + `
		WHERE a.type = ANY($1)
			AND a.done_at IS NULL
			AND a.send_notification = true
			AND a.due_date IS NOT NULL
			AND a.due_date <= $2
		ORDER BY a.due_date ASC`

	rows, err := r.pool.Query(ctx, query, []string{TypeMeeting, TypeCall, TypeTask}, horizon)
	if err != nil {
		return nil, fmt.Errorf("list due activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// MarkDone sets the activity's completion timestamp.
func (r *Repo) MarkDone(ctx context.Context, id uuid.UUID, doneAt time.Time) error {
	query := `UPDATE activities SET done_at = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, doneAt)
	if err != nil {
		return fmt.Errorf("mark activity done: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(activityNotFoundMessage)
	}

	return nil
}

// SuppressNotification flips send_notification to false. There is no
// write path that sets it back.
func (r *Repo) SuppressNotification(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE activities SET send_notification = false, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("suppress activity notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(activityNotFoundMessage)
	}

	return nil
}

// DeleteActivity removes an activity. Participants and meeting details
// cascade.
func (r *Repo) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(activityNotFoundMessage)
	}

	return nil
}

// attachRelations loads participants and meeting details for a batch of
// activities.
func (r *Repo) attachRelations(ctx context.Context, activities []Activity) error {
	if len(activities) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(activities))
	for i, a := range activities {
		ids[i] = a.ID
	}

	participants, err := r.listParticipants(ctx, ids)
	if err != nil {
		return err
	}
	meetings, err := r.listMeetings(ctx, ids)
	if err != nil {
		return err
	}

	for i := range activities {
		activities[i].Participants = participants[activities[i].ID]
		activities[i].Meeting = meetings[activities[i].ID]
	}

	return nil
}

func (r *Repo) listParticipants(ctx context.Context, activityIDs []uuid.UUID) (map[uuid.UUID][]Participant, error) {
	query := `
		SELECT id, activity_id, user_id, email, role
		FROM activity_participants
		WHERE activity_id = ANY($1)
		ORDER BY activity_id, id`

	rows, err := r.pool.Query(ctx, query, activityIDs)
	if err != nil {
		return nil, fmt.Errorf("list activity participants: %w", err)
	}
	defer rows.Close()

	results := make(map[uuid.UUID][]Participant)
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.UserID, &p.Email, &p.Role); err != nil {
			return nil, fmt.Errorf("scan activity participant: %w", err)
		}
		results[p.ActivityID] = append(results[p.ActivityID], p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity participants: %w", err)
	}

	return results, nil
}

func (r *Repo) listMeetings(ctx context.Context, activityIDs []uuid.UUID) (map[uuid.UUID]*MeetingDetails, error) {
	query := `
		SELECT activity_id, start_time, end_time, kind, address, meeting_link
		FROM meeting_details
		WHERE activity_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, activityIDs)
	if err != nil {
		return nil, fmt.Errorf("list meeting details: %w", err)
	}
	defer rows.Close()

	results := make(map[uuid.UUID]*MeetingDetails)
	for rows.Next() {
		var m MeetingDetails
		if err := rows.Scan(&m.ActivityID, &m.StartTime, &m.EndTime, &m.Kind, &m.Address, &m.MeetingLink); err != nil {
			return nil, fmt.Errorf("scan meeting details: %w", err)
		}
		results[m.ActivityID] = &m
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meeting details: %w", err)
	}

	return results, nil
}

func scanActivities(rows pgx.Rows) ([]Activity, error) {
	var results []Activity

	for rows.Next() {
		var activity Activity
		err := rows.Scan(
			&activity.ID, &activity.LeadID, &activity.TenantID, &activity.OwnerID,
			&activity.Type, &activity.Title, &activity.Description,
			&activity.DueDate, &activity.DoneAt, &activity.SendNotification,
			&activity.CreatedAt, &activity.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		results = append(results, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return results, nil
}
