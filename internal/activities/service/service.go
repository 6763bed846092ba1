package service

import (
	"context"
	"time"

	"crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/internal/activities/transport"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/scope"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// LeadTenantResolver resolves a lead to its owning tenant.
// Backed by the leads module through an adapter.
type LeadTenantResolver interface {
	ResolveLeadTenant(ctx context.Context, leadID uuid.UUID) (uuid.UUID, error)
}

// ReminderScheduler enqueues a durable reminder for an activity with a
// due date. Scheduling failures never fail the create.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, activityID uuid.UUID, dueDate time.Time) error
}

// Service provides business logic for lead activities.
type Service struct {
	repo      repository.Repository
	leads     LeadTenantResolver
	reminders ReminderScheduler
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new activities service. reminders may be nil when no
// durable task backend is configured.
func New(repo repository.Repository, leads LeadTenantResolver, reminders ReminderScheduler, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		leads:     leads,
		reminders: reminders,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Create persists an activity with its participants and optional
// meeting details in one unit. Meeting invitations and the due-date
// reminder are triggered afterwards best-effort; their failures never
// roll back the created activity.
func (s *Service) Create(ctx context.Context, sc scope.Scope, req transport.CreateActivityRequest) (transport.ActivityResponse, error) {
	if err := scope.RequireFull(sc); err != nil {
		return transport.ActivityResponse{}, err
	}

	tenantID, err := s.leads.ResolveLeadTenant(ctx, req.LeadID)
	if err != nil {
		return transport.ActivityResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.ActivityResponse{}, err
	}

	if err := validateShape(req); err != nil {
		return transport.ActivityResponse{}, err
	}

	sendNotification := true
	if req.SendNotification != nil {
		sendNotification = *req.SendNotification
	}

	params := repository.CreateActivityParams{
		LeadID:           req.LeadID,
		OwnerID:          *sc.UserID,
		Type:             req.Type,
		Title:            req.Title,
		Description:      req.Description,
		DueDate:          req.DueDate,
		SendNotification: sendNotification,
		Participants:     toParticipantParams(req.Participants),
	}
	if req.MeetingDetails != nil {
		params.Meeting = &repository.MeetingInput{
			StartTime:   req.MeetingDetails.StartTime,
			EndTime:     req.MeetingDetails.EndTime,
			Kind:        req.MeetingDetails.Kind,
			Address:     req.MeetingDetails.Address,
			MeetingLink: req.MeetingDetails.MeetingLink,
		}
	}

	activity, err := s.repo.CreateActivity(ctx, params)
	if err != nil {
		return transport.ActivityResponse{}, err
	}

	if activity.Meeting != nil {
		s.bus.Publish(ctx, meetingScheduledEvent(activity))
	}
	s.scheduleReminder(ctx, activity)

	s.log.Info("activity created", "id", activity.ID, "leadId", activity.LeadID, "type", activity.Type)
	return toActivityResponse(activity), nil
}

// ListByLead retrieves a lead's activities, newest first.
func (s *Service) ListByLead(ctx context.Context, sc scope.Scope, leadID uuid.UUID) (transport.ActivityListResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.ActivityListResponse{}, err
	}

	tenantID, err := s.leads.ResolveLeadTenant(ctx, leadID)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, tenantID); err != nil {
		return transport.ActivityListResponse{}, err
	}

	activities, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		return transport.ActivityListResponse{}, err
	}

	items := make([]transport.ActivityResponse, len(activities))
	for i, a := range activities {
		items[i] = toActivityResponse(a)
	}

	return transport.ActivityListResponse{LeadID: leadID, Items: items}, nil
}

// Get retrieves an activity with its participants and meeting details.
func (s *Service) Get(ctx context.Context, sc scope.Scope, id uuid.UUID) (transport.ActivityResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.ActivityResponse{}, err
	}

	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return transport.ActivityResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, activity.TenantID); err != nil {
		return transport.ActivityResponse{}, err
	}

	return toActivityResponse(activity), nil
}

// MarkDone sets the activity's completion timestamp. Done activities
// drop out of the notification scheduler's candidate set.
func (s *Service) MarkDone(ctx context.Context, sc scope.Scope, id uuid.UUID) (transport.ActivityResponse, error) {
	if err := scope.Require(sc); err != nil {
		return transport.ActivityResponse{}, err
	}

	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return transport.ActivityResponse{}, err
	}
	if err := scope.CheckTenantAccess(sc, activity.TenantID); err != nil {
		return transport.ActivityResponse{}, err
	}

	if err := s.repo.MarkDone(ctx, id, s.now()); err != nil {
		return transport.ActivityResponse{}, err
	}

	updated, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return transport.ActivityResponse{}, err
	}

	s.log.Info("activity done", "id", id, "leadId", updated.LeadID)
	return toActivityResponse(updated), nil
}

// Delete removes an activity with its dependent records.
func (s *Service) Delete(ctx context.Context, sc scope.Scope, id uuid.UUID) error {
	if err := scope.Require(sc); err != nil {
		return err
	}

	activity, err := s.repo.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	if err := scope.CheckTenantAccess(sc, activity.TenantID); err != nil {
		return err
	}

	return s.repo.DeleteActivity(ctx, id)
}

// validateShape enforces the structural invariants rejected before any
// write: meeting details present exactly when the type is MEETING, a
// coherent meeting interval, and participant contact exclusivity.
func validateShape(req transport.CreateActivityRequest) error {
	if req.Type == repository.TypeMeeting && req.MeetingDetails == nil {
		return apperr.Invariant("meeting details are required for MEETING activities")
	}
	if req.Type != repository.TypeMeeting && req.MeetingDetails != nil {
		return apperr.Invariant("meeting details are only allowed on MEETING activities")
	}
	if req.MeetingDetails != nil && !req.MeetingDetails.EndTime.After(req.MeetingDetails.StartTime) {
		return apperr.Invariant("meeting end must be after its start")
	}

	for _, p := range req.Participants {
		hasUser := p.UserID != nil
		hasEmail := p.Email != nil && *p.Email != ""
		if hasUser == hasEmail {
			return apperr.Invariant("participant must specify exactly one of user id or email")
		}
	}

	return nil
}

func (s *Service) scheduleReminder(ctx context.Context, activity repository.Activity) {
	if s.reminders == nil || activity.DueDate == nil || !activity.SendNotification {
		return
	}
	if err := s.reminders.ScheduleReminder(ctx, activity.ID, *activity.DueDate); err != nil {
		s.log.Error("reminder scheduling failed", "activityId", activity.ID, "error", err)
	}
}

func toParticipantParams(inputs []transport.ParticipantInput) []repository.ParticipantInput {
	results := make([]repository.ParticipantInput, len(inputs))
	for i, p := range inputs {
		role := p.Role
		if role == "" {
			role = repository.DefaultParticipantRole
		}
		results[i] = repository.ParticipantInput{UserID: p.UserID, Email: p.Email, Role: role}
	}
	return results
}

func meetingScheduledEvent(activity repository.Activity) events.MeetingScheduled {
	evt := events.MeetingScheduled{
		BaseEvent:   events.NewBaseEvent(),
		ActivityID:  activity.ID,
		LeadID:      activity.LeadID,
		TenantID:    activity.TenantID,
		Title:       activity.Title,
		StartTime:   activity.Meeting.StartTime,
		EndTime:     activity.Meeting.EndTime,
		MeetingKind: activity.Meeting.Kind,
	}
	if activity.Meeting.Address != nil {
		evt.Address = *activity.Meeting.Address
	}
	if activity.Meeting.MeetingLink != nil {
		evt.MeetingLink = *activity.Meeting.MeetingLink
	}
	for _, p := range activity.Participants {
		participant := events.MeetingParticipant{UserID: p.UserID, Role: p.Role}
		if p.Email != nil {
			participant.Email = *p.Email
		}
		evt.Participants = append(evt.Participants, participant)
	}
	return evt
}

func toActivityResponse(activity repository.Activity) transport.ActivityResponse {
	resp := transport.ActivityResponse{
		ID:               activity.ID,
		LeadID:           activity.LeadID,
		OwnerID:          activity.OwnerID,
		Type:             activity.Type,
		Title:            activity.Title,
		Description:      activity.Description,
		SendNotification: activity.SendNotification,
		CreatedAt:        activity.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        activity.UpdatedAt.Format(time.RFC3339),
		Participants:     make([]transport.ParticipantResponse, len(activity.Participants)),
	}
	if activity.DueDate != nil {
		formatted := activity.DueDate.Format(time.RFC3339)
		resp.DueDate = &formatted
	}
	if activity.DoneAt != nil {
		formatted := activity.DoneAt.Format(time.RFC3339)
		resp.DoneAt = &formatted
	}
	for i, p := range activity.Participants {
		resp.Participants[i] = transport.ParticipantResponse{
			ID: p.ID, UserID: p.UserID, Email: p.Email, Role: p.Role,
		}
	}
	if activity.Meeting != nil {
		resp.MeetingDetails = &transport.MeetingDetailsResponse{
			StartTime:   activity.Meeting.StartTime.Format(time.RFC3339),
			EndTime:     activity.Meeting.EndTime.Format(time.RFC3339),
			Kind:        activity.Meeting.Kind,
			Address:     activity.Meeting.Address,
			MeetingLink: activity.Meeting.MeetingLink,
		}
	}
	return resp
}
