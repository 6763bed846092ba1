// Package notification provides event handlers for sending emails in
// response to domain events, plus the scheduler's notice dispatch. The
// module inverts the dependency: domain modules never know about email
// providers or templates. Every failure here is logged and swallowed;
// notifications are best-effort by contract.
package notification

import (
	"context"
	"fmt"
	"time"

	activityrepo "crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/internal/email"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/scheduler"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// UserEmailReader resolves an internal user id to an email address.
type UserEmailReader interface {
	GetUserEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// Module fans domain events out to email.
type Module struct {
	sender email.Sender
	users  UserEmailReader
	loc    *time.Location
	log    *logger.Logger
}

// NewModule creates the notification module. Times in outgoing mail are
// rendered in the configured tenant-facing time zone.
func NewModule(sender email.Sender, users UserEmailReader, cfg config.NotificationConfig, log *logger.Logger) (*Module, error) {
	loc, err := time.LoadLocation(cfg.GetNotifyTimezone())
	if err != nil {
		return nil, fmt.Errorf("load notify timezone: %w", err)
	}

	return &Module{sender: sender, users: users, loc: loc, log: log}, nil
}

// RegisterHandlers subscribes to the relevant domain events on the bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.MeetingScheduled{}.EventName(), m)
	bus.Subscribe(events.ActivityReminderDue{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MeetingScheduled:
		m.handleMeetingScheduled(ctx, e)
	case events.ActivityReminderDue:
		m.handleReminderDue(ctx, e)
	}
	return nil
}

// handleMeetingScheduled sends invitation emails to every participant.
// Per-participant failures are logged and the fan-out continues.
func (m *Module) handleMeetingScheduled(ctx context.Context, e events.MeetingScheduled) {
	invite := email.MeetingInvite{
		Title:       e.Title,
		StartTime:   m.formatTime(e.StartTime),
		EndTime:     m.formatTime(e.EndTime),
		Kind:        e.MeetingKind,
		Address:     e.Address,
		MeetingLink: e.MeetingLink,
	}

	for _, p := range e.Participants {
		address, err := m.resolveParticipantEmail(ctx, p)
		if err != nil {
			m.log.Warn("invite recipient unresolved", "activityId", e.ActivityID, "error", err)
			continue
		}
		if err := m.sender.SendMeetingInviteEmail(ctx, address, invite); err != nil {
			m.log.Error("meeting invite send failed", "activityId", e.ActivityID, "error", err)
		}
	}
}

// handleReminderDue mails the activity owner when a scheduled reminder
// fires.
func (m *Module) handleReminderDue(ctx context.Context, e events.ActivityReminderDue) {
	address, err := m.users.GetUserEmail(ctx, e.OwnerID)
	if err != nil {
		m.log.Warn("reminder recipient unresolved", "activityId", e.ActivityID, "error", err)
		return
	}

	err = m.sender.SendActivityReminderEmail(ctx, address, email.ActivityReminder{
		Title:        e.Title,
		ActivityType: e.ActivityType,
		DueDate:      m.formatTime(e.DueDate),
	})
	if err != nil {
		m.log.Error("activity reminder send failed", "activityId", e.ActivityID, "error", err)
	}
}

// DispatchNotice implements the scheduler's notice dispatch by mailing
// the activity owner a window notice.
func (m *Module) DispatchNotice(ctx context.Context, activity activityrepo.Activity, class scheduler.NoticeClass, diffMinutes int) error {
	address, err := m.users.GetUserEmail(ctx, activity.OwnerID)
	if err != nil {
		return fmt.Errorf("resolve notice recipient: %w", err)
	}

	notice := email.ActivityNotice{
		Title:       activity.Title,
		WindowLabel: windowLabel(class),
	}
	if activity.DueDate != nil {
		notice.DueDate = m.formatTime(*activity.DueDate)
	}

	if err := m.sender.SendActivityNoticeEmail(ctx, address, notice); err != nil {
		return fmt.Errorf("send activity notice: %w", err)
	}

	m.log.Info("activity notice sent",
		"activityId", activity.ID, "class", string(class), "diffMinutes", diffMinutes)
	return nil
}

func (m *Module) resolveParticipantEmail(ctx context.Context, p events.MeetingParticipant) (string, error) {
	if p.Email != "" {
		return p.Email, nil
	}
	if p.UserID == nil {
		return "", fmt.Errorf("participant has no contact")
	}
	return m.users.GetUserEmail(ctx, *p.UserID)
}

func (m *Module) formatTime(t time.Time) string {
	return t.In(m.loc).Format("02/01/2006 15:04")
}

func windowLabel(class scheduler.NoticeClass) string {
	switch class {
	case scheduler.NoticeUpcoming:
		return "vence em até 1 hora"
	case scheduler.NoticeDueNow:
		return "vence agora"
	case scheduler.NoticeOverdue:
		return "está atrasada"
	case scheduler.NoticeSuppressing:
		return "não receberá mais lembretes"
	default:
		return "requer atenção"
	}
}

var (
	_ events.Handler             = (*Module)(nil)
	_ scheduler.NoticeDispatcher = (*Module)(nil)
)
