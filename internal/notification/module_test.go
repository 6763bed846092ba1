package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	activityrepo "crm_portal_backend/internal/activities/repository"
	"crm_portal_backend/internal/email"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/scheduler"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	invites   map[string]email.MeetingInvite
	notices   map[string]email.ActivityNotice
	reminders map[string]email.ActivityReminder
	err       error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		invites:   make(map[string]email.MeetingInvite),
		notices:   make(map[string]email.ActivityNotice),
		reminders: make(map[string]email.ActivityReminder),
	}
}

func (f *fakeSender) SendMeetingInviteEmail(_ context.Context, to string, invite email.MeetingInvite) error {
	if f.err != nil {
		return f.err
	}
	f.invites[to] = invite
	return nil
}

func (f *fakeSender) SendActivityNoticeEmail(_ context.Context, to string, notice email.ActivityNotice) error {
	if f.err != nil {
		return f.err
	}
	f.notices[to] = notice
	return nil
}

func (f *fakeSender) SendActivityReminderEmail(_ context.Context, to string, reminder email.ActivityReminder) error {
	if f.err != nil {
		return f.err
	}
	f.reminders[to] = reminder
	return nil
}

type fakeUserReader struct {
	emails map[uuid.UUID]string
}

func (f *fakeUserReader) GetUserEmail(_ context.Context, userID uuid.UUID) (string, error) {
	address, ok := f.emails[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return address, nil
}

type noticeConfig struct{}

func (noticeConfig) GetNotifyTimezone() string                { return "UTC" }
func (noticeConfig) GetActivityNotifyInterval() time.Duration { return 15 * time.Minute }

func newTestModule(t *testing.T, sender *fakeSender, users *fakeUserReader) *Module {
	t.Helper()
	m, err := NewModule(sender, users, noticeConfig{}, logger.New("development"))
	if err != nil {
		t.Fatalf("module construction failed: %v", err)
	}
	return m
}

func TestMeetingScheduledFansOutToAllParticipants(t *testing.T) {
	sender := newFakeSender()
	internalUser := uuid.New()
	users := &fakeUserReader{emails: map[uuid.UUID]string{internalUser: "owner@example.com"}}
	m := newTestModule(t, sender, users)

	unknownUser := uuid.New()
	err := m.Handle(context.Background(), events.MeetingScheduled{
		BaseEvent:   events.NewBaseEvent(),
		ActivityID:  uuid.New(),
		Title:       "Kickoff",
		StartTime:   time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
		MeetingKind: activityrepo.KindOnline,
		Participants: []events.MeetingParticipant{
			{Email: "guest@example.com", Role: "participant"},
			{UserID: &internalUser, Role: "host"},
			{UserID: &unknownUser, Role: "participant"},
		},
	})
	if err != nil {
		t.Fatalf("expected handler to swallow failures, got %v", err)
	}

	if len(sender.invites) != 2 {
		t.Fatalf("expected 2 invites, got %d", len(sender.invites))
	}
	if _, ok := sender.invites["guest@example.com"]; !ok {
		t.Fatalf("expected external participant invited")
	}
	invite, ok := sender.invites["owner@example.com"]
	if !ok {
		t.Fatalf("expected internal participant invited via resolved email")
	}
	if invite.StartTime != "01/09/2026 14:00" {
		t.Fatalf("unexpected start time rendering %q", invite.StartTime)
	}
}

func TestReminderDueMailsOwner(t *testing.T) {
	sender := newFakeSender()
	owner := uuid.New()
	users := &fakeUserReader{emails: map[uuid.UUID]string{owner: "owner@example.com"}}
	m := newTestModule(t, sender, users)

	err := m.Handle(context.Background(), events.ActivityReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		ActivityID:   uuid.New(),
		OwnerID:      owner,
		ActivityType: activityrepo.TypeCall,
		Title:        "Check in",
		DueDate:      time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if _, ok := sender.reminders["owner@example.com"]; !ok {
		t.Fatalf("expected reminder mail to owner, got %v", sender.reminders)
	}
}

func TestDispatchNoticeReportsSendFailure(t *testing.T) {
	sender := newFakeSender()
	sender.err = errors.New("smtp down")
	owner := uuid.New()
	users := &fakeUserReader{emails: map[uuid.UUID]string{owner: "owner@example.com"}}
	m := newTestModule(t, sender, users)

	due := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	err := m.DispatchNotice(context.Background(), activityrepo.Activity{
		ID:      uuid.New(),
		OwnerID: owner,
		Title:   "Check in",
		DueDate: &due,
	}, scheduler.NoticeOverdue, -30)
	if err == nil {
		t.Fatalf("expected dispatch error to surface to the scheduler")
	}
}
