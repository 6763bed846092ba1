// Package email provides outbound email delivery. All sends are
// best-effort from the caller's perspective; callers log failures and
// move on.
package email

import "context"

// Sender delivers the transactional emails the portal sends.
type Sender interface {
	SendMeetingInviteEmail(ctx context.Context, toEmail string, invite MeetingInvite) error
	SendActivityNoticeEmail(ctx context.Context, toEmail string, notice ActivityNotice) error
	SendActivityReminderEmail(ctx context.Context, toEmail string, reminder ActivityReminder) error
}

// MeetingInvite carries the rendered fields of a meeting invitation.
type MeetingInvite struct {
	Title       string
	StartTime   string
	EndTime     string
	Kind        string
	Address     string
	MeetingLink string
}

// ActivityNotice carries one notification-window notice.
type ActivityNotice struct {
	Title       string
	WindowLabel string
	DueDate     string
}

// ActivityReminder carries a scheduled due-date reminder.
type ActivityReminder struct {
	Title        string
	ActivityType string
	DueDate      string
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendMeetingInviteEmail(context.Context, string, MeetingInvite) error {
	return nil
}

func (NoopSender) SendActivityNoticeEmail(context.Context, string, ActivityNotice) error {
	return nil
}

func (NoopSender) SendActivityReminderEmail(context.Context, string, ActivityReminder) error {
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = NoopSender{}
)
