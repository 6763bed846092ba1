package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"crm_portal_backend/platform/config"
)

// NewSender builds the configured sender. Email can be disabled
// entirely, in which case sends become no-ops.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}

// SMTPSender implements the Sender interface over a direct SMTP
// connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendMeetingInviteEmail(ctx context.Context, toEmail string, invite MeetingInvite) error {
	content, err := renderEmailTemplate("meeting_invite.html", meetingInviteEmailData{
		baseEmailData: baseEmailData{
			Title:   "Reunião agendada",
			Heading: "Reunião agendada",
		},
		MeetingTitle: invite.Title,
		StartTime:    invite.StartTime,
		EndTime:      invite.EndTime,
		Kind:         invite.Kind,
		Address:      invite.Address,
		MeetingLink:  invite.MeetingLink,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectMeetingInviteFmt, invite.Title), content)
}

func (s *SMTPSender) SendActivityNoticeEmail(ctx context.Context, toEmail string, notice ActivityNotice) error {
	content, err := renderEmailTemplate("activity_notice.html", activityNoticeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Aviso de atividade",
			Heading: "Aviso de atividade",
		},
		ActivityTitle: notice.Title,
		WindowLabel:   notice.WindowLabel,
		DueDate:       notice.DueDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectActivityNoticeFmt, notice.Title), content)
}

func (s *SMTPSender) SendActivityReminderEmail(ctx context.Context, toEmail string, reminder ActivityReminder) error {
	content, err := renderEmailTemplate("activity_reminder.html", activityReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   "Lembrete de atividade",
			Heading: "Lembrete de atividade",
		},
		ActivityTitle: reminder.Title,
		ActivityType:  reminder.ActivityType,
		DueDate:       reminder.DueDate,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectActivityReminderFmt, reminder.Title), content)
}
