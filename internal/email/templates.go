package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type meetingInviteEmailData struct {
	baseEmailData
	MeetingTitle string
	StartTime    string
	EndTime      string
	Kind         string
	Address      string
	MeetingLink  string
}

type activityNoticeEmailData struct {
	baseEmailData
	ActivityTitle string
	WindowLabel   string
	DueDate       string
}

type activityReminderEmailData struct {
	baseEmailData
	ActivityTitle string
	ActivityType  string
	DueDate       string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
