package email

const (
	subjectMeetingInviteFmt    = "Convite: %s"
	subjectActivityNoticeFmt   = "Aviso: %s"
	subjectActivityReminderFmt = "Lembrete: %s"
)
