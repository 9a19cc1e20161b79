package notify

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"

	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

type (
	// RenderedMessage is ready-to-send content produced by a renderer.
	RenderedMessage struct {
		Subject string
		HTML    string
	}

	CoachRenderer   func(program.CoachReminder) (RenderedMessage, error)
	AbsenceRenderer func(program.AbsenceNotice) (RenderedMessage, error)
)

var (
	coachReminderTmpl = htmltmpl.Must(htmltmpl.New("coach_reminder").Parse(`
<p>Hi {{ .Coach.Name }},</p>
<p>Attendance for <strong>{{ .Team.Name }}</strong> has not been taken yet for
today's practice ({{ .Session.StartTime }}&ndash;{{ .Session.EndTime }}).</p>
<p>Please open the attendance sheet and mark your roster before the end of the day.</p>
<p>&mdash; DisciplineRift</p>
`))

	parentAbsenceTmpl = htmltmpl.Must(htmltmpl.New("parent_absence").Parse(`
<p>Dear {{ .Parent.FirstName }},</p>
<p>{{ .Student.FullName }} was marked absent from today's
<strong>{{ .Team.Name }}</strong> practice
({{ .Session.StartTime }}&ndash;{{ .Session.EndTime }}).</p>
<p>If you believe this is an error, please reply to this email and we will
correct the record.</p>
<p>&mdash; DisciplineRift</p>
`))
)

// RenderCoachReminder is the default coach reminder renderer.
func RenderCoachReminder(r program.CoachReminder) (RenderedMessage, error) {
	var buf bytes.Buffer
	if err := coachReminderTmpl.Execute(&buf, r); err != nil {
		return RenderedMessage{}, errors.Wrap(err, "rendering coach reminder")
	}
	return RenderedMessage{
		Subject: fmt.Sprintf("Attendance pending: %s", r.Team.Name),
		HTML:    buf.String(),
	}, nil
}

// RenderParentAbsence is the default parent absence notice renderer.
func RenderParentAbsence(n program.AbsenceNotice) (RenderedMessage, error) {
	var buf bytes.Buffer
	if err := parentAbsenceTmpl.Execute(&buf, n); err != nil {
		return RenderedMessage{}, errors.Wrap(err, "rendering parent absence notice")
	}
	return RenderedMessage{
		Subject: fmt.Sprintf("Absence notice: %s", n.Student.FullName()),
		HTML:    buf.String(),
	}, nil
}
