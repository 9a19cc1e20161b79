package notify

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/program"
)

const (
	historyTypeCoachReminder = "coach reminder"
	historyTypeParentAbsence = "parent absence notification"

	noPendingSessionsMsg = "No hay sesiones pendientes de asistencia hoy"
	noAbsencesMsg        = "No hay ausencias registradas hoy"
)

var (
	// errors
	ErrInvalidToken = errors.New("invalid or expired token")
)

type (
	// ReminderHistoryRecord is one append-only audit row; the pipeline writes
	// it and never reads it back.
	ReminderHistoryRecord struct {
		Type      string    `db:"type" json:"type"`
		Recipient string    `db:"recipient" json:"recipient"`
		Content   string    `db:"content" json:"content"`
		Date      time.Time `db:"date" json:"date"`
	}

	HistoryRepository interface {
		AppendReminder(ctx context.Context, rec ReminderHistoryRecord) error
		QueryReminders(ctx context.Context) ([]ReminderHistoryRecord, error)
	}

	Subscriber struct {
		Email string `db:"email" json:"email"`
		Name  string `db:"name" json:"name,omitempty"`
	}

	SubscriberRepository interface {
		QueryAllSubscribers(ctx context.Context) ([]Subscriber, error)
		// DeleteSubscriberByEmail matches case-insensitively.
		DeleteSubscriberByEmail(ctx context.Context, email string) error
	}

	// EmailResult is the aggregate outcome of one orchestrated reminder run.
	// Success means sent > 0 and failed == 0; an empty pending set is a
	// successful no-op.
	EmailResult struct {
		Success bool     `json:"success"`
		Sent    int      `json:"sent"`
		Failed  int      `json:"failed"`
		Errors  []string `json:"errors,omitempty"`
	}

	// Service composes the attendance gap finder with rendering, delivery and
	// history logging.
	Service struct {
		gaps          *program.Service
		sender        *Sender
		dispatcher    *Dispatcher
		tokens        *TokenService
		history       HistoryRepository
		subscribers   SubscriberRepository
		renderCoach   CoachRenderer
		renderAbsence AbsenceRenderer
		logger        core.Logger
	}
)

func NewService(
	gaps *program.Service,
	sender *Sender,
	dispatcher *Dispatcher,
	tokens *TokenService,
	history HistoryRepository,
	subscribers SubscriberRepository,
	logger core.Logger,
) *Service {
	return &Service{
		gaps:          gaps,
		sender:        sender,
		dispatcher:    dispatcher,
		tokens:        tokens,
		history:       history,
		subscribers:   subscribers,
		renderCoach:   RenderCoachReminder,
		renderAbsence: RenderParentAbsence,
		logger:        logger,
	}
}

// SendCoachReminders emails every coach whose session occurs today and still
// has no attendance taken. Sends run sequentially: each message carries
// individually distinct content, so the concurrent batch path does not apply.
func (svc *Service) SendCoachReminders(ctx context.Context) (EmailResult, error) {
	pending, err := svc.gaps.SessionsWithoutAttendance(ctx)
	if err != nil {
		return EmailResult{}, err
	}
	if len(pending) == 0 {
		return EmailResult{Success: true, Errors: []string{noPendingSessionsMsg}}, nil
	}

	var res EmailResult
	for _, item := range pending {
		rendered, err := svc.renderCoach(item)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", item.Coach.Email, err))
			continue
		}
		attempt := svc.sender.Send(ctx, &core.EmailMessage{
			To:          []mail.Address{{Name: item.Coach.Name, Address: item.Coach.Email}},
			Subject:     rendered.Subject,
			HTMLContent: rendered.HTML,
		}, ProviderDefault)
		if !attempt.Success {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", attempt.Recipient, attempt.Error))
			continue
		}
		res.Sent++
		svc.appendHistory(ctx, historyTypeCoachReminder, attempt.Recipient, rendered.Subject)
	}
	res.Success = res.Sent > 0 && res.Failed == 0
	return res, nil
}

// SendParentAbsenceNotifications emails the parent of every student explicitly
// marked absent today.
func (svc *Service) SendParentAbsenceNotifications(ctx context.Context) (EmailResult, error) {
	absences, err := svc.gaps.StudentsMarkedAbsent(ctx)
	if err != nil {
		return EmailResult{}, err
	}
	if len(absences) == 0 {
		return EmailResult{Success: true, Errors: []string{noAbsencesMsg}}, nil
	}

	var res EmailResult
	for _, item := range absences {
		rendered, err := svc.renderAbsence(item)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", item.Parent.Email, err))
			continue
		}
		attempt := svc.sender.Send(ctx, &core.EmailMessage{
			To:          []mail.Address{{Name: item.Parent.FullName(), Address: item.Parent.Email}},
			Subject:     rendered.Subject,
			HTMLContent: rendered.HTML,
		}, ProviderDefault)
		if !attempt.Success {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", attempt.Recipient, attempt.Error))
			continue
		}
		res.Sent++
		svc.appendHistory(ctx, historyTypeParentAbsence, attempt.Recipient, rendered.Subject)
	}
	res.Success = res.Sent > 0 && res.Failed == 0
	return res, nil
}

// SendEmailCampaign dispatches one template to an explicit recipient list, or
// to the whole newsletter audience when the list is empty.
func (svc *Service) SendEmailCampaign(ctx context.Context, tmpl Template, recipients []Recipient, p Provider) (BatchResult, error) {
	if len(recipients) == 0 {
		subs, err := svc.subscribers.QueryAllSubscribers(ctx)
		if err != nil {
			return BatchResult{}, errors.Wrap(err, "querying newsletter audience")
		}
		for _, sub := range subs {
			recipients = append(recipients, Recipient{Email: sub.Email, Name: sub.Name})
		}
	}
	return svc.dispatcher.SendBatch(ctx, recipients, tmpl, p), nil
}

// SendSMSCampaign dispatches one text body to the given phone numbers.
func (svc *Service) SendSMSCampaign(ctx context.Context, recipients []Recipient, body string) BatchResult {
	return svc.dispatcher.SendSMSBatch(ctx, recipients, body)
}

// Unsubscribe verifies the token and removes the matching newsletter row.
// Invalid tokens surface as ErrInvalidToken; storage failures propagate.
func (svc *Service) Unsubscribe(ctx context.Context, token string) error {
	email, ok := svc.tokens.Verify(token)
	if !ok {
		return ErrInvalidToken
	}
	if err := svc.subscribers.DeleteSubscriberByEmail(ctx, email); err != nil {
		return errors.Wrapf(err, "removing subscriber %s", email)
	}
	svc.logger.Info(fmt.Sprintf("unsubscribed %s", email))
	return nil
}

// History returns the audit trail for the admin UI.
func (svc *Service) History(ctx context.Context) ([]ReminderHistoryRecord, error) {
	return svc.history.QueryReminders(ctx)
}

// appendHistory records a successful dispatch; a failed append is logged, not
// surfaced, because the message already left.
func (svc *Service) appendHistory(ctx context.Context, typ, recipient, content string) {
	rec := ReminderHistoryRecord{
		Type:      typ,
		Recipient: recipient,
		Content:   content,
		Date:      program.NowFunc().In(program.Eastern),
	}
	if err := svc.history.AppendReminder(ctx, rec); err != nil {
		svc.logger.Warn(fmt.Sprintf("recording %s history for %s: %v", typ, recipient, err))
	}
}
