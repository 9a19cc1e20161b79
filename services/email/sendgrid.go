package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// sendgridMailer is the marketing route: campaigns go through SendGrid's API
// rather than an SMTP relay.
type sendgridMailer struct {
	key     string
	from    *sgmail.Email
	logger  core.Logger
	apiFunc func(request rest.Request) (*rest.Response, error) // mockable
}

var _ core.Mailer = (*sendgridMailer)(nil)

func NewSendgridMailer(apiKey string, from mail.Address, logger core.Logger) (*sendgridMailer, error) {
	if apiKey == "" {
		return nil, errors.New(`email provider "marketing": missing SendGrid API key`)
	}
	return &sendgridMailer{
		key:     apiKey,
		from:    sgmail.NewEmail(from.Name, from.Address),
		logger:  logger,
		apiFunc: sendgrid.API,
	}, nil
}

func (svc *sendgridMailer) SendMail(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := svc.apiFunc(req)
	if err != nil {
		return "", errors.Wrap(err, "sending via sendgrid")
	}
	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return "", errors.Wrapf(core.ErrAuthFailed, "sendgrid status %d", res.StatusCode)
	case res.StatusCode >= http.StatusBadRequest:
		return "", errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

func (svc *sendgridMailer) prepare(msg *core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	for key, value := range msg.Headers {
		m.SetHeader(key, value)
	}

	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	return m
}
