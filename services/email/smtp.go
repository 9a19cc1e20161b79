package emailsvc

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

// smtpMailer sends through one SMTP route (default or relay). A fresh
// connection is made per send; no shared connection state is assumed.
type smtpMailer struct {
	route    string
	conf     core.SMTPConfig
	from     mail.Address
	logger   core.Logger
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error // mockable
}

var _ core.Mailer = (*smtpMailer)(nil)

// NewSMTPMailer builds the transport handle for one route, failing fast on
// missing credentials; no network I/O happens here.
func NewSMTPMailer(route string, conf core.SMTPConfig, from mail.Address, logger core.Logger) (*smtpMailer, error) {
	if conf.Host == "" || conf.Username == "" || conf.Password == "" {
		return nil, errors.Errorf("email provider %q: missing SMTP credentials", route)
	}
	return &smtpMailer{
		route:    route,
		conf:     conf,
		from:     from,
		logger:   logger,
		sendMail: smtp.SendMail,
	}, nil
}

func (svc *smtpMailer) SendMail(ctx context.Context, msg *core.EmailMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), svc.conf.Host)

	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.Address)
	}

	body := svc.buildMIME(msg, messageID)
	auth := smtp.PlainAuth("", svc.conf.Username, svc.conf.Password, svc.conf.Host)
	addr := fmt.Sprintf("%s:%d", svc.conf.Host, svc.conf.Port)

	if err := svc.sendMail(addr, auth, svc.from.Address, to, body); err != nil {
		return "", classifySMTPError(err)
	}
	return messageID, nil
}

func (svc *smtpMailer) buildMIME(msg *core.EmailMessage, messageID string) []byte {
	body := new(strings.Builder)

	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.from.String())
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
	_, _ = fmt.Fprintf(body, "Message-ID: %s\r\n", messageID)
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	for key, value := range msg.Headers {
		_, _ = fmt.Fprintf(body, "%s: %s\r\n", key, value)
	}

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())

	w, _ := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, _ = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	_ = altW.Close()

	return []byte(body.String())
}

// classifySMTPError maps provider responses onto the shared sentinels the
// sender keys its retry policy on.
func classifySMTPError(err error) error {
	if tpErr, ok := errors.Cause(err).(*textproto.Error); ok {
		switch {
		case tpErr.Code == 535 || tpErr.Code == 534 || tpErr.Code == 530:
			return errors.Wrap(core.ErrAuthFailed, tpErr.Msg)
		}
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "invalid credentials"):
		return errors.Wrap(core.ErrAuthFailed, err.Error())
	case strings.Contains(lower, "provision") || strings.Contains(lower, "relay access denied"):
		return errors.Wrap(core.ErrRelayNotReady, err.Error())
	}
	return err
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}
