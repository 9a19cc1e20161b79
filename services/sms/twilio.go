package smssvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

// twilioSender posts outbound texts to the Twilio-compatible REST gateway.
// Requests authenticate with HTTP Basic (account SID as username, auth token
// as password).
type twilioSender struct {
	conf   core.SMSConfig
	client *http.Client
	logger core.Logger
}

var _ core.SMSSender = (*twilioSender)(nil)

func NewTwilioSender(conf core.SMSConfig, logger core.Logger) (*twilioSender, error) {
	if conf.AccountSID == "" || conf.AuthToken == "" || conf.From == "" {
		return nil, errors.New("sms gateway: missing account SID, auth token or sender number")
	}
	return &twilioSender{
		conf:   conf,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}, nil
}

func (svc *twilioSender) SendSMS(ctx context.Context, msg *core.SMSMessage) (string, error) {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimRight(svc.conf.APIBase, "/"), svc.conf.AccountSID)

	form := url.Values{}
	form.Add("To", msg.To)
	form.Add("From", svc.conf.From)
	form.Add("Body", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "building sms request")
	}
	req.SetBasicAuth(svc.conf.AccountSID, svc.conf.AuthToken)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "posting to sms gateway")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading sms gateway response")
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", errors.Wrapf(core.ErrAuthFailed, "sms gateway status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return "", errors.Errorf("sms gateway status %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		svc.logger.Warn(fmt.Sprintf("parsing sms gateway response: %v", err))
	}
	return parsed.SID, nil
}
