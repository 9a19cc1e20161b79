package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

const (
	unsubscribePlaceholder   = "{{UNSUBSCRIBE_URL}}"
	viewInBrowserPlaceholder = "{{VIEW_IN_BROWSER_URL}}"

	// maxRetries bounds transient-failure retries per message; the first
	// attempt is not a retry.
	maxRetries = 3
)

var (
	// backoff tables, indexed by retry number. Relay provisioning can take
	// tens of minutes to complete, hence the much longer second table.
	genericBackoff = [maxRetries]time.Duration{2 * time.Second, 10 * time.Second, 30 * time.Second}
	relayBackoff   = [maxRetries]time.Duration{2 * time.Minute, 10 * time.Minute, 30 * time.Minute}

	defaultUnsubFooter = `<p style="font-size:12px;color:#888;">You are receiving this email from DisciplineRift. ` +
		`<a href="` + unsubscribePlaceholder + `">Unsubscribe</a></p>`
)

type (
	// SendAttemptResult is the per-recipient outcome of one Send call,
	// retries included.
	SendAttemptResult struct {
		Recipient string `json:"recipient"`
		Success   bool   `json:"success"`
		MessageID string `json:"messageId,omitempty"`
		Error     string `json:"error,omitempty"`
	}

	// Sender delivers one personalized message through a resolved transport,
	// with placeholder substitution, compliance headers and bounded retry.
	Sender struct {
		registry MailerRegistry
		tokens   *TokenService
		conf     *core.Config
		logger   core.Logger
		sleep    func(time.Duration) // mockable
	}
)

func NewSender(registry MailerRegistry, tokens *TokenService, conf *core.Config, logger core.Logger) *Sender {
	return &Sender{
		registry: registry,
		tokens:   tokens,
		conf:     conf,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// Send prepares and delivers msg through the given provider. The message must
// carry exactly one recipient; batch fan-out happens upstream. A message may
// be delivered twice when the provider accepted it but the acknowledgment was
// lost; this is accepted, not guarded against.
func (s *Sender) Send(ctx context.Context, msg *core.EmailMessage, p Provider) SendAttemptResult {
	if !msg.HasRecipients() {
		return SendAttemptResult{Recipient: "N/A", Error: "message has no recipient"}
	}
	recipient := msg.To[0].Address
	res := SendAttemptResult{Recipient: recipient}

	if !msg.HasContent() {
		res.Error = "message has no content"
		return res
	}

	mailer, err := s.registry.Mailer(p)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if err := s.prepare(msg, recipient); err != nil {
		res.Error = err.Error()
		return res
	}

	// explicit retry loop: attempt 0 plus up to maxRetries retries, each
	// iteration exactly one network attempt
	var lastErr error
	for attempt := 0; ; attempt++ {
		id, err := mailer.SendMail(ctx, msg)
		if err == nil {
			res.Success = true
			res.MessageID = id
			return res
		}
		lastErr = err

		if errors.Cause(err) == core.ErrAuthFailed {
			// bad credentials never heal; fail immediately
			break
		}
		if attempt >= maxRetries {
			break
		}
		delay := genericBackoff[attempt]
		if errors.Cause(err) == core.ErrRelayNotReady {
			delay = relayBackoff[attempt]
		}
		s.logger.Warn(fmt.Sprintf("send to %s failed (attempt %d/%d), retrying in %s: %v",
			recipient, attempt+1, maxRetries+1, delay, err))
		s.sleep(delay)
	}

	res.Error = lastErr.Error()
	return res
}

// prepare finalizes the outbound message: mints the recipient's unsubscribe
// token, substitutes link placeholders, guarantees an unsubscribe mechanism,
// sets bulk-mail compliance headers and derives a text fallback.
func (s *Sender) prepare(msg *core.EmailMessage, recipient string) error {
	token, err := s.tokens.Sign(recipient)
	if err != nil {
		return errors.Wrap(err, "minting unsubscribe token")
	}
	unsubURL := fmt.Sprintf("%s/unsubscribe?token=%s", strings.TrimRight(s.conf.FrontendBaseURL, "/"), token)
	viewURL := fmt.Sprintf("%s/newsletter/view?token=%s", strings.TrimRight(s.conf.FrontendBaseURL, "/"), token)

	if msg.HTMLContent != "" && !strings.Contains(msg.HTMLContent, unsubscribePlaceholder) &&
		!strings.Contains(strings.ToLower(msg.HTMLContent), "unsubscribe") {
		msg.HTMLContent += defaultUnsubFooter
	}

	sub := strings.NewReplacer(unsubscribePlaceholder, unsubURL, viewInBrowserPlaceholder, viewURL)
	msg.HTMLContent = sub.Replace(msg.HTMLContent)
	msg.TextContent = sub.Replace(msg.TextContent)

	if msg.TextContent == "" && msg.HTMLContent != "" {
		msg.TextContent = core.HTMLToText(msg.HTMLContent)
	}

	msg.SetHeader("List-Unsubscribe", fmt.Sprintf("<%s>", unsubURL))
	msg.SetHeader("List-Unsubscribe-Post", "List-Unsubscribe=One-Click")
	msg.SetHeader("Precedence", "bulk")
	return nil
}
