package emailsvc

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

// consoleMailer prints outbound mail to stdout instead of delivering it; used
// in DEV so no real provider credentials are needed. It also records sent
// messages so handler tests can assert on them.
type consoleMailer struct {
	disableOutput bool

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.Mailer = (*consoleMailer)(nil)

func NewConsoleMailer() *consoleMailer {
	return &consoleMailer{}
}

// NewConsoleMailerMock behaves like NewConsoleMailer with output suppressed.
func NewConsoleMailerMock() *consoleMailer {
	return &consoleMailer{disableOutput: true}
}

func (svc *consoleMailer) SendMail(_ context.Context, msg *core.EmailMessage) (string, error) {
	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()

	if !svc.disableOutput {
		body := new(strings.Builder)
		_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
		_, _ = fmt.Fprintf(body, "Subject: %s\r\n", msg.Subject)
		for key, value := range msg.Headers {
			_, _ = fmt.Fprintf(body, "%s: %s\r\n", key, value)
		}
		_, _ = fmt.Fprintf(body, "\r\n%s\r\n", msg.TextContent)
		log.Println(body.String())
	}
	return uuid.NewString(), nil
}

// SentMessages returns a copy of everything sent so far.
func (svc *consoleMailer) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]core.EmailMessage, len(svc.sent))
	copy(out, svc.sent)
	return out
}
