package core

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
)

type (
	// EmailMessage is one ready-to-send personalized email.
	EmailMessage struct {
		To          []mail.Address
		Subject     string
		TextContent string
		HTMLContent string
		// Headers carries extra headers (List-Unsubscribe etc); transports
		// must emit them verbatim.
		Headers map[string]string
	}

	// Mailer sends one message through a configured transport and returns the
	// provider's message id. A Mailer performs exactly one network attempt per
	// call; retries belong to the caller.
	Mailer interface {
		SendMail(ctx context.Context, msg *EmailMessage) (string, error)
	}
)

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

func (m *EmailMessage) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
}

var (
	tagRegex    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRegex = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	blankRegex  = regexp.MustCompile(`\n{3,}`)
	spaceRegex  = regexp.MustCompile(`[ \t]+`)
)

// HTMLToText derives a rough plain-text body from rendered HTML, used as the
// text/plain alternative when a template ships HTML only.
func HTMLToText(html string) string {
	s := scriptRegex.ReplaceAllString(html, "")
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n", "</div>", "\n").Replace(s)
	s = tagRegex.ReplaceAllString(s, "")
	s = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(s)
	s = spaceRegex.ReplaceAllString(s, " ")
	s = blankRegex.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
