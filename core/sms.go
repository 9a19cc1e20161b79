package core

import "context"

type (
	// SMSMessage is one outbound text message.
	SMSMessage struct {
		To   string
		Body string
	}

	// SMSSender sends one text message through the configured gateway and
	// returns the gateway's message id.
	SMSSender interface {
		SendSMS(ctx context.Context, msg *SMSMessage) (string, error)
	}
)
