package notify

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

type (
	Recipient struct {
		Email string `json:"email"`
		Name  string `json:"name,omitempty"`
	}

	BatchError struct {
		Recipient string `json:"recipient"`
		Error     string `json:"error"`
	}

	// BatchResult is the aggregate outcome of one batch dispatch. For a
	// non-empty recipient list, Sent+Failed == Total always holds: no
	// recipient is dropped without being counted one way or the other.
	BatchResult struct {
		Total  int          `json:"total"`
		Sent   int          `json:"sent"`
		Failed int          `json:"failed"`
		Errors []BatchError `json:"errors"`
	}

	// Template is one message rendered identically for every recipient of a
	// batch; per-recipient personalization is limited to placeholder links.
	Template struct {
		Subject string `json:"subject"`
		HTML    string `json:"html"`
		Text    string `json:"text,omitempty"`
	}

	// Dispatcher fans a recipient list out across Sender calls under a fixed
	// concurrency cap, with an inter-batch delay to respect provider rate
	// limits. Chunk N+1 never starts before chunk N fully settles.
	Dispatcher struct {
		sender *Sender
		sms    core.SMSSender // may be nil when no gateway is configured
		conf   core.BatchConfig
		logger core.Logger
		sleep  func(time.Duration) // mockable
	}
)

func NewDispatcher(sender *Sender, sms core.SMSSender, conf core.BatchConfig, logger core.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		sms:    sms,
		conf:   conf,
		logger: logger,
		sleep:  time.Sleep,
	}
}

// SendBatch delivers tmpl to every recipient through the given provider.
// Failures are isolated per recipient and recorded; once started, the batch
// runs to completion.
func (d *Dispatcher) SendBatch(ctx context.Context, recipients []Recipient, tmpl Template, p Provider) BatchResult {
	if len(recipients) == 0 {
		return BatchResult{Errors: []BatchError{{Recipient: "N/A", Error: "No recipients provided"}}}
	}

	res := BatchResult{Total: len(recipients)}
	for start := 0; start < len(recipients); start += d.conf.Size {
		if start > 0 {
			d.sleep(d.conf.BatchDelay)
		}
		batch := recipients[start:min(start+d.conf.Size, len(recipients))]
		d.logger.Debug(fmt.Sprintf("dispatching batch of %d (done %d/%d)", len(batch), start, len(recipients)))

		for _, attempt := range d.runChunked(batch, func(i int) SendAttemptResult {
			return d.sendOne(ctx, batch[i], tmpl, p)
		}) {
			if attempt.Success {
				res.Sent++
			} else {
				res.Failed++
				res.Errors = append(res.Errors, BatchError{Recipient: attempt.Recipient, Error: attempt.Error})
			}
		}
	}
	return res
}

// SendSMSBatch delivers body to every recipient phone number through the SMS
// gateway, under the same chunking and accounting rules as email batches.
func (d *Dispatcher) SendSMSBatch(ctx context.Context, recipients []Recipient, body string) BatchResult {
	if len(recipients) == 0 {
		return BatchResult{Errors: []BatchError{{Recipient: "N/A", Error: "No recipients provided"}}}
	}
	if d.sms == nil {
		errs := make([]BatchError, len(recipients))
		for i, r := range recipients {
			errs[i] = BatchError{Recipient: r.Email, Error: "SMS gateway not configured"}
		}
		return BatchResult{Total: len(recipients), Failed: len(recipients), Errors: errs}
	}

	res := BatchResult{Total: len(recipients)}
	for start := 0; start < len(recipients); start += d.conf.Size {
		if start > 0 {
			d.sleep(d.conf.BatchDelay)
		}
		batch := recipients[start:min(start+d.conf.Size, len(recipients))]

		for _, attempt := range d.runChunked(batch, func(i int) SendAttemptResult {
			r := batch[i]
			id, err := d.sms.SendSMS(ctx, &core.SMSMessage{To: r.Email, Body: body})
			if err != nil {
				return SendAttemptResult{Recipient: r.Email, Error: err.Error()}
			}
			return SendAttemptResult{Recipient: r.Email, Success: true, MessageID: id}
		}) {
			if attempt.Success {
				res.Sent++
			} else {
				res.Failed++
				res.Errors = append(res.Errors, BatchError{Recipient: attempt.Recipient, Error: attempt.Error})
			}
		}
	}
	return res
}

// runChunked runs fn per recipient in concurrency-capped chunks, awaiting
// each chunk before starting the next. A panicking send is converted into a
// failed attempt so one recipient can never abort its siblings.
func (d *Dispatcher) runChunked(batch []Recipient, fn func(i int) SendAttemptResult) []SendAttemptResult {
	results := make([]SendAttemptResult, len(batch))
	for start := 0; start < len(batch); start += d.conf.ChunkSize {
		end := min(start+d.conf.ChunkSize, len(batch))
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						d.logger.Error(fmt.Sprintf("send to %s panicked: %v", batch[i].Email, r))
						results[i] = SendAttemptResult{Recipient: batch[i].Email, Error: fmt.Sprintf("panic: %v", r)}
					}
				}()
				results[i] = fn(i)
			}(i)
		}
		wg.Wait()
	}
	return results
}

func (d *Dispatcher) sendOne(ctx context.Context, r Recipient, tmpl Template, p Provider) SendAttemptResult {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: r.Name, Address: r.Email}},
		Subject:     tmpl.Subject,
		HTMLContent: tmpl.HTML,
		TextContent: tmpl.Text,
	}
	return d.sender.Send(ctx, msg, p)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
