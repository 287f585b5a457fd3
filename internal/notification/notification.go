package notification

import (
	"context"
	"log/slog"
	"sync"

	"github.com/delordemm1/go-otp-chat/internal/notification/templates"
)

type Channel string
type Priority string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Content holds the message body for each channel. A notification can carry
// content for several channels at once.
type Content struct {
	EmailSubject  string
	EmailHTMLBody string
	EmailTextBody string
	SMSText       string
}

// Notification is the universal object used to deliver a message.
type Notification struct {
	Recipient string // email address or phone number
	Channels  []Channel
	Priority  Priority
	Content   Content
}

// EmailSender delivers a rendered email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMSSender delivers a text message.
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}

// Service dispatches notifications to channel senders and renders scenario templates.
type Service interface {
	Send(ctx context.Context, n Notification) error
	RenderAny(ctx context.Context, id string, data any) (templates.Rendered, error)
}

// Dispatcher is the Service implementation. Sends are asynchronous; Wait blocks
// until every dispatched send has returned.
type Dispatcher struct {
	log      *slog.Logger
	email    EmailSender
	sms      SMSSender
	renderer templates.Renderer
	wg       sync.WaitGroup
}

// NewService creates a dispatcher. A nil email sender disables the email channel.
func NewService(log *slog.Logger, renderer templates.Renderer, email EmailSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{
		log:      log,
		email:    email,
		sms:      sms,
		renderer: renderer,
	}
}

// Send routes n to each of its channels on a separate goroutine and returns
// immediately. Failures are logged.
func (s *Dispatcher) Send(ctx context.Context, n Notification) error {
	// Delivery outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)
	for _, channel := range n.Channels {
		s.wg.Add(1)
		go func(ch Channel) {
			defer s.wg.Done()
			var err error
			switch ch {
			case ChannelEmail:
				if s.email == nil {
					s.log.Warn("email channel not configured, dropping notification", "recipient", n.Recipient)
					return
				}
				s.log.Info("dispatching email notification", "recipient", n.Recipient)
				err = s.email.Send(ctx, n.Recipient, n.Content.EmailSubject, n.Content.EmailHTMLBody, n.Content.EmailTextBody)
			case ChannelSMS:
				s.log.Info("dispatching sms notification", "recipient", n.Recipient)
				err = s.sms.Send(ctx, n.Recipient, n.Content.SMSText)
			default:
				s.log.Warn("unsupported notification channel", "channel", ch)
			}

			if err != nil {
				s.log.Error("failed to send notification", "channel", ch, "recipient", n.Recipient, "error", err)
			}
		}(channel)
	}
	return nil
}

func (s *Dispatcher) RenderAny(ctx context.Context, id string, data any) (templates.Rendered, error) {
	return s.renderer.RenderAny(ctx, id, data)
}

// Wait blocks until all in-flight sends have completed.
func (s *Dispatcher) Wait() {
	s.wg.Wait()
}

// SendTemplate renders the scenario behind h with data and dispatches the result.
func SendTemplate[T any](ctx context.Context, svc Service, h templates.Handle[T], recipient string, channels []Channel, priority Priority, data T) error {
	r, err := svc.RenderAny(ctx, h.ID(), data)
	if err != nil {
		return err
	}
	return svc.Send(ctx, Notification{
		Recipient: recipient,
		Channels:  channels,
		Priority:  priority,
		Content: Content{
			EmailSubject:  r.Subject,
			EmailHTMLBody: r.EmailHTML,
			EmailTextBody: r.EmailText,
			SMSText:       r.SMSText,
		},
	})
}
