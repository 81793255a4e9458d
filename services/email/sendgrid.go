package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/darasa/core"
)

// sendgridService delivers mail through the SendGrid v3 API. Messages
// are rendered and sent off the caller's goroutine.
type sendgridService struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		client:     sendgrid.NewSendClient(conf.SendgridApiKey),
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go svc.deliver(msg)
	}
}

func (svc sendgridService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	res, err := svc.client.Send(svc.build(*msg))
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
		return
	}
	if res.StatusCode >= http.StatusBadRequest {
		svc.logger.Error(fmt.Sprintf("sending email: status %d: %s", res.StatusCode, res.Body))
	}
}

func (svc sendgridService) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(asSGEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(asSGEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(asSGEmail(bcc))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	)
	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}
	return m
}

func asSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}
