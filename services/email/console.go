package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// SentMessages collects everything sent through the console service; test
	// helpers inspect it.
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// consoleService writes rendered messages to the standard logger instead of
// delivering them. It is the development and testing stand-in for SendGrid.
type consoleService struct {
	from          mail.Address
	subjPrefix    string
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		log.Fatalf("%+v", errors.Wrap(err, "rendering email"))
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	svc.dump(*msg)
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

func (svc consoleService) dump(msg core.EmailMessage) {
	if svc.disableOutput {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", svc.from.String())
	fmt.Fprintf(&b, "Date: %s\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Subject: %s\n", svc.subjPrefix+msg.Subject)
	fmt.Fprintf(&b, "To: %s\n", joinAddresses(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "CC: %s\n", joinAddresses(msg.Cc))
	}
	if len(msg.Bcc) > 0 {
		fmt.Fprintf(&b, "BCC: %s\n", joinAddresses(msg.Bcc))
	}
	fmt.Fprintf(&b, "\n%s\n", msg.TextContent)
	if msg.TemplateName != "" {
		fmt.Fprintf(&b, "\n--- html ---\n%s\n", msg.HTMLContent)
	}
	for _, at := range msg.Attachments {
		fmt.Fprintf(&b, "\n--- attachment: %s (%s) ---\n", at.Filename, at.ContentType)
	}
	log.Println(b.String())
}

func joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock sends synchronously and silently so tests can assert
// on SentMessages right after the call.
func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleServiceMock{
		consoleService: consoleService{
			from:          conf.DefaultFromEmail(),
			subjPrefix:    "[" + conf.AppName + "] ",
			disableOutput: true,
		},
	}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.sendMessage(msg)
	}
}
