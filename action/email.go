package action

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/mohitkumar/autoflow/model"
)

var _ Handler = new(EmailHandler)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailHandler struct {
	conf     SMTPConfig
	sendMail sendMailFunc
}

func NewEmailHandler(conf SMTPConfig) *EmailHandler {
	return &EmailHandler{conf: conf, sendMail: smtp.SendMail}
}

func (h *EmailHandler) Kind() model.ActionKind {
	return model.ACTION_EMAIL
}

func (h *EmailHandler) Validate(params map[string]any) error {
	if _, err := stringList(params, "to"); err != nil {
		return err
	}
	if _, err := requireString(params, "subject"); err != nil {
		return err
	}
	if _, err := optionalString(params, "body"); err != nil {
		return err
	}
	_, err := optionalString(params, "from")
	return err
}

func (h *EmailHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	to, _ := stringList(params, "to")
	subject, _ := requireString(params, "subject")
	body, _ := optionalString(params, "body")
	from, _ := optionalString(params, "from")
	if from == "" {
		from = h.conf.From
	}
	msg := buildMessage(from, to, subject, body)
	addr := net.JoinHostPort(h.conf.Host, strconv.Itoa(h.conf.Port))
	var auth smtp.Auth
	if h.conf.Username != "" {
		auth = smtp.PlainAuth("", h.conf.Username, h.conf.Password, h.conf.Host)
	}

	// net/smtp has no context support, the send runs aside so that a timeout
	// or cancellation still fails the action on time.
	done := make(chan error, 1)
	go func() {
		done <- h.sendMail(addr, auth, from, to, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("failed to send email: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return map[string]any{"sent": true, "to": to}, nil
}

func buildMessage(from string, to []string, subject string, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	sb.WriteString("Subject: " + strings.ReplaceAll(subject, "\r\n", " ") + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
