package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) validate() error {
	if m.To == "" {
		return errors.New("mail recipient empty")
	}
	if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("mail headers must not contain line breaks")
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = (*LogMailer)(nil)
)

type SMTPParams struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
	// swapped in tests
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(params SMTPParams) *SMTPMailer {
	var auth smtp.Auth
	if params.Username != "" {
		auth = smtp.PlainAuth("", params.Username, params.Password, params.Host)
	}
	return &SMTPMailer{
		addr:     net.JoinHostPort(params.Host, strconv.Itoa(params.Port)),
		from:     params.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.sendMail(m.addr, m.auth, m.from, []string{msg.To}, m.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) compose(msg Message) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + m.from + "\r\n")
	sb.WriteString("To: " + msg.To + "\r\n")
	sb.WriteString("Subject: " + msg.Subject + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(msg.Body)
	return []byte(sb.String())
}

// LogMailer only logs messages. Used in development, and when SMTP is not configured.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Infof("mail (not sent): %s", msg.Body)
	return nil
}
