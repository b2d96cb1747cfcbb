// Package mailer delivers outbound mail over SMTP.
package mailer

import (
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"
)

// Mailer sends HTML mail. It satisfies the auth package's Mailer interface.
type Mailer interface {
	Send(to, subject, body string) error
	SendFull(from string, to, cc, bcc []string, subject, body string, attachments []string) error
}

// SmtpConfig holds the SMTP relay credentials.
type SmtpConfig struct {
	Host     string
	Port     int
	Email    string
	Password string
}

type mailerImpl struct {
	cfg SmtpConfig
}

func NewMailer(cfg SmtpConfig) Mailer {
	return mailerImpl{cfg: cfg}
}

func (m mailerImpl) Send(to, subject, body string) error {
	return m.SendFull("", []string{to}, nil, nil, subject, body, nil)
}

func (m mailerImpl) SendFull(from string, to, cc, bcc []string, subject, body string, attachments []string) error {
	e := email.NewEmail()
	if from != "" {
		e.From = from
	} else {
		e.From = m.cfg.Email
	}
	e.To = to
	e.Cc = cc
	e.Bcc = bcc
	e.Subject = subject
	e.HTML = []byte(body)

	for _, attachment := range attachments {
		if _, err := e.AttachFile(attachment); err != nil {
			return err
		}
	}

	hostAndPort := strings.Join([]string{
		m.cfg.Host,
		strconv.Itoa(m.cfg.Port),
	}, ":")

	plainAuth := smtp.PlainAuth(
		"", // identity
		m.cfg.Email,
		m.cfg.Password,
		m.cfg.Host,
	)

	return e.Send(hostAndPort, plainAuth)
}
