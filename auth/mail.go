package auth

import "fmt"

// MailDispatcher renders and sends the account emails. Every send is fire
// and forget: delivery failures are logged, never surfaced to the caller.
type MailDispatcher struct {
	mailer  Mailer
	appName string
	baseURL string
	logger  Logger
}

func NewMailDispatcher(mailer Mailer, appName, baseURL string) *MailDispatcher {
	return &MailDispatcher{
		mailer:  mailer,
		appName: appName,
		baseURL: baseURL,
		logger:  defLogger{},
	}
}

func (m *MailDispatcher) WithLogger(logger Logger) *MailDispatcher {
	m.logger = logger
	return m
}

// SendConfirmation delivers the verification link for a new account.
func (m *MailDispatcher) SendConfirmation(user *User, token string) {
	subject := fmt.Sprintf("Welcome to %s", m.appName)
	body := fmt.Sprintf(
		`<h1>Hello %s</h1>
<p>Thank you for joining %s. Please confirm your email address by clicking the link below.</p>
<p><a href="%s/confirmation/%s">Verify your account</a></p>`,
		user.Name, m.appName, m.baseURL, token,
	)

	m.send(user.Email, subject, body)
}

// SendAdminWelcome notifies a user that an administrator created an
// account for them.
func (m *MailDispatcher) SendAdminWelcome(user *User) {
	subject := fmt.Sprintf("Your %s account", m.appName)
	body := fmt.Sprintf(
		`<h1>Hello %s</h1>
<p>An account has been created for you on %s. You can log in at <a href="%s">%s</a>.</p>`,
		user.Name, m.appName, m.baseURL, m.baseURL,
	)

	m.send(user.Email, subject, body)
}

func (m *MailDispatcher) send(to, subject, body string) {
	go func() {
		if err := m.mailer.Send(to, subject, body); err != nil {
			m.logger.Error("failed to send email to %s: %v", to, err)
		}
	}()
}
