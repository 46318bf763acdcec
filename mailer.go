package identity

import (
	"context"
)

// Template identifiers the lifecycle flows deliver with.
const (
	TemplateConfirmEmail  = "verify_email"
	TemplateResetPassword = "reset_password"
)

// logMailer is the default MailSender: it records what would have been
// sent. Wire a real transport with Service.WithMailer.
type logMailer struct {
	logger Logger
}

func (m *logMailer) Send(ctx context.Context, recipient, templateID string, vars map[string]any) error {
	m.logger.Info("mail (noop)", "recipient", recipient, "template", templateID, "vars", vars)
	return nil
}
