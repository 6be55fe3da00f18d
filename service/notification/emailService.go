// Package notification is the fire-and-forget mail collaborator. Delivery
// failures are not retried by the callers.
package notification

import "log/slog"

type Email struct {
	Email string `json:"email"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type EmailService interface {
	SendEmail(mail Email) bool
}

type logEmailService struct {
	log *slog.Logger
}

// NewEmailService returns a sender that records the mail on the structured log
// instead of delivering it; the real gateway sits outside this backend.
func NewEmailService(log *slog.Logger) EmailService {
	return &logEmailService{log: log}
}

func (s *logEmailService) SendEmail(mail Email) bool {
	s.log.Info("sending email", "to", mail.Email, "title", mail.Title, "body", mail.Body)
	return true
}
