package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/fieldhq/lead-dispatch/internal/infra/queue"
)

func NewEmailSender(host string, port int, user, password, from, sender string) *EmailSender {
	if from == "" {
		from = user
	}
	if sender == "" {
		sender = "Dispatch Team"
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		Sender:   sender,
	}
}

func (s *EmailSender) Name() string {
	return "email"
}

func (s *EmailSender) CanDeliver(task queue.OutreachTask) bool {
	return task.WorkerEmail != ""
}

// Deliver sends the job offer over SMTP. The send runs under the caller's
// deadline; hitting it counts as a transport failure.
func (s *EmailSender) Deliver(ctx context.Context, task queue.OutreachTask) error {
	subject, body, err := BuildJobOfferEmail(jobOfferData(task, s.Sender))
	if err != nil {
		return &queue.TransportError{Channel: s.Name(), Err: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", task.WorkerEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return &queue.TransportError{Channel: s.Name(), Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return &queue.TransportError{Channel: s.Name(), Err: fmt.Errorf("SMTP send failed: %w", err)}
		}
		return nil
	}
}

func jobOfferData(task queue.OutreachTask, sender string) JobOfferData {
	return JobOfferData{
		WorkerName: task.WorkerName,
		LeadName:   task.LeadName,
		City:       task.City,
		Service:    task.Service,
		DistanceKM: fmt.Sprintf("%.1f", task.DistanceKM),
		Sender:     sender,
	}
}
