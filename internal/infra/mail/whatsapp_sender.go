package mail

import (
	"context"

	"github.com/fieldhq/lead-dispatch/internal/infra/integration/whatsapp"
	"github.com/fieldhq/lead-dispatch/internal/infra/queue"
)

type WhatsAppSender struct {
	client *whatsapp.Client
	sender string
}

func NewWhatsAppSender(client *whatsapp.Client, sender string) *WhatsAppSender {
	if sender == "" {
		sender = "Dispatch Team"
	}
	return &WhatsAppSender{
		client: client,
		sender: sender,
	}
}

func (s *WhatsAppSender) Name() string {
	return "whatsapp"
}

func (s *WhatsAppSender) CanDeliver(task queue.OutreachTask) bool {
	return task.WorkerPhone != "" && s.client.Configured()
}

func (s *WhatsAppSender) Deliver(ctx context.Context, task queue.OutreachTask) error {
	body, err := BuildJobOfferText(jobOfferData(task, s.sender))
	if err != nil {
		return &queue.TransportError{Channel: s.Name(), Err: err}
	}

	input := whatsapp.SendTextInput{
		PhoneNumber: task.WorkerPhone,
		Body:        body,
	}

	if err := s.client.SendText(ctx, input); err != nil {
		return &queue.TransportError{Channel: s.Name(), Err: err}
	}

	return nil
}
